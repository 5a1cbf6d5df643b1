// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// parsing driver error strings: a missing referenced entity maps to an
// HTTP 404, a unique-constraint violation to a 400/409, and everything
// else to a generic 500 whose detail is only logged server-side.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEmailExists is returned when a signup collides with an existing
// account. Handlers should translate this into an HTTP 400 response
// without revealing whether the address belongs to someone else.
var ErrEmailExists = errors.New("email already exists")

// ErrProductNotFound is returned when a referenced product does not
// exist, either on direct lookup or before writing a cart line.
var ErrProductNotFound = errors.New("product not found")

// ErrOrderNotFound is returned when an order id does not resolve to a row.
var ErrOrderNotFound = errors.New("order not found")

// ErrCartLineNotFound is returned when a cart removal targets a
// (user, product) pair that has no line.
var ErrCartLineNotFound = errors.New("cart line not found")

// ErrUnknownCategory is returned when a product write names a category
// outside the closed categories table.  Category keys are never
// interpolated into SQL; they only ever resolve through this lookup.
var ErrUnknownCategory = errors.New("unknown category")

// MySQL server error numbers the repositories care about.
const (
	mysqlErrDuplicateEntry  = 1062 // unique constraint violation
	mysqlErrNoReferencedRow = 1452 // foreign key violation on insert/update
)

func isMySQLErr(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}

// IsDuplicateEntry reports whether err is a unique-constraint violation.
func IsDuplicateEntry(err error) bool { return isMySQLErr(err, mysqlErrDuplicateEntry) }

// IsForeignKeyViolation reports whether err is a failed foreign key
// reference, e.g. an order item pointing at a product that was removed.
func IsForeignKeyViolation(err error) bool { return isMySQLErr(err, mysqlErrNoReferencedRow) }
