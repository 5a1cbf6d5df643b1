package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dangoo/shop-backend/internal/config"
	"github.com/dangoo/shop-backend/internal/repository"
	"github.com/dangoo/shop-backend/internal/utils"
)

var userColumns = []string{"id", "email", "password_hash", "role", "oauth_subject", "is_active", "created_at", "updated_at"}

var mysqlDuplicate = mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'uq_users_email'"}

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4, // MinCost keeps the test fast
	}
	return NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), mock
}

func TestSignupValidatesBeforeTouchingTheDatabase(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"password mismatch", `{"email":"a@b.c","password":"pw1","confirmPassword":"pw2"}`, "Passwords do not match"},
		{"missing email", `{"password":"pw","confirmPassword":"pw"}`, "email and password are required"},
		{"missing confirm", `{"email":"a@b.c","password":"pw"}`, "email and password are required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, mock := newAuthHandler(t)
			c, rec := postJSON("/api/signup", tc.body)
			require.NoError(t, h.Signup(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSignupDuplicateEmailStaysGeneric(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysqlDuplicate)

	c, rec := postJSON("/api/signup", `{"email":"a@b.c","password":"pw","confirmPassword":"pw"}`)
	require.NoError(t, h.Signup(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration failed")
	// Neither the duplicate key name nor the email may leak.
	assert.NotContains(t, rec.Body.String(), "uq_users_email")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	h, mock := newAuthHandler(t)

	// Unknown email: the users query returns no rows.
	mock.ExpectQuery("FROM users WHERE email=").
		WithArgs("ghost@b.c").
		WillReturnRows(sqlmock.NewRows(userColumns))

	c, rec := postJSON("/api/login", `{"email":"ghost@b.c","password":"pw"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")

	// Known email, wrong password: same status, same message.
	hash, err := utils.HashPassword("right-password", 4)
	require.NoError(t, err)
	mock.ExpectQuery("FROM users WHERE email=").
		WithArgs("a@b.c").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "a@b.c", hash, "CUSTOMER", nil, true, time.Now(), time.Now()))

	c2, rec2 := postJSON("/api/login", `{"email":"a@b.c","password":"wrong-password"}`)
	require.NoError(t, h.Login(c2))
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
	assert.Contains(t, rec2.Body.String(), "Invalid email or password")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginIssuesTokenPairAndStoresRefreshHash(t *testing.T) {
	h, mock := newAuthHandler(t)

	hash, err := utils.HashPassword("correct horse", 4)
	require.NoError(t, err)

	mock.ExpectQuery("FROM users WHERE email=").
		WithArgs("a@b.c").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "a@b.c", hash, "CUSTOMER", nil, true, time.Now(), time.Now()))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := postJSON("/api/login", `{"email":"A@B.C","password":"correct horse"}`)
	require.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Login successful")
	assert.Contains(t, body, `"token"`)
	// The stored password hash must never be echoed.
	assert.NotContains(t, body, hash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangePasswordRejectsWrongOldPassword(t *testing.T) {
	h, mock := newAuthHandler(t)

	hash, err := utils.HashPassword("old-password", 4)
	require.NoError(t, err)
	mock.ExpectQuery("FROM users WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "a@b.c", hash, "CUSTOMER", nil, true, time.Now(), time.Now()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/password/change",
		strings.NewReader(`{"old_password":"guess","new_password":"brand-new"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(1))

	require.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
