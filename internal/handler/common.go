package handler // handler defines http handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Every response in this API is a JSON envelope carrying a success flag;
// failures additionally carry a human-readable message.  jsonOK and
// jsonFail keep the two shapes consistent across handlers.  Error
// messages sent to clients are always generic; raw database error text
// stays in the server log.

func jsonOK(c echo.Context, status int, extra echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(status, body)
}

func jsonFail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message})
}

// dbCtxTimeout bounds every handler's database work.
const dbCtxTimeout = 5 * time.Second

// dbCtx derives the context handlers pass to repositories: the request
// context capped at dbCtxTimeout so a stalled database never pins a
// request goroutine indefinitely.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbCtxTimeout)
}

// getUserID extracts the user_id set by the JWT middleware from the
// echo context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter, rejecting zero and garbage.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
