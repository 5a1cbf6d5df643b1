// Package middleware contains reusable HTTP middleware: authentication,
// role checks, response caching and rate limiting.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth validates a Bearer access token signed with HS256 and injects
// the subject and role claims into the request context under "user_id"
// and "role". The secret must match the one used when issuing tokens.
// Protected routes wrap themselves with this so handlers can read the
// authenticated identity via c.Get.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// Only HMAC is acceptable; anything else is an attack
				// or a misconfigured client.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid claims"})
			}

			// sub is issued as a numeric string; normalize to uint64 so
			// handlers get a consistent type.
			if sub, ok := claims["sub"].(string); ok {
				if id, err := strconv.ParseUint(sub, 10, 64); err == nil {
					c.Set("user_id", id)
				}
			}
			c.Set("role", claims["role"])
			return next(c)
		}
	}
}
