package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// AdminToken derives the bearer token the admin panel holds after login.
// The token format (base64 of email:password) is fixed by the dashboard
// client and must not change.
func AdminToken(email, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + password))
}

// AdminAuth guards the admin read endpoints with a constant-time compare
// of the Authorization bearer token.
func AdminAuth(email, password string) echo.MiddlewareFunc {
	expected := []byte(AdminToken(email, password))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
			}
			return next(c)
		}
	}
}
