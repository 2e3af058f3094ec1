package middleware

// identity.go holds helpers shared across middleware files. currentUserID
// renders the authenticated user's ID for rate-limit key building; it
// returns "anon" for unauthenticated requests so pre-login endpoints are
// keyed purely by client address.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts a printable user identifier from context.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case uint64:
		if v != 0 {
			return strconv.FormatUint(v, 10)
		}
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}
