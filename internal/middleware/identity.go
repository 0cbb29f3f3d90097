package middleware

// identity.go resolves who is calling, for rate-limit keys and request
// logs.  Admin requests carry the token subject set by JWTAuth; public
// callers are anonymous and are told apart by IP only.

import (
	"github.com/labstack/echo/v4"
)

// subject returns the admin email from the context, or "anon".
func subject(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	return "anon"
}
