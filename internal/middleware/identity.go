package middleware

// identity.go holds helpers shared across middleware files.

import "github.com/labstack/echo/v4"

// currentUserID returns the authenticated user's id from the context,
// or "anon" for unauthenticated requests.  Used for rate-limit keys.
func currentUserID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	return "anon"
}
