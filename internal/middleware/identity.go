package middleware

import "github.com/labstack/echo/v4"

// UserIDKey is the context key JWTAuth stores the verified subject under.
const UserIDKey = "user_id"

// CurrentUser returns the authenticated username, or "" on public routes.
func CurrentUser(c echo.Context) string {
	if s, ok := c.Get(UserIDKey).(string); ok {
		return s
	}
	return ""
}
