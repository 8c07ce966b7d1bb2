package middleware // reusable HTTP middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TokenVerifier returns the subject of a valid token. utils.TokenService
// satisfies it.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// JWTAuth gates a route on a bearer token. The header is split on whitespace
// and the second field is taken as the token, so the scheme word itself is
// not checked. On success the subject is stored under "user_id".
func JWTAuth(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			fields := strings.Fields(c.Request().Header.Get(echo.HeaderAuthorization))
			if len(fields) < 2 {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":   "missing_token",
					"message": "no token, permission denied",
				})
			}

			subject, err := tokens.Verify(fields[1])
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error":   "invalid_token",
					"message": "token is not valid",
				})
			}

			c.Set(UserIDKey, subject)
			return next(c)
		}
	}
}
