package middleware

import (
	"context"
	"net/http"

	"clubsync/internal/common"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// AdminJWTConfig guards the admin listing endpoints. Tokens are HS256 with
// the admin subject in the standard sub claim; the subject is threaded into
// the request context for downstream handlers.
func AdminJWTConfig(jwtSecret string) echojwt.Config {
	return echojwt.Config{
		SigningKey: []byte(jwtSecret),
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				return
			}
			ctx := context.WithValue(c.Request().Context(), common.AdminUserKey, sub)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}
}
