package middleware

import (
	"context"

	"clubsync/internal/common"

	"github.com/labstack/echo/v4"
)

// RequestContext captures the client IP and user agent once per request and
// threads them through the request context, replacing any reliance on
// ambient per-request globals further down the stack.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			info := common.RequestInfo{
				ClientIP:  c.RealIP(),
				UserAgent: c.Request().UserAgent(),
			}
			ctx := context.WithValue(c.Request().Context(), common.RequestInfoKey, info)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
