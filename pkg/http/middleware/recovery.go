package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"SmartFolio/pkg/logger"
)

// Recovery converts handler panics into 500 responses.
func Recovery(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error("handler panicked",
						logger.String("path", c.Path()),
						logger.Any("panic", r))
					_ = c.JSON(http.StatusInternalServerError, map[string]any{
						"success": false,
						"error":   "internal error",
					})
				}
			}()
			return next(c)
		}
	}
}
