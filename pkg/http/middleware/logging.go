package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"SmartFolio/pkg/logger"
)

// RequestLogging logs one line per request with method, path, status and
// latency.
func RequestLogging(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			log.Info("request",
				logger.String("method", c.Request().Method),
				logger.String("path", c.Request().URL.Path),
				logger.Int("status", status),
				logger.Duration("took", time.Since(start)))
			return err
		}
	}
}
