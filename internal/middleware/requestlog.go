package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/teetime-booking/internal/logging"
)

// RequestLogger gives every request a correlation id and a logrus entry in
// its context, and logs one line per request once it completes.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(logging.CorrelationIDHeader)
			if id == "" {
				id = logging.NewCorrelationID()
			}
			c.Response().Header().Set(logging.CorrelationIDHeader, id)

			entry := logrus.WithFields(logrus.Fields{
				"correlation_id": id,
				"method":         req.Method,
				"path":           req.URL.Path,
			})
			ctx := logging.ContextWithCorrelationID(req.Context(), id)
			ctx = logging.ToContext(ctx, entry)
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"status":      c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_ip":   c.RealIP(),
			}
			switch status := c.Response().Status; {
			case status >= 500:
				entry.WithFields(fields).Error("request")
			case status >= 400:
				entry.WithFields(fields).Warn("request")
			default:
				entry.WithFields(fields).Info("request")
			}
			return nil
		}
	}
}
