package middleware

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/bnema/appupdate/internal/logging"
)

// RequestLogger logs one line per request and attaches a request-scoped
// logger to the request context for downstream layers.
func RequestLogger(logger *log.Logger) echo.MiddlewareFunc {
	logger = logger.With(logging.FieldLayer, "adapter", logging.FieldAdapter, "http")

	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:       true,
		LogURIPath:      true,
		LogMethod:       true,
		LogLatency:      true,
		LogRemoteIP:     true,
		LogRequestID:    true,
		LogResponseSize: true,
		LogError:        true,
		HandleError:     true,
		BeforeNextFunc: func(c echo.Context) {
			reqLog := logger.With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithContext(req.Context(), reqLog)))
		},
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			keyvals := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
				"bytes_out", v.ResponseSize,
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				logger.Error("request", append(keyvals, "error", v.Error)...)
			case v.Status >= http.StatusBadRequest:
				logger.Warn("request", keyvals...)
			default:
				logger.Info("request", keyvals...)
			}
			return nil
		},
	})
}
