package loggingmw

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Skotchmaster/baseball_stats/pkg/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Config struct {
	Logger *slog.Logger
	// QuietPrefixes lists path prefixes whose successful requests are logged at debug.
	QuietPrefixes []string
	// SlowThreshold promotes successful requests slower than this to warn. Zero disables it.
	SlowThreshold time.Duration
}

func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return RequestLoggerWithConfig(Config{
		Logger:        base,
		QuietPrefixes: []string{"/health", "/metrics"},
		SlowThreshold: 2 * time.Second,
	})
}

// RequestLoggerWithConfig binds a request-scoped logger (request id, method,
// route) into the request context and writes one request_completed line per
// request. Handler errors are rendered here so the logged status is final.
func RequestLoggerWithConfig(cfg Config) echo.MiddlewareFunc {
	base := cfg.Logger
	if base == nil {
		base = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()

			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = res.Header().Get(echo.HeaderXRequestID)
			}
			if rid == "" {
				rid = uuid.NewString()
			}
			res.Header().Set(echo.HeaderXRequestID, rid)

			l := base.With(
				"request_id", rid,
				"method", req.Method,
				"route", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
			)
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			dur := time.Since(start)

			attrs := []any{"status", res.Status, "duration_ms", dur.Milliseconds(), "bytes", res.Size}
			switch {
			case res.Status >= 500:
				l.Error("request_completed", append(attrs, "error", err)...)
			case res.Status >= 400:
				l.Warn("request_completed", append(attrs, "error", err)...)
			case cfg.SlowThreshold > 0 && dur > cfg.SlowThreshold:
				l.Warn("request_completed", append(attrs, "reason", "slow request")...)
			case quiet(req.URL.Path, cfg.QuietPrefixes):
				l.Debug("request_completed", attrs...)
			default:
				l.Info("request_completed", attrs...)
			}
			return nil
		}
	}
}

func quiet(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
