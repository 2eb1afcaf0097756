package observability

import (
	"io"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global zerolog logger: a console writer in
// development, JSON lines otherwise.
func InitLogger(serviceName string, development bool) {
	log.Logger = NewLogger(os.Stdout, serviceName, development)
}

// NewLogger builds a logger writing to w.
func NewLogger(w io.Writer, serviceName string, development bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if development {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Str("service", serviceName).
			Logger()
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger()
}

// GetLogger returns the global logger
func GetLogger() *zerolog.Logger {
	return &log.Logger
}

// RequestLogger logs one line per HTTP request with the route template,
// status and latency. Requests to skip (health probes, metrics scrapes)
// are not logged.
func RequestLogger(logger zerolog.Logger, skip ...string) echo.MiddlewareFunc {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if skipped[route] {
				return nil
			}
			status := c.Response().Status
			ev := logger.Info()
			switch {
			case status >= 500:
				ev = logger.Error().Err(err)
			case status >= 400:
				ev = logger.Warn()
			}
			ev.Str("method", c.Request().Method).
				Str("route", route).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("user_id", userIDOf(c)).
				Msg("http request")
			return nil
		}
	}
}

func userIDOf(c echo.Context) string {
	s, _ := c.Get("user_id").(string)
	return s
}
