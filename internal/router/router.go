package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mone/internal/handler"
	"github.com/iliyamo/mone/internal/metrics"
	"github.com/iliyamo/mone/internal/middleware"
)

// Deps bundles the handlers and shared middleware the routes need.
// RateLimit guards mutations and Cache wraps read-only projections; both
// may be nil.
type Deps struct {
	Auth          *handler.AuthHandler
	Requests      *handler.RequestHandler
	Views         *handler.ViewHandler
	Notifications *handler.NotificationHandler
	Admin         *handler.AdminHandler
	JWTSecret     string
	RateLimit     echo.MiddlewareFunc
	Cache         echo.MiddlewareFunc
}

func (d Deps) rateLimit() echo.MiddlewareFunc {
	if d.RateLimit == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return d.RateLimit
}

func (d Deps) cache() echo.MiddlewareFunc {
	if d.Cache == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return d.Cache
}

// RegisterRoutes registers every route of the API on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	// Unauthenticated probes.
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	e.POST("/v1/enter", d.Auth.Enter, d.rateLimit())

	g := e.Group("/v1", middleware.JWTAuth(d.JWTSecret))
	g.GET("/me", d.Auth.Me)

	registerViews(g, d)
	registerRequests(g, d)
	registerNotifications(g, d)
	registerAdmin(g, d)
}
