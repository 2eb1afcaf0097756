package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mone/internal/middleware"
	"github.com/iliyamo/mone/internal/model"
)

// registerRequests registers the request lifecycle endpoints. Each route
// admits the role that performs the action; the coordinator still checks
// variant, ownership and zone.
func registerRequests(g *echo.Group, d Deps) {
	h := d.Requests
	rl := d.rateLimit()
	accompanied := middleware.RequireRole(model.RoleAccompanied)
	companion := middleware.RequireRole(model.RoleCompanion)

	g.POST("/requests", h.Create, accompanied, rl)
	g.POST("/requests/:id/assign", h.Assign, middleware.RequireRole(model.RoleModerator), rl)
	g.POST("/requests/:id/claim", h.Claim, companion, rl)
	g.POST("/requests/:id/accept", h.Accept, companion, rl)
	g.POST("/requests/:id/reject", h.Reject, companion, rl)
	g.POST("/requests/:id/close-request", h.RequestClose, companion, rl)
	g.POST("/requests/:id/confirm-close", h.ConfirmClose, accompanied, rl)
	g.POST("/requests/:id/ratings", h.Rate, middleware.RequireRole(model.RoleAccompanied, model.RoleCompanion), rl)
}

// registerViews registers the read-only projections. Responses are cached
// per caller until the next mutation.
func registerViews(g *echo.Group, d Deps) {
	h := d.Views
	c := d.cache()

	g.GET("/snapshot", h.Snapshot, c)
	g.GET("/my/requests", h.MyRequests, c)
	g.GET("/queue", h.Queue, middleware.RequireRole(model.RoleModerator, model.RoleCompanion), c)
	g.GET("/dashboard", h.Dashboard, middleware.RequireRole(model.RoleModerator), c)
	g.GET("/zones/:zone/companions", h.Companions, middleware.RequireRole(model.RoleModerator, model.RoleAdmin), c)
}
