package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mone/internal/middleware"
	"github.com/iliyamo/mone/internal/model"
)

// registerNotifications registers the caller's notification endpoints.
// Any authenticated role may use them; ownership is checked per item.
func registerNotifications(g *echo.Group, d Deps) {
	h := d.Notifications
	rl := d.rateLimit()

	g.GET("/notifications/unread-count", h.UnreadCount, d.cache())
	g.POST("/notifications/read-all", h.MarkAllRead, rl)
	g.POST("/notifications/:id/read", h.MarkRead, rl)
	g.DELETE("/notifications", h.Clear, rl)
}

// registerAdmin registers admin-only endpoints.
func registerAdmin(g *echo.Group, d Deps) {
	g.PUT("/admin/users/:id/verified", d.Admin.SetVerified, middleware.RequireRole(model.RoleAdmin), d.rateLimit())
}
