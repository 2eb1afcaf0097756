package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mone/internal/model"
)

// RequireRole lets the request through only when the role stored by
// JWTAuth is one of roles. Legacy role labels in the token are accepted.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, err := model.ParseRole(Role(c))
			if err != nil || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": string(model.KindForbidden), "message": "role not allowed"})
			}
			return next(c)
		}
	}
}
