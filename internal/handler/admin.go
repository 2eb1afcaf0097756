package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/service"
)

// AdminHandler covers the admin-only operations of self-service
// deployments.
type AdminHandler struct {
	Svc *service.Coordinator
}

func NewAdminHandler(svc *service.Coordinator) *AdminHandler {
	return &AdminHandler{Svc: svc}
}

type verifyReq struct {
	// Verified accepts JSON booleans and the string forms older clients
	// send ("TRUE", "1").
	Verified json.RawMessage `json:"verified"`
}

// SetVerified handles PUT /v1/admin/users/:id/verified.
func (h *AdminHandler) SetVerified(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil || len(req.Verified) == 0 {
		return badRequest(c, "verified is required")
	}
	verified := model.ParseBool(strings.Trim(string(req.Verified), `"`))

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Svc.SetUserVerified(ctx, callerID(c), c.Param("id"), verified)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}
