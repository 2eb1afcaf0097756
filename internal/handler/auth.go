package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/service"
	"github.com/iliyamo/mone/internal/utils"
)

// AuthHandler signs users in. There are no passwords: a user is
// identified by name, role and zone, and staff roles may additionally need
// the shared passcode.
type AuthHandler struct {
	Svc          *service.Coordinator
	JWTSecret    string
	AccessTTLMin int
}

func NewAuthHandler(svc *service.Coordinator, secret string, ttlMin int) *AuthHandler {
	return &AuthHandler{Svc: svc, JWTSecret: secret, AccessTTLMin: ttlMin}
}

type enterReq struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Zone     string `json:"zone"`
	Passcode string `json:"passcode"`
}

type enterResp struct {
	User   model.User        `json:"user"`
	Access utils.AccessToken `json:"access"`
	Rating string            `json:"rating"`
}

// Enter handles POST /v1/enter: find or create the user and issue an
// access token.
func (h *AuthHandler) Enter(c echo.Context) error {
	var req enterReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Svc.Enter(ctx, service.EnterInput{Name: req.Name, Role: role, Zone: req.Zone, Passcode: req.Passcode})
	if err != nil {
		return respondError(c, err)
	}
	tok, err := utils.NewAccessToken(h.JWTSecret, u.ID, u.Role.String(), h.AccessTTLMin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, enterResp{User: u, Access: tok, Rating: u.RatingLabel()})
}

// Me handles GET /v1/me.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Svc.Me(ctx, callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u, "rating": u.RatingLabel()})
}
