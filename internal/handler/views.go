package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mone/internal/lifecycle"
	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/service"
)

// ViewHandler serves read-only projections of the current snapshot.
type ViewHandler struct {
	Svc *service.Coordinator
}

func NewViewHandler(svc *service.Coordinator) *ViewHandler {
	return &ViewHandler{Svc: svc}
}

type snapshotResp struct {
	model.Snapshot
	Variant string            `json:"variant"`
	Labels  map[string]string `json:"rating_labels"`
	Actions []model.Action    `json:"actions"`
}

// Snapshot handles GET /v1/snapshot: everything the caller may see, with
// display labels for each user's rating and the actions the caller's role
// performs.
func (h *ViewHandler) Snapshot(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	snap, err := h.Svc.Reload(ctx, callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	labels := make(map[string]string, len(snap.Users))
	for _, u := range snap.Users {
		labels[u.ID] = u.RatingLabel()
	}
	actions := lifecycle.ActionsFor(h.Svc.Variant(), snap.Me.Role)
	if actions == nil {
		actions = []model.Action{}
	}
	return c.JSON(http.StatusOK, snapshotResp{
		Snapshot: snap,
		Variant:  h.Svc.Variant().String(),
		Labels:   labels,
		Actions:  actions,
	})
}

// Queue handles GET /v1/queue.
func (h *ViewHandler) Queue(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	rs, err := h.Svc.Queue(ctx, callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": nonNil(rs)})
}

// Dashboard handles GET /v1/dashboard.
func (h *ViewHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Svc.Dashboard(ctx, callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Companions handles GET /v1/zones/:zone/companions.
func (h *ViewHandler) Companions(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	us, err := h.Svc.EligibleCompanions(ctx, callerID(c), c.Param("zone"))
	if err != nil {
		return respondError(c, err)
	}
	if us == nil {
		us = []model.User{}
	}
	return c.JSON(http.StatusOK, echo.Map{"companions": us})
}

// MyRequests handles GET /v1/my/requests.
func (h *ViewHandler) MyRequests(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Svc.RequestsFor(ctx, callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func nonNil(rs []model.Request) []model.Request {
	if rs == nil {
		return []model.Request{}
	}
	return rs
}
