package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mone/internal/lifecycle"
	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/service"
)

// RequestHandler exposes request lifecycle transitions.
type RequestHandler struct {
	Svc *service.Coordinator
}

func NewRequestHandler(svc *service.Coordinator) *RequestHandler {
	return &RequestHandler{Svc: svc}
}

type createReq struct {
	Type string `json:"type"`
	When string `json:"when"`
}

type assignReq struct {
	CompanionID string `json:"companion_id"`
}

type transitionResp struct {
	Request  model.Request       `json:"request"`
	Warnings []lifecycle.Warning `json:"warnings,omitempty"`
	Notified int                 `json:"notified"`
}

func writeTransition(c echo.Context, status int, t lifecycle.Transition) error {
	return c.JSON(status, transitionResp{Request: t.After, Warnings: t.Warnings, Notified: len(t.Notifications)})
}

// Create handles POST /v1/requests.
func (h *RequestHandler) Create(c echo.Context) error {
	var req createReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Svc.CreateRequest(ctx, callerID(c), req.Type, req.When)
	if err != nil {
		return respondError(c, err)
	}
	return writeTransition(c, http.StatusCreated, t)
}

// Assign handles POST /v1/requests/:id/assign.
func (h *RequestHandler) Assign(c echo.Context) error {
	var req assignReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.CompanionID == "" {
		return badRequest(c, "companion_id is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Svc.Assign(ctx, callerID(c), c.Param("id"), req.CompanionID)
	if err != nil {
		return respondError(c, err)
	}
	return writeTransition(c, http.StatusOK, t)
}

type actorTransition func(ctx context.Context, actorID, requestID string) (lifecycle.Transition, error)

// transition adapts a caller-driven coordinator operation to a handler.
func transition(op actorTransition) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := reqCtx(c)
		defer cancel()

		t, err := op(ctx, callerID(c), c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return writeTransition(c, http.StatusOK, t)
	}
}

// Claim handles POST /v1/requests/:id/claim.
func (h *RequestHandler) Claim(c echo.Context) error { return transition(h.Svc.Claim)(c) }

// Accept handles POST /v1/requests/:id/accept.
func (h *RequestHandler) Accept(c echo.Context) error { return transition(h.Svc.Accept)(c) }

// Reject handles POST /v1/requests/:id/reject.
func (h *RequestHandler) Reject(c echo.Context) error { return transition(h.Svc.Reject)(c) }

// RequestClose handles POST /v1/requests/:id/close-request.
func (h *RequestHandler) RequestClose(c echo.Context) error {
	return transition(h.Svc.RequestClose)(c)
}

// ConfirmClose handles POST /v1/requests/:id/confirm-close.
func (h *RequestHandler) ConfirmClose(c echo.Context) error {
	return transition(h.Svc.ConfirmClose)(c)
}

type ratingReq struct {
	ToUserID string `json:"to_user_id"`
	Score    int    `json:"score"`
}

// Rate handles POST /v1/requests/:id/ratings.
func (h *RequestHandler) Rate(c echo.Context) error {
	var req ratingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.Svc.SubmitRating(ctx, callerID(c), c.Param("id"), req.ToUserID, req.Score)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"rating": r})
}
