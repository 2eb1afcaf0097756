package handler // HTTP handlers of the coordination API

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/mone/internal/middleware"
	"github.com/iliyamo/mone/internal/model"
)

// requestTimeout bounds the store work of a single HTTP request.
const requestTimeout = 5 * time.Second

var statusByKind = map[model.Kind]int{
	model.KindNotFound:          http.StatusNotFound,
	model.KindForbidden:         http.StatusForbidden,
	model.KindNotParticipant:    http.StatusForbidden,
	model.KindInvalidTransition: http.StatusConflict,
	model.KindInvalidState:      http.StatusConflict,
	model.KindAlreadyRated:      http.StatusConflict,
	model.KindConflict:          http.StatusConflict,
	model.KindInvalidScore:      http.StatusBadRequest,
	model.KindValidation:        http.StatusBadRequest,
}

// respondError writes {"error": kind, "message": text}. Internal errors
// are logged and their text is not exposed.
func respondError(c echo.Context, err error) error {
	kind := model.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": string(model.KindInternal), "message": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": string(kind), "message": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": string(model.KindValidation), "message": msg})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// callerID is the authenticated user id set by middleware.JWTAuth.
func callerID(c echo.Context) string { return middleware.UserID(c) }
