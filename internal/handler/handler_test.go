package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/mone/internal/handler"
	"github.com/iliyamo/mone/internal/memstore"
	"github.com/iliyamo/mone/internal/model"
	"github.com/iliyamo/mone/internal/router"
	"github.com/iliyamo/mone/internal/service"
)

const secret = "test-secret"

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T, v model.Variant) *api {
	svc := service.New(memstore.New(), v)
	e := echo.New()
	router.RegisterRoutes(e, router.Deps{
		Auth:          handler.NewAuthHandler(svc, secret, 15),
		Requests:      handler.NewRequestHandler(svc),
		Views:         handler.NewViewHandler(svc),
		Notifications: handler.NewNotificationHandler(svc),
		Admin:         handler.NewAdminHandler(svc),
		JWTSecret:     secret,
	})
	return &api{t: t, e: e}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

type session struct {
	ID    string
	Token string
}

func (a *api) enter(name, role, zone string) session {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/v1/enter", "", echo.Map{"name": name, "role": role, "zone": zone})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(a.t, out.Access.Token)
	return session{ID: out.User.ID, Token: out.Access.Token}
}

type transitionBody struct {
	Request struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		CompanionID string `json:"companion_id"`
	} `json:"request"`
	Warnings []string `json:"warnings"`
	Notified int      `json:"notified"`
}

func decodeTransition(t *testing.T, rec *httptest.ResponseRecorder) transitionBody {
	t.Helper()
	var out transitionBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out.Error
}

func TestModeratedFlowOverHTTP(t *testing.T) {
	a := newAPI(t, model.Moderated)
	mod := a.enter("Marta", "moderator", "")
	ana := a.enter("Ana", "accompanied", "Centro")
	carlos := a.enter("Carlos", "companion", "Centro")

	rec := a.do(http.MethodPost, "/v1/requests", ana.Token, echo.Map{"type": "errand", "when": "monday 10:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeTransition(t, rec)
	assert.Equal(t, "NEW", created.Request.Status)
	assert.Equal(t, 1, created.Notified)
	id := created.Request.ID

	rec = a.do(http.MethodGet, "/v1/queue", mod.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var q struct {
		Requests []struct {
			ID string `json:"id"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	require.Len(t, q.Requests, 1)
	assert.Equal(t, id, q.Requests[0].ID)

	rec = a.do(http.MethodPost, "/v1/requests/"+id+"/assign", mod.Token, echo.Map{"companion_id": carlos.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assigned := decodeTransition(t, rec)
	assert.Equal(t, "PENDING_ACCEPTANCE", assigned.Request.Status)
	assert.Equal(t, carlos.ID, assigned.Request.CompanionID)

	companionNameSeenBy := func(tok string) string {
		rec := a.do(http.MethodGet, "/v1/snapshot", tok, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var snap struct {
			Requests []struct {
				ID            string `json:"id"`
				CompanionName string `json:"companion_name"`
			} `json:"requests"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		require.Len(t, snap.Requests, 1)
		return snap.Requests[0].CompanionName
	}
	assert.Empty(t, companionNameSeenBy(ana.Token))
	assert.Equal(t, "Carlos", companionNameSeenBy(mod.Token))

	for _, step := range []struct {
		path   string
		token  string
		status string
	}{
		{"/accept", carlos.Token, "ACCEPTED"},
		{"/close-request", carlos.Token, "CLOSE_REQUESTED"},
		{"/confirm-close", ana.Token, "COMPLETED"},
	} {
		rec = a.do(http.MethodPost, "/v1/requests/"+id+step.path, step.token, nil)
		require.Equal(t, http.StatusOK, rec.Code, step.path+": "+rec.Body.String())
		assert.Equal(t, step.status, decodeTransition(t, rec).Request.Status)
	}

	assert.Equal(t, "Carlos", companionNameSeenBy(ana.Token))

	rec = a.do(http.MethodPost, "/v1/requests/"+id+"/ratings", ana.Token, echo.Map{"to_user_id": carlos.ID, "score": 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/v1/requests/"+id+"/ratings", ana.Token, echo.Map{"to_user_id": carlos.ID, "score": 4})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_rated", errorKind(t, rec))

	rec = a.do(http.MethodGet, "/v1/me", carlos.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Rating string `json:"rating"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "5.0 / 5 (1)", me.Rating)

	rec = a.do(http.MethodGet, "/v1/snapshot", carlos.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap struct {
		Variant string            `json:"variant"`
		Labels  map[string]string `json:"rating_labels"`
		Actions []string          `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "moderated", snap.Variant)
	assert.Equal(t, []string{"accept", "reject", "request_close"}, snap.Actions)
	assert.Equal(t, "5.0 / 5 (1)", snap.Labels[carlos.ID])
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t, model.Moderated)
	mod := a.enter("Marta", "moderator", "")
	ana := a.enter("Ana", "accompanied", "Centro")
	carlos := a.enter("Carlos", "companion", "Centro")

	rec := a.do(http.MethodPost, "/v1/requests", ana.Token, echo.Map{"type": "errand", "when": "tuesday"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeTransition(t, rec).Request.ID

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		kind   string
	}{
		{"missing token", http.MethodGet, "/v1/me", "", nil, http.StatusUnauthorized, "unauthorized"},
		{"bad token", http.MethodGet, "/v1/me", "not-a-jwt", nil, http.StatusUnauthorized, "unauthorized"},
		{"companion cannot assign", http.MethodPost, "/v1/requests/" + id + "/assign", carlos.Token, echo.Map{"companion_id": carlos.ID}, http.StatusForbidden, "forbidden"},
		{"unknown request", http.MethodPost, "/v1/requests/nope/accept", carlos.Token, nil, http.StatusNotFound, "not_found"},
		{"accept before assignment", http.MethodPost, "/v1/requests/" + id + "/accept", carlos.Token, nil, http.StatusConflict, "invalid_transition"},
		{"assign needs companion", http.MethodPost, "/v1/requests/" + id + "/assign", mod.Token, echo.Map{}, http.StatusBadRequest, "validation_error"},
		{"score out of range", http.MethodPost, "/v1/requests/" + id + "/ratings", ana.Token, echo.Map{"to_user_id": carlos.ID, "score": 9}, http.StatusBadRequest, "invalid_score"},
		{"rating before completion", http.MethodPost, "/v1/requests/" + id + "/ratings", ana.Token, echo.Map{"to_user_id": carlos.ID, "score": 4}, http.StatusConflict, "invalid_state"},
		{"dashboard is for moderators", http.MethodGet, "/v1/dashboard", ana.Token, nil, http.StatusForbidden, "forbidden"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.do(tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.kind, errorKind(t, rec))
		})
	}
}

func TestEnterRejectsRoleOutsideVariant(t *testing.T) {
	a := newAPI(t, model.SelfService)

	rec := a.do(http.MethodPost, "/v1/enter", "", echo.Map{"name": "Marta", "role": "moderator"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorKind(t, rec))

	rec = a.do(http.MethodPost, "/v1/enter", "", echo.Map{"name": "Ana", "role": "pilot", "zone": "Centro"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	first := a.enter("Ana", "acompañado", "Centro")
	again := a.enter("ana", "accompanied", "Centro")
	assert.Equal(t, first.ID, again.ID)
}

func TestNotificationsOverHTTP(t *testing.T) {
	a := newAPI(t, model.Moderated)
	mod := a.enter("Marta", "moderator", "")
	ana := a.enter("Ana", "accompanied", "Centro")

	rec := a.do(http.MethodPost, "/v1/requests", ana.Token, echo.Map{"type": "walk", "when": "friday"})
	require.Equal(t, http.StatusCreated, rec.Code)

	unread := func(tok string) int {
		rec := a.do(http.MethodGet, "/v1/notifications/unread-count", tok, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			Unread int `json:"unread"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out.Unread
	}
	assert.Equal(t, 1, unread(mod.Token))
	assert.Equal(t, 0, unread(ana.Token))

	rec = a.do(http.MethodPost, "/v1/notifications/read-all", mod.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, unread(mod.Token))

	rec = a.do(http.MethodDelete, "/v1/notifications", mod.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cleared struct {
		Deleted int `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	assert.Equal(t, 1, cleared.Deleted)
}

func TestAdminVerifiesCompanion(t *testing.T) {
	a := newAPI(t, model.SelfService)
	admin := a.enter("Root", "admin", "")
	carlos := a.enter("Carlos", "companion", "Centro")

	rec := a.do(http.MethodPut, "/v1/admin/users/"+carlos.ID+"/verified", admin.Token, echo.Map{"verified": "TRUE"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		User struct {
			Verified bool `json:"verified"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.User.Verified)

	rec = a.do(http.MethodPut, "/v1/admin/users/"+carlos.ID+"/verified", carlos.Token, echo.Map{"verified": false})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealth(t *testing.T) {
	a := newAPI(t, model.Moderated)
	rec := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
