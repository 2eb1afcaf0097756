package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"accompanied": RoleAccompanied,
		"acompañado":  RoleAccompanied,
		"Companion":   RoleCompanion,
		"acompañante": RoleCompanion,
		" moderador ": RoleModerator,
		"admin":       RoleAdmin,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRole("owner")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStoredForms(t *testing.T) {
	assert.Equal(t, []string{"accompanied", "acompanado", "acompañado"}, RoleAccompanied.StoredForms())
	assert.Equal(t, []string{"moderator", "moderador"}, RoleModerator.StoredForms())
	assert.Equal(t, []string{"NEW", "NUEVA"}, StatusNew.StoredForms())
	assert.Equal(t, []string{"CLOSE_REQUESTED", "CIERRE_SOLICITADO"}, StatusCloseRequested.StoredForms())
	for _, r := range Roles {
		for _, f := range r.StoredForms() {
			got, err := ParseRole(f)
			require.NoError(t, err, f)
			assert.Equal(t, r, got, f)
		}
	}
}

func TestRoleJSON(t *testing.T) {
	b, err := json.Marshal(User{ID: "u1", Role: RoleCompanion})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"role":"companion"`)

	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u2","role":"moderador"}`), &u))
	assert.Equal(t, RoleModerator, u.Role)
}

func TestVariantAllowsRole(t *testing.T) {
	assert.True(t, Moderated.AllowsRole(RoleModerator))
	assert.False(t, Moderated.AllowsRole(RoleAdmin))
	assert.True(t, SelfService.AllowsRole(RoleAdmin))
	assert.False(t, SelfService.AllowsRole(RoleModerator))
	for _, v := range []Variant{Moderated, SelfService} {
		assert.True(t, v.AllowsRole(RoleAccompanied))
		assert.True(t, v.AllowsRole(RoleCompanion))
	}
}

func TestParseStatusAcceptsLegacyLabels(t *testing.T) {
	st, err := ParseStatus("CIERRE_SOLICITADO")
	require.NoError(t, err)
	assert.Equal(t, StatusCloseRequested, st)

	st, err = ParseStatus("accepted")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, st)

	_, err = ParseStatus("CANCELLED")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStatusInVariant(t *testing.T) {
	assert.False(t, StatusPendingAcceptance.InVariant(SelfService))
	assert.False(t, StatusRejected.InVariant(SelfService))
	assert.True(t, StatusRejected.InVariant(Moderated))
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusRejected.Terminal())
}

func TestRatingLabel(t *testing.T) {
	assert.Equal(t, NoRatingsLabel, User{}.RatingLabel())
	assert.Equal(t, "5.0 / 5 (1)", User{RatingSum: 5, RatingCount: 1}.RatingLabel())
	assert.Equal(t, "4.5 / 5 (2)", User{RatingSum: 9, RatingCount: 2}.RatingLabel())
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("true"))
	assert.True(t, ParseBool("TRUE"))
	assert.True(t, ParseBool("1"))
	assert.False(t, ParseBool(""))
	assert.False(t, ParseBool("false"))
	assert.False(t, ParseBool("nope"))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindAlreadyRated, KindOf(fmt.Errorf("request r1: %w", ErrAlreadyRated)))
	assert.Equal(t, KindConflict, KindOf(ErrConflict))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestRequestParticipants(t *testing.T) {
	r := Request{AccompaniedID: "a", CompanionID: "c"}
	assert.True(t, r.IsParticipant("a"))
	assert.True(t, r.IsParticipant("c"))
	assert.False(t, r.IsParticipant("m"))
	assert.False(t, r.IsParticipant(""))
	assert.Equal(t, "c", r.Counterpart("a"))
	assert.Equal(t, "a", r.Counterpart("c"))
	assert.Equal(t, "", r.Counterpart("m"))
}
