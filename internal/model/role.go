package model

import (
	"fmt"
	"sort"
	"strings"
)

// Role is the closed set of user roles. The zero value is not a valid role.
type Role uint8

const (
	RoleAccompanied Role = iota + 1
	RoleCompanion
	RoleModerator
	RoleAdmin
)

// Roles lists every role in declaration order.
var Roles = []Role{RoleAccompanied, RoleCompanion, RoleModerator, RoleAdmin}

func (r Role) String() string {
	switch r {
	case RoleAccompanied:
		return "accompanied"
	case RoleCompanion:
		return "companion"
	case RoleModerator:
		return "moderator"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool { return r >= RoleAccompanied && r <= RoleAdmin }

// IsStaff reports whether the role mediates other users' work.
func (r Role) IsStaff() bool { return r == RoleModerator || r == RoleAdmin }

// legacyRole maps the labels used by the spreadsheet-backed deployment.
var legacyRole = map[string]Role{
	"acompañado":    RoleAccompanied,
	"acompanado":    RoleAccompanied,
	"acompañante":   RoleCompanion,
	"acompanante":   RoleCompanion,
	"moderador":     RoleModerator,
	"administrador": RoleAdmin,
}

// ParseRole accepts the canonical names and the legacy labels
// (acompañado, acompañante, moderador, administrador).
func ParseRole(s string) (Role, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	for _, r := range Roles {
		if k == r.String() {
			return r, nil
		}
	}
	if r, ok := legacyRole[k]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

// StoredForms returns every spelling of r that a stored row may hold: the
// canonical name first, then the legacy labels in sorted order.
func (r Role) StoredForms() []string {
	out := []string{r.String()}
	var legacy []string
	for label, lr := range legacyRole {
		if lr == r {
			legacy = append(legacy, label)
		}
	}
	sort.Strings(legacy)
	return append(out, legacy...)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return []byte{}, nil
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Variant selects how a request enters service.
type Variant uint8

const (
	// Moderated deployments have a moderator assign companions.
	Moderated Variant = iota + 1
	// SelfService deployments let zone-matching companions claim requests.
	SelfService
)

func (v Variant) String() string {
	switch v {
	case Moderated:
		return "moderated"
	case SelfService:
		return "self_service"
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

// ParseVariant parses the APP_VARIANT configuration value.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "moderated", "moderado":
		return Moderated, nil
	case "self_service", "self-service", "selfservice":
		return SelfService, nil
	}
	return 0, fmt.Errorf("%w: unknown variant %q", ErrValidation, s)
}

// AllowsRole reports whether users of role r may exist in this variant.
// Moderators and admins are mutually exclusive across variants.
func (v Variant) AllowsRole(r Role) bool {
	switch r {
	case RoleAccompanied, RoleCompanion:
		return true
	case RoleModerator:
		return v == Moderated
	case RoleAdmin:
		return v == SelfService
	}
	return false
}
