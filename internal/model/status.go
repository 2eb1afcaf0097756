package model

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a Request.
type Status string

const (
	StatusNew               Status = "NEW"
	StatusPendingAcceptance Status = "PENDING_ACCEPTANCE"
	StatusAccepted          Status = "ACCEPTED"
	StatusRejected          Status = "REJECTED"
	StatusCloseRequested    Status = "CLOSE_REQUESTED"
	StatusCompleted         Status = "COMPLETED"
)

// legacyStatus maps the labels written by the spreadsheet backend.
var legacyStatus = map[string]Status{
	"NUEVA":                StatusNew,
	"PENDIENTE_ACEPTACION": StatusPendingAcceptance,
	"ACEPTADA":             StatusAccepted,
	"RECHAZADA":            StatusRejected,
	"CIERRE_SOLICITADO":    StatusCloseRequested,
	"COMPLETADA":           StatusCompleted,
}

// ParseStatus converts a stored or transmitted status into a Status.
func ParseStatus(s string) (Status, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch st := Status(u); st {
	case StatusNew, StatusPendingAcceptance, StatusAccepted, StatusRejected, StatusCloseRequested, StatusCompleted:
		return st, nil
	}
	if st, ok := legacyStatus[u]; ok {
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// StoredForms returns every spelling of s that a stored row may hold: the
// canonical name, then the legacy label.
func (s Status) StoredForms() []string {
	out := []string{string(s)}
	for label, st := range legacyStatus {
		if st == s {
			out = append(out, label)
		}
	}
	return out
}

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool { return s == StatusCompleted }

// InVariant reports whether s can occur in deployments of variant v.
func (s Status) InVariant(v Variant) bool {
	switch s {
	case StatusPendingAcceptance, StatusRejected:
		return v == Moderated
	case StatusNew, StatusAccepted, StatusCloseRequested, StatusCompleted:
		return true
	}
	return false
}

// Label is the short Spanish text shown next to a request.
func (s Status) Label() string {
	switch s {
	case StatusNew:
		return "Nueva"
	case StatusPendingAcceptance:
		return "Pendiente"
	case StatusAccepted:
		return "Confirmada"
	case StatusRejected:
		return "Rechazada"
	case StatusCloseRequested:
		return "Cierre solicitado"
	case StatusCompleted:
		return "Completada"
	}
	return string(s)
}
