// Package notify builds the notification records that accompany lifecycle
// transitions and ratings, and enforces that only the recipient may touch
// a notification afterwards. It never persists anything itself.
package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/mone/internal/model"
)

// Emitter produces notifications. The zero value is usable: it stamps
// records with the current UTC time and random uuids.
type Emitter struct {
	Clock func() time.Time
	NewID func() string
}

func (e Emitter) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

func (e Emitter) id() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e Emitter) build(userID string, req model.Request, title, body string) model.Notification {
	return model.Notification{
		ID:        e.id(),
		UserID:    userID,
		RequestID: req.ID,
		Title:     title,
		Body:      body,
		CreatedAt: e.now(),
	}
}

// ForTransition returns one notification per party that starts waiting
// because of the transition from before to after. audience is consulted
// only for ActionCreate: it lists the users that can now pick the request
// up (moderators, or zone companions in self-service deployments).
func (e Emitter) ForTransition(action model.Action, before, after model.Request, audience []model.User) []model.Notification {
	var out []model.Notification
	add := func(userID, title, body string) {
		if userID == "" {
			return
		}
		for _, n := range out {
			if n.UserID == userID {
				return
			}
		}
		out = append(out, e.build(userID, after, title, body))
	}

	switch action {
	case model.ActionCreate:
		for _, u := range audience {
			add(u.ID, "Nueva solicitud", fmt.Sprintf("%s en %s (%s).", after.Type, after.Zone, after.When))
		}
	case model.ActionAssign:
		add(after.CompanionID, "Nueva asignación",
			fmt.Sprintf("Te han asignado: %s en %s (%s). Acepta o rechaza.", after.Type, after.Zone, after.When))
	case model.ActionAccept:
		add(after.AccompaniedID, "Acompañamiento confirmado",
			fmt.Sprintf("Tu solicitud de %s (%s) ya tiene acompañante.", after.Type, after.When))
		add(after.AssignedBy, "Asignación aceptada",
			fmt.Sprintf("La asignación de %s en %s fue aceptada.", after.Type, after.Zone))
	case model.ActionReject:
		add(before.AssignedBy, "Asignación rechazada",
			fmt.Sprintf("La solicitud de %s en %s vuelve a la cola.", after.Type, after.Zone))
		add(after.AccompaniedID, "Buscando acompañante",
			fmt.Sprintf("Estamos buscando otro acompañante para %s (%s).", after.Type, after.When))
	case model.ActionClaim:
		add(after.AccompaniedID, "Acompañamiento confirmado",
			fmt.Sprintf("Un acompañante ha tomado tu solicitud de %s (%s).", after.Type, after.When))
	case model.ActionRequestClose:
		add(after.AccompaniedID, "Confirma la finalización",
			fmt.Sprintf("El acompañamiento de %s (%s) se ha marcado como finalizado.", after.Type, after.When))
	case model.ActionConfirmClose:
		add(after.CompanionID, "Acompañamiento completado",
			fmt.Sprintf("%s (%s) quedó completado. Ya puedes valorarlo.", after.Type, after.When))
	}
	return out
}

// ForRating notifies the rated user.
func (e Emitter) ForRating(r model.Rating, req model.Request) model.Notification {
	return e.build(r.ToUserID, req, "Nueva valoración",
		fmt.Sprintf("Has recibido %d/5 por %s (%s).", r.Score, req.Type, req.When))
}

// CheckOwner returns ErrForbidden unless callerID owns n.
func CheckOwner(n model.Notification, callerID string) error {
	if n.UserID != callerID {
		return fmt.Errorf("notification %s: %w", n.ID, model.ErrForbidden)
	}
	return nil
}

// MarkRead returns n marked read on behalf of callerID. changed is false
// when n was already read, which makes the operation idempotent.
func MarkRead(n model.Notification, callerID string) (out model.Notification, changed bool, err error) {
	if err := CheckOwner(n, callerID); err != nil {
		return n, false, err
	}
	if n.Read {
		return n, false, nil
	}
	n.Read = true
	return n, true, nil
}
