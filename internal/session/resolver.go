package session

import (
	"context"
	"fmt"

	"github.com/counselhub/counselhub/internal/types"
)

// Role is the position an actor holds within one session. Distinct from a
// profile's directory role: a counselor profile is still the patient side
// of a session it booked for itself.
type Role string

const (
	RoleCounselor Role = "counselor"
	RolePatient   Role = "patient"
)

// Authorizer is the single choke point for session access: every message
// read or write and every event subscription authorizes through it.
type Authorizer interface {
	Authorize(ctx context.Context, sessionId string, actorId int) (Role, error)
	ResolveCounterparty(ctx context.Context, sessionId string, actorId int) (int, error)
}

// Resolver derives an actor's role from a session's participant set. Pure
// and stateless: the participant set is re-fetched on every call, so
// restarts and concurrent instances need no coordination.
type Resolver struct {
	store *Store
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) Authorize(ctx context.Context, sessionId string, actorId int) (Role, error) {
	participants, err := r.store.GetParticipants(ctx, sessionId)
	if err != nil {
		return "", err
	}

	switch actorId {
	case participants.CounselorId:
		return RoleCounselor, nil
	case participants.PatientId:
		return RolePatient, nil
	}

	return "", fmt.Errorf("%w: session %s", types.ErrForbidden, sessionId)
}

// ResolveCounterparty returns the other participant of the session,
// used to default a message's recipient.
func (r *Resolver) ResolveCounterparty(ctx context.Context, sessionId string, actorId int) (int, error) {
	participants, err := r.store.GetParticipants(ctx, sessionId)
	if err != nil {
		return 0, err
	}

	switch actorId {
	case participants.CounselorId:
		return participants.PatientId, nil
	case participants.PatientId:
		return participants.CounselorId, nil
	}

	return 0, fmt.Errorf("%w: session %s", types.ErrForbidden, sessionId)
}
