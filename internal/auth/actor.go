// Package auth resolves the current actor of a request. Sign-in itself is
// handled by the external identity provider, which hands out the access
// tokens validated here.
package auth

import (
	"context"

	"github.com/google/uuid"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/model"
)

// Actor is who is performing the current operation.
type Actor struct {
	ID    uuid.UUID
	Email string
	Role  string
}

// ActorFromProfile builds the actor of a loaded profile.
func ActorFromProfile(p model.Profile) Actor {
	return Actor{ID: p.ID, Email: p.Email, Role: p.Role}
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// CanPostJobs reports whether the actor may create job postings.
func (a Actor) CanPostJobs() bool {
	return a.Role == model.RoleFaculty || a.IsAdmin()
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.ID == uuid.Nil {
		return Actor{}, false
	}
	return actor, true
}

// CurrentActor is ActorFromContext failing with ErrAuthenticationRequired when nobody is signed in.
func CurrentActor(ctx context.Context) (Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return Actor{}, apperror.ErrAuthenticationRequired
	}
	return actor, nil
}
