package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

// Identity is the authenticated session actor. The booking core trusts the id
// it is handed; authentication happens at the edge.
type Identity struct {
	ID   uuid.UUID
	Role domain.RecipientRole
}

type identityKey struct{}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
