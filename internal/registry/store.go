package registry

import (
	"context"

	"facepos/internal/domain"
	id "facepos/pkg/domain"
)

// Store is the durable set of enrolled identities. Implementations return
// sentinel errors; ordering matters: List returns identities in enrollment
// order (oldest first), which the resolver's first-match policy depends on.
type Store interface {
	Save(ctx context.Context, identity domain.Identity) error
	Find(ctx context.Context, accountID id.AccountID) (domain.Identity, error)
	List(ctx context.Context) ([]domain.Identity, error)
	Delete(ctx context.Context, accountID id.AccountID) error
}
