package invitation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new invitation. Returns ErrAlreadyInvited when a row
	// for (email, role) exists, whatever its status.
	Create(ctx context.Context, inv *Invitation) error

	// GetPending retrieves an invitation only if it is still pending. Unknown
	// id and non-pending status both surface as ErrNotFound; callers must not
	// learn which.
	GetPending(ctx context.Context, id uuid.UUID) (*Invitation, error)

	Update(ctx context.Context, inv *Invitation) error

	// Delete removes the row; the compensating action when the invitation
	// email cannot be delivered.
	Delete(ctx context.Context, inv *Invitation) error

	ListPending(ctx context.Context) ([]*Invitation, error)

	CountPending(ctx context.Context) (int64, error)
}
