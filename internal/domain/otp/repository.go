package otp

import "context"

type Repository interface {
	Create(ctx context.Context, v *Verification) error

	// LatestUnused returns the most recently created unused row matching
	// (email, code). Returns ErrNotFound when no such row exists.
	LatestUnused(ctx context.Context, email, code string) (*Verification, error)

	// MarkUsed flips a single row to used.
	MarkUsed(ctx context.Context, v *Verification) error

	// InvalidateUnused marks every unused row for the email used. Called on
	// re-issuance so only the fresh code can verify.
	InvalidateUnused(ctx context.Context, email string) error

	// InvalidateAll marks every row for the email used, regardless of prior
	// state. Called when registration completes.
	InvalidateAll(ctx context.Context, email string) error

	// HasUsed reports whether a used row exists for the email. A used row is
	// the proof that the address was verified.
	HasUsed(ctx context.Context, email string) (bool, error)

	// Delete removes a row outright; the compensating action when the code
	// email cannot be delivered.
	Delete(ctx context.Context, v *Verification) error
}
