package repository

import (
	"context"
	"time"

	"tours/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByReference retrieves a payment by its public reference.
	GetByReference(ctx context.Context, reference string) (*domain.Payment, error)

	// GetByIdempotencyKey retrieves a payment by its idempotency key.
	// Returns nil if no payment exists with the given key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)

	// GetOpenByPurpose retrieves the pending or processing payment of a
	// booking or purchase. Returns nil if there is none. At most one such
	// payment exists per order; Create returns ErrConflict for a second.
	GetOpenByPurpose(ctx context.Context, kind domain.PurposeKind, purposeID string) (*domain.Payment, error)

	// Transition moves a payment from one status to another. It returns
	// ErrStaleState when the stored status is not from. The returned payment
	// reflects the stored row after the update.
	Transition(ctx context.Context, change StatusChange) (*domain.Payment, error)

	// ListDue returns processing payments last updated at or before cutoff,
	// oldest first.
	ListDue(ctx context.Context, cutoff time.Time, sandboxOnly bool, limit int) ([]*domain.Payment, error)

	// List returns payments matching the filter, newest first.
	List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, error)
}

// StatusChange describes a compare-and-set payment transition.
type StatusChange struct {
	Reference         string
	From              domain.PaymentStatus
	To                domain.PaymentStatus
	ProviderReference string
	FailureReason     string
	Metadata          map[string]any
	At                time.Time
}
