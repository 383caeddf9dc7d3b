package repository

import (
	"context"

	"tours/internal/domain"
)

// ProviderRepository defines the persistence operations for payment providers.
type ProviderRepository interface {
	// List retrieves all providers, active or not.
	List(ctx context.Context) ([]*domain.PaymentProvider, error)

	// GetByCode retrieves a provider by code.
	GetByCode(ctx context.Context, code string) (*domain.PaymentProvider, error)

	// Upsert creates or replaces a provider.
	Upsert(ctx context.Context, provider *domain.PaymentProvider) error
}
