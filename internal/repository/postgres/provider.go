package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"tours/internal/domain"
	"tours/internal/repository"
)

// ProviderRepository is a PostgreSQL implementation of repository.ProviderRepository.
type ProviderRepository struct {
	q Querier
}

// NewProviderRepository creates a new PostgreSQL provider repository.
func NewProviderRepository(db *sql.DB) *ProviderRepository {
	return &ProviderRepository{q: db}
}

// List retrieves all providers ordered by priority.
func (r *ProviderRepository) List(ctx context.Context) ([]*domain.PaymentProvider, error) {
	query := `
		SELECT code, name, active, sandbox, priority, capabilities
		FROM payment_providers
		ORDER BY priority, code
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []*domain.PaymentProvider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}
	return providers, rows.Err()
}

// GetByCode retrieves a provider by code.
func (r *ProviderRepository) GetByCode(ctx context.Context, code string) (*domain.PaymentProvider, error) {
	query := `
		SELECT code, name, active, sandbox, priority, capabilities
		FROM payment_providers WHERE code = $1
	`

	provider, err := scanProvider(r.q.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return provider, nil
}

// Upsert creates or replaces a provider.
func (r *ProviderRepository) Upsert(ctx context.Context, provider *domain.PaymentProvider) error {
	capabilities, err := marshalJSON(provider.Capabilities, "[]")
	if err != nil {
		return fmt.Errorf("marshal capabilities: %w", err)
	}

	query := `
		INSERT INTO payment_providers (code, name, active, sandbox, priority, capabilities, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			sandbox = EXCLUDED.sandbox,
			priority = EXCLUDED.priority,
			capabilities = EXCLUDED.capabilities,
			updated_at = NOW()
	`

	_, err = r.q.ExecContext(ctx, query,
		provider.Code,
		provider.Name,
		provider.Active,
		provider.Sandbox,
		provider.Priority,
		string(capabilities),
	)
	return err
}

func scanProvider(row rowScanner) (*domain.PaymentProvider, error) {
	var (
		provider     domain.PaymentProvider
		capabilities []byte
	)

	if err := row.Scan(
		&provider.Code,
		&provider.Name,
		&provider.Active,
		&provider.Sandbox,
		&provider.Priority,
		&capabilities,
	); err != nil {
		return nil, err
	}

	if len(capabilities) > 0 {
		if err := json.Unmarshal(capabilities, &provider.Capabilities); err != nil {
			return nil, fmt.Errorf("decode capabilities of %s: %w", provider.Code, err)
		}
	}
	return &provider, nil
}
