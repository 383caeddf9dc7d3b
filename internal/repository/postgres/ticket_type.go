package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"tours/internal/domain"
	"tours/internal/repository"
)

// TicketTypeRepository is a PostgreSQL implementation of repository.TicketTypeRepository.
type TicketTypeRepository struct {
	q  Querier
	db *sql.DB
	tx *sql.Tx
}

// NewTicketTypeRepository creates a new PostgreSQL ticket type repository.
func NewTicketTypeRepository(db *sql.DB) *TicketTypeRepository {
	return &TicketTypeRepository{q: db, db: db}
}

// NewTicketTypeRepositoryWithTx creates a ticket type repository using a transaction.
func NewTicketTypeRepositoryWithTx(tx *sql.Tx) *TicketTypeRepository {
	return &TicketTypeRepository{q: tx, tx: tx}
}

// Create persists a ticket type together with its tiers.
func (r *TicketTypeRepository) Create(ctx context.Context, tt *domain.TicketType) error {
	return withTx(ctx, r.db, r.tx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ticket_types (id, event_id, name, currency, capacity, sold, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, tt.ID, tt.EventID, tt.Name, tt.Currency, tt.Capacity, tt.Sold, tt.Active)
		if err != nil {
			return fmt.Errorf("insert ticket type: %w", err)
		}

		for _, tier := range tt.Tiers {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO pricing_tiers (id, ticket_type_id, name, price, starts_at, ends_at, capacity, sold)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, tier.ID, tt.ID, tier.Name, tier.Price, nullTime(tier.StartsAt), nullTime(tier.EndsAt), tier.Capacity, tier.Sold)
			if err != nil {
				return fmt.Errorf("insert tier %s: %w", tier.Name, err)
			}
		}
		return nil
	})
}

// GetByID retrieves a ticket type with its tiers.
func (r *TicketTypeRepository) GetByID(ctx context.Context, id string) (*domain.TicketType, error) {
	query := `SELECT id, event_id, name, currency, capacity, sold, active FROM ticket_types WHERE id = $1`

	var tt domain.TicketType
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&tt.ID, &tt.EventID, &tt.Name, &tt.Currency, &tt.Capacity, &tt.Sold, &tt.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	tiers, err := r.tiers(ctx, []string{tt.ID})
	if err != nil {
		return nil, err
	}
	tt.Tiers = tiers[tt.ID]
	return &tt, nil
}

// ListByEvent retrieves the ticket types of an event with their tiers.
func (r *TicketTypeRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	query := `
		SELECT id, event_id, name, currency, capacity, sold, active
		FROM ticket_types WHERE event_id = $1 AND active
		ORDER BY name
	`

	rows, err := r.q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		types []*domain.TicketType
		ids   []string
	)
	for rows.Next() {
		var tt domain.TicketType
		if err := rows.Scan(&tt.ID, &tt.EventID, &tt.Name, &tt.Currency, &tt.Capacity, &tt.Sold, &tt.Active); err != nil {
			return nil, err
		}
		types = append(types, &tt)
		ids = append(ids, tt.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return types, nil
	}

	tiers, err := r.tiers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, tt := range types {
		tt.Tiers = tiers[tt.ID]
	}
	return types, nil
}

func (r *TicketTypeRepository) tiers(ctx context.Context, typeIDs []string) (map[string][]domain.PricingTier, error) {
	query := `
		SELECT id, ticket_type_id, name, price, starts_at, ends_at, capacity, sold
		FROM pricing_tiers
		WHERE ticket_type_id = ANY($1::uuid[])
		ORDER BY price, name
	`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(typeIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.PricingTier, len(typeIDs))
	for rows.Next() {
		var (
			tier     domain.PricingTier
			startsAt sql.NullTime
			endsAt   sql.NullTime
		)
		if err := rows.Scan(&tier.ID, &tier.TicketTypeID, &tier.Name, &tier.Price, &startsAt, &endsAt, &tier.Capacity, &tier.Sold); err != nil {
			return nil, err
		}
		if startsAt.Valid {
			tier.StartsAt = startsAt.Time
		}
		if endsAt.Valid {
			tier.EndsAt = endsAt.Time
		}
		out[tier.TicketTypeID] = append(out[tier.TicketTypeID], tier)
	}
	return out, rows.Err()
}
