package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"tours/internal/domain"
	"tours/internal/repository"
)

const destinationColumns = `id, slug, name, country, city, description, lat, lng, base_price, currency, active, created_at`

// DestinationRepository is a PostgreSQL implementation of repository.DestinationRepository.
type DestinationRepository struct {
	q Querier
}

// NewDestinationRepository creates a new PostgreSQL destination repository.
func NewDestinationRepository(db *sql.DB) *DestinationRepository {
	return &DestinationRepository{q: db}
}

// Create adds a new destination.
func (r *DestinationRepository) Create(ctx context.Context, d *domain.Destination) error {
	query := `
		INSERT INTO destinations (id, slug, name, country, city, description, lat, lng, base_price, currency, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		d.ID, d.Slug, d.Name, d.Country, d.City, d.Description,
		d.Lat, d.Lng, d.BasePrice, d.Currency, d.Active, d.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

// GetByID retrieves a destination by ID.
func (r *DestinationRepository) GetByID(ctx context.Context, id string) (*domain.Destination, error) {
	return r.getOne(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE id = $1`, id)
}

// GetBySlug retrieves a destination by slug.
func (r *DestinationRepository) GetBySlug(ctx context.Context, slug string) (*domain.Destination, error) {
	return r.getOne(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE slug = $1`, slug)
}

// List retrieves active destinations, optionally filtered by country.
func (r *DestinationRepository) List(ctx context.Context, country string) ([]*domain.Destination, error) {
	query := `
		SELECT ` + destinationColumns + `
		FROM destinations
		WHERE active AND ($1 = '' OR LOWER(country) = LOWER($1))
		ORDER BY name
	`
	return r.list(ctx, query, country)
}

// ListByIDs retrieves destinations preserving the order of ids.
func (r *DestinationRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Destination, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + destinationColumns + ` FROM destinations WHERE id = ANY($1::uuid[]) AND active`
	found, err := r.list(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Destination, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}

	ordered := make([]*domain.Destination, 0, len(found))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			ordered = append(ordered, d)
		}
	}
	return ordered, nil
}

func (r *DestinationRepository) getOne(ctx context.Context, query string, arg any) (*domain.Destination, error) {
	d, err := scanDestination(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DestinationRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Destination, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var destinations []*domain.Destination
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, err
		}
		destinations = append(destinations, d)
	}
	return destinations, rows.Err()
}

func scanDestination(row rowScanner) (*domain.Destination, error) {
	var d domain.Destination
	err := row.Scan(
		&d.ID, &d.Slug, &d.Name, &d.Country, &d.City, &d.Description,
		&d.Lat, &d.Lng, &d.BasePrice, &d.Currency, &d.Active, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
