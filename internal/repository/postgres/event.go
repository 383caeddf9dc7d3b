package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tours/internal/domain"
	"tours/internal/repository"
)

// EventRepository is a PostgreSQL implementation of repository.EventRepository.
type EventRepository struct {
	q Querier
}

// NewEventRepository creates a new PostgreSQL event repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{q: db}
}

// Create adds a new event.
func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (id, destination_id, title, venue, description, starts_at, ends_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		e.ID, nullString(e.DestinationID), e.Title, e.Venue, e.Description,
		e.StartsAt, nullTime(e.EndsAt), e.Active,
	)
	return err
}

// GetByID retrieves an event by ID.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, destination_id, title, venue, description, starts_at, ends_at, active
		FROM events WHERE id = $1
	`

	e, err := scanEvent(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// List retrieves active events ordered by start, optionally for one destination.
func (r *EventRepository) List(ctx context.Context, destinationID string) ([]*domain.Event, error) {
	query := `
		SELECT id, destination_id, title, venue, description, starts_at, ends_at, active
		FROM events
		WHERE active AND ($1 = '' OR destination_id::text = $1)
		ORDER BY starts_at
	`

	rows, err := r.q.QueryContext(ctx, query, destinationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var (
		e             domain.Event
		destinationID sql.NullString
		endsAt        sql.NullTime
	)
	if err := row.Scan(&e.ID, &destinationID, &e.Title, &e.Venue, &e.Description, &e.StartsAt, &endsAt, &e.Active); err != nil {
		return nil, err
	}
	e.DestinationID = destinationID.String
	if endsAt.Valid {
		e.EndsAt = endsAt.Time
	}
	return &e, nil
}
