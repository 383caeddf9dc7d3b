package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tours/internal/domain"
	"tours/internal/repository"
)

// ActivityRepository is a PostgreSQL implementation of repository.ActivityRepository.
type ActivityRepository struct {
	q Querier
}

// NewActivityRepository creates a new PostgreSQL activity repository.
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{q: db}
}

// Create appends an activity entry.
func (r *ActivityRepository) Create(ctx context.Context, a *domain.Activity) error {
	query := `INSERT INTO activities (id, kind, subject_id, message, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, a.ID, a.Kind, a.SubjectID, a.Message, a.CreatedAt)
	return err
}

// ListRecent retrieves the newest activity entries.
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Activity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, kind, subject_id, message, created_at
		FROM activities ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.Kind, &a.SubjectID, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}

// AdminRepository is a PostgreSQL implementation of repository.AdminRepository.
type AdminRepository struct {
	q Querier
}

// NewAdminRepository creates a new PostgreSQL admin repository.
func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{q: db}
}

// GetByEmail retrieves an admin by email, case-insensitively.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	query := `SELECT id, email, password_hash, active FROM admins WHERE LOWER(email) = LOWER($1)`

	var a domain.Admin
	err := r.q.QueryRowContext(ctx, query, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
