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

const bookingColumns = `id, reference, kind, target_id, customer_name, customer_email, customer_phone,
	guests, travel_date, add_ons, total_amount, currency, status, payment_reference, created_at, updated_at`

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	addOns, err := marshalJSON(b.AddOns, "[]")
	if err != nil {
		return fmt.Errorf("marshal add-ons: %w", err)
	}

	query := `
		INSERT INTO bookings (id, reference, kind, target_id, customer_name, customer_email, customer_phone,
			guests, travel_date, add_ons, total_amount, currency, status, payment_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
	`

	_, err = r.q.ExecContext(ctx, query,
		b.ID,
		b.Reference,
		b.Kind,
		b.TargetID,
		b.Customer.Name,
		b.Customer.Email,
		b.Customer.Phone,
		b.Guests,
		nullTime(b.TravelDate),
		string(addOns),
		b.TotalAmount,
		b.Currency,
		b.Status,
		nullString(b.PaymentReference),
		b.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

// GetByReference retrieves a booking by its public reference.
func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference = $1`, reference)
}

// List retrieves bookings newest first.
func (r *BookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, string(filter.Status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateStatus moves a booking from one status to another.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) error {
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrStaleState
	}

	return nil
}

// SetPaymentReference links the booking to its latest checkout.
func (r *BookingRepository) SetPaymentReference(ctx context.Context, id, reference string) error {
	query := `UPDATE bookings SET payment_reference = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, reference, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *BookingRepository) getOne(ctx context.Context, query string, arg any) (*domain.Booking, error) {
	b, err := scanBooking(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b          domain.Booking
		travelDate sql.NullTime
		addOns     []byte
		paymentRef sql.NullString
	)

	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.Kind,
		&b.TargetID,
		&b.Customer.Name,
		&b.Customer.Email,
		&b.Customer.Phone,
		&b.Guests,
		&travelDate,
		&addOns,
		&b.TotalAmount,
		&b.Currency,
		&b.Status,
		&paymentRef,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if travelDate.Valid {
		b.TravelDate = travelDate.Time
	}
	b.PaymentReference = paymentRef.String
	if len(addOns) > 0 {
		if err := json.Unmarshal(addOns, &b.AddOns); err != nil {
			return nil, fmt.Errorf("decode add-ons: %w", err)
		}
	}
	return &b, nil
}
