package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tours/internal/domain"
	"tours/internal/repository"
)

// PaymentOutbox records a payment resolution in the transaction that
// applied it.
type PaymentOutbox interface {
	PaymentResolved(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error
}

const paymentColumns = `id, reference, amount, currency, method, provider_code, status,
	purpose_kind, purpose_id, customer_email, customer_phone, metadata,
	provider_reference, failure_reason, idempotency_key, created_at, updated_at, completed_at`

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q      Querier
	db     *sql.DB
	tx     *sql.Tx
	outbox PaymentOutbox
}

// NewPaymentRepository creates a new PostgreSQL payment repository. outbox
// may be nil, in which case resolutions are not published.
func NewPaymentRepository(db *sql.DB, outbox PaymentOutbox) *PaymentRepository {
	return &PaymentRepository{q: db, db: db, outbox: outbox}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx, outbox PaymentOutbox) *PaymentRepository {
	return &PaymentRepository{q: tx, tx: tx, outbox: outbox}
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	metadata, err := marshalJSON(payment.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO payments (id, reference, amount, currency, method, provider_code, status,
			purpose_kind, purpose_id, customer_email, customer_phone, metadata,
			provider_reference, failure_reason, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
	`

	_, err = r.q.ExecContext(ctx, query,
		payment.ID,
		payment.Reference,
		payment.Amount,
		payment.Currency,
		payment.Method,
		payment.ProviderCode,
		payment.Status,
		payment.PurposeKind,
		payment.PurposeID,
		payment.CustomerEmail,
		payment.CustomerPhone,
		string(metadata),
		payment.ProviderReference,
		payment.FailureReason,
		nullString(payment.IdempotencyKey),
		payment.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByReference retrieves a payment by its public reference.
func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`
	return r.getOne(ctx, query, reference)
}

// GetByIdempotencyKey retrieves a payment by its idempotency key.
// Returns nil if no payment exists with the given key.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`

	payment, err := r.getOne(ctx, query, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return payment, err
}

// GetOpenByPurpose returns the pending or processing payment of an order.
// Returns nil if the order has none.
func (r *PaymentRepository) GetOpenByPurpose(ctx context.Context, kind domain.PurposeKind, purposeID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE purpose_kind = $1 AND purpose_id = $2 AND status IN ('pending', 'processing')
		ORDER BY created_at DESC
		LIMIT 1`

	payment, err := r.getOne(ctx, query, string(kind), purposeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return payment, err
}

// Transition applies a compare-and-set status change. Resolutions to
// successful or failed are handed to the outbox inside the same transaction.
func (r *PaymentRepository) Transition(ctx context.Context, change repository.StatusChange) (*domain.Payment, error) {
	metadata, err := marshalJSON(change.Metadata, "{}")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	at := change.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	terminal := change.To.IsTerminal()

	query := `
		UPDATE payments SET
			status = $1,
			provider_reference = COALESCE(NULLIF($2, ''), provider_reference),
			failure_reason = $3,
			metadata = metadata || $4::jsonb,
			updated_at = $5,
			completed_at = CASE WHEN $6 THEN $5 ELSE completed_at END
		WHERE reference = $7 AND status = $8
		RETURNING ` + paymentColumns

	var updated *domain.Payment
	err = withTx(ctx, r.db, r.tx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, query,
			change.To,
			change.ProviderReference,
			change.FailureReason,
			string(metadata),
			at,
			terminal,
			change.Reference,
			change.From,
		)

		p, err := scanPayment(row)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE reference = $1)`, change.Reference).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return repository.ErrNotFound
			}
			return repository.ErrStaleState
		}
		if err != nil {
			return err
		}

		if r.outbox != nil && (p.Status == domain.PaymentStatusSuccessful || p.Status == domain.PaymentStatusFailed) {
			if err := r.outbox.PaymentResolved(ctx, tx, p); err != nil {
				return fmt.Errorf("publish resolution: %w", err)
			}
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// ListDue returns processing payments last updated at or before cutoff.
func (r *PaymentRepository) ListDue(ctx context.Context, cutoff time.Time, sandboxOnly bool, limit int) ([]*domain.Payment, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = $1
		  AND updated_at <= $2
		  AND ($3 = FALSE OR provider_code IN (SELECT code FROM payment_providers WHERE sandbox))
		ORDER BY updated_at, reference
		LIMIT $4
	`

	return r.list(ctx, query, domain.PaymentStatusProcessing, cutoff, sandboxOnly, limit)
}

// List returns payments matching the filter, newest first.
func (r *PaymentRepository) List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR provider_code = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	return r.list(ctx, query, string(filter.Status), filter.ProviderCode, limit)
}

func (r *PaymentRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Payment, error) {
	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		payment        domain.Payment
		metadata       []byte
		idempotencyKey sql.NullString
		completedAt    sql.NullTime
	)

	err := row.Scan(
		&payment.ID,
		&payment.Reference,
		&payment.Amount,
		&payment.Currency,
		&payment.Method,
		&payment.ProviderCode,
		&payment.Status,
		&payment.PurposeKind,
		&payment.PurposeID,
		&payment.CustomerEmail,
		&payment.CustomerPhone,
		&metadata,
		&payment.ProviderReference,
		&payment.FailureReason,
		&idempotencyKey,
		&payment.CreatedAt,
		&payment.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &payment.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	payment.IdempotencyKey = idempotencyKey.String
	if completedAt.Valid {
		payment.CompletedAt = completedAt.Time
	}

	return &payment, nil
}
