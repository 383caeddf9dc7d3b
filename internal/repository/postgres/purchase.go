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

const purchaseColumns = `id, reference, ticket_type_id, tier_id, quantity, customer_name, customer_email,
	customer_phone, add_ons, total_amount, currency, status, created_at`

// PurchaseRepository is a PostgreSQL implementation of repository.PurchaseRepository.
type PurchaseRepository struct {
	q  Querier
	db *sql.DB
	tx *sql.Tx
}

// NewPurchaseRepository creates a new PostgreSQL purchase repository.
func NewPurchaseRepository(db *sql.DB) *PurchaseRepository {
	return &PurchaseRepository{q: db, db: db}
}

// NewPurchaseRepositoryWithTx creates a purchase repository using a transaction.
func NewPurchaseRepositoryWithTx(tx *sql.Tx) *PurchaseRepository {
	return &PurchaseRepository{q: tx, tx: tx}
}

// Create persists a new purchase.
func (r *PurchaseRepository) Create(ctx context.Context, p *domain.TicketPurchase) error {
	addOns, err := marshalJSON(p.AddOns, "[]")
	if err != nil {
		return fmt.Errorf("marshal add-ons: %w", err)
	}

	query := `
		INSERT INTO ticket_purchases (id, reference, ticket_type_id, tier_id, quantity, customer_name,
			customer_email, customer_phone, add_ons, total_amount, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.q.ExecContext(ctx, query,
		p.ID,
		p.Reference,
		p.TicketTypeID,
		p.TierID,
		p.Quantity,
		p.Customer.Name,
		p.Customer.Email,
		p.Customer.Phone,
		string(addOns),
		p.TotalAmount,
		p.Currency,
		p.Status,
		p.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

// GetByID retrieves a purchase with its tickets.
func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (*domain.TicketPurchase, error) {
	return r.getOne(ctx, `SELECT `+purchaseColumns+` FROM ticket_purchases WHERE id = $1`, id)
}

// GetByReference retrieves a purchase with its tickets.
func (r *PurchaseRepository) GetByReference(ctx context.Context, reference string) (*domain.TicketPurchase, error) {
	return r.getOne(ctx, `SELECT `+purchaseColumns+` FROM ticket_purchases WHERE reference = $1`, reference)
}

// MarkPaid moves a pending purchase to paid, stores its tickets and
// increments the sold counters of the ticket type and tier.
func (r *PurchaseRepository) MarkPaid(ctx context.Context, p *domain.TicketPurchase, tickets []domain.Ticket) error {
	err := withTx(ctx, r.db, r.tx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE ticket_purchases SET status = $1 WHERE id = $2 AND status = $3`,
			domain.PurchaseStatusPaid, p.ID, domain.PurchaseStatusPending,
		)
		if err := expectOneRow(result, err, repository.ErrStaleState); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE ticket_types SET sold = sold + $1 WHERE id = $2 AND sold + $1 <= capacity`,
			p.Quantity, p.TicketTypeID,
		)
		if err := expectOneRow(result, err, repository.ErrSoldOut); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE pricing_tiers SET sold = sold + $1 WHERE id = $2 AND (capacity = 0 OR sold + $1 <= capacity)`,
			p.Quantity, p.TierID,
		)
		if err := expectOneRow(result, err, repository.ErrSoldOut); err != nil {
			return err
		}

		for _, t := range tickets {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO tickets (id, code, purchase_id, holder_name, status, issued_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, t.ID, t.Code, p.ID, t.HolderName, t.Status, t.IssuedAt)
			if err != nil {
				return fmt.Errorf("insert ticket %s: %w", t.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.Status = domain.PurchaseStatusPaid
	p.Tickets = tickets
	return nil
}

// MarkRefundDue moves a pending purchase to refund_due.
func (r *PurchaseRepository) MarkRefundDue(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE ticket_purchases SET status = $1 WHERE id = $2 AND status = $3`,
		domain.PurchaseStatusRefundDue, id, domain.PurchaseStatusPending,
	)
	return expectOneRow(result, err, repository.ErrStaleState)
}

// HeldQuantities sums pending purchases of a ticket type per tier.
func (r *PurchaseRepository) HeldQuantities(ctx context.Context, ticketTypeID string, since time.Time) (map[string]int, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT tier_id, COALESCE(SUM(quantity), 0)
		FROM ticket_purchases
		WHERE ticket_type_id = $1 AND status = $2 AND created_at > $3
		GROUP BY tier_id
	`, ticketTypeID, domain.PurchaseStatusPending, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	held := make(map[string]int)
	for rows.Next() {
		var (
			tierID string
			qty    int
		)
		if err := rows.Scan(&tierID, &qty); err != nil {
			return nil, err
		}
		held[tierID] = qty
	}
	return held, rows.Err()
}

func (r *PurchaseRepository) getOne(ctx context.Context, query string, arg any) (*domain.TicketPurchase, error) {
	p, err := scanPurchase(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, code, purchase_id, holder_name, status, issued_at
		FROM tickets WHERE purchase_id = $1 ORDER BY code
	`, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Code, &t.PurchaseID, &t.HolderName, &t.Status, &t.IssuedAt); err != nil {
			return nil, err
		}
		p.Tickets = append(p.Tickets, t)
	}
	return p, rows.Err()
}

func scanPurchase(row rowScanner) (*domain.TicketPurchase, error) {
	var (
		p      domain.TicketPurchase
		addOns []byte
	)

	err := row.Scan(
		&p.ID,
		&p.Reference,
		&p.TicketTypeID,
		&p.TierID,
		&p.Quantity,
		&p.Customer.Name,
		&p.Customer.Email,
		&p.Customer.Phone,
		&addOns,
		&p.TotalAmount,
		&p.Currency,
		&p.Status,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(addOns) > 0 {
		if err := json.Unmarshal(addOns, &p.AddOns); err != nil {
			return nil, fmt.Errorf("decode add-ons: %w", err)
		}
	}
	return &p, nil
}

func expectOneRow(result sql.Result, err error, none error) error {
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return none
	}
	return nil
}
