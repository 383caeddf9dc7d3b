package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tours/internal/domain"
)

// DashboardRepository aggregates admin figures with sqlx.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a dashboard repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

type statusCount struct {
	Status string `db:"status"`
	Count  int64  `db:"count"`
}

type currencyTotal struct {
	Currency string  `db:"currency"`
	Total    float64 `db:"total"`
}

// Overview computes the dashboard summary.
func (r *DashboardRepository) Overview(ctx context.Context) (*domain.Overview, error) {
	overview := &domain.Overview{GeneratedAt: time.Now().UTC()}

	var err error
	if overview.BookingsByStatus, err = r.countByStatus(ctx, "bookings"); err != nil {
		return nil, err
	}
	if overview.PurchasesByStatus, err = r.countByStatus(ctx, "ticket_purchases"); err != nil {
		return nil, err
	}
	if overview.PaymentsByStatus, err = r.countByStatus(ctx, "payments"); err != nil {
		return nil, err
	}

	var revenue []currencyTotal
	err = r.db.SelectContext(ctx, &revenue, `
		SELECT currency, COALESCE(SUM(amount), 0)::float8 AS total
		FROM payments WHERE status = $1
		GROUP BY currency ORDER BY currency
	`, domain.PaymentStatusSuccessful)
	if err != nil {
		return nil, fmt.Errorf("revenue: %w", err)
	}
	overview.RevenueByCurrency = make(map[string]float64, len(revenue))
	for _, row := range revenue {
		overview.RevenueByCurrency[row.Currency] = row.Total
	}

	if err := r.db.GetContext(ctx, &overview.ActiveDestinations, `SELECT COUNT(*) FROM destinations WHERE active`); err != nil {
		return nil, fmt.Errorf("active destinations: %w", err)
	}
	if err := r.db.GetContext(ctx, &overview.ActiveEvents, `SELECT COUNT(*) FROM events WHERE active`); err != nil {
		return nil, fmt.Errorf("active events: %w", err)
	}

	return overview, nil
}

func (r *DashboardRepository) countByStatus(ctx context.Context, table string) (map[string]int64, error) {
	var rows []statusCount
	query := `SELECT status, COUNT(*) AS count FROM ` + table + ` GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count %s: %w", table, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
