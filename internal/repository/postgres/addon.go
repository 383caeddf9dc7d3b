package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"tours/internal/domain"
)

// AddOnRepository is a PostgreSQL implementation of repository.AddOnRepository.
type AddOnRepository struct {
	q Querier
}

// NewAddOnRepository creates a new PostgreSQL add-on repository.
func NewAddOnRepository(db *sql.DB) *AddOnRepository {
	return &AddOnRepository{q: db}
}

// ListCategories retrieves categories with their active add-ons.
func (r *AddOnRepository) ListCategories(ctx context.Context) ([]*domain.AddOnCategory, error) {
	query := `
		SELECT c.id, c.name, c.description, c.display_order,
		       a.id, a.name, a.price, a.currency, a.per_person
		FROM add_on_categories c
		LEFT JOIN add_ons a ON a.category_id = c.id AND a.active
		ORDER BY c.display_order, c.name, a.name
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		categories []*domain.AddOnCategory
		byID       = map[string]*domain.AddOnCategory{}
	)
	for rows.Next() {
		var (
			c         domain.AddOnCategory
			addOnID   sql.NullString
			name      sql.NullString
			price     sql.NullFloat64
			currency  sql.NullString
			perPerson sql.NullBool
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.DisplayOrder,
			&addOnID, &name, &price, &currency, &perPerson); err != nil {
			return nil, err
		}

		category, ok := byID[c.ID]
		if !ok {
			category = &c
			byID[c.ID] = category
			categories = append(categories, category)
		}
		if addOnID.Valid {
			category.AddOns = append(category.AddOns, domain.AddOn{
				ID:         addOnID.String,
				CategoryID: c.ID,
				Name:       name.String,
				Price:      price.Float64,
				Currency:   currency.String,
				PerPerson:  perPerson.Bool,
				Active:     true,
			})
		}
	}
	return categories, rows.Err()
}

// GetByIDs retrieves active add-ons by ID. Unknown IDs are omitted.
func (r *AddOnRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.AddOn, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, category_id, name, price, currency, per_person, active
		FROM add_ons WHERE id = ANY($1::uuid[]) AND active
	`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addOns []*domain.AddOn
	for rows.Next() {
		var a domain.AddOn
		if err := rows.Scan(&a.ID, &a.CategoryID, &a.Name, &a.Price, &a.Currency, &a.PerPerson, &a.Active); err != nil {
			return nil, err
		}
		addOns = append(addOns, &a)
	}
	return addOns, rows.Err()
}
