package repository

import (
	"context"

	"tours/internal/domain"
)

// ActivityRepository stores the admin activity feed.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	ListRecent(ctx context.Context, limit int) ([]*domain.Activity, error)
}

// DashboardRepository aggregates figures for the admin overview.
type DashboardRepository interface {
	Overview(ctx context.Context) (*domain.Overview, error)
}

// AdminRepository looks up dashboard operators.
type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
}
