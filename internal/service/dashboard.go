package service

import (
	"context"

	"github.com/google/uuid"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/log"
	"tours/internal/repository"
)

// OverviewCache is the subset of the Redis cache used for the dashboard.
type OverviewCache interface {
	GetOverview(ctx context.Context) (*domain.Overview, error)
	SetOverview(ctx context.Context, overview *domain.Overview) error
}

// DashboardService serves the admin dashboard and records its activity feed.
type DashboardService struct {
	dashboardRepo repository.DashboardRepository
	bookingRepo   repository.BookingRepository
	activityRepo  repository.ActivityRepository
	cache         OverviewCache
	clock         clock.Clock
}

// NewDashboardService creates a new DashboardService. cache may be nil.
func NewDashboardService(
	dashboardRepo repository.DashboardRepository,
	bookingRepo repository.BookingRepository,
	activityRepo repository.ActivityRepository,
	cache OverviewCache,
	clk clock.Clock,
) *DashboardService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &DashboardService{
		dashboardRepo: dashboardRepo,
		bookingRepo:   bookingRepo,
		activityRepo:  activityRepo,
		cache:         cache,
		clock:         clk,
	}
}

// Overview returns platform counts and revenue, cached briefly.
func (s *DashboardService) Overview(ctx context.Context) (*domain.Overview, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetOverview(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	overview, err := s.dashboardRepo.Overview(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetOverview(ctx, overview); err != nil {
			log.FromContext(ctx).WithError(err).Warn("overview cache write failed")
		}
	}
	return overview, nil
}

// Bookings returns recent bookings for the dashboard.
func (s *DashboardService) Bookings(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	return s.bookingRepo.List(ctx, filter)
}

// Activity returns the newest activity entries.
func (s *DashboardService) Activity(ctx context.Context, limit int) ([]*domain.Activity, error) {
	return s.activityRepo.ListRecent(ctx, limit)
}

// Record appends an entry to the activity feed.
func (s *DashboardService) Record(ctx context.Context, kind domain.ActivityKind, subjectID, message string) error {
	return s.activityRepo.Create(ctx, &domain.Activity{
		ID:        uuid.New().String(),
		Kind:      kind,
		SubjectID: subjectID,
		Message:   message,
		CreatedAt: s.clock.Now(),
	})
}
