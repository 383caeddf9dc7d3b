package redis

import (
	"context"
	"time"

	"tours/internal/domain"
)

// LocationStoreInterface defines the destination geo index operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, destinationID string, lat, lng float64) error
	FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]DestinationLocation, error)
	RemoveLocation(ctx context.Context, destinationID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquirePaymentLock(ctx context.Context, reference string, ttl time.Duration) (bool, error)
	ReleasePaymentLock(ctx context.Context, reference string) error
}

// CacheStoreInterface defines the cached read models used by services.
type CacheStoreInterface interface {
	GetProviders(ctx context.Context) ([]CachedProvider, error)
	SetProviders(ctx context.Context, providers []CachedProvider) error
	InvalidateProviders(ctx context.Context) error
	GetOverview(ctx context.Context) (*domain.Overview, error)
	SetOverview(ctx context.Context, overview *domain.Overview) error
	GetDestinationsBatch(ctx context.Context, ids []string) (map[string]*CachedDestination, []string, error)
	SetDestinationsBatch(ctx context.Context, destinations []*CachedDestination) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ CacheStoreInterface    = (*CacheStore)(nil)
)
