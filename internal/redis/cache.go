package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tours/internal/domain"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	ProviderCacheTTL    = 60 * time.Second
	OverviewCacheTTL    = 30 * time.Second
	DestinationCacheTTL = 5 * time.Minute
)

// Keys and prefixes
const (
	providersCacheKey      = "cache:providers"
	overviewCacheKey       = "cache:dashboard:overview"
	destinationCachePrefix = "cache:destination:v2:"
)

// CachedProvider represents a cached payment provider.
type CachedProvider struct {
	Code         string              `json:"code"`
	Name         string              `json:"name"`
	Active       bool                `json:"active"`
	Sandbox      bool                `json:"sandbox"`
	Priority     int                 `json:"priority"`
	Capabilities []domain.Capability `json:"capabilities"`
}

// CachedDestination represents a cached destination.
type CachedDestination struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	City        string    `json:"city"`
	Description string    `json:"description"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	BasePrice   float64   `json:"base_price"`
	Currency    string    `json:"currency"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetProviders retrieves the provider list from cache. A nil slice with a nil
// error is a cache miss.
func (s *CacheStore) GetProviders(ctx context.Context) ([]CachedProvider, error) {
	data, err := s.client.Get(ctx, providersCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var providers []CachedProvider
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// SetProviders stores the provider list in cache.
func (s *CacheStore) SetProviders(ctx context.Context, providers []CachedProvider) error {
	data, err := json.Marshal(providers)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, providersCacheKey, data, ProviderCacheTTL).Err()
}

// InvalidateProviders removes the provider list from cache.
func (s *CacheStore) InvalidateProviders(ctx context.Context) error {
	return s.client.Del(ctx, providersCacheKey).Err()
}

// GetOverview retrieves the dashboard overview from cache.
func (s *CacheStore) GetOverview(ctx context.Context) (*domain.Overview, error) {
	data, err := s.client.Get(ctx, overviewCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var overview domain.Overview
	if err := json.Unmarshal(data, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// SetOverview stores the dashboard overview in cache.
func (s *CacheStore) SetOverview(ctx context.Context, overview *domain.Overview) error {
	data, err := json.Marshal(overview)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, overviewCacheKey, data, OverviewCacheTTL).Err()
}

// GetDestinationsBatch retrieves multiple destinations from cache using a
// pipeline. Returns the hits by ID and the IDs that missed.
func (s *CacheStore) GetDestinationsBatch(ctx context.Context, ids []string) (map[string]*CachedDestination, []string, error) {
	if len(ids) == 0 {
		return make(map[string]*CachedDestination), nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(ids))
	for _, id := range ids {
		cmds[id] = pipe.Get(ctx, destinationCachePrefix+id)
	}

	// Missing keys surface as redis.Nil on individual commands.
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, nil, err
	}

	result := make(map[string]*CachedDestination, len(ids))
	var missing []string
	for _, id := range ids {
		data, err := cmds[id].Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}

		var d CachedDestination
		if err := json.Unmarshal(data, &d); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = &d
	}

	return result, missing, nil
}

// SetDestinationsBatch stores multiple destinations in cache using a pipeline.
func (s *CacheStore) SetDestinationsBatch(ctx context.Context, destinations []*CachedDestination) error {
	if len(destinations) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, d := range destinations {
		data, err := json.Marshal(d)
		if err != nil {
			continue
		}
		pipe.Set(ctx, destinationCachePrefix+d.ID, data, DestinationCacheTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}
