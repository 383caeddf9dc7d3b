package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const destinationLocationKey = "destinations:locations"

// DestinationLocation is a destination's position and its distance from the
// query point.
type DestinationLocation struct {
	DestinationID string
	Lat           float64
	Lng           float64
	DistanceKm    float64
}

// LocationStore keeps the destination geo index in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a destination's location using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, destinationID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, destinationLocationKey, &redis.GeoLocation{
		Name:      destinationID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearby returns destinations within radiusKm, nearest first.
func (s *LocationStore) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]DestinationLocation, error) {
	results, err := s.client.GeoRadius(ctx, destinationLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]DestinationLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, DestinationLocation{
			DestinationID: r.Name,
			Lat:           r.Latitude,
			Lng:           r.Longitude,
			DistanceKm:    r.Dist,
		})
	}

	return locations, nil
}

// RemoveLocation removes a destination from the geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, destinationID string) error {
	return s.client.ZRem(ctx, destinationLocationKey, destinationID).Err()
}
