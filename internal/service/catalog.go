package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/log"
	"tours/internal/redis"
	"tours/internal/repository"
)

const (
	defaultNearbyRadiusKm = 50.0
	maxNearbyRadiusKm     = 1000.0
)

// DestinationCache is the subset of the Redis cache used for destinations.
type DestinationCache interface {
	GetDestinationsBatch(ctx context.Context, ids []string) (map[string]*redis.CachedDestination, []string, error)
	SetDestinationsBatch(ctx context.Context, destinations []*redis.CachedDestination) error
}

// CatalogService serves destinations, events, ticket types and add-ons.
type CatalogService struct {
	destinationRepo repository.DestinationRepository
	eventRepo       repository.EventRepository
	ticketTypeRepo  repository.TicketTypeRepository
	addOnRepo       repository.AddOnRepository
	locationStore   redis.LocationStoreInterface
	cache           DestinationCache
	clock           clock.Clock
}

// NewCatalogService creates a new CatalogService. locationStore and cache may be nil.
func NewCatalogService(
	destinationRepo repository.DestinationRepository,
	eventRepo repository.EventRepository,
	ticketTypeRepo repository.TicketTypeRepository,
	addOnRepo repository.AddOnRepository,
	locationStore redis.LocationStoreInterface,
	cache DestinationCache,
	clk clock.Clock,
) *CatalogService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &CatalogService{
		destinationRepo: destinationRepo,
		eventRepo:       eventRepo,
		ticketTypeRepo:  ticketTypeRepo,
		addOnRepo:       addOnRepo,
		locationStore:   locationStore,
		cache:           cache,
		clock:           clk,
	}
}

// ListDestinations returns active destinations, optionally for one country.
func (s *CatalogService) ListDestinations(ctx context.Context, country string) ([]*domain.Destination, error) {
	return s.destinationRepo.List(ctx, strings.TrimSpace(country))
}

// GetDestination looks a destination up by ID or slug.
func (s *CatalogService) GetDestination(ctx context.Context, idOrSlug string) (*domain.Destination, error) {
	if isUUID(idOrSlug) {
		return s.destinationRepo.GetByID(ctx, idOrSlug)
	}
	return s.destinationRepo.GetBySlug(ctx, strings.ToLower(idOrSlug))
}

// CreateDestinationRequest contains the parameters for a new destination.
type CreateDestinationRequest struct {
	Name        string
	Slug        string
	Country     string
	City        string
	Description string
	Lat         float64
	Lng         float64
	BasePrice   float64
	Currency    string
}

// CreateDestination stores a destination and indexes its location.
func (s *CatalogService) CreateDestination(ctx context.Context, req CreateDestinationRequest) (*domain.Destination, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Country) == "" || req.BasePrice < 0 {
		return nil, ErrInvalidDestination
	}
	if !validCurrency(req.Currency) {
		return nil, ErrInvalidCurrency
	}
	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return nil, ErrInvalidLocation
	}

	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}

	d := &domain.Destination{
		ID:          uuid.New().String(),
		Slug:        slugify(slug),
		Name:        strings.TrimSpace(req.Name),
		Country:     strings.TrimSpace(req.Country),
		City:        strings.TrimSpace(req.City),
		Description: req.Description,
		Lat:         req.Lat,
		Lng:         req.Lng,
		BasePrice:   roundMoney(req.BasePrice),
		Currency:    strings.ToUpper(req.Currency),
		Active:      true,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.destinationRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	if s.locationStore != nil {
		if err := s.locationStore.UpdateLocation(ctx, d.ID, d.Lat, d.Lng); err != nil {
			log.FromContext(ctx).WithError(err).WithField("destination_id", d.ID).Warn("failed to index destination location")
		}
	}
	return d, nil
}

// NearbyDestination is a destination with its distance from the query point.
type NearbyDestination struct {
	Destination *domain.Destination
	DistanceKm  float64
}

// NearbyDestinations returns active destinations within radiusKm, nearest first.
func (s *CatalogService) NearbyDestinations(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyDestination, error) {
	if !isValidLatitude(lat) || !isValidLongitude(lng) {
		return nil, ErrInvalidLocation
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}
	if radiusKm > maxNearbyRadiusKm {
		radiusKm = maxNearbyRadiusKm
	}
	if s.locationStore == nil {
		return nil, nil
	}

	locations, err := s.locationStore.FindNearby(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, nil
	}

	ids := make([]string, len(locations))
	for i, loc := range locations {
		ids[i] = loc.DestinationID
	}

	byID, err := s.destinationsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]NearbyDestination, 0, len(locations))
	for _, loc := range locations {
		d, ok := byID[loc.DestinationID]
		if !ok {
			// stale index entry: the destination is gone or inactive
			_ = s.locationStore.RemoveLocation(ctx, loc.DestinationID)
			continue
		}
		result = append(result, NearbyDestination{Destination: d, DistanceKm: loc.DistanceKm})
	}
	return result, nil
}

// destinationsByID reads destinations from cache, falling back to the
// database for misses and caching what it finds.
func (s *CatalogService) destinationsByID(ctx context.Context, ids []string) (map[string]*domain.Destination, error) {
	out := make(map[string]*domain.Destination, len(ids))
	missing := ids

	if s.cache != nil {
		cached, miss, err := s.cache.GetDestinationsBatch(ctx, ids)
		if err == nil {
			for id, c := range cached {
				out[id] = fromCachedDestination(c)
			}
			missing = miss
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	found, err := s.destinationRepo.ListByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	toCache := make([]*redis.CachedDestination, 0, len(found))
	for _, d := range found {
		out[d.ID] = d
		toCache = append(toCache, toCachedDestination(d))
	}
	if s.cache != nil {
		_ = s.cache.SetDestinationsBatch(ctx, toCache)
	}
	return out, nil
}

// SyncLocations rebuilds the geo index from the active destinations and
// returns how many were indexed. Rows that cannot be indexed are skipped.
func (s *CatalogService) SyncLocations(ctx context.Context) (int, error) {
	if s.locationStore == nil {
		return 0, nil
	}

	destinations, err := s.destinationRepo.List(ctx, "")
	if err != nil {
		return 0, err
	}

	logger := log.FromContext(ctx)
	synced := 0
	for _, d := range destinations {
		if !isValidLatitude(d.Lat) || !isValidLongitude(d.Lng) {
			logger.WithField("destination_id", d.ID).Warn("skipping destination with unindexable location")
			continue
		}
		if err := s.locationStore.UpdateLocation(ctx, d.ID, d.Lat, d.Lng); err != nil {
			if ctx.Err() != nil {
				return synced, ctx.Err()
			}
			logger.WithError(err).WithField("destination_id", d.ID).Warn("failed to index destination location")
			continue
		}
		synced++
	}
	return synced, nil
}

// ListEvents returns active events, optionally for one destination.
func (s *CatalogService) ListEvents(ctx context.Context, destinationID string) ([]*domain.Event, error) {
	if destinationID != "" && !isUUID(destinationID) {
		return nil, repository.ErrNotFound
	}
	return s.eventRepo.List(ctx, destinationID)
}

// GetEvent returns one event.
func (s *CatalogService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	if !isUUID(id) {
		return nil, repository.ErrNotFound
	}
	return s.eventRepo.GetByID(ctx, id)
}

// CreateEventRequest contains the parameters for a new event.
type CreateEventRequest struct {
	DestinationID string
	Title         string
	Venue         string
	Description   string
	StartsAt      time.Time
	EndsAt        time.Time
}

// CreateEvent stores a new event.
func (s *CatalogService) CreateEvent(ctx context.Context, req CreateEventRequest) (*domain.Event, error) {
	if strings.TrimSpace(req.Title) == "" || req.StartsAt.IsZero() {
		return nil, ErrInvalidEvent
	}
	if !req.EndsAt.IsZero() && !req.EndsAt.After(req.StartsAt) {
		return nil, ErrInvalidEvent
	}
	if req.DestinationID != "" {
		if _, err := s.GetDestination(ctx, req.DestinationID); err != nil {
			return nil, err
		}
	}

	e := &domain.Event{
		ID:            uuid.New().String(),
		DestinationID: req.DestinationID,
		Title:         strings.TrimSpace(req.Title),
		Venue:         req.Venue,
		Description:   req.Description,
		StartsAt:      req.StartsAt.UTC(),
		EndsAt:        req.EndsAt,
		Active:        true,
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListTicketTypes returns the ticket types of an event with their tiers.
func (s *CatalogService) ListTicketTypes(ctx context.Context, eventID string) ([]*domain.TicketType, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.ticketTypeRepo.ListByEvent(ctx, eventID)
}

// GetTicketType returns one ticket type with its tiers.
func (s *CatalogService) GetTicketType(ctx context.Context, id string) (*domain.TicketType, error) {
	if !isUUID(id) {
		return nil, repository.ErrNotFound
	}
	return s.ticketTypeRepo.GetByID(ctx, id)
}

// CreateTicketTypeRequest contains the parameters for a new ticket type.
type CreateTicketTypeRequest struct {
	EventID  string
	Name     string
	Currency string
	Capacity int
	Tiers    []domain.PricingTier
}

// CreateTicketType stores a ticket type with its pricing tiers.
func (s *CatalogService) CreateTicketType(ctx context.Context, req CreateTicketTypeRequest) (*domain.TicketType, error) {
	if strings.TrimSpace(req.Name) == "" || req.Capacity <= 0 || len(req.Tiers) == 0 {
		return nil, ErrInvalidTicketType
	}
	if !validCurrency(req.Currency) {
		return nil, ErrInvalidCurrency
	}
	if _, err := s.GetEvent(ctx, req.EventID); err != nil {
		return nil, err
	}

	tt := &domain.TicketType{
		ID:       uuid.New().String(),
		EventID:  req.EventID,
		Name:     strings.TrimSpace(req.Name),
		Currency: strings.ToUpper(req.Currency),
		Capacity: req.Capacity,
		Active:   true,
	}
	for _, tier := range req.Tiers {
		if strings.TrimSpace(tier.Name) == "" || tier.Price < 0 || tier.Capacity < 0 || tier.Capacity > req.Capacity {
			return nil, ErrInvalidTicketType
		}
		if !tier.StartsAt.IsZero() && !tier.EndsAt.IsZero() && !tier.EndsAt.After(tier.StartsAt) {
			return nil, ErrInvalidTicketType
		}
		tier.ID = uuid.New().String()
		tier.TicketTypeID = tt.ID
		tier.Price = roundMoney(tier.Price)
		tier.Sold = 0
		tt.Tiers = append(tt.Tiers, tier)
	}

	if err := s.ticketTypeRepo.Create(ctx, tt); err != nil {
		return nil, err
	}
	return tt, nil
}

// ListAddOnCategories returns categories with their active add-ons.
func (s *CatalogService) ListAddOnCategories(ctx context.Context) ([]*domain.AddOnCategory, error) {
	return s.addOnRepo.ListCategories(ctx)
}

func toCachedDestination(d *domain.Destination) *redis.CachedDestination {
	return &redis.CachedDestination{
		ID:          d.ID,
		Slug:        d.Slug,
		Name:        d.Name,
		Country:     d.Country,
		City:        d.City,
		Description: d.Description,
		Lat:         d.Lat,
		Lng:         d.Lng,
		BasePrice:   d.BasePrice,
		Currency:    d.Currency,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt,
	}
}

func fromCachedDestination(c *redis.CachedDestination) *domain.Destination {
	return &domain.Destination{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Country:     c.Country,
		City:        c.City,
		Description: c.Description,
		Lat:         c.Lat,
		Lng:         c.Lng,
		BasePrice:   c.BasePrice,
		Currency:    c.Currency,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// maxGeoLatitude is the latitude limit of the Redis geo index.
const maxGeoLatitude = 85.05112878

// isValidLatitude checks if latitude can be indexed by Redis GEOADD.
func isValidLatitude(lat float64) bool {
	return lat >= -maxGeoLatitude && lat <= maxGeoLatitude
}

// isValidLongitude checks if longitude is in valid range [-180, 180].
func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
