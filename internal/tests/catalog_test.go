package tests

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/redis"
	"tours/internal/repository"
	"tours/internal/service"
)

// ──────────────────────────────────────────────
// 8. CATALOG, GALLERIES AND DASHBOARD
// ──────────────────────────────────────────────

type catalogFixture struct {
	destinations *MockDestinationRepository
	locations    *MockLocationStore
	cache        *MockDestinationCache
	service      *service.CatalogService
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		destinations: NewMockDestinationRepository(),
		locations:    NewMockLocationStore(),
		cache:        NewMockDestinationCache(),
	}
	f.service = service.NewCatalogService(
		f.destinations,
		nil,
		NewMockTicketTypeRepository(),
		NewMockAddOnRepository(),
		f.locations,
		f.cache,
		clock.NewFixed(testNow),
	)
	return f
}

func capeCoast() *domain.Destination {
	return &domain.Destination{
		ID:          uuid.New().String(),
		Slug:        "cape-coast-castle",
		Name:        "Cape Coast Castle",
		Country:     "Ghana",
		City:        "Cape Coast",
		Description: "Seventeenth century trading fort",
		Lat:         5.1053,
		Lng:         -1.2466,
		BasePrice:   120,
		Currency:    "GHS",
		Active:      true,
		CreatedAt:   testNow.Add(-48 * time.Hour),
	}
}

func TestCreateDestination_IndexesLocation(t *testing.T) {
	t.Parallel()
	f := newCatalogFixture()

	d, err := f.service.CreateDestination(context.Background(), service.CreateDestinationRequest{
		Name:      "Kakum National Park",
		Country:   "Ghana",
		Lat:       5.3500,
		Lng:       -1.3833,
		BasePrice: 60,
		Currency:  "ghs",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Slug != "kakum-national-park" {
		t.Errorf("expected generated slug, got %s", d.Slug)
	}

	loc, ok := f.locations.Location(d.ID)
	if !ok {
		t.Fatal("destination was not added to the geo index")
	}
	if loc[0] != 5.35 || loc[1] != -1.3833 {
		t.Errorf("unexpected indexed coordinates %v", loc)
	}
}

func TestCreateDestination_IndexFailureDoesNotFailCreate(t *testing.T) {
	t.Parallel()
	f := newCatalogFixture()
	f.locations.UpdateError = ErrMockTimeout

	d, err := f.service.CreateDestination(context.Background(), service.CreateDestinationRequest{
		Name: "Mole National Park", Country: "Ghana", Lat: 9.2, Lng: -1.85, BasePrice: 90, Currency: "GHS",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.destinations.GetByID(context.Background(), d.ID); err != nil {
		t.Errorf("destination should be stored, got %v", err)
	}
}

func TestCreateDestination_LatitudeOutsideGeoIndex(t *testing.T) {
	t.Parallel()
	f := newCatalogFixture()

	for _, lat := range []float64{85.06, -85.06, 90} {
		_, err := f.service.CreateDestination(context.Background(), service.CreateDestinationRequest{
			Name: "Polar Station", Country: "Nowhere", Lat: lat, Lng: 0, BasePrice: 1, Currency: "GHS",
		})
		if !errors.Is(err, service.ErrInvalidLocation) {
			t.Errorf("lat %v: expected ErrInvalidLocation, got %v", lat, err)
		}
	}
	if f.locations.Indexed() != 0 {
		t.Error("nothing should be indexed")
	}

	if _, err := f.service.CreateDestination(context.Background(), service.CreateDestinationRequest{
		Name: "Edge", Country: "Nowhere", Lat: 85.05, Lng: 179.9, BasePrice: 1, Currency: "GHS",
	}); err != nil {
		t.Errorf("lat 85.05 is indexable, got %v", err)
	}
}

func TestNearbyDestinations_DropsStaleIndexEntries(t *testing.T) {
	t.Parallel()
	f := newCatalogFixture()

	active := capeCoast()
	inactive := capeCoast()
	inactive.ID = uuid.New().String()
	inactive.Slug = "closed-fort"
	inactive.Active = false
	f.destinations.AddDestination(active)
	f.destinations.AddDestination(inactive)
	deleted := uuid.New().String()

	f.locations.Nearby = []redis.DestinationLocation{
		{DestinationID: active.ID, DistanceKm: 1.5},
		{DestinationID: inactive.ID, DistanceKm: 2},
		{DestinationID: deleted, DistanceKm: 3},
	}

	nearby, err := f.service.NearbyDestinations(context.Background(), 5.1, -1.25, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nearby) != 1 || nearby[0].Destination.ID != active.ID {
		t.Fatalf("expected only the active destination, got %+v", nearby)
	}
	if nearby[0].DistanceKm != 1.5 {
		t.Errorf("expected distance 1.5, got %v", nearby[0].DistanceKm)
	}
	if len(f.locations.Removed) != 2 {
		t.Errorf("expected 2 stale entries removed, got %v", f.locations.Removed)
	}
	if !f.cache.Cached(active.ID) || f.cache.Cached(inactive.ID) {
		t.Error("only the active destination should be cached")
	}
}

func TestNearbyDestinations_CachedRecordIsComplete(t *testing.T) {
	t.Parallel()
	f := newCatalogFixture()
	d := capeCoast()
	f.destinations.AddDestination(d)
	f.locations.Nearby = []redis.DestinationLocation{{DestinationID: d.ID, DistanceKm: 4}}

	if _, err := f.service.NearbyDestinations(context.Background(), 5.1, -1.25, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Second call is served from the cache.
	nearby, err := f.service.NearbyDestinations(context.Background(), 5.1, -1.25, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&f.cache.SetCallCount) != 1 {
		t.Errorf("expected one cache fill, got %d", f.cache.SetCallCount)
	}

	got := nearby[0].Destination
	if got.Description != d.Description {
		t.Errorf("expected description %q, got %q", d.Description, got.Description)
	}
	if !got.CreatedAt.Equal(d.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", d.CreatedAt, got.CreatedAt)
	}
	if !got.Active || got.City != d.City || got.BasePrice != d.BasePrice {
		t.Errorf("unexpected cached destination %+v", got)
	}
}

func TestNearbyDestinations_RadiusIsClamped(t *testing.T) {
	t.Parallel()
	f := newCatalogFixture()

	testCases := []struct {
		radius float64
		want   float64
	}{
		{0, 50},
		{-5, 50},
		{25, 25},
		{5000, 1000},
	}
	for _, tc := range testCases {
		if _, err := f.service.NearbyDestinations(context.Background(), 5.6, -0.19, tc.radius); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.locations.LastRadiusKm != tc.want {
			t.Errorf("radius %v: expected %v km, got %v", tc.radius, tc.want, f.locations.LastRadiusKm)
		}
	}

	if _, err := f.service.NearbyDestinations(context.Background(), 86, 0, 10); !errors.Is(err, service.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}
}

func TestSyncLocations_SkipsRowsThatCannotBeIndexed(t *testing.T) {
	t.Parallel()
	f := newCatalogFixture()

	good := capeCoast()
	polar := capeCoast()
	polar.ID, polar.Slug, polar.Name, polar.Lat = uuid.New().String(), "polar", "Polar", 89.5
	flaky := capeCoast()
	flaky.ID, flaky.Slug, flaky.Name = uuid.New().String(), "flaky", "Flaky"
	for _, d := range []*domain.Destination{good, polar, flaky} {
		f.destinations.AddDestination(d)
	}
	f.locations.FailFor[flaky.ID] = true

	synced, err := f.service.SyncLocations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if synced != 1 {
		t.Errorf("expected 1 synced, got %d", synced)
	}
	if _, ok := f.locations.Location(good.ID); !ok {
		t.Error("valid destination should be indexed")
	}
	if f.locations.Indexed() != 1 {
		t.Errorf("expected 1 indexed, got %d", f.locations.Indexed())
	}
}

func TestGallery_ImagesComeBackByPosition(t *testing.T) {
	t.Parallel()
	repo := NewMockGalleryRepository()
	svc := service.NewGalleryService(repo, clock.NewFixed(testNow))
	ctx := context.Background()

	destinationID := uuid.New().String()
	g, err := svc.CreateGallery(ctx, service.CreateGalleryRequest{Title: "Castle Walls", DestinationID: destinationID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CreateGallery(ctx, service.CreateGalleryRequest{Title: "Elsewhere"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := 0
	for _, req := range []service.AddImageRequest{
		{GalleryID: g.ID, URL: "https://img.example.test/b.jpg"},
		{GalleryID: g.ID, URL: "https://img.example.test/c.jpg"},
		{GalleryID: g.ID, URL: "https://img.example.test/a.jpg", Position: &first, Featured: true},
	} {
		if _, err := svc.AddImage(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := svc.GetGallery(ctx, g.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(got.Images))
	}
	want := []string{"a.jpg", "b.jpg", "c.jpg"}
	for i, img := range got.Images {
		if img.URL != "https://img.example.test/"+want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], img.URL)
		}
	}
	if !got.Images[0].Featured {
		t.Error("explicitly placed image should keep its featured flag")
	}

	list, err := svc.ListGalleries(ctx, destinationID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].ID != g.ID || len(list[0].Images) != 0 {
		t.Errorf("expected the destination gallery without images, got %+v", list)
	}
	if all, _ := svc.ListGalleries(ctx, ""); len(all) != 2 {
		t.Errorf("expected 2 galleries, got %d", len(all))
	}
	if list, _ := svc.ListGalleries(ctx, "not-a-uuid"); len(list) != 0 {
		t.Errorf("malformed destination should match nothing, got %d", len(list))
	}
	if _, err := svc.GetGallery(ctx, uuid.New().String()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDashboardOverview_CachedForThirtySeconds(t *testing.T) {
	t.Parallel()
	clk := clock.NewFixed(testNow)
	repo := &MockDashboardRepository{Result: &domain.Overview{
		BookingsByStatus: map[string]int64{"confirmed": 3},
		GeneratedAt:      testNow,
	}}
	cache := &MockOverviewCache{TTL: redis.OverviewCacheTTL, Clock: clk}
	svc := service.NewDashboardService(repo, nil, nil, cache, clk)
	ctx := context.Background()

	if _, err := svc.Overview(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clk.Advance(29 * time.Second)
	overview, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.BookingsByStatus["confirmed"] != 3 {
		t.Errorf("unexpected overview %+v", overview)
	}
	if n := atomic.LoadInt32(&repo.OverviewCallCount); n != 1 {
		t.Errorf("expected a cache hit within the window, got %d queries", n)
	}

	clk.Advance(2 * time.Second)
	if _, err := svc.Overview(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := atomic.LoadInt32(&repo.OverviewCallCount); n != 2 {
		t.Errorf("expected a fresh query after expiry, got %d", n)
	}
	if n := atomic.LoadInt32(&cache.SetCallCount); n != 2 {
		t.Errorf("expected 2 cache writes, got %d", n)
	}
}

func TestDashboardOverview_CacheErrorFallsBackToDatabase(t *testing.T) {
	t.Parallel()
	clk := clock.NewFixed(testNow)
	repo := &MockDashboardRepository{Result: &domain.Overview{ActiveEvents: 4}}
	cache := &MockOverviewCache{TTL: redis.OverviewCacheTTL, Clock: clk, GetError: ErrMockTimeout}
	svc := service.NewDashboardService(repo, nil, nil, cache, clk)

	overview, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.ActiveEvents != 4 {
		t.Errorf("expected 4 active events, got %d", overview.ActiveEvents)
	}
}
