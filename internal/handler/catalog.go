package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/service"
)

// CatalogHandler handles HTTP requests for destinations, events, ticket
// types and add-ons.
type CatalogHandler struct {
	catalogService *service.CatalogService
	clock          clock.Clock
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService, clk clock.Clock) *CatalogHandler {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &CatalogHandler{catalogService: catalogService, clock: clk}
}

// ListDestinations handles GET /v1/destinations
func (h *CatalogHandler) ListDestinations(c *gin.Context) {
	destinations, err := h.catalogService.ListDestinations(c.Request.Context(), c.Query("country"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]DestinationResponse, 0, len(destinations))
	for _, d := range destinations {
		resp = append(resp, toDestinationResponse(d))
	}
	respondJSON(c, http.StatusOK, gin.H{"destinations": resp})
}

// GetDestination handles GET /v1/destinations/:id (id or slug)
func (h *CatalogHandler) GetDestination(c *gin.Context) {
	d, err := h.catalogService.GetDestination(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDestinationResponse(d))
}

// NearbyDestinations handles GET /v1/destinations/nearby?lat=&lng=&radius_km=
func (h *CatalogHandler) NearbyDestinations(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		respondBadRequest(c, "lat and lng are required")
		return
	}
	radius, _ := strconv.ParseFloat(c.Query("radius_km"), 64)

	nearby, err := h.catalogService.NearbyDestinations(c.Request.Context(), lat, lng, radius)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]DestinationResponse, 0, len(nearby))
	for _, n := range nearby {
		d := toDestinationResponse(n.Destination)
		distance := n.DistanceKm
		d.DistanceKm = &distance
		resp = append(resp, d)
	}
	respondJSON(c, http.StatusOK, gin.H{"destinations": resp})
}

// CreateDestinationRequest is the HTTP request body for a new destination.
type CreateDestinationRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Country     string  `json:"country"`
	City        string  `json:"city"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	BasePrice   float64 `json:"base_price"`
	Currency    string  `json:"currency"`
}

// CreateDestination handles POST /v1/admin/destinations
func (h *CatalogHandler) CreateDestination(c *gin.Context) {
	var req CreateDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	d, err := h.catalogService.CreateDestination(c.Request.Context(), service.CreateDestinationRequest{
		Name:        req.Name,
		Slug:        req.Slug,
		Country:     req.Country,
		City:        req.City,
		Description: req.Description,
		Lat:         req.Lat,
		Lng:         req.Lng,
		BasePrice:   req.BasePrice,
		Currency:    req.Currency,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toDestinationResponse(d))
}

// SyncLocations handles POST /v1/admin/destinations/sync-locations
func (h *CatalogHandler) SyncLocations(c *gin.Context) {
	n, err := h.catalogService.SyncLocations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"indexed": n})
}

// ListEvents handles GET /v1/events?destination_id=
func (h *CatalogHandler) ListEvents(c *gin.Context) {
	events, err := h.catalogService.ListEvents(c.Request.Context(), c.Query("destination_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, toEventResponse(e))
	}
	respondJSON(c, http.StatusOK, gin.H{"events": resp})
}

// GetEvent handles GET /v1/events/:id
func (h *CatalogHandler) GetEvent(c *gin.Context) {
	e, err := h.catalogService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toEventResponse(e))
}

// CreateEventRequest is the HTTP request body for a new event.
type CreateEventRequest struct {
	DestinationID string     `json:"destination_id"`
	Title         string     `json:"title"`
	Venue         string     `json:"venue"`
	Description   string     `json:"description"`
	StartsAt      time.Time  `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
}

// CreateEvent handles POST /v1/admin/events
func (h *CatalogHandler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	svcReq := service.CreateEventRequest{
		DestinationID: req.DestinationID,
		Title:         req.Title,
		Venue:         req.Venue,
		Description:   req.Description,
		StartsAt:      req.StartsAt,
	}
	if req.EndsAt != nil {
		svcReq.EndsAt = req.EndsAt.UTC()
	}

	e, err := h.catalogService.CreateEvent(c.Request.Context(), svcReq)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toEventResponse(e))
}

// ListTicketTypes handles GET /v1/events/:id/ticket-types
func (h *CatalogHandler) ListTicketTypes(c *gin.Context) {
	types, err := h.catalogService.ListTicketTypes(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	now := h.clock.Now()
	resp := make([]TicketTypeResponse, 0, len(types))
	for _, tt := range types {
		resp = append(resp, toTicketTypeResponse(tt, now))
	}
	respondJSON(c, http.StatusOK, gin.H{"ticket_types": resp})
}

// GetTicketType handles GET /v1/ticket-types/:id
func (h *CatalogHandler) GetTicketType(c *gin.Context) {
	tt, err := h.catalogService.GetTicketType(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTicketTypeResponse(tt, h.clock.Now()))
}

// TierPayload is one pricing tier of a new ticket type.
type TierPayload struct {
	Name     string     `json:"name"`
	Price    float64    `json:"price"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	Capacity int        `json:"capacity"`
}

// CreateTicketTypeRequest is the HTTP request body for a new ticket type.
type CreateTicketTypeRequest struct {
	EventID  string        `json:"event_id"`
	Name     string        `json:"name"`
	Currency string        `json:"currency"`
	Capacity int           `json:"capacity"`
	Tiers    []TierPayload `json:"tiers"`
}

// CreateTicketType handles POST /v1/admin/ticket-types
func (h *CatalogHandler) CreateTicketType(c *gin.Context) {
	var req CreateTicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	tiers := make([]domain.PricingTier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		tier := domain.PricingTier{Name: t.Name, Price: t.Price, Capacity: t.Capacity}
		if t.StartsAt != nil {
			tier.StartsAt = t.StartsAt.UTC()
		}
		if t.EndsAt != nil {
			tier.EndsAt = t.EndsAt.UTC()
		}
		tiers = append(tiers, tier)
	}

	tt, err := h.catalogService.CreateTicketType(c.Request.Context(), service.CreateTicketTypeRequest{
		EventID:  req.EventID,
		Name:     req.Name,
		Currency: req.Currency,
		Capacity: req.Capacity,
		Tiers:    tiers,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toTicketTypeResponse(tt, h.clock.Now()))
}

// ListAddOns handles GET /v1/add-ons
func (h *CatalogHandler) ListAddOns(c *gin.Context) {
	categories, err := h.catalogService.ListAddOnCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]AddOnCategoryResponse, 0, len(categories))
	for _, cat := range categories {
		resp = append(resp, toAddOnCategoryResponse(cat))
	}
	respondJSON(c, http.StatusOK, gin.H{"categories": resp})
}
