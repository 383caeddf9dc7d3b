package handler

import (
	"time"

	"tours/internal/domain"
)

type DestinationResponse struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	City        string   `json:"city,omitempty"`
	Description string   `json:"description,omitempty"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	BasePrice   float64  `json:"base_price"`
	Currency    string   `json:"currency"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
}

func toDestinationResponse(d *domain.Destination) DestinationResponse {
	return DestinationResponse{
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
	}
}

type EventResponse struct {
	ID            string     `json:"id"`
	DestinationID string     `json:"destination_id,omitempty"`
	Title         string     `json:"title"`
	Venue         string     `json:"venue,omitempty"`
	Description   string     `json:"description,omitempty"`
	StartsAt      time.Time  `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
}

func toEventResponse(e *domain.Event) EventResponse {
	resp := EventResponse{
		ID:            e.ID,
		DestinationID: e.DestinationID,
		Title:         e.Title,
		Venue:         e.Venue,
		Description:   e.Description,
		StartsAt:      e.StartsAt,
	}
	if !e.EndsAt.IsZero() {
		endsAt := e.EndsAt
		resp.EndsAt = &endsAt
	}
	return resp
}

type TierResponse struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Price    float64    `json:"price"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	Capacity int        `json:"capacity,omitempty"`
	Sold     int        `json:"sold"`
	OnSale   bool       `json:"on_sale"`
}

type TicketTypeResponse struct {
	ID        string         `json:"id"`
	EventID   string         `json:"event_id"`
	Name      string         `json:"name"`
	Currency  string         `json:"currency"`
	Capacity  int            `json:"capacity"`
	Sold      int            `json:"sold"`
	Remaining int            `json:"remaining"`
	Tiers     []TierResponse `json:"tiers"`
}

func toTicketTypeResponse(tt *domain.TicketType, now time.Time) TicketTypeResponse {
	resp := TicketTypeResponse{
		ID:        tt.ID,
		EventID:   tt.EventID,
		Name:      tt.Name,
		Currency:  tt.Currency,
		Capacity:  tt.Capacity,
		Sold:      tt.Sold,
		Remaining: tt.Remaining(),
		Tiers:     make([]TierResponse, 0, len(tt.Tiers)),
	}
	for i := range tt.Tiers {
		tier := &tt.Tiers[i]
		resp.Tiers = append(resp.Tiers, TierResponse{
			ID:       tier.ID,
			Name:     tier.Name,
			Price:    tier.Price,
			StartsAt: optionalTime(tier.StartsAt),
			EndsAt:   optionalTime(tier.EndsAt),
			Capacity: tier.Capacity,
			Sold:     tier.Sold,
			OnSale:   tier.OnSale(now),
		})
	}
	return resp
}

type AddOnResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	PerPerson bool    `json:"per_person"`
}

type AddOnCategoryResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	AddOns      []AddOnResponse `json:"add_ons"`
}

func toAddOnCategoryResponse(c *domain.AddOnCategory) AddOnCategoryResponse {
	resp := AddOnCategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		AddOns:      make([]AddOnResponse, 0, len(c.AddOns)),
	}
	for _, a := range c.AddOns {
		resp.AddOns = append(resp.AddOns, AddOnResponse{
			ID:        a.ID,
			Name:      a.Name,
			Price:     a.Price,
			Currency:  a.Currency,
			PerPerson: a.PerPerson,
		})
	}
	return resp
}

type CustomerPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (p CustomerPayload) toDomain() domain.Customer {
	return domain.Customer{Name: p.Name, Email: p.Email, Phone: p.Phone}
}

type AddOnPayload struct {
	AddOnID  string `json:"add_on_id"`
	Quantity int    `json:"quantity"`
}

type BookingResponse struct {
	ID               string                 `json:"id"`
	Reference        string                 `json:"reference"`
	Kind             string                 `json:"kind"`
	TargetID         string                 `json:"target_id"`
	Customer         CustomerPayload        `json:"customer"`
	Guests           int                    `json:"guests"`
	TravelDate       string                 `json:"travel_date,omitempty"`
	AddOns           []domain.SelectedAddOn `json:"add_ons"`
	TotalAmount      float64                `json:"total_amount"`
	Currency         string                 `json:"currency"`
	Status           string                 `json:"status"`
	PaymentReference string                 `json:"payment_reference,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:               b.ID,
		Reference:        b.Reference,
		Kind:             string(b.Kind),
		TargetID:         b.TargetID,
		Customer:         CustomerPayload{Name: b.Customer.Name, Email: b.Customer.Email, Phone: b.Customer.Phone},
		Guests:           b.Guests,
		AddOns:           nonNilAddOns(b.AddOns),
		TotalAmount:      b.TotalAmount,
		Currency:         b.Currency,
		Status:           string(b.Status),
		PaymentReference: b.PaymentReference,
		CreatedAt:        b.CreatedAt,
	}
	if !b.TravelDate.IsZero() {
		resp.TravelDate = b.TravelDate.Format(dateLayout)
	}
	return resp
}

type TicketResponse struct {
	Code       string    `json:"code"`
	HolderName string    `json:"holder_name"`
	Status     string    `json:"status"`
	IssuedAt   time.Time `json:"issued_at"`
}

type PurchaseResponse struct {
	ID           string                 `json:"id"`
	Reference    string                 `json:"reference"`
	TicketTypeID string                 `json:"ticket_type_id"`
	TierID       string                 `json:"tier_id"`
	Quantity     int                    `json:"quantity"`
	Customer     CustomerPayload        `json:"customer"`
	AddOns       []domain.SelectedAddOn `json:"add_ons"`
	TotalAmount  float64                `json:"total_amount"`
	Currency     string                 `json:"currency"`
	Status       string                 `json:"status"`
	Tickets      []TicketResponse       `json:"tickets"`
	CreatedAt    time.Time              `json:"created_at"`
}

func toPurchaseResponse(p *domain.TicketPurchase) PurchaseResponse {
	resp := PurchaseResponse{
		ID:           p.ID,
		Reference:    p.Reference,
		TicketTypeID: p.TicketTypeID,
		TierID:       p.TierID,
		Quantity:     p.Quantity,
		Customer:     CustomerPayload{Name: p.Customer.Name, Email: p.Customer.Email, Phone: p.Customer.Phone},
		AddOns:       nonNilAddOns(p.AddOns),
		TotalAmount:  p.TotalAmount,
		Currency:     p.Currency,
		Status:       string(p.Status),
		Tickets:      make([]TicketResponse, 0, len(p.Tickets)),
		CreatedAt:    p.CreatedAt,
	}
	for _, t := range p.Tickets {
		resp.Tickets = append(resp.Tickets, TicketResponse{
			Code:       t.Code,
			HolderName: t.HolderName,
			Status:     string(t.Status),
			IssuedAt:   t.IssuedAt,
		})
	}
	return resp
}

type PaymentResponse struct {
	Reference         string         `json:"reference"`
	Amount            float64        `json:"amount"`
	Currency          string         `json:"currency"`
	Method            string         `json:"method"`
	Provider          string         `json:"provider"`
	Status            string         `json:"status"`
	PurposeKind       string         `json:"purpose_kind"`
	PurposeID         string         `json:"purpose_id"`
	ProviderReference string         `json:"provider_reference,omitempty"`
	FailureReason     string         `json:"failure_reason,omitempty"`
	AuthorizationURL  string         `json:"authorization_url,omitempty"`
	DisplayText       string         `json:"display_text,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		Reference:         p.Reference,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Method:            string(p.Method),
		Provider:          p.ProviderCode,
		Status:            string(p.Status),
		PurposeKind:       string(p.PurposeKind),
		PurposeID:         p.PurposeID,
		ProviderReference: p.ProviderReference,
		FailureReason:     p.FailureReason,
		Metadata:          p.Metadata,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		CompletedAt:       optionalTime(p.CompletedAt),
	}
	if v, ok := p.Metadata["authorization_url"].(string); ok {
		resp.AuthorizationURL = v
	}
	if v, ok := p.Metadata["display_text"].(string); ok {
		resp.DisplayText = v
	}
	return resp
}

type MethodResponse struct {
	Method    string   `json:"method"`
	Currency  string   `json:"currency"`
	Providers []string `json:"providers"`
	Channels  []string `json:"channels"`
}

type ProviderPayload struct {
	Code         string              `json:"code"`
	Name         string              `json:"name"`
	Active       bool                `json:"active"`
	Sandbox      bool                `json:"sandbox"`
	Priority     int                 `json:"priority"`
	Capabilities []domain.Capability `json:"capabilities"`
}

func toProviderPayload(p *domain.PaymentProvider) ProviderPayload {
	caps := p.Capabilities
	if caps == nil {
		caps = []domain.Capability{}
	}
	return ProviderPayload{
		Code:         p.Code,
		Name:         p.Name,
		Active:       p.Active,
		Sandbox:      p.Sandbox,
		Priority:     p.Priority,
		Capabilities: caps,
	}
}

type GalleryImageResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Caption  string `json:"caption,omitempty"`
	Position int    `json:"position"`
	Featured bool   `json:"featured"`
}

type GalleryResponse struct {
	ID            string                 `json:"id"`
	Slug          string                 `json:"slug"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description,omitempty"`
	DestinationID string                 `json:"destination_id,omitempty"`
	Images        []GalleryImageResponse `json:"images"`
	CreatedAt     time.Time              `json:"created_at"`
}

func toGalleryImageResponse(img *domain.GalleryImage) GalleryImageResponse {
	return GalleryImageResponse{
		ID:       img.ID,
		URL:      img.URL,
		Caption:  img.Caption,
		Position: img.Position,
		Featured: img.Featured,
	}
}

func toGalleryResponse(g *domain.ImageGallery) GalleryResponse {
	resp := GalleryResponse{
		ID:            g.ID,
		Slug:          g.Slug,
		Title:         g.Title,
		Description:   g.Description,
		DestinationID: g.DestinationID,
		Images:        make([]GalleryImageResponse, 0, len(g.Images)),
		CreatedAt:     g.CreatedAt,
	}
	for i := range g.Images {
		resp.Images = append(resp.Images, toGalleryImageResponse(&g.Images[i]))
	}
	return resp
}

type ActivityResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	SubjectID string    `json:"subject_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

const dateLayout = "2006-01-02"

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nonNilAddOns(addOns []domain.SelectedAddOn) []domain.SelectedAddOn {
	if addOns == nil {
		return []domain.SelectedAddOn{}
	}
	return addOns
}
