package domain

import "time"

// Destination is a bookable tour destination.
type Destination struct {
	ID          string
	Slug        string
	Name        string
	Country     string
	City        string
	Description string
	Lat         float64
	Lng         float64
	BasePrice   float64
	Currency    string
	Active      bool
	CreatedAt   time.Time
}

// Event is a dated happening that sells tickets.
type Event struct {
	ID            string
	DestinationID string
	Title         string
	Venue         string
	Description   string
	StartsAt      time.Time
	EndsAt        time.Time
	Active        bool
}

// TicketType is a class of ticket sold for an event.
type TicketType struct {
	ID       string
	EventID  string
	Name     string
	Currency string
	Capacity int
	Sold     int
	Active   bool
	Tiers    []PricingTier
}

// Remaining returns the unsold capacity.
func (t *TicketType) Remaining() int {
	if t.Sold >= t.Capacity {
		return 0
	}
	return t.Capacity - t.Sold
}

// Tier returns the tier with the given id.
func (t *TicketType) Tier(id string) (*PricingTier, bool) {
	for i := range t.Tiers {
		if t.Tiers[i].ID == id {
			return &t.Tiers[i], true
		}
	}
	return nil, false
}

// PricingTier is a price point of a ticket type, optionally time-boxed.
type PricingTier struct {
	ID           string
	TicketTypeID string
	Name         string
	Price        float64
	StartsAt     time.Time
	EndsAt       time.Time
	Capacity     int
	Sold         int
}

// OnSale reports whether the tier can be bought at now. Zero bounds are open.
func (t *PricingTier) OnSale(now time.Time) bool {
	if !t.StartsAt.IsZero() && now.Before(t.StartsAt) {
		return false
	}
	if !t.EndsAt.IsZero() && !now.Before(t.EndsAt) {
		return false
	}
	return true
}

// AddOnCategory groups add-ons for display.
type AddOnCategory struct {
	ID           string
	Name         string
	Description  string
	DisplayOrder int
	AddOns       []AddOn
}

// AddOn is an optional extra sold with a booking or ticket purchase.
type AddOn struct {
	ID         string
	CategoryID string
	Name       string
	Price      float64
	Currency   string
	PerPerson  bool
	Active     bool
}

// SelectedAddOn is an add-on chosen on a booking or purchase.
type SelectedAddOn struct {
	AddOnID  string  `json:"add_on_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"unit_price"`
	Total    float64 `json:"total"`
}
