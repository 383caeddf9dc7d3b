package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"tours/internal/domain"
	"tours/internal/repository"
)

// AddOnSelection is an add-on requested by the customer.
type AddOnSelection struct {
	AddOnID  string
	Quantity int
}

// Quote is a priced order.
type Quote struct {
	Currency    string
	UnitPrice   float64
	Quantity    int
	BaseTotal   float64
	AddOnsTotal float64
	Total       float64
	Tier        *domain.PricingTier
	AddOns      []domain.SelectedAddOn
}

// PricingService prices ticket purchases and bookings.
type PricingService struct {
	addOnRepo repository.AddOnRepository
}

// NewPricingService creates a new PricingService.
func NewPricingService(addOnRepo repository.AddOnRepository) *PricingService {
	return &PricingService{addOnRepo: addOnRepo}
}

// QuoteTickets prices quantity tickets of a tier at now. An empty tierID
// picks the cheapest tier that is on sale and has room.
func (s *PricingService) QuoteTickets(ctx context.Context, tt *domain.TicketType, tierID string, quantity int, selections []AddOnSelection, now time.Time) (*Quote, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if !tt.Active {
		return nil, ErrUnavailable
	}

	tier, err := pickTier(tt, tierID, quantity, now)
	if err != nil {
		return nil, err
	}
	if tt.Remaining() < quantity {
		return nil, ErrSoldOut
	}

	addOns, err := s.priceAddOns(ctx, selections, tt.Currency, quantity)
	if err != nil {
		return nil, err
	}

	return buildQuote(tt.Currency, tier.Price, quantity, tier, addOns), nil
}

// QuoteDestination prices a destination trip: base price per guest plus add-ons.
func (s *PricingService) QuoteDestination(ctx context.Context, d *domain.Destination, guests int, selections []AddOnSelection) (*Quote, error) {
	if guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if !d.Active {
		return nil, ErrUnavailable
	}

	addOns, err := s.priceAddOns(ctx, selections, d.Currency, guests)
	if err != nil {
		return nil, err
	}

	return buildQuote(d.Currency, d.BasePrice, guests, nil, addOns), nil
}

func pickTier(tt *domain.TicketType, tierID string, quantity int, now time.Time) (*domain.PricingTier, error) {
	if tierID != "" {
		tier, ok := tt.Tier(tierID)
		if !ok {
			return nil, ErrTierNotFound
		}
		if !tier.OnSale(now) {
			return nil, ErrTierNotOnSale
		}
		if !tierHasRoom(tier, quantity) {
			return nil, ErrSoldOut
		}
		return tier, nil
	}

	var (
		best   *domain.PricingTier
		onSale bool
	)
	for i := range tt.Tiers {
		tier := &tt.Tiers[i]
		if !tier.OnSale(now) {
			continue
		}
		onSale = true
		if !tierHasRoom(tier, quantity) {
			continue
		}
		if best == nil || tier.Price < best.Price {
			best = tier
		}
	}
	if best == nil {
		if onSale {
			return nil, ErrSoldOut
		}
		return nil, ErrTierNotOnSale
	}
	return best, nil
}

func tierHasRoom(tier *domain.PricingTier, quantity int) bool {
	return tier.Capacity == 0 || tier.Sold+quantity <= tier.Capacity
}

// priceAddOns resolves selections and prices them. Per-person add-ons are
// multiplied by people.
func (s *PricingService) priceAddOns(ctx context.Context, selections []AddOnSelection, currency string, people int) ([]domain.SelectedAddOn, error) {
	if len(selections) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(selections))
	for _, sel := range selections {
		if !isUUID(sel.AddOnID) {
			return nil, fmt.Errorf("%w: %s", ErrAddOnNotFound, sel.AddOnID)
		}
		ids = append(ids, sel.AddOnID)
	}

	found, err := s.addOnRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.AddOn, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}

	selected := make([]domain.SelectedAddOn, 0, len(selections))
	for _, sel := range selections {
		addOn, ok := byID[sel.AddOnID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAddOnNotFound, sel.AddOnID)
		}
		if !strings.EqualFold(addOn.Currency, currency) {
			return nil, fmt.Errorf("%w: add-on %s is priced in %s", ErrCurrencyMismatch, addOn.Name, addOn.Currency)
		}

		qty := sel.Quantity
		if qty <= 0 {
			qty = 1
		}
		units := qty
		if addOn.PerPerson {
			units = qty * people
		}

		selected = append(selected, domain.SelectedAddOn{
			AddOnID:  addOn.ID,
			Name:     addOn.Name,
			Quantity: units,
			Price:    addOn.Price,
			Total:    roundMoney(addOn.Price * float64(units)),
		})
	}
	return selected, nil
}

func buildQuote(currency string, unitPrice float64, quantity int, tier *domain.PricingTier, addOns []domain.SelectedAddOn) *Quote {
	q := &Quote{
		Currency:  strings.ToUpper(currency),
		UnitPrice: unitPrice,
		Quantity:  quantity,
		BaseTotal: roundMoney(unitPrice * float64(quantity)),
		Tier:      tier,
		AddOns:    addOns,
	}
	for _, a := range addOns {
		q.AddOnsTotal += a.Total
	}
	q.AddOnsTotal = roundMoney(q.AddOnsTotal)
	q.Total = roundMoney(q.BaseTotal + q.AddOnsTotal)
	return q
}

// roundMoney rounds to two decimal places.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
