package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/log"
	"tours/internal/repository"
)

const (
	minPurchaseQuantity = 1
	maxPurchaseQuantity = 20

	// purchaseHoldWindow is how long a pending purchase keeps its tickets
	// out of sale.
	purchaseHoldWindow = 30 * time.Minute
)

// PurchaseService handles ticket purchases.
type PurchaseService struct {
	purchaseRepo   repository.PurchaseRepository
	ticketTypeRepo repository.TicketTypeRepository
	pricing        *PricingService
	receipts       *ReceiptService
	activity       ActivityRecorder
	clock          clock.Clock
}

// NewPurchaseService creates a new PurchaseService. receipts and activity may be nil.
func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	ticketTypeRepo repository.TicketTypeRepository,
	pricing *PricingService,
	receipts *ReceiptService,
	activity ActivityRecorder,
	clk clock.Clock,
) *PurchaseService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &PurchaseService{
		purchaseRepo:   purchaseRepo,
		ticketTypeRepo: ticketTypeRepo,
		pricing:        pricing,
		receipts:       receipts,
		activity:       activity,
		clock:          clk,
	}
}

// CreatePurchaseRequest contains the parameters for buying tickets.
type CreatePurchaseRequest struct {
	TicketTypeID string
	TierID       string
	Quantity     int
	Customer     domain.Customer
	AddOns       []AddOnSelection
}

// CreatePurchase prices and stores a pending ticket purchase. Tickets are
// issued once the purchase is paid.
func (s *PurchaseService) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*domain.TicketPurchase, error) {
	if req.Quantity < minPurchaseQuantity || req.Quantity > maxPurchaseQuantity {
		return nil, ErrInvalidQuantity
	}
	customer, err := normalizeCustomer(req.Customer)
	if err != nil {
		return nil, err
	}
	if !isUUID(req.TicketTypeID) {
		return nil, repository.ErrNotFound
	}

	tt, err := s.ticketTypeRepo.GetByID(ctx, req.TicketTypeID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	held, err := s.purchaseRepo.HeldQuantities(ctx, tt.ID, now.Add(-purchaseHoldWindow))
	if err != nil {
		return nil, fmt.Errorf("held quantities: %w", err)
	}
	quote, err := s.pricing.QuoteTickets(ctx, withHolds(tt, held), req.TierID, req.Quantity, req.AddOns, now)
	if err != nil {
		return nil, err
	}

	purchase := &domain.TicketPurchase{
		ID:           uuid.New().String(),
		Reference:    "TP-" + shortuuid.New(),
		TicketTypeID: tt.ID,
		TierID:       quote.Tier.ID,
		Quantity:     req.Quantity,
		Customer:     customer,
		AddOns:       quote.AddOns,
		TotalAmount:  quote.Total,
		Currency:     quote.Currency,
		Status:       domain.PurchaseStatusPending,
		CreatedAt:    now,
	}

	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return nil, err
	}

	s.record(ctx, domain.ActivityPurchaseCreated, purchase.ID,
		fmt.Sprintf("%d x %s reserved by %s (%s)", purchase.Quantity, tt.Name, customer.Name, purchase.Reference))
	return purchase, nil
}

// GetPurchase retrieves a purchase with its tickets by ID or reference.
func (s *PurchaseService) GetPurchase(ctx context.Context, idOrReference string) (*domain.TicketPurchase, error) {
	if idOrReference == "" {
		return nil, ErrInvalidReference
	}
	if isUUID(idOrReference) {
		return s.purchaseRepo.GetByID(ctx, idOrReference)
	}
	return s.purchaseRepo.GetByReference(ctx, idOrReference)
}

// IssueTickets marks a pending purchase paid and issues one ticket per unit.
// Issuing for an already paid purchase returns it unchanged with false.
func (s *PurchaseService) IssueTickets(ctx context.Context, purchaseID string) (*domain.TicketPurchase, bool, error) {
	purchase, err := s.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, false, err
	}
	if purchase.Status == domain.PurchaseStatusPaid {
		return purchase, false, nil
	}
	if purchase.Status != domain.PurchaseStatusPending {
		return nil, false, ErrPurposeNotPayable
	}

	now := s.clock.Now()
	tickets := make([]domain.Ticket, 0, purchase.Quantity)
	for i := 0; i < purchase.Quantity; i++ {
		tickets = append(tickets, domain.Ticket{
			ID:         uuid.New().String(),
			Code:       "TKT-" + shortuuid.New(),
			PurchaseID: purchase.ID,
			HolderName: purchase.Customer.Name,
			Status:     domain.TicketStatusIssued,
			IssuedAt:   now,
		})
	}

	err = s.purchaseRepo.MarkPaid(ctx, purchase, tickets)
	if errors.Is(err, repository.ErrStaleState) {
		current, getErr := s.purchaseRepo.GetByID(ctx, purchaseID)
		if getErr == nil && current.Status == domain.PurchaseStatusPaid {
			return current, false, nil
		}
		return nil, false, ErrPurposeNotPayable
	}
	if errors.Is(err, repository.ErrSoldOut) {
		s.flagRefundDue(ctx, purchase)
		return nil, false, ErrSoldOut
	}
	if err != nil {
		return nil, false, err
	}

	return purchase, true, nil
}

// Receipt builds the receipt of a paid purchase.
func (s *PurchaseService) Receipt(ctx context.Context, idOrReference, paymentReference string) (*domain.Receipt, error) {
	purchase, err := s.GetPurchase(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if purchase.Status != domain.PurchaseStatusPaid || s.receipts == nil {
		return nil, ErrReceiptUnavailable
	}

	typeName, tierName := "Tickets", ""
	if tt, err := s.ticketTypeRepo.GetByID(ctx, purchase.TicketTypeID); err == nil {
		typeName = tt.Name
		if tier, ok := tt.Tier(purchase.TierID); ok {
			tierName = tier.Name
		}
	}
	return s.receipts.ForPurchase(ctx, purchase, typeName, tierName, paymentReference), nil
}

// flagRefundDue parks a paid purchase that can no longer be fulfilled so it
// shows up on the dashboard instead of staying pending.
func (s *PurchaseService) flagRefundDue(ctx context.Context, purchase *domain.TicketPurchase) {
	logger := log.FromContext(ctx).WithField("purchase_reference", purchase.Reference)
	if err := s.purchaseRepo.MarkRefundDue(ctx, purchase.ID); err != nil {
		logger.WithError(err).Error("failed to flag sold out purchase for refund")
		return
	}
	logger.Warn("purchase paid after capacity ran out, refund due")
	s.record(ctx, domain.ActivityPurchaseRefund, purchase.ID,
		fmt.Sprintf("%s paid %.2f %s but %d tickets were no longer available, refund due",
			purchase.Reference, purchase.TotalAmount, purchase.Currency, purchase.Quantity))
}

// withHolds returns a copy of tt with held quantities counted as sold.
func withHolds(tt *domain.TicketType, held map[string]int) *domain.TicketType {
	if len(held) == 0 {
		return tt
	}
	cp := *tt
	cp.Tiers = append([]domain.PricingTier(nil), tt.Tiers...)
	for tierID, qty := range held {
		cp.Sold += qty
		for i := range cp.Tiers {
			if cp.Tiers[i].ID == tierID {
				cp.Tiers[i].Sold += qty
			}
		}
	}
	return &cp
}

func (s *PurchaseService) record(ctx context.Context, kind domain.ActivityKind, subjectID, message string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, kind, subjectID, message); err != nil {
		log.FromContext(ctx).WithError(err).Warn("failed to record activity")
	}
}
