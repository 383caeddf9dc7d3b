package service

import (
	"context"

	"tours/internal/domain"
	"tours/internal/repository"
)

// orderPurposes resolves checkouts against bookings and ticket purchases.
type orderPurposes struct {
	bookingRepo  repository.BookingRepository
	purchaseRepo repository.PurchaseRepository
}

// NewPurposeResolver returns a PurposeResolver backed by the order repositories.
func NewPurposeResolver(bookingRepo repository.BookingRepository, purchaseRepo repository.PurchaseRepository) PurposeResolver {
	return &orderPurposes{bookingRepo: bookingRepo, purchaseRepo: purchaseRepo}
}

func (p *orderPurposes) Payable(ctx context.Context, kind domain.PurposeKind, id string) (*Payable, error) {
	switch kind {
	case domain.PurposeBooking:
		b, err := p.lookupBooking(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Payable{
			Kind:     kind,
			ID:       b.ID,
			Amount:   b.TotalAmount,
			Currency: b.Currency,
			Customer: b.Customer,
			Pending:  b.Status == domain.BookingStatusPending,
		}, nil

	case domain.PurposeTicketPurchase:
		tp, err := p.lookupPurchase(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Payable{
			Kind:     kind,
			ID:       tp.ID,
			Amount:   tp.TotalAmount,
			Currency: tp.Currency,
			Customer: tp.Customer,
			Pending:  tp.Status == domain.PurchaseStatusPending,
		}, nil
	}
	return nil, ErrInvalidPurpose
}

func (p *orderPurposes) AttachPayment(ctx context.Context, kind domain.PurposeKind, id, reference string) error {
	if kind != domain.PurposeBooking {
		return nil
	}
	return p.bookingRepo.SetPaymentReference(ctx, id, reference)
}

// lookupBooking accepts either the booking ID or its public reference.
func (p *orderPurposes) lookupBooking(ctx context.Context, id string) (*domain.Booking, error) {
	if isUUID(id) {
		return p.bookingRepo.GetByID(ctx, id)
	}
	return p.bookingRepo.GetByReference(ctx, id)
}

func (p *orderPurposes) lookupPurchase(ctx context.Context, id string) (*domain.TicketPurchase, error) {
	if isUUID(id) {
		return p.purchaseRepo.GetByID(ctx, id)
	}
	return p.purchaseRepo.GetByReference(ctx, id)
}
