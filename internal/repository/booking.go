package repository

import (
	"context"
	"time"

	"tours/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetByReference retrieves a booking by its public reference.
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)

	// List retrieves bookings newest first.
	List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)

	// UpdateStatus moves a booking from one status to another, returning
	// ErrStaleState when the stored status differs from from.
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) error

	// SetPaymentReference links the booking to its latest checkout.
	SetPaymentReference(ctx context.Context, id, reference string) error
}

// PurchaseRepository defines the persistence operations for ticket purchases.
type PurchaseRepository interface {
	// Create persists a new purchase.
	Create(ctx context.Context, purchase *domain.TicketPurchase) error

	// GetByID retrieves a purchase with its tickets.
	GetByID(ctx context.Context, id string) (*domain.TicketPurchase, error)

	// GetByReference retrieves a purchase with its tickets.
	GetByReference(ctx context.Context, reference string) (*domain.TicketPurchase, error)

	// MarkPaid moves a pending purchase to paid, stores its tickets and
	// increments the sold counters atomically. It returns ErrStaleState when
	// the purchase is no longer pending and ErrSoldOut when capacity is gone.
	MarkPaid(ctx context.Context, purchase *domain.TicketPurchase, tickets []domain.Ticket) error

	// MarkRefundDue moves a pending purchase to refund_due. It returns
	// ErrStaleState when the purchase is no longer pending.
	MarkRefundDue(ctx context.Context, id string) error

	// HeldQuantities sums the quantities of pending purchases of a ticket
	// type created after since, keyed by tier ID.
	HeldQuantities(ctx context.Context, ticketTypeID string, since time.Time) (map[string]int, error)
}
