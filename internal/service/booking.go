package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/log"
	"tours/internal/repository"
)

const maxGuests = 50

// ActivityRecorder appends entries to the admin activity feed.
type ActivityRecorder interface {
	Record(ctx context.Context, kind domain.ActivityKind, subjectID, message string) error
}

// BookingService handles booking operations.
type BookingService struct {
	bookingRepo     repository.BookingRepository
	destinationRepo repository.DestinationRepository
	ticketTypeRepo  repository.TicketTypeRepository
	pricing         *PricingService
	activity        ActivityRecorder
	clock           clock.Clock
}

// NewBookingService creates a new BookingService. activity may be nil.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	destinationRepo repository.DestinationRepository,
	ticketTypeRepo repository.TicketTypeRepository,
	pricing *PricingService,
	activity ActivityRecorder,
	clk clock.Clock,
) *BookingService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &BookingService{
		bookingRepo:     bookingRepo,
		destinationRepo: destinationRepo,
		ticketTypeRepo:  ticketTypeRepo,
		pricing:         pricing,
		activity:        activity,
		clock:           clk,
	}
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	Kind       domain.BookingKind
	TargetID   string
	TierID     string
	Customer   domain.Customer
	Guests     int
	TravelDate time.Time
	AddOns     []AddOnSelection
}

// CreateBooking prices and stores a pending booking.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	customer, err := normalizeCustomer(req.Customer)
	if err != nil {
		return nil, err
	}
	if req.Guests <= 0 || req.Guests > maxGuests {
		return nil, ErrInvalidGuests
	}
	if !isUUID(req.TargetID) {
		return nil, repository.ErrNotFound
	}

	now := s.clock.Now()
	var (
		quote      *Quote
		travelDate time.Time
	)

	switch req.Kind {
	case domain.BookingKindDestination:
		if req.TravelDate.IsZero() {
			return nil, ErrInvalidTravelDate
		}
		travelDate = truncateDay(req.TravelDate)
		if travelDate.Before(truncateDay(now)) {
			return nil, ErrInvalidTravelDate
		}

		d, err := s.destinationRepo.GetByID(ctx, req.TargetID)
		if err != nil {
			return nil, err
		}
		quote, err = s.pricing.QuoteDestination(ctx, d, req.Guests, req.AddOns)
		if err != nil {
			return nil, err
		}

	case domain.BookingKindTicketType:
		tt, err := s.ticketTypeRepo.GetByID(ctx, req.TargetID)
		if err != nil {
			return nil, err
		}
		quote, err = s.pricing.QuoteTickets(ctx, tt, req.TierID, req.Guests, req.AddOns, now)
		if err != nil {
			return nil, err
		}
		if !req.TravelDate.IsZero() {
			travelDate = truncateDay(req.TravelDate)
		}

	default:
		return nil, ErrInvalidBookingKind
	}

	booking := &domain.Booking{
		ID:          uuid.New().String(),
		Reference:   "BK-" + shortuuid.New(),
		Kind:        req.Kind,
		TargetID:    req.TargetID,
		Customer:    customer,
		Guests:      req.Guests,
		TravelDate:  travelDate,
		AddOns:      quote.AddOns,
		TotalAmount: quote.Total,
		Currency:    quote.Currency,
		Status:      domain.BookingStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.record(ctx, domain.ActivityBookingCreated, booking.ID,
		fmt.Sprintf("Booking %s created for %s (%s %.2f)", booking.Reference, customer.Name, booking.Currency, booking.TotalAmount))
	return booking, nil
}

// GetBooking retrieves a booking by ID or reference.
func (s *BookingService) GetBooking(ctx context.Context, idOrReference string) (*domain.Booking, error) {
	if idOrReference == "" {
		return nil, ErrInvalidReference
	}
	if isUUID(idOrReference) {
		return s.bookingRepo.GetByID(ctx, idOrReference)
	}
	return s.bookingRepo.GetByReference(ctx, idOrReference)
}

// ListBookings returns bookings newest first.
func (s *BookingService) ListBookings(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	return s.bookingRepo.List(ctx, filter)
}

// CancelBooking cancels a pending booking.
func (s *BookingService) CancelBooking(ctx context.Context, idOrReference string) (*domain.Booking, error) {
	booking, err := s.GetBooking(ctx, idOrReference)
	if err != nil {
		return nil, err
	}

	err = s.bookingRepo.UpdateStatus(ctx, booking.ID, domain.BookingStatusPending, domain.BookingStatusCancelled)
	if errors.Is(err, repository.ErrStaleState) {
		return nil, ErrBookingNotPending
	}
	if err != nil {
		return nil, err
	}
	booking.Status = domain.BookingStatusCancelled

	s.record(ctx, domain.ActivityBookingCancel, booking.ID, fmt.Sprintf("Booking %s cancelled", booking.Reference))
	return booking, nil
}

// ConfirmBooking marks a pending booking confirmed. Confirming an already
// confirmed booking is a no-op that reports false.
func (s *BookingService) ConfirmBooking(ctx context.Context, id string) (*domain.Booking, bool, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if booking.Status == domain.BookingStatusConfirmed {
		return booking, false, nil
	}

	err = s.bookingRepo.UpdateStatus(ctx, id, domain.BookingStatusPending, domain.BookingStatusConfirmed)
	if errors.Is(err, repository.ErrStaleState) {
		current, getErr := s.bookingRepo.GetByID(ctx, id)
		if getErr == nil && current.Status == domain.BookingStatusConfirmed {
			return current, false, nil
		}
		return nil, false, ErrBookingNotPending
	}
	if err != nil {
		return nil, false, err
	}

	booking.Status = domain.BookingStatusConfirmed
	return booking, true, nil
}

// TargetName returns a display name for what a booking reserves.
func (s *BookingService) TargetName(ctx context.Context, booking *domain.Booking) string {
	switch booking.Kind {
	case domain.BookingKindDestination:
		if d, err := s.destinationRepo.GetByID(ctx, booking.TargetID); err == nil {
			return d.Name
		}
	case domain.BookingKindTicketType:
		if tt, err := s.ticketTypeRepo.GetByID(ctx, booking.TargetID); err == nil {
			return tt.Name
		}
	}
	return string(booking.Kind)
}

func (s *BookingService) record(ctx context.Context, kind domain.ActivityKind, subjectID, message string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, kind, subjectID, message); err != nil {
		log.FromContext(ctx).WithError(err).Warn("failed to record activity")
	}
}

func normalizeCustomer(c domain.Customer) (domain.Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)

	if c.Name == "" || c.Email == "" {
		return c, ErrInvalidCustomer
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return c, ErrInvalidCustomer
	}
	return c, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
