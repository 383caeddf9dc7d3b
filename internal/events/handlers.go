package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"tours/internal/domain"
	"tours/internal/log"
	"tours/internal/service"
)

// BookingConfirmer confirms a paid booking.
type BookingConfirmer interface {
	ConfirmBooking(ctx context.Context, id string) (*domain.Booking, bool, error)
	TargetName(ctx context.Context, booking *domain.Booking) string
}

// TicketIssuer issues the tickets of a paid purchase.
type TicketIssuer interface {
	IssueTickets(ctx context.Context, purchaseID string) (*domain.TicketPurchase, bool, error)
	Receipt(ctx context.Context, idOrReference, paymentReference string) (*domain.Receipt, error)
}

// ReceiptSender builds and delivers receipts.
type ReceiptSender interface {
	ForBooking(ctx context.Context, booking *domain.Booking, targetName string) *domain.Receipt
	Send(ctx context.Context, receipt *domain.Receipt) error
}

// Notifier tells customers about payment and order outcomes.
type Notifier interface {
	NotifyPaymentSuccess(ctx context.Context, payment *domain.Payment) error
	NotifyPaymentFailed(ctx context.Context, payment *domain.Payment) error
	NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking) error
	NotifyTicketsIssued(ctx context.Context, purchase *domain.TicketPurchase) error
}

// ActivityRecorder appends entries to the admin activity feed.
type ActivityRecorder interface {
	Record(ctx context.Context, kind domain.ActivityKind, subjectID, message string) error
}

// ConfirmPurposeHandler confirms the booking or issues the tickets a
// successful payment was for.
type ConfirmPurposeHandler struct {
	bookings  BookingConfirmer
	purchases TicketIssuer
	receipts  ReceiptSender
	notifier  Notifier
}

func NewConfirmPurposeHandler(
	bookings BookingConfirmer,
	purchases TicketIssuer,
	receipts ReceiptSender,
	notifier Notifier,
) *ConfirmPurposeHandler {
	return &ConfirmPurposeHandler{
		bookings:  bookings,
		purchases: purchases,
		receipts:  receipts,
		notifier:  notifier,
	}
}

func (h *ConfirmPurposeHandler) HandlerName() string {
	return "ConfirmPurpose"
}

func (h *ConfirmPurposeHandler) NewEvent() interface{} {
	return &PaymentResolved{}
}

func (h *ConfirmPurposeHandler) Handle(ctx context.Context, event any) error {
	resolved, ok := event.(*PaymentResolved)
	if !ok {
		return fmt.Errorf("unexpected event type: %T", event)
	}
	if !resolved.Successful() {
		return nil
	}

	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"payment_reference": resolved.Reference,
		"purpose_kind":      resolved.PurposeKind,
		"purpose_id":        resolved.PurposeID,
	})

	switch domain.PurposeKind(resolved.PurposeKind) {
	case domain.PurposeBooking:
		return h.confirmBooking(ctx, logger, resolved)
	case domain.PurposeTicketPurchase:
		return h.issueTickets(ctx, logger, resolved)
	default:
		logger.Warn("payment resolved for unknown purpose")
		return nil
	}
}

func (h *ConfirmPurposeHandler) confirmBooking(ctx context.Context, logger *logrus.Entry, resolved *PaymentResolved) error {
	booking, changed, err := h.bookings.ConfirmBooking(ctx, resolved.PurposeID)
	if errors.Is(err, service.ErrBookingNotPending) {
		logger.Warn("paid booking is no longer pending")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}
	if !changed {
		return nil
	}

	logger.WithField("booking_reference", booking.Reference).Info("Booking confirmed")

	if err := h.notifier.NotifyBookingConfirmed(ctx, booking); err != nil {
		logger.WithError(err).Warn("failed to notify booking confirmation")
	}
	receipt := h.receipts.ForBooking(ctx, booking, h.bookings.TargetName(ctx, booking))
	if err := h.receipts.Send(ctx, receipt); err != nil {
		logger.WithError(err).Warn("failed to send booking receipt")
	}
	return nil
}

func (h *ConfirmPurposeHandler) issueTickets(ctx context.Context, logger *logrus.Entry, resolved *PaymentResolved) error {
	purchase, changed, err := h.purchases.IssueTickets(ctx, resolved.PurposeID)
	if errors.Is(err, service.ErrSoldOut) || errors.Is(err, service.ErrPurposeNotPayable) {
		logger.WithError(err).Error("paid purchase could not be fulfilled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to issue tickets: %w", err)
	}
	if !changed {
		return nil
	}

	logger.WithFields(logrus.Fields{
		"purchase_reference": purchase.Reference,
		"tickets":            len(purchase.Tickets),
	}).Info("Tickets issued")

	if err := h.notifier.NotifyTicketsIssued(ctx, purchase); err != nil {
		logger.WithError(err).Warn("failed to notify issued tickets")
	}
	receipt, err := h.purchases.Receipt(ctx, purchase.ID, resolved.Reference)
	if err != nil {
		logger.WithError(err).Warn("failed to build purchase receipt")
		return nil
	}
	if err := h.receipts.Send(ctx, receipt); err != nil {
		logger.WithError(err).Warn("failed to send purchase receipt")
	}
	return nil
}

// NotifyCustomerHandler tells the payer how the payment ended.
type NotifyCustomerHandler struct {
	notifier Notifier
}

func NewNotifyCustomerHandler(notifier Notifier) *NotifyCustomerHandler {
	return &NotifyCustomerHandler{notifier: notifier}
}

func (h *NotifyCustomerHandler) HandlerName() string {
	return "NotifyCustomer"
}

func (h *NotifyCustomerHandler) NewEvent() interface{} {
	return &PaymentResolved{}
}

func (h *NotifyCustomerHandler) Handle(ctx context.Context, event any) error {
	resolved, ok := event.(*PaymentResolved)
	if !ok {
		return fmt.Errorf("unexpected event type: %T", event)
	}

	payment := resolved.Payment()
	if resolved.Successful() {
		return h.notifier.NotifyPaymentSuccess(ctx, payment)
	}
	return h.notifier.NotifyPaymentFailed(ctx, payment)
}

// RecordActivityHandler adds resolved payments to the admin activity feed.
type RecordActivityHandler struct {
	recorder ActivityRecorder
}

func NewRecordActivityHandler(recorder ActivityRecorder) *RecordActivityHandler {
	return &RecordActivityHandler{recorder: recorder}
}

func (h *RecordActivityHandler) HandlerName() string {
	return "RecordPaymentActivity"
}

func (h *RecordActivityHandler) NewEvent() interface{} {
	return &PaymentResolved{}
}

func (h *RecordActivityHandler) Handle(ctx context.Context, event any) error {
	resolved, ok := event.(*PaymentResolved)
	if !ok {
		return fmt.Errorf("unexpected event type: %T", event)
	}

	kind := domain.ActivityPaymentFailed
	message := fmt.Sprintf("Payment %s of %.2f %s failed", resolved.Reference, resolved.Amount, resolved.Currency)
	if resolved.Successful() {
		kind = domain.ActivityPaymentSuccess
		message = fmt.Sprintf("Payment %s of %.2f %s succeeded", resolved.Reference, resolved.Amount, resolved.Currency)
	}

	if err := h.recorder.Record(ctx, kind, resolved.PaymentID, message); err != nil {
		return fmt.Errorf("failed to record payment activity: %w", err)
	}
	return nil
}
