package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tours/internal/domain"
	"tours/internal/log"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationPaymentSuccess   NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentFailed    NotificationType = "PAYMENT_FAILED"
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationTicketsIssued    NotificationType = "TICKETS_ISSUED"
	NotificationReceiptReady     NotificationType = "RECEIPT_READY"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type      NotificationType
	Recipient string // email or phone
	Title     string
	Message   string
	Data      map[string]interface{}
	CreatedAt time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyPaymentSuccess notifies the customer of a successful payment.
func (s *NotificationService) NotifyPaymentSuccess(ctx context.Context, payment *domain.Payment) error {
	return s.send(ctx, Notification{
		Type:      NotificationPaymentSuccess,
		Recipient: recipientOf(payment.CustomerEmail, payment.CustomerPhone),
		Title:     "Payment Successful",
		Message:   fmt.Sprintf("Payment %s of %s %.2f was successful", payment.Reference, payment.Currency, payment.Amount),
		Data: map[string]interface{}{
			"reference": payment.Reference,
			"amount":    payment.Amount,
			"currency":  payment.Currency,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentFailed notifies the customer of a failed payment.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, payment *domain.Payment) error {
	return s.send(ctx, Notification{
		Type:      NotificationPaymentFailed,
		Recipient: recipientOf(payment.CustomerEmail, payment.CustomerPhone),
		Title:     "Payment Failed",
		Message:   fmt.Sprintf("Payment %s of %s %.2f failed. Please try again.", payment.Reference, payment.Currency, payment.Amount),
		Data: map[string]interface{}{
			"reference": payment.Reference,
			"reason":    payment.FailureReason,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyBookingConfirmed tells the customer their booking is confirmed.
func (s *NotificationService) NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking) error {
	return s.send(ctx, Notification{
		Type:      NotificationBookingConfirmed,
		Recipient: recipientOf(booking.Customer.Email, booking.Customer.Phone),
		Title:     "Booking Confirmed",
		Message:   fmt.Sprintf("Booking %s for %d guest(s) is confirmed", booking.Reference, booking.Guests),
		Data: map[string]interface{}{
			"booking_reference": booking.Reference,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyTicketsIssued sends the ticket codes of a paid purchase.
func (s *NotificationService) NotifyTicketsIssued(ctx context.Context, purchase *domain.TicketPurchase) error {
	codes := make([]string, 0, len(purchase.Tickets))
	for _, t := range purchase.Tickets {
		codes = append(codes, t.Code)
	}
	return s.send(ctx, Notification{
		Type:      NotificationTicketsIssued,
		Recipient: recipientOf(purchase.Customer.Email, purchase.Customer.Phone),
		Title:     "Your Tickets",
		Message:   fmt.Sprintf("%d ticket(s) issued for purchase %s", len(codes), purchase.Reference),
		Data: map[string]interface{}{
			"purchase_reference": purchase.Reference,
			"codes":              codes,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyReceiptReady notifies the customer that the receipt is ready.
func (s *NotificationService) NotifyReceiptReady(ctx context.Context, receipt *domain.Receipt) error {
	return s.send(ctx, Notification{
		Type:      NotificationReceiptReady,
		Recipient: receipt.CustomerEmail,
		Title:     "Receipt Ready",
		Message:   fmt.Sprintf("Your receipt for %s %.2f is ready", receipt.Currency, receipt.Total),
		Data: map[string]interface{}{
			"receipt_id":      receipt.ID,
			"order_reference": receipt.OrderReference,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers a notification. Delivery is a structured log line; email and
// SMS transports are not wired.
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.FromContext(ctx).WithFields(logrus.Fields{
		"notification_type": notification.Type,
		"recipient":         notification.Recipient,
		"title":             notification.Title,
	}).Info(notification.Message)

	return nil
}

func recipientOf(email, phone string) string {
	if email != "" {
		return email
	}
	return phone
}
