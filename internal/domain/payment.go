package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSuccessful, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether s -> next is a legal payment transition.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusProcessing || next == PaymentStatusCancelled || next == PaymentStatusFailed
	case PaymentStatusProcessing:
		return next == PaymentStatusSuccessful || next == PaymentStatusFailed
	}
	return false
}

// PaymentMethod is the customer-facing payment channel.
type PaymentMethod string

const (
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodUSSD         PaymentMethod = "ussd"
)

// Valid reports whether m is a known method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodMobileMoney, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodUSSD:
		return true
	}
	return false
}

// PurposeKind identifies what a payment is for.
type PurposeKind string

const (
	PurposeBooking        PurposeKind = "booking"
	PurposeTicketPurchase PurposeKind = "ticket_purchase"
)

// Payment represents a payment transaction.
type Payment struct {
	ID                string
	Reference         string
	Amount            float64
	Currency          string
	Method            PaymentMethod
	ProviderCode      string
	Status            PaymentStatus
	PurposeKind       PurposeKind
	PurposeID         string
	CustomerEmail     string
	CustomerPhone     string
	Metadata          map[string]any
	ProviderReference string
	FailureReason     string
	IdempotencyKey    string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       time.Time
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	Status       PaymentStatus
	ProviderCode string
	Limit        int
}
