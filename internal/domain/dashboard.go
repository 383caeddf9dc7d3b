package domain

import "time"

// ActivityKind classifies dashboard feed entries.
type ActivityKind string

const (
	ActivityBookingCreated  ActivityKind = "booking_created"
	ActivityPurchaseCreated ActivityKind = "purchase_created"
	ActivityPaymentSuccess  ActivityKind = "payment_successful"
	ActivityPaymentFailed   ActivityKind = "payment_failed"
	ActivityBookingCancel   ActivityKind = "booking_cancelled"
	ActivityPurchaseRefund  ActivityKind = "purchase_refund_due"
)

// Activity is one entry of the admin activity feed.
type Activity struct {
	ID        string
	Kind      ActivityKind
	SubjectID string
	Message   string
	CreatedAt time.Time
}

// Overview summarises the platform for the admin dashboard.
type Overview struct {
	BookingsByStatus   map[string]int64   `json:"bookings_by_status"`
	PurchasesByStatus  map[string]int64   `json:"purchases_by_status"`
	PaymentsByStatus   map[string]int64   `json:"payments_by_status"`
	RevenueByCurrency  map[string]float64 `json:"revenue_by_currency"`
	ActiveDestinations int64              `json:"active_destinations"`
	ActiveEvents       int64              `json:"active_events"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

// Admin is a dashboard operator.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	Active       bool
}
