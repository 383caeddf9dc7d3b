package domain

import "time"

// PurchaseStatus represents the current status of a ticket purchase.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusPaid      PurchaseStatus = "paid"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
	// PurchaseStatusRefundDue marks a paid purchase whose tickets could not
	// be issued because the capacity was gone.
	PurchaseStatusRefundDue PurchaseStatus = "refund_due"
)

// TicketPurchase is an order for one or more tickets of a ticket type.
type TicketPurchase struct {
	ID           string
	Reference    string
	TicketTypeID string
	TierID       string
	Quantity     int
	Customer     Customer
	AddOns       []SelectedAddOn
	TotalAmount  float64
	Currency     string
	Status       PurchaseStatus
	Tickets      []Ticket
	CreatedAt    time.Time
}

// TicketStatus represents the state of an issued ticket.
type TicketStatus string

const (
	TicketStatusIssued TicketStatus = "issued"
	TicketStatusVoid   TicketStatus = "void"
)

// Ticket is one admission issued for a paid purchase.
type Ticket struct {
	ID         string
	Code       string
	PurchaseID string
	HolderName string
	Status     TicketStatus
	IssuedAt   time.Time
}
