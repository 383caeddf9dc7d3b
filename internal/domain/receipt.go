package domain

import "time"

// Receipt summarises a paid booking or ticket purchase.
type Receipt struct {
	ID               string
	OrderReference   string
	PaymentReference string
	CustomerName     string
	CustomerEmail    string
	Lines            []ReceiptLine
	Total            float64
	Currency         string
	TicketCodes      []string
	IssuedAt         time.Time
}

// ReceiptLine is one priced line of a receipt.
type ReceiptLine struct {
	Description string
	Quantity    int
	UnitPrice   float64
	Total       float64
}
