package domain

import "time"

// BookingKind distinguishes destination bookings from ticket-type bookings.
type BookingKind string

const (
	BookingKindDestination BookingKind = "destination"
	BookingKindTicketType  BookingKind = "ticket_type"
)

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Customer holds contact details of the person paying.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Booking reserves a destination trip or a ticket type.
type Booking struct {
	ID               string
	Reference        string
	Kind             BookingKind
	TargetID         string
	Customer         Customer
	Guests           int
	TravelDate       time.Time
	AddOns           []SelectedAddOn
	TotalAmount      float64
	Currency         string
	Status           BookingStatus
	PaymentReference string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	Status BookingStatus
	Limit  int
}
