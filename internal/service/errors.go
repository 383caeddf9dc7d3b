package service

import "errors"

var (
	// ErrInvalidAmount is returned when a payment amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidCurrency is returned when a currency is not a 3-letter code.
	ErrInvalidCurrency = errors.New("invalid currency")

	// ErrInvalidPaymentMethod is returned when payment method is invalid.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidChannel is returned when a channel is not offered for the method.
	ErrInvalidChannel = errors.New("invalid payment channel")

	// ErrNoProviderAvailable is returned when no active provider supports a payment.
	ErrNoProviderAvailable = errors.New("no payment provider available")

	// ErrInvalidProvider is returned when a provider definition is malformed.
	ErrInvalidProvider = errors.New("invalid payment provider")

	// ErrGatewayNotConfigured is returned when a provider has no gateway wired.
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")

	// ErrInvalidReference is returned when a reference is empty.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidPurpose is returned when a checkout purpose is unknown.
	ErrInvalidPurpose = errors.New("invalid payment purpose")

	// ErrPurposeNotPayable is returned when the booking or purchase is no longer pending.
	ErrPurposeNotPayable = errors.New("order is not awaiting payment")

	// ErrPaymentInProgress is returned when an order already has an open
	// payment with another method.
	ErrPaymentInProgress = errors.New("order has a payment in progress")

	// ErrPaymentNotPending is returned when cancelling a payment that left pending.
	ErrPaymentNotPending = errors.New("payment is not pending")

	// ErrPaymentNotProcessing is returned when resolving a payment that is not processing.
	ErrPaymentNotProcessing = errors.New("payment is not processing")

	// ErrInvalidSignature is returned when a webhook signature does not verify.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidCustomer is returned when customer name or email is missing.
	ErrInvalidCustomer = errors.New("invalid customer details")

	// ErrInvalidGuests is returned when a booking has no guests.
	ErrInvalidGuests = errors.New("invalid number of guests")

	// ErrInvalidTravelDate is returned when a destination travel date is in the past.
	ErrInvalidTravelDate = errors.New("invalid travel date")

	// ErrInvalidBookingKind is returned when a booking kind is unknown.
	ErrInvalidBookingKind = errors.New("invalid booking kind")

	// ErrBookingNotPending is returned when cancelling a booking that left pending.
	ErrBookingNotPending = errors.New("booking is not pending")

	// ErrReceiptUnavailable is returned when a receipt is requested for an unpaid order.
	ErrReceiptUnavailable = errors.New("order has not been paid")

	// ErrInvalidQuantity is returned when a purchase quantity is out of range.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrUnavailable is returned when a destination or ticket type is inactive.
	ErrUnavailable = errors.New("not available for sale")

	// ErrTierNotFound is returned when a tier does not belong to the ticket type.
	ErrTierNotFound = errors.New("pricing tier not found")

	// ErrTierNotOnSale is returned when a tier is outside its sale window.
	ErrTierNotOnSale = errors.New("pricing tier not on sale")

	// ErrSoldOut is returned when remaining capacity is insufficient.
	ErrSoldOut = errors.New("sold out")

	// ErrAddOnNotFound is returned when a selected add-on is unknown or inactive.
	ErrAddOnNotFound = errors.New("add-on not found")

	// ErrCurrencyMismatch is returned when an add-on is priced in another currency.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidDestination is returned when a destination definition is malformed.
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrInvalidEvent is returned when an event definition is malformed.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidTicketType is returned when a ticket type definition is malformed.
	ErrInvalidTicketType = errors.New("invalid ticket type")

	// ErrInvalidGallery is returned when a gallery or image definition is malformed.
	ErrInvalidGallery = errors.New("invalid gallery")

	// ErrInvalidCredentials is returned when admin login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when an admin token does not verify.
	ErrInvalidToken = errors.New("invalid or expired token")
)
