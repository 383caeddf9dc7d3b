package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"

	"tours/internal/domain"
)

// OutboxTopic is the SQL topic the forwarder drains into Redis streams.
const OutboxTopic = "events_to_forward"

var JSONMarshaler = cqrs.JSONMarshaler{
	GenerateName: cqrs.StructName,
}

type EventHeader struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"published_at"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

// PaymentResolved is emitted once when a payment settles as successful or
// failed.
type PaymentResolved struct {
	Header EventHeader `json:"header"`

	PaymentID         string  `json:"payment_id"`
	Reference         string  `json:"reference"`
	Status            string  `json:"status"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	Method            string  `json:"method"`
	ProviderCode      string  `json:"provider_code"`
	ProviderReference string  `json:"provider_reference,omitempty"`
	PurposeKind       string  `json:"purpose_kind"`
	PurposeID         string  `json:"purpose_id"`
	CustomerEmail     string  `json:"customer_email,omitempty"`
	CustomerPhone     string  `json:"customer_phone,omitempty"`
	FailureReason     string  `json:"failure_reason,omitempty"`
}

func NewPaymentResolved(p *domain.Payment) *PaymentResolved {
	return &PaymentResolved{
		Header:            NewEventHeader(),
		PaymentID:         p.ID,
		Reference:         p.Reference,
		Status:            string(p.Status),
		Amount:            p.Amount,
		Currency:          p.Currency,
		Method:            string(p.Method),
		ProviderCode:      p.ProviderCode,
		ProviderReference: p.ProviderReference,
		PurposeKind:       string(p.PurposeKind),
		PurposeID:         p.PurposeID,
		CustomerEmail:     p.CustomerEmail,
		CustomerPhone:     p.CustomerPhone,
		FailureReason:     p.FailureReason,
	}
}

// Successful reports whether the payment settled successfully.
func (e *PaymentResolved) Successful() bool {
	return domain.PaymentStatus(e.Status) == domain.PaymentStatusSuccessful
}

// Payment rebuilds the settled payment carried by the event.
func (e *PaymentResolved) Payment() *domain.Payment {
	return &domain.Payment{
		ID:                e.PaymentID,
		Reference:         e.Reference,
		Amount:            e.Amount,
		Currency:          e.Currency,
		Method:            domain.PaymentMethod(e.Method),
		ProviderCode:      e.ProviderCode,
		Status:            domain.PaymentStatus(e.Status),
		PurposeKind:       domain.PurposeKind(e.PurposeKind),
		PurposeID:         e.PurposeID,
		CustomerEmail:     e.CustomerEmail,
		CustomerPhone:     e.CustomerPhone,
		ProviderReference: e.ProviderReference,
		FailureReason:     e.FailureReason,
	}
}
