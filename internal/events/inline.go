package events

import (
	"context"

	"github.com/sirupsen/logrus"

	"tours/internal/domain"
	"tours/internal/log"
)

// ResolvedHandler handles PaymentResolved events. The cqrs handlers
// returned by the New*Handler constructors satisfy it.
type ResolvedHandler interface {
	HandlerName() string
	Handle(ctx context.Context, event any) error
}

// InlineDispatcher runs the PaymentResolved handlers in the process that
// resolved the payment. It replaces the outbox pipeline when messaging is
// disabled. Failures are logged and not retried.
type InlineDispatcher struct {
	handlers []ResolvedHandler
}

func NewInlineDispatcher(handlers ...ResolvedHandler) *InlineDispatcher {
	return &InlineDispatcher{handlers: handlers}
}

// PaymentResolved runs every handler in order.
func (d *InlineDispatcher) PaymentResolved(ctx context.Context, payment *domain.Payment) {
	event := NewPaymentResolved(payment)
	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"payment_reference": payment.Reference,
		"event_id":          event.Header.ID,
	})

	for _, h := range d.handlers {
		if err := h.Handle(ctx, event); err != nil {
			logger.WithError(err).WithField("handler", h.HandlerName()).
				Error("PaymentResolved handler failed, side effect lost")
		}
	}
}
