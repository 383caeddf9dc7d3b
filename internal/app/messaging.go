package app

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	"tours/internal/config"
	"tours/internal/events"
)

// Messaging is the payment event pipeline: the outbox forwarder and the
// router running the event handlers.
type Messaging struct {
	Forwarder *forwarder.Forwarder
	Router    *message.Router
}

// NewMessaging builds the forwarder and registers the PaymentResolved
// handlers on a Redis streams processor.
func NewMessaging(cfg config.MessagingConfig, c *Container) (*Messaging, error) {
	fwd, err := events.NewForwarder(c.SQLX, c.Redis, c.WatermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox forwarder: %w", err)
	}

	router, err := events.NewRouter(c.WatermillLogger)
	if err != nil {
		return nil, err
	}

	_, err = events.RegisterEventHandlers(
		router,
		events.NewRedisProcessorConfig(c.Redis, cfg.ConsumerGroup, c.WatermillLogger),
		events.NewConfirmPurposeHandler(c.Bookings, c.Purchases, c.Receipts, c.Notifications),
		events.NewNotifyCustomerHandler(c.Notifications),
		events.NewRecordActivityHandler(c.Dashboard),
	)
	if err != nil {
		return nil, err
	}

	return &Messaging{Forwarder: fwd, Router: router}, nil
}
