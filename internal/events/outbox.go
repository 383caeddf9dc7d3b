package events

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	"tours/internal/domain"
)

// Outbox stores events in the caller's transaction. The forwarder later
// moves them to Redis streams, so an event exists only if its transaction
// committed.
type Outbox struct {
	logger watermill.LoggerAdapter
}

func NewOutbox(logger watermill.LoggerAdapter) *Outbox {
	return &Outbox{logger: logger}
}

// PaymentResolved publishes a PaymentResolved event inside tx.
func (o *Outbox) PaymentResolved(ctx context.Context, tx *sql.Tx, payment *domain.Payment) error {
	publisher, err := o.publisherInTx(tx)
	if err != nil {
		return err
	}

	bus, err := NewEventBus(publisher, o.logger)
	if err != nil {
		return err
	}

	if err := bus.Publish(ctx, NewPaymentResolved(payment)); err != nil {
		return fmt.Errorf("could not publish PaymentResolved for %s: %w", payment.Reference, err)
	}
	return nil
}

func (o *Outbox) publisherInTx(tx *sql.Tx) (message.Publisher, error) {
	var publisher message.Publisher
	var err error

	publisher, err = watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{}},
		o.logger,
	)
	if err != nil {
		return nil, fmt.Errorf("could not create outbox publisher: %w", err)
	}

	publisher = forwarder.NewPublisher(publisher, forwarder.PublisherConfig{
		ForwarderTopic: OutboxTopic,
	})
	return publisher, nil
}
