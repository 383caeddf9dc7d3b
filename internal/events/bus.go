package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"

	"tours/internal/log"
)

// NewEventBus publishes events on a topic named after the event struct.
// The correlation id of the publishing context travels as message metadata.
func NewEventBus(pub message.Publisher, logger watermill.LoggerAdapter) (*cqrs.EventBus, error) {
	eventBus, err := cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				return params.EventName, nil
			},
			OnPublish: func(params cqrs.OnEventSendParams) error {
				if id := log.CorrelationIDFromContext(params.Message.Context()); id != "" {
					params.Message.Metadata.Set(correlationIDKey, id)
				}
				return nil
			},
			Marshaler: JSONMarshaler,
			Logger:    logger,
		})
	if err != nil {
		return nil, fmt.Errorf("could not create event bus: %w", err)
	}

	return eventBus, nil
}
