package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
)

// NewRedisProcessorConfig subscribes every handler to the stream named after
// its event, with one consumer group per handler so each handler sees every
// event once.
func NewRedisProcessorConfig(rdb *redis.Client, consumerGroup string, logger watermill.LoggerAdapter) cqrs.EventProcessorConfig {
	return cqrs.EventProcessorConfig{
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return params.EventName, nil
		},
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        rdb,
				ConsumerGroup: consumerGroup + "." + params.HandlerName,
			}, logger)
		},
		Marshaler: JSONMarshaler,
		Logger:    logger,
	}
}

// RegisterEventHandlers adds handlers to router using config.
func RegisterEventHandlers(
	router *message.Router,
	config cqrs.EventProcessorConfig,
	handlers ...cqrs.EventHandler,
) (*cqrs.EventProcessor, error) {
	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, config)
	if err != nil {
		return nil, fmt.Errorf("could not create event processor: %w", err)
	}

	if err := eventProcessor.AddHandlers(handlers...); err != nil {
		return nil, fmt.Errorf("could not add event handlers: %w", err)
	}

	return eventProcessor, nil
}
