package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// InitializeOutbox creates the outbox tables. Processes that resolve
// payments without running the forwarder call it at startup.
func InitializeOutbox(db *sqlx.DB, logger watermill.LoggerAdapter) error {
	subscriber, err := newOutboxSubscriber(db, logger)
	if err != nil {
		return err
	}
	return subscriber.Close()
}

// NewForwarder moves events stored by the Outbox to Redis streams.
func NewForwarder(db *sqlx.DB, rdb *redis.Client, logger watermill.LoggerAdapter) (*forwarder.Forwarder, error) {
	subscriber, err := newOutboxSubscriber(db, logger)
	if err != nil {
		return nil, err
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: rdb},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}

	fwd, err := forwarder.NewForwarder(subscriber, publisher, logger, forwarder.Config{
		ForwarderTopic: OutboxTopic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create forwarder: %w", err)
	}

	return fwd, nil
}

func newOutboxSubscriber(db *sqlx.DB, logger watermill.LoggerAdapter) (*sql.Subscriber, error) {
	subscriber, err := sql.NewSubscriber(
		db,
		sql.SubscriberConfig{
			SchemaAdapter:  sql.DefaultPostgreSQLSchema{},
			OffsetsAdapter: sql.DefaultPostgreSQLOffsetsAdapter{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox subscriber: %w", err)
	}

	if err := subscriber.SubscribeInitialize(OutboxTopic); err != nil {
		return nil, fmt.Errorf("failed to initialize outbox subscriber: %w", err)
	}
	return subscriber, nil
}
