package repository

import (
	"context"

	"tours/internal/domain"
)

// DestinationRepository defines the persistence operations for destinations.
type DestinationRepository interface {
	Create(ctx context.Context, destination *domain.Destination) error
	GetByID(ctx context.Context, id string) (*domain.Destination, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Destination, error)

	// List retrieves active destinations, optionally filtered by country.
	List(ctx context.Context, country string) ([]*domain.Destination, error)

	// ListByIDs retrieves destinations preserving the order of ids.
	ListByIDs(ctx context.Context, ids []string) ([]*domain.Destination, error)
}

// EventRepository defines the persistence operations for events.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	// List retrieves active events, optionally for one destination.
	List(ctx context.Context, destinationID string) ([]*domain.Event, error)
}

// TicketTypeRepository defines the persistence operations for ticket types
// and their pricing tiers.
type TicketTypeRepository interface {
	// Create persists a ticket type together with its tiers.
	Create(ctx context.Context, ticketType *domain.TicketType) error

	// GetByID retrieves a ticket type with its tiers.
	GetByID(ctx context.Context, id string) (*domain.TicketType, error)

	// ListByEvent retrieves the ticket types of an event with their tiers.
	ListByEvent(ctx context.Context, eventID string) ([]*domain.TicketType, error)
}

// AddOnRepository defines the read operations for add-ons.
type AddOnRepository interface {
	// ListCategories retrieves categories with their active add-ons.
	ListCategories(ctx context.Context) ([]*domain.AddOnCategory, error)

	// GetByIDs retrieves active add-ons by ID. Unknown IDs are omitted.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.AddOn, error)
}
