package repository

import (
	"context"

	"tours/internal/domain"
)

// GalleryRepository defines the persistence operations for image galleries.
type GalleryRepository interface {
	Create(ctx context.Context, gallery *domain.ImageGallery) error

	// GetByID retrieves a gallery with its images ordered by position.
	GetByID(ctx context.Context, id string) (*domain.ImageGallery, error)

	// List retrieves galleries without images, optionally for one destination.
	List(ctx context.Context, destinationID string) ([]*domain.ImageGallery, error)

	AddImage(ctx context.Context, image *domain.GalleryImage) error
}
