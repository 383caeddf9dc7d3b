package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tours/internal/domain"
	"tours/internal/repository"
)

// GalleryRepository is a PostgreSQL implementation of repository.GalleryRepository.
type GalleryRepository struct {
	q Querier
}

// NewGalleryRepository creates a new PostgreSQL gallery repository.
func NewGalleryRepository(db *sql.DB) *GalleryRepository {
	return &GalleryRepository{q: db}
}

// Create adds a new gallery.
func (r *GalleryRepository) Create(ctx context.Context, g *domain.ImageGallery) error {
	query := `
		INSERT INTO image_galleries (id, slug, title, description, destination_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query, g.ID, g.Slug, g.Title, g.Description, nullString(g.DestinationID), g.CreatedAt)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

// GetByID retrieves a gallery with its images ordered by position.
func (r *GalleryRepository) GetByID(ctx context.Context, id string) (*domain.ImageGallery, error) {
	query := `
		SELECT id, slug, title, description, destination_id, created_at
		FROM image_galleries WHERE id = $1
	`

	g, err := scanGallery(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, gallery_id, url, caption, position, featured
		FROM gallery_images WHERE gallery_id = $1
		ORDER BY position, id
	`, g.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var img domain.GalleryImage
		if err := rows.Scan(&img.ID, &img.GalleryID, &img.URL, &img.Caption, &img.Position, &img.Featured); err != nil {
			return nil, err
		}
		g.Images = append(g.Images, img)
	}
	return g, rows.Err()
}

// List retrieves galleries without images, optionally for one destination.
func (r *GalleryRepository) List(ctx context.Context, destinationID string) ([]*domain.ImageGallery, error) {
	query := `
		SELECT id, slug, title, description, destination_id, created_at
		FROM image_galleries
		WHERE ($1 = '' OR destination_id::text = $1)
		ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, destinationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var galleries []*domain.ImageGallery
	for rows.Next() {
		g, err := scanGallery(rows)
		if err != nil {
			return nil, err
		}
		galleries = append(galleries, g)
	}
	return galleries, rows.Err()
}

// AddImage appends an image to a gallery.
func (r *GalleryRepository) AddImage(ctx context.Context, img *domain.GalleryImage) error {
	query := `
		INSERT INTO gallery_images (id, gallery_id, url, caption, position, featured)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query, img.ID, img.GalleryID, img.URL, img.Caption, img.Position, img.Featured)
	return err
}

func scanGallery(row rowScanner) (*domain.ImageGallery, error) {
	var (
		g             domain.ImageGallery
		destinationID sql.NullString
	)
	if err := row.Scan(&g.ID, &g.Slug, &g.Title, &g.Description, &destinationID, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.DestinationID = destinationID.String
	return &g, nil
}
