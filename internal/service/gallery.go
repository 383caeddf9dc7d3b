package service

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/repository"
)

// GalleryService manages image galleries.
type GalleryService struct {
	galleryRepo repository.GalleryRepository
	clock       clock.Clock
}

// NewGalleryService creates a new GalleryService.
func NewGalleryService(galleryRepo repository.GalleryRepository, clk clock.Clock) *GalleryService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &GalleryService{galleryRepo: galleryRepo, clock: clk}
}

// ListGalleries returns galleries, optionally for one destination.
func (s *GalleryService) ListGalleries(ctx context.Context, destinationID string) ([]*domain.ImageGallery, error) {
	if destinationID != "" && !isUUID(destinationID) {
		return nil, nil
	}
	return s.galleryRepo.List(ctx, destinationID)
}

// GetGallery returns a gallery with its images ordered by position.
func (s *GalleryService) GetGallery(ctx context.Context, id string) (*domain.ImageGallery, error) {
	if !isUUID(id) {
		return nil, repository.ErrNotFound
	}
	g, err := s.galleryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(g.Images, func(i, j int) bool {
		if g.Images[i].Position != g.Images[j].Position {
			return g.Images[i].Position < g.Images[j].Position
		}
		return g.Images[i].ID < g.Images[j].ID
	})
	return g, nil
}

// CreateGalleryRequest contains the parameters for a new gallery.
type CreateGalleryRequest struct {
	Title         string
	Slug          string
	Description   string
	DestinationID string
}

// CreateGallery stores a new, empty gallery.
func (s *GalleryService) CreateGallery(ctx context.Context, req CreateGalleryRequest) (*domain.ImageGallery, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrInvalidGallery
	}
	if req.DestinationID != "" && !isUUID(req.DestinationID) {
		return nil, ErrInvalidGallery
	}

	slug := req.Slug
	if slug == "" {
		slug = title
	}

	g := &domain.ImageGallery{
		ID:            uuid.New().String(),
		Slug:          slugify(slug),
		Title:         title,
		Description:   req.Description,
		DestinationID: req.DestinationID,
		CreatedAt:     s.clock.Now(),
	}
	if g.Slug == "" {
		return nil, ErrInvalidGallery
	}
	if err := s.galleryRepo.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// AddImageRequest contains the parameters for a new gallery image.
type AddImageRequest struct {
	GalleryID string
	URL       string
	Caption   string
	Position  *int
	Featured  bool
}

// AddImage appends an image. Without an explicit position it goes last.
func (s *GalleryService) AddImage(ctx context.Context, req AddImageRequest) (*domain.GalleryImage, error) {
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidGallery
	}

	gallery, err := s.GetGallery(ctx, req.GalleryID)
	if err != nil {
		return nil, err
	}

	position := len(gallery.Images)
	if req.Position != nil {
		if *req.Position < 0 {
			return nil, ErrInvalidGallery
		}
		position = *req.Position
	}

	img := &domain.GalleryImage{
		ID:        uuid.New().String(),
		GalleryID: gallery.ID,
		URL:       u.String(),
		Caption:   req.Caption,
		Position:  position,
		Featured:  req.Featured,
	}
	if err := s.galleryRepo.AddImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}
