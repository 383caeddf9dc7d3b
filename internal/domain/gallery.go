package domain

import "time"

// ImageGallery is a titled collection of images.
type ImageGallery struct {
	ID            string
	Slug          string
	Title         string
	Description   string
	DestinationID string
	Images        []GalleryImage
	CreatedAt     time.Time
}

// GalleryImage is one picture in a gallery.
type GalleryImage struct {
	ID        string
	GalleryID string
	URL       string
	Caption   string
	Position  int
	Featured  bool
}
