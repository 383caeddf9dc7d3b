package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tours/internal/service"
)

// GalleryHandler handles HTTP requests for image galleries.
type GalleryHandler struct {
	galleryService *service.GalleryService
}

// NewGalleryHandler creates a new GalleryHandler.
func NewGalleryHandler(galleryService *service.GalleryService) *GalleryHandler {
	return &GalleryHandler{galleryService: galleryService}
}

// ListGalleries handles GET /v1/galleries?destination_id=
func (h *GalleryHandler) ListGalleries(c *gin.Context) {
	galleries, err := h.galleryService.ListGalleries(c.Request.Context(), c.Query("destination_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]GalleryResponse, 0, len(galleries))
	for _, g := range galleries {
		resp = append(resp, toGalleryResponse(g))
	}
	respondJSON(c, http.StatusOK, gin.H{"galleries": resp})
}

// GetGallery handles GET /v1/galleries/:id
func (h *GalleryHandler) GetGallery(c *gin.Context) {
	g, err := h.galleryService.GetGallery(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toGalleryResponse(g))
}

type CreateGalleryRequest struct {
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Description   string `json:"description"`
	DestinationID string `json:"destination_id"`
}

// CreateGallery handles POST /v1/admin/galleries
func (h *GalleryHandler) CreateGallery(c *gin.Context) {
	var req CreateGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	g, err := h.galleryService.CreateGallery(c.Request.Context(), service.CreateGalleryRequest{
		Title:         req.Title,
		Slug:          req.Slug,
		Description:   req.Description,
		DestinationID: req.DestinationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toGalleryResponse(g))
}

type AddImageRequest struct {
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Position *int   `json:"position"`
	Featured bool   `json:"featured"`
}

// AddImage handles POST /v1/admin/galleries/:id/images
func (h *GalleryHandler) AddImage(c *gin.Context) {
	var req AddImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	img, err := h.galleryService.AddImage(c.Request.Context(), service.AddImageRequest{
		GalleryID: c.Param("id"),
		URL:       req.URL,
		Caption:   req.Caption,
		Position:  req.Position,
		Featured:  req.Featured,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toGalleryImageResponse(img))
}
