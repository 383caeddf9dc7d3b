package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tours/internal/domain"
	"tours/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
	receiptService *service.ReceiptService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService, receiptService *service.ReceiptService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		receiptService: receiptService,
	}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	Kind       string          `json:"kind"`
	TargetID   string          `json:"target_id"`
	TierID     string          `json:"tier_id"`
	Customer   CustomerPayload `json:"customer"`
	Guests     int             `json:"guests"`
	TravelDate string          `json:"travel_date"`
	AddOns     []AddOnPayload  `json:"add_ons"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.TargetID == "" {
		respondBadRequest(c, "target_id is required")
		return
	}

	var travelDate time.Time
	if req.TravelDate != "" {
		parsed, err := time.Parse(dateLayout, req.TravelDate)
		if err != nil {
			respondError(c, service.ErrInvalidTravelDate)
			return
		}
		travelDate = parsed
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		Kind:       domain.BookingKind(req.Kind),
		TargetID:   req.TargetID,
		TierID:     req.TierID,
		Customer:   req.Customer.toDomain(),
		Guests:     req.Guests,
		TravelDate: travelDate,
		AddOns:     toSelections(req.AddOns),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:id (id or reference)
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// GetReceipt handles GET /v1/bookings/:id/receipt. ?format=text returns the
// printable form.
func (h *BookingHandler) GetReceipt(c *gin.Context) {
	ctx := c.Request.Context()

	booking, err := h.bookingService.GetBooking(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if booking.Status != domain.BookingStatusConfirmed {
		respondError(c, service.ErrReceiptUnavailable)
		return
	}

	receipt := h.receiptService.ForBooking(ctx, booking, h.bookingService.TargetName(ctx, booking))
	writeReceipt(c, h.receiptService, receipt)
}

// CancelBooking handles POST /v1/admin/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, err := h.bookingService.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

func toSelections(addOns []AddOnPayload) []service.AddOnSelection {
	if len(addOns) == 0 {
		return nil
	}
	selections := make([]service.AddOnSelection, 0, len(addOns))
	for _, a := range addOns {
		selections = append(selections, service.AddOnSelection{AddOnID: a.AddOnID, Quantity: a.Quantity})
	}
	return selections
}

func writeReceipt(c *gin.Context, receipts *service.ReceiptService, receipt *domain.Receipt) {
	if c.Query("format") == "text" {
		c.String(http.StatusOK, receipts.FormatReceipt(receipt))
		return
	}
	respondJSON(c, http.StatusOK, receipt)
}
