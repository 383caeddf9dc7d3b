package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tours/internal/service"
)

// PurchaseHandler handles HTTP requests for ticket purchases.
type PurchaseHandler struct {
	purchaseService *service.PurchaseService
	receiptService  *service.ReceiptService
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(purchaseService *service.PurchaseService, receiptService *service.ReceiptService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		receiptService:  receiptService,
	}
}

// CreatePurchaseRequest is the HTTP request body for buying tickets.
type CreatePurchaseRequest struct {
	TicketTypeID string          `json:"ticket_type_id"`
	TierID       string          `json:"tier_id"`
	Quantity     int             `json:"quantity"`
	Customer     CustomerPayload `json:"customer"`
	AddOns       []AddOnPayload  `json:"add_ons"`
}

// CreatePurchase handles POST /v1/ticket-purchases
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.TicketTypeID == "" {
		respondBadRequest(c, "ticket_type_id is required")
		return
	}

	purchase, err := h.purchaseService.CreatePurchase(c.Request.Context(), service.CreatePurchaseRequest{
		TicketTypeID: req.TicketTypeID,
		TierID:       req.TierID,
		Quantity:     req.Quantity,
		Customer:     req.Customer.toDomain(),
		AddOns:       toSelections(req.AddOns),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPurchaseResponse(purchase))
}

// GetPurchase handles GET /v1/ticket-purchases/:id (id or reference)
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPurchaseResponse(purchase))
}

// GetReceipt handles GET /v1/ticket-purchases/:id/receipt
func (h *PurchaseHandler) GetReceipt(c *gin.Context) {
	receipt, err := h.purchaseService.Receipt(c.Request.Context(), c.Param("id"), c.Query("payment_reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	writeReceipt(c, h.receiptService, receipt)
}
