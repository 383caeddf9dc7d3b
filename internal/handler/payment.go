package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tours/internal/domain"
	"tours/internal/service"
)

const (
	paystackProviderCode = "paystack"
	paystackSignature    = "x-paystack-signature"
	maxWebhookBody       = 1 << 20
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService  *service.PaymentService
	providerService *service.ProviderService
	defaultCurrency string
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService, providerService *service.ProviderService, defaultCurrency string) *PaymentHandler {
	return &PaymentHandler{
		paymentService:  paymentService,
		providerService: providerService,
		defaultCurrency: defaultCurrency,
	}
}

// ListMethods handles GET /v1/payments/methods?currency=
func (h *PaymentHandler) ListMethods(c *gin.Context) {
	currency := c.DefaultQuery("currency", h.defaultCurrency)

	methods, err := h.providerService.ListMethods(c.Request.Context(), currency)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]MethodResponse, 0, len(methods))
	for _, m := range methods {
		resp = append(resp, MethodResponse{
			Method:    string(m.Method),
			Currency:  m.Currency,
			Providers: m.Providers,
			Channels:  nonNilStrings(m.Channels),
		})
	}
	respondJSON(c, http.StatusOK, gin.H{"currency": strings.ToUpper(currency), "methods": resp})
}

// CheckoutRequest is the HTTP request body for starting a payment.
type CheckoutRequest struct {
	PurposeKind string          `json:"purpose_kind"`
	PurposeID   string          `json:"purpose_id"`
	Method      string          `json:"method"`
	Provider    string          `json:"provider"`
	Channel     string          `json:"channel"`
	Customer    CustomerPayload `json:"customer"`
	Metadata    map[string]any  `json:"metadata"`
}

// Checkout handles POST /v1/payments/checkout. The Idempotency-Key header
// also deduplicates at the payment level.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.PurposeID == "" {
		respondBadRequest(c, "purpose_id is required")
		return
	}

	payment, err := h.paymentService.CheckoutForPurpose(c.Request.Context(), service.CheckoutRequest{
		PurposeKind:    domain.PurposeKind(req.PurposeKind),
		PurposeID:      req.PurposeID,
		Method:         domain.PaymentMethod(req.Method),
		ProviderCode:   req.Provider,
		Channel:        req.Channel,
		Customer:       req.Customer.toDomain(),
		Metadata:       req.Metadata,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPaymentResponse(payment))
}

// GetStatus handles GET /v1/payments/:reference
func (h *PaymentHandler) GetStatus(c *gin.Context) {
	payment, err := h.paymentService.GetStatus(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// Cancel handles POST /v1/admin/payments/:reference/cancel
func (h *PaymentHandler) Cancel(c *gin.Context) {
	payment, err := h.paymentService.Cancel(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// PaystackWebhook handles POST /v1/payments/webhooks/paystack. The signature
// covers the raw body, so it is read before any decoding.
func (h *PaymentHandler) PaystackWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondBadRequest(c, "unreadable body")
		return
	}

	err = h.paymentService.HandleWebhook(c.Request.Context(), paystackProviderCode, body, c.GetHeader(paystackSignature))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// ListPayments handles GET /v1/admin/payments?status=&provider=&limit=
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	payments, err := h.paymentService.ListPayments(c.Request.Context(), domain.PaymentFilter{
		Status:       domain.PaymentStatus(c.Query("status")),
		ProviderCode: c.Query("provider"),
		Limit:        queryInt(c, "limit", 50),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, toPaymentResponse(p))
	}
	respondJSON(c, http.StatusOK, gin.H{"payments": resp})
}

// ListProviders handles GET /v1/admin/providers
func (h *PaymentHandler) ListProviders(c *gin.Context) {
	providers, err := h.providerService.Providers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]ProviderPayload, 0, len(providers))
	for _, p := range providers {
		resp = append(resp, toProviderPayload(p))
	}
	respondJSON(c, http.StatusOK, gin.H{"providers": resp})
}

// UpsertProvider handles PUT /v1/admin/providers/:code
func (h *PaymentHandler) UpsertProvider(c *gin.Context) {
	var req ProviderPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	provider := &domain.PaymentProvider{
		Code:         c.Param("code"),
		Name:         req.Name,
		Active:       req.Active,
		Sandbox:      req.Sandbox,
		Priority:     req.Priority,
		Capabilities: req.Capabilities,
	}
	if err := h.providerService.Upsert(c.Request.Context(), provider); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toProviderPayload(provider))
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
