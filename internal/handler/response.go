package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tours/internal/log"
	"tours/internal/repository"
	"tours/internal/service"
)

const (
	codeInvalidRequestBody = "invalid_request_body"
	codeInternalError      = "internal_error"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},

	{service.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{service.ErrInvalidCurrency, http.StatusBadRequest, "invalid_currency"},
	{service.ErrInvalidPaymentMethod, http.StatusBadRequest, "invalid_payment_method"},
	{service.ErrInvalidChannel, http.StatusBadRequest, "invalid_channel"},
	{service.ErrInvalidProvider, http.StatusBadRequest, "invalid_provider"},
	{service.ErrInvalidReference, http.StatusBadRequest, "invalid_reference"},
	{service.ErrInvalidPurpose, http.StatusBadRequest, "invalid_purpose"},
	{service.ErrInvalidCustomer, http.StatusBadRequest, "invalid_customer"},
	{service.ErrInvalidGuests, http.StatusBadRequest, "invalid_guests"},
	{service.ErrInvalidTravelDate, http.StatusBadRequest, "invalid_travel_date"},
	{service.ErrInvalidBookingKind, http.StatusBadRequest, "invalid_booking_kind"},
	{service.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{service.ErrTierNotFound, http.StatusBadRequest, "tier_not_found"},
	{service.ErrAddOnNotFound, http.StatusBadRequest, "add_on_not_found"},
	{service.ErrCurrencyMismatch, http.StatusBadRequest, "currency_mismatch"},
	{service.ErrInvalidLocation, http.StatusBadRequest, "invalid_location"},
	{service.ErrInvalidDestination, http.StatusBadRequest, "invalid_destination"},
	{service.ErrInvalidEvent, http.StatusBadRequest, "invalid_event"},
	{service.ErrInvalidTicketType, http.StatusBadRequest, "invalid_ticket_type"},
	{service.ErrInvalidGallery, http.StatusBadRequest, "invalid_gallery"},

	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
	{service.ErrInvalidSignature, http.StatusUnauthorized, "invalid_signature"},

	{repository.ErrConflict, http.StatusConflict, "conflict"},
	{service.ErrPurposeNotPayable, http.StatusConflict, "order_not_payable"},
	{service.ErrPaymentInProgress, http.StatusConflict, "payment_in_progress"},
	{service.ErrPaymentNotPending, http.StatusConflict, "payment_not_pending"},
	{service.ErrPaymentNotProcessing, http.StatusConflict, "payment_not_processing"},
	{service.ErrBookingNotPending, http.StatusConflict, "booking_not_pending"},
	{service.ErrReceiptUnavailable, http.StatusConflict, "receipt_unavailable"},
	{service.ErrSoldOut, http.StatusConflict, "sold_out"},
	{repository.ErrSoldOut, http.StatusConflict, "sold_out"},
	{service.ErrTierNotOnSale, http.StatusConflict, "tier_not_on_sale"},
	{service.ErrUnavailable, http.StatusConflict, "unavailable"},

	{service.ErrNoProviderAvailable, http.StatusUnprocessableEntity, "no_provider_available"},

	{service.ErrGatewayNotConfigured, http.StatusServiceUnavailable, "gateway_not_configured"},
}

// respondError sends an error response with the appropriate HTTP status code.
// Unmapped errors are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status, code := mapErrorToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.FromContext(c.Request.Context()).WithError(err).Error("request failed")
		c.JSON(status, ErrorResponse{Error: "internal server error", Code: code})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// respondBadRequest sends a 400 with a validation message.
func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: codeInvalidRequestBody})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes
// and machine-readable error codes.
func mapErrorToHTTPStatus(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, codeInternalError
}

// queryInt reads an integer query parameter, returning def when absent or
// malformed.
func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
