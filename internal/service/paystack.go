package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tours/internal/domain"
)

const defaultPaystackBaseURL = "https://api.paystack.co"

// PaystackConfig configures the Paystack gateway.
type PaystackConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// PaystackGateway charges through the Paystack API.
type PaystackGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewPaystackGateway creates a Paystack gateway.
func NewPaystackGateway(cfg PaystackConfig) *PaystackGateway {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultPaystackBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PaystackGateway{
		baseURL:   base,
		secretKey: cfg.SecretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackCharge struct {
	Reference        string `json:"reference"`
	Status           string `json:"status"`
	DisplayText      string `json:"display_text"`
	AuthorizationURL string `json:"authorization_url"`
	GatewayResponse  string `json:"gateway_response"`
	ID               int64  `json:"id"`
}

type paystackMobileMoney struct {
	Phone    string `json:"phone"`
	Provider string `json:"provider"`
}

// Initiate starts a charge. Mobile money goes through the direct charge
// endpoint, other methods through a hosted checkout.
func (g *PaystackGateway) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	body := map[string]any{
		"email":     req.CustomerEmail,
		"amount":    toSubunits(req.Amount),
		"currency":  strings.ToUpper(req.Currency),
		"reference": req.Reference,
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	path := "/transaction/initialize"
	if req.Method == domain.PaymentMethodMobileMoney {
		path = "/charge"
		body["mobile_money"] = paystackMobileMoney{Phone: req.CustomerPhone, Provider: req.Channel}
	} else {
		body["channels"] = []string{string(req.Method)}
	}

	var charge paystackCharge
	if err := g.do(ctx, http.MethodPost, path, body, &charge); err != nil {
		return nil, err
	}

	status, reason := paystackStatus(charge.Status, charge.GatewayResponse)
	providerRef := charge.Reference
	if providerRef == "" {
		providerRef = req.Reference
	}
	return &InitiateResult{
		ProviderReference: providerRef,
		AuthorizationURL:  charge.AuthorizationURL,
		DisplayText:       charge.DisplayText,
		Status:            status,
		Reason:            reason,
	}, nil
}

// Verify fetches the transaction state from Paystack.
func (g *PaystackGateway) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	var charge paystackCharge
	if err := g.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &charge); err != nil {
		return nil, err
	}

	status, reason := paystackStatus(charge.Status, charge.GatewayResponse)
	return &VerifyResult{
		Status:            status,
		ProviderReference: charge.Reference,
		Reason:            reason,
	}, nil
}

// VerifySignature checks the x-paystack-signature header, an HMAC-SHA512 of
// the raw body keyed with the secret key.
func (g *PaystackGateway) VerifySignature(body []byte, signature string) bool {
	if g.secretKey == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(g.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// ParseWebhook decodes charge events. Other events yield a nil event.
func (g *PaystackGateway) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Event string         `json:"event"`
		Data  paystackCharge `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode paystack webhook: %w", err)
	}

	switch payload.Event {
	case "charge.success":
		return &WebhookEvent{Reference: payload.Data.Reference, Status: domain.PaymentStatusSuccessful}, nil
	case "charge.failed":
		reason := payload.Data.GatewayResponse
		if reason == "" {
			reason = "charge failed"
		}
		return &WebhookEvent{Reference: payload.Data.Reference, Status: domain.PaymentStatusFailed, Reason: reason}, nil
	}
	return nil, nil
}

func (g *PaystackGateway) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("paystack %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("paystack read body: %w", err)
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("paystack %s %s: status %d: decode: %w", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !envelope.Status {
		return fmt.Errorf("paystack %s %s: status %d: %s", method, path, resp.StatusCode, envelope.Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("paystack decode data: %w", err)
		}
	}
	return nil
}

func paystackStatus(status, gatewayResponse string) (domain.PaymentStatus, string) {
	switch strings.ToLower(status) {
	case "success":
		return domain.PaymentStatusSuccessful, ""
	case "failed", "abandoned", "reversed":
		if gatewayResponse == "" {
			gatewayResponse = "charge " + strings.ToLower(status)
		}
		return domain.PaymentStatusFailed, gatewayResponse
	}
	return domain.PaymentStatusProcessing, ""
}

// toSubunits converts a major-unit amount to the provider's integer subunits.
func toSubunits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
