package service

import (
	"context"
	"sync"

	"tours/internal/domain"
)

// Gateway is the interface for a payment provider integration.
type Gateway interface {
	// Initiate starts a charge with the provider.
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)

	// Verify asks the provider for the current state of a charge.
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// WebhookGateway is implemented by gateways that push results to us.
type WebhookGateway interface {
	Gateway
	VerifySignature(body []byte, signature string) bool
	ParseWebhook(body []byte) (*WebhookEvent, error)
}

// InitiateRequest contains what a gateway needs to start a charge.
type InitiateRequest struct {
	Reference     string
	Amount        float64
	Currency      string
	Method        domain.PaymentMethod
	Channel       string
	CustomerEmail string
	CustomerPhone string
	Metadata      map[string]any
}

// InitiateResult is the provider's answer to a charge request. Status is
// processing unless the provider settled the charge synchronously.
type InitiateResult struct {
	ProviderReference string
	AuthorizationURL  string
	DisplayText       string
	Status            domain.PaymentStatus
	Reason            string
}

// VerifyResult is the provider's view of a charge.
type VerifyResult struct {
	Status            domain.PaymentStatus
	ProviderReference string
	Reason            string
}

// WebhookEvent is a provider notification reduced to what we act on.
type WebhookEvent struct {
	Reference string
	Status    domain.PaymentStatus
	Reason    string
}

// SandboxGateway accepts every charge and leaves it processing. Resolution
// is left to the auto-completion daemon.
type SandboxGateway struct {
	mu         sync.Mutex
	shouldFail bool
}

// NewSandboxGateway creates a new sandbox gateway.
func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{}
}

// SetShouldFail makes subsequent Initiate calls fail.
func (g *SandboxGateway) SetShouldFail(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shouldFail = fail
}

// Initiate simulates a charge request.
func (g *SandboxGateway) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	g.mu.Lock()
	fail := g.shouldFail
	g.mu.Unlock()

	if fail {
		return nil, errSandboxDeclined
	}

	return &InitiateResult{
		ProviderReference: "SBX-" + req.Reference,
		DisplayText:       "Sandbox charge created. It will settle automatically.",
		Status:            domain.PaymentStatusProcessing,
	}, nil
}

// Verify reports every sandbox charge as still processing.
func (g *SandboxGateway) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	return &VerifyResult{
		Status:            domain.PaymentStatusProcessing,
		ProviderReference: "SBX-" + reference,
	}, nil
}

type sandboxError string

func (e sandboxError) Error() string { return string(e) }

const errSandboxDeclined = sandboxError("sandbox gateway declined the charge")
