package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/log"
	"tours/internal/repository"
)

// Payable is the amount owed by a booking or ticket purchase.
type Payable struct {
	Kind     domain.PurposeKind
	ID       string
	Amount   float64
	Currency string
	Customer domain.Customer
	Pending  bool
}

// PurposeResolver looks up what a checkout pays for.
type PurposeResolver interface {
	Payable(ctx context.Context, kind domain.PurposeKind, id string) (*Payable, error)
	AttachPayment(ctx context.Context, kind domain.PurposeKind, id, reference string) error
}

// ResolutionListener is told about payments that reached successful or
// failed, after the change is stored.
type ResolutionListener interface {
	PaymentResolved(ctx context.Context, payment *domain.Payment)
}

// PaymentService handles payment operations.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	providers   *ProviderService
	gateways    map[string]Gateway
	purposes    PurposeResolver
	listener    ResolutionListener
	clock       clock.Clock
}

// NewPaymentService creates a new PaymentService. gateways are keyed by
// provider code.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	providers *ProviderService,
	gateways map[string]Gateway,
	purposes PurposeResolver,
	clk clock.Clock,
) *PaymentService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &PaymentService{
		paymentRepo: paymentRepo,
		providers:   providers,
		gateways:    gateways,
		purposes:    purposes,
		clock:       clk,
	}
}

// OnResolved registers l to run after every resolution. It is only needed
// when resolutions are not published through the outbox.
func (s *PaymentService) OnResolved(l ResolutionListener) {
	s.listener = l
}

// CheckoutRequest contains the parameters for starting a payment.
type CheckoutRequest struct {
	PurposeKind    domain.PurposeKind
	PurposeID      string
	Amount         float64
	Currency       string
	Method         domain.PaymentMethod
	ProviderCode   string
	Channel        string
	Customer       domain.Customer
	Metadata       map[string]any
	IdempotencyKey string
}

// CheckoutForPurpose starts a payment for a booking or purchase, taking the
// amount, currency and customer from the order itself. A repeated
// idempotency key returns its payment even after the order settled. An order
// has at most one open payment: a second checkout with the same method gets
// the open one back, a different method gets ErrPaymentInProgress.
func (s *PaymentService) CheckoutForPurpose(ctx context.Context, req CheckoutRequest) (*domain.Payment, error) {
	if s.purposes == nil {
		return nil, ErrInvalidPurpose
	}
	if req.PurposeKind != domain.PurposeBooking && req.PurposeKind != domain.PurposeTicketPurchase {
		return nil, ErrInvalidPurpose
	}

	if req.IdempotencyKey != "" {
		existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	payable, err := s.purposes.Payable(ctx, req.PurposeKind, req.PurposeID)
	if err != nil {
		return nil, err
	}
	if !payable.Pending {
		return nil, ErrPurposeNotPayable
	}

	open, err := s.openPayment(ctx, req.PurposeKind, payable.ID, req.Method)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return open, nil
	}

	req.PurposeID = payable.ID
	req.Amount = payable.Amount
	req.Currency = payable.Currency
	if req.Customer.Email == "" {
		req.Customer.Email = payable.Customer.Email
	}
	if req.Customer.Phone == "" {
		req.Customer.Phone = payable.Customer.Phone
	}
	if req.Customer.Name == "" {
		req.Customer.Name = payable.Customer.Name
	}

	payment, err := s.CreateCheckout(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.purposes.AttachPayment(ctx, req.PurposeKind, req.PurposeID, payment.Reference); err != nil {
		log.FromContext(ctx).WithError(err).WithField("reference", payment.Reference).Warn("failed to link payment to order")
	}
	return payment, nil
}

// CreateCheckout creates a payment and asks the provider to start the charge.
// A repeated idempotency key returns the existing payment unchanged.
func (s *PaymentService) CreateCheckout(ctx context.Context, req CheckoutRequest) (*domain.Payment, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !validCurrency(req.Currency) {
		return nil, ErrInvalidCurrency
	}
	if !req.Method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if req.PurposeKind != domain.PurposeBooking && req.PurposeKind != domain.PurposeTicketPurchase {
		return nil, ErrInvalidPurpose
	}
	if _, err := uuid.Parse(req.PurposeID); err != nil {
		return nil, ErrInvalidPurpose
	}
	currency := strings.ToUpper(req.Currency)

	if req.IdempotencyKey != "" {
		existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	provider, err := s.providers.ResolveProvider(ctx, currency, req.Method, req.Amount, req.ProviderCode)
	if err != nil {
		return nil, err
	}

	if req.Channel != "" {
		channels := channelsFor(provider, currency, req.Method)
		if len(channels) > 0 && !containsFold(channels, req.Channel) {
			return nil, ErrInvalidChannel
		}
	}

	gateway, ok := s.gateways[provider.Code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotConfigured, provider.Code)
	}

	now := s.clock.Now()
	payment := &domain.Payment{
		ID:             uuid.New().String(),
		Reference:      "PAY-" + shortuuid.New(),
		Amount:         roundMoney(req.Amount),
		Currency:       currency,
		Method:         req.Method,
		ProviderCode:   provider.Code,
		Status:         domain.PaymentStatusPending,
		PurposeKind:    req.PurposeKind,
		PurposeID:      req.PurposeID,
		CustomerEmail:  req.Customer.Email,
		CustomerPhone:  req.Customer.Phone,
		Metadata:       req.Metadata,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		// lost a race on the idempotency key or on the order's open payment
		if req.IdempotencyKey != "" {
			if existing, getErr := s.paymentRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey); getErr == nil && existing != nil {
				return existing, nil
			}
		}
		open, openErr := s.openPayment(ctx, req.PurposeKind, req.PurposeID, req.Method)
		if openErr != nil {
			return nil, openErr
		}
		if open != nil {
			return open, nil
		}
		return nil, err
	}

	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"reference": payment.Reference,
		"provider":  payment.ProviderCode,
		"method":    payment.Method,
	})

	result, err := gateway.Initiate(ctx, InitiateRequest{
		Reference:     payment.Reference,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Method:        payment.Method,
		Channel:       req.Channel,
		CustomerEmail: payment.CustomerEmail,
		CustomerPhone: payment.CustomerPhone,
		Metadata:      payment.Metadata,
	})
	if err != nil {
		logger.WithError(err).Warn("gateway rejected charge")
		return s.transition(ctx, repository.StatusChange{
			Reference:     payment.Reference,
			From:          domain.PaymentStatusPending,
			To:            domain.PaymentStatusFailed,
			FailureReason: err.Error(),
		})
	}

	metadata := map[string]any{}
	if req.Channel != "" {
		metadata["channel"] = req.Channel
	}
	if result.AuthorizationURL != "" {
		metadata["authorization_url"] = result.AuthorizationURL
	}
	if result.DisplayText != "" {
		metadata["display_text"] = result.DisplayText
	}

	payment, err = s.transition(ctx, repository.StatusChange{
		Reference:         payment.Reference,
		From:              domain.PaymentStatusPending,
		To:                domain.PaymentStatusProcessing,
		ProviderReference: result.ProviderReference,
		Metadata:          metadata,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("checkout created")

	if result.Status == domain.PaymentStatusSuccessful || result.Status == domain.PaymentStatusFailed {
		return s.Resolve(ctx, payment.Reference, result.Status == domain.PaymentStatusSuccessful, result.Reason)
	}
	return payment, nil
}

// GetStatus returns the payment. A processing payment with a live provider
// is verified with the gateway first.
func (s *PaymentService) GetStatus(ctx context.Context, reference string) (*domain.Payment, error) {
	if reference == "" {
		return nil, ErrInvalidReference
	}

	payment, err := s.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusProcessing {
		return payment, nil
	}

	provider, err := s.providers.Get(ctx, payment.ProviderCode)
	if err != nil || provider.Sandbox {
		return payment, nil
	}
	gateway, ok := s.gateways[payment.ProviderCode]
	if !ok {
		return payment, nil
	}

	result, err := gateway.Verify(ctx, payment.Reference)
	if err != nil {
		log.FromContext(ctx).WithError(err).WithField("reference", reference).Warn("payment verification failed")
		return payment, nil
	}
	if result.Status != domain.PaymentStatusSuccessful && result.Status != domain.PaymentStatusFailed {
		return payment, nil
	}

	resolved, err := s.Resolve(ctx, reference, result.Status == domain.PaymentStatusSuccessful, result.Reason)
	if errors.Is(err, ErrPaymentNotProcessing) {
		return s.paymentRepo.GetByReference(ctx, reference)
	}
	return resolved, err
}

// Resolve settles a processing payment. Only one concurrent resolver wins;
// the others get ErrPaymentNotProcessing.
func (s *PaymentService) Resolve(ctx context.Context, reference string, successful bool, reason string) (*domain.Payment, error) {
	if reference == "" {
		return nil, ErrInvalidReference
	}

	change := repository.StatusChange{
		Reference: reference,
		From:      domain.PaymentStatusProcessing,
		To:        domain.PaymentStatusSuccessful,
	}
	if !successful {
		change.To = domain.PaymentStatusFailed
		change.FailureReason = reason
		if change.FailureReason == "" {
			change.FailureReason = "payment declined"
		}
	}

	payment, err := s.transition(ctx, change)
	if errors.Is(err, repository.ErrStaleState) {
		return nil, ErrPaymentNotProcessing
	}
	if err != nil {
		return nil, err
	}

	log.FromContext(ctx).WithFields(logrus.Fields{
		"reference": reference,
		"status":    payment.Status,
	}).Info("payment resolved")
	return payment, nil
}

// Cancel cancels a payment that has not been sent to a provider yet.
func (s *PaymentService) Cancel(ctx context.Context, reference string) (*domain.Payment, error) {
	if reference == "" {
		return nil, ErrInvalidReference
	}

	payment, err := s.transition(ctx, repository.StatusChange{
		Reference: reference,
		From:      domain.PaymentStatusPending,
		To:        domain.PaymentStatusCancelled,
	})
	if errors.Is(err, repository.ErrStaleState) {
		return nil, ErrPaymentNotPending
	}
	return payment, err
}

const (
	defaultPaymentListLimit = 50
	maxPaymentListLimit     = 200
)

// ListPayments returns payments for the admin listing, newest first. Limits
// outside 1..200 fall back to 50.
func (s *PaymentService) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	if filter.Limit <= 0 || filter.Limit > maxPaymentListLimit {
		filter.Limit = defaultPaymentListLimit
	}
	filter.ProviderCode = strings.ToLower(strings.TrimSpace(filter.ProviderCode))
	return s.paymentRepo.List(ctx, filter)
}

// HandleWebhook verifies and applies a provider notification. Notifications
// for payments that are already settled are accepted and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, providerCode string, body []byte, signature string) error {
	gateway, ok := s.gateways[providerCode].(WebhookGateway)
	if !ok {
		return fmt.Errorf("%w: %s", ErrGatewayNotConfigured, providerCode)
	}
	if !gateway.VerifySignature(body, signature) {
		return ErrInvalidSignature
	}

	event, err := gateway.ParseWebhook(body)
	if err != nil {
		return err
	}
	if event == nil || event.Reference == "" {
		return nil
	}

	_, err = s.Resolve(ctx, event.Reference, event.Status == domain.PaymentStatusSuccessful, event.Reason)
	if errors.Is(err, ErrPaymentNotProcessing) || errors.Is(err, repository.ErrNotFound) {
		log.FromContext(ctx).WithField("reference", event.Reference).Info("ignoring webhook for settled or unknown payment")
		return nil
	}
	return err
}

func (s *PaymentService) transition(ctx context.Context, change repository.StatusChange) (*domain.Payment, error) {
	if !change.From.CanTransitionTo(change.To) {
		return nil, fmt.Errorf("illegal payment transition %s -> %s", change.From, change.To)
	}
	change.At = s.clock.Now()
	payment, err := s.paymentRepo.Transition(ctx, change)
	if err != nil {
		return nil, err
	}
	if s.listener != nil && (payment.Status == domain.PaymentStatusSuccessful || payment.Status == domain.PaymentStatusFailed) {
		s.listener.PaymentResolved(context.WithoutCancel(ctx), payment)
	}
	return payment, nil
}

// openPayment returns the order's pending or processing payment when it uses
// method, and ErrPaymentInProgress when it uses another one.
func (s *PaymentService) openPayment(ctx context.Context, kind domain.PurposeKind, purposeID string, method domain.PaymentMethod) (*domain.Payment, error) {
	open, err := s.paymentRepo.GetOpenByPurpose(ctx, kind, purposeID)
	if err != nil || open == nil {
		return nil, err
	}
	if open.Method != method {
		return nil, fmt.Errorf("%w: %s", ErrPaymentInProgress, open.Reference)
	}
	return open, nil
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
