package tests

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tours/internal/domain"
	"tours/internal/repository"
	"tours/internal/service"
)

// ──────────────────────────────────────────────
// 1. CHECKOUT
// ──────────────────────────────────────────────

func TestCheckout_CreatesProcessingPayment(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()

	req := checkoutRequest()
	req.Channel = "mtn"
	payment, err := f.service.CreateCheckout(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payment.Status != domain.PaymentStatusProcessing {
		t.Errorf("expected status processing, got %s", payment.Status)
	}
	if !strings.HasPrefix(payment.Reference, "PAY-") {
		t.Errorf("expected PAY- reference, got %s", payment.Reference)
	}
	if payment.ProviderCode != "sandbox" {
		t.Errorf("expected sandbox provider, got %s", payment.ProviderCode)
	}
	if payment.ProviderReference != "MOCK-"+payment.Reference {
		t.Errorf("unexpected provider reference %s", payment.ProviderReference)
	}
	if payment.Metadata["channel"] != "mtn" {
		t.Errorf("expected channel in metadata, got %v", payment.Metadata)
	}
	if payment.Metadata["authorization_url"] == nil {
		t.Error("expected authorization_url in metadata")
	}
	if f.gateway.LastRequest.Amount != 150 || f.gateway.LastRequest.Currency != "GHS" {
		t.Errorf("gateway received %+v", f.gateway.LastRequest)
	}
	if f.payments.ResolvedCount() != 0 {
		t.Error("a processing payment must not be reported as resolved")
	}
}

func TestCheckout_SameIdempotencyKeyReturnsExistingPayment(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()

	req := checkoutRequest()
	req.IdempotencyKey = "checkout-123"

	first, err := f.service.CreateCheckout(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.service.CreateCheckout(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Reference != second.Reference {
		t.Errorf("expected same payment, got %s and %s", first.Reference, second.Reference)
	}
	if atomic.LoadInt32(&f.payments.CreateCallCount) != 1 {
		t.Errorf("expected 1 create, got %d", f.payments.CreateCallCount)
	}
	if atomic.LoadInt32(&f.gateway.InitiateCallCount) != 1 {
		t.Errorf("expected 1 gateway call, got %d", f.gateway.InitiateCallCount)
	}
}

func TestCheckout_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*service.CheckoutRequest)
		wantErr error
	}{
		{"zero amount", func(r *service.CheckoutRequest) { r.Amount = 0 }, service.ErrInvalidAmount},
		{"negative amount", func(r *service.CheckoutRequest) { r.Amount = -5 }, service.ErrInvalidAmount},
		{"short currency", func(r *service.CheckoutRequest) { r.Currency = "GH" }, service.ErrInvalidCurrency},
		{"numeric currency", func(r *service.CheckoutRequest) { r.Currency = "123" }, service.ErrInvalidCurrency},
		{"unknown method", func(r *service.CheckoutRequest) { r.Method = "cash" }, service.ErrInvalidPaymentMethod},
		{"unknown purpose", func(r *service.CheckoutRequest) { r.PurposeKind = "donation" }, service.ErrInvalidPurpose},
		{"malformed purpose id", func(r *service.CheckoutRequest) { r.PurposeID = "abc" }, service.ErrInvalidPurpose},
		{"unsupported currency", func(r *service.CheckoutRequest) { r.Currency = "USD" }, service.ErrNoProviderAvailable},
		{"unoffered channel", func(r *service.CheckoutRequest) { r.Channel = "airteltigo" }, service.ErrInvalidChannel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPaymentFixture()
			req := checkoutRequest()
			tc.mutate(&req)

			_, err := f.service.CreateCheckout(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if f.payments.CountPayments() != 0 {
				t.Error("no payment should be stored for rejected input")
			}
		})
	}
}

func TestCheckout_GatewayErrorMarksPaymentFailed(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	f.gateway.InitiateError = ErrMockTimeout

	payment, err := f.service.CreateCheckout(context.Background(), checkoutRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("expected failed, got %s", payment.Status)
	}
	if payment.FailureReason != ErrMockTimeout.Error() {
		t.Errorf("expected failure reason %q, got %q", ErrMockTimeout.Error(), payment.FailureReason)
	}
	if payment.CompletedAt.IsZero() {
		t.Error("terminal payment should have completed_at")
	}
}

func TestCheckout_SynchronousSuccessResolvesImmediately(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	f.gateway.InitiateStatus = domain.PaymentStatusSuccessful

	payment, err := f.service.CreateCheckout(context.Background(), checkoutRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payment.Status != domain.PaymentStatusSuccessful {
		t.Errorf("expected successful, got %s", payment.Status)
	}
	if f.payments.ResolvedCount() != 1 {
		t.Errorf("expected 1 resolution, got %d", f.payments.ResolvedCount())
	}
}

func TestCheckout_PreferredProviderWins(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	f.providers.AddProvider(liveProvider())

	req := checkoutRequest()
	payment, err := f.service.CreateCheckout(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.ProviderCode != "paystack" {
		t.Errorf("expected highest priority provider paystack, got %s", payment.ProviderCode)
	}

	req = checkoutRequest()
	req.ProviderCode = "Sandbox"
	payment, err = f.service.CreateCheckout(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.ProviderCode != "sandbox" {
		t.Errorf("expected preferred provider sandbox, got %s", payment.ProviderCode)
	}
}

func TestCheckout_AmountOutsideLiveBoundsFallsBack(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	f.providers.AddProvider(liveProvider())

	req := checkoutRequest()
	req.Amount = 9000
	payment, err := f.service.CreateCheckout(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.ProviderCode != "sandbox" {
		t.Errorf("expected fallback to sandbox, got %s", payment.ProviderCode)
	}
}

func TestCheckoutForPurpose_UsesBookingAmountAndLinksPayment(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	booking := pendingBooking(240)
	f.bookings.AddBooking(booking)

	payment, err := f.service.CheckoutForPurpose(context.Background(), service.CheckoutRequest{
		PurposeKind: domain.PurposeBooking,
		PurposeID:   booking.Reference,
		Amount:      1,
		Currency:    "XXX",
		Method:      domain.PaymentMethodMobileMoney,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payment.Amount != 240 || payment.Currency != "GHS" {
		t.Errorf("expected GHS 240 from booking, got %s %.2f", payment.Currency, payment.Amount)
	}
	if payment.PurposeID != booking.ID {
		t.Errorf("expected purpose id %s, got %s", booking.ID, payment.PurposeID)
	}
	if payment.CustomerEmail != booking.Customer.Email {
		t.Errorf("expected customer email from booking, got %s", payment.CustomerEmail)
	}
	if got := f.bookings.GetBooking(booking.ID).PaymentReference; got != payment.Reference {
		t.Errorf("expected booking linked to %s, got %s", payment.Reference, got)
	}
}

func TestCheckoutForPurpose_RejectsSettledOrder(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	booking := pendingBooking(240)
	booking.Status = domain.BookingStatusConfirmed
	f.bookings.AddBooking(booking)

	req := checkoutRequest()
	req.PurposeID = booking.ID
	_, err := f.service.CheckoutForPurpose(context.Background(), req)
	if !errors.Is(err, service.ErrPurposeNotPayable) {
		t.Errorf("expected ErrPurposeNotPayable, got %v", err)
	}
}

func TestCheckoutForPurpose_UnknownOrder(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()

	_, err := f.service.CheckoutForPurpose(context.Background(), checkoutRequest())
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckoutForPurpose_KeyReplayAfterOrderSettled(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	booking := pendingBooking(180)
	f.bookings.AddBooking(booking)

	req := service.CheckoutRequest{
		PurposeKind:    domain.PurposeBooking,
		PurposeID:      booking.ID,
		Method:         domain.PaymentMethodMobileMoney,
		IdempotencyKey: "key-1",
	}
	first, err := f.service.CheckoutForPurpose(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.service.Resolve(context.Background(), first.Reference, true, ""); err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if err := f.bookings.UpdateStatus(context.Background(), booking.ID, domain.BookingStatusPending, domain.BookingStatusConfirmed); err != nil {
		t.Fatalf("unexpected confirm error: %v", err)
	}

	replayed, err := f.service.CheckoutForPurpose(context.Background(), req)
	if err != nil {
		t.Fatalf("replaying the key should return the payment, got %v", err)
	}
	if replayed.Reference != first.Reference {
		t.Errorf("expected %s, got %s", first.Reference, replayed.Reference)
	}
	if replayed.Status != domain.PaymentStatusSuccessful {
		t.Errorf("expected the settled payment, got %s", replayed.Status)
	}
	if atomic.LoadInt32(&f.payments.CreateCallCount) != 1 {
		t.Errorf("expected 1 create, got %d", f.payments.CreateCallCount)
	}
}

func TestCheckoutForPurpose_OneOpenPaymentPerOrder(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	booking := pendingBooking(240)
	f.bookings.AddBooking(booking)

	req := service.CheckoutRequest{
		PurposeKind: domain.PurposeBooking,
		PurposeID:   booking.Reference,
		Method:      domain.PaymentMethodMobileMoney,
	}
	first, err := f.service.CheckoutForPurpose(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.service.CheckoutForPurpose(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.Reference != first.Reference {
		t.Errorf("expected the open payment %s, got %s", first.Reference, second.Reference)
	}
	if f.payments.CountPayments() != 1 {
		t.Errorf("expected 1 payment, got %d", f.payments.CountPayments())
	}
	if atomic.LoadInt32(&f.gateway.InitiateCallCount) != 1 {
		t.Errorf("expected 1 gateway call, got %d", f.gateway.InitiateCallCount)
	}

	// Another method while a payment is open is refused.
	card := req
	card.Method = domain.PaymentMethodCard
	if _, err := f.service.CheckoutForPurpose(context.Background(), card); !errors.Is(err, service.ErrPaymentInProgress) {
		t.Errorf("expected ErrPaymentInProgress, got %v", err)
	}

	// Once the open payment failed the customer can try again.
	if _, err := f.service.Resolve(context.Background(), first.Reference, false, "declined"); err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	retry, err := f.service.CheckoutForPurpose(context.Background(), card)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retry.Reference == first.Reference {
		t.Error("expected a new payment after the first one failed")
	}
}

func TestCheckoutForPurpose_ConcurrentCheckoutsShareOnePayment(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	booking := pendingBooking(95)
	f.bookings.AddBooking(booking)

	const workers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		refs = map[string]bool{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payment, err := f.service.CheckoutForPurpose(context.Background(), service.CheckoutRequest{
				PurposeKind: domain.PurposeBooking,
				PurposeID:   booking.ID,
				Method:      domain.PaymentMethodMobileMoney,
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			refs[payment.Reference] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(refs) != 1 {
		t.Errorf("expected every checkout to share one payment, got %d", len(refs))
	}
	if f.payments.CountPayments() != 1 {
		t.Errorf("expected 1 stored payment, got %d", f.payments.CountPayments())
	}
}

// ──────────────────────────────────────────────
// 2. RESOLUTION
// ──────────────────────────────────────────────

func TestResolve_OnlyOneConcurrentResolverWins(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	f.payments.AddPayment(processingPayment("PAY-race", testNow))

	const workers = 20
	var (
		wg      sync.WaitGroup
		won     int32
		lost    int32
		unknown int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.Resolve(context.Background(), "PAY-race", i%2 == 0, "")
			switch {
			case err == nil:
				atomic.AddInt32(&won, 1)
			case errors.Is(err, service.ErrPaymentNotProcessing):
				atomic.AddInt32(&lost, 1)
			default:
				atomic.AddInt32(&unknown, 1)
			}
		}(i)
	}
	wg.Wait()

	if won != 1 {
		t.Errorf("expected exactly 1 winner, got %d", won)
	}
	if lost != workers-1 {
		t.Errorf("expected %d losers, got %d", workers-1, lost)
	}
	if unknown != 0 {
		t.Errorf("expected no unexpected errors, got %d", unknown)
	}
	if f.payments.ResolvedCount() != 1 {
		t.Errorf("expected a single resolution, got %d", f.payments.ResolvedCount())
	}
}

func TestResolve_FailureGetsDefaultReason(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	f.payments.AddPayment(processingPayment("PAY-fail", testNow))

	payment, err := f.service.Resolve(context.Background(), "PAY-fail", false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("expected failed, got %s", payment.Status)
	}
	if payment.FailureReason == "" {
		t.Error("expected a failure reason")
	}
	if !payment.CompletedAt.Equal(testNow) {
		t.Errorf("expected completed_at %v, got %v", testNow, payment.CompletedAt)
	}
}

func TestResolve_UnknownReference(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()

	_, err := f.service.Resolve(context.Background(), "PAY-missing", true, "")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	_, err = f.service.Resolve(context.Background(), "", true, "")
	if !errors.Is(err, service.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestResolve_InProcessListenerRunsOncePerResolution(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	listener := &MockResolutionListener{}
	f.service.OnResolved(listener)

	f.payments.AddPayment(processingPayment("PAY-ok", testNow))
	f.payments.AddPayment(processingPayment("PAY-ko", testNow))
	pending := processingPayment("PAY-cancel", testNow)
	pending.Status = domain.PaymentStatusPending
	f.payments.AddPayment(pending)

	if _, err := f.service.Resolve(context.Background(), "PAY-ok", true, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.service.Resolve(context.Background(), "PAY-ok", false, ""); !errors.Is(err, service.ErrPaymentNotProcessing) {
		t.Errorf("expected ErrPaymentNotProcessing, got %v", err)
	}
	if _, err := f.service.Resolve(context.Background(), "PAY-ko", false, "declined"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.service.Cancel(context.Background(), "PAY-cancel"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := listener.Resolved()
	want := []domain.PaymentStatus{domain.PaymentStatusSuccessful, domain.PaymentStatusFailed}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCancel_OnlyPendingPayments(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()

	pending := processingPayment("PAY-pending", testNow)
	pending.Status = domain.PaymentStatusPending
	f.payments.AddPayment(pending)
	f.payments.AddPayment(processingPayment("PAY-processing", testNow))

	payment, err := f.service.Cancel(context.Background(), "PAY-pending")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != domain.PaymentStatusCancelled {
		t.Errorf("expected cancelled, got %s", payment.Status)
	}

	_, err = f.service.Cancel(context.Background(), "PAY-processing")
	if !errors.Is(err, service.ErrPaymentNotPending) {
		t.Errorf("expected ErrPaymentNotPending, got %v", err)
	}
	if f.payments.ResolvedCount() != 0 {
		t.Error("cancellation must not be reported as a resolution")
	}
}

// ──────────────────────────────────────────────
// 3. STATUS AND WEBHOOKS
// ──────────────────────────────────────────────

func TestGetStatus_VerifiesLivePayments(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	f.providers.AddProvider(liveProvider())
	f.live.VerifyStatus = domain.PaymentStatusSuccessful

	live := processingPayment("PAY-live", testNow)
	live.ProviderCode = "paystack"
	f.payments.AddPayment(live)

	payment, err := f.service.GetStatus(context.Background(), "PAY-live")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != domain.PaymentStatusSuccessful {
		t.Errorf("expected successful after verification, got %s", payment.Status)
	}
	if atomic.LoadInt32(&f.live.VerifyCallCount) != 1 {
		t.Errorf("expected 1 verify call, got %d", f.live.VerifyCallCount)
	}
}

func TestGetStatus_SandboxPaymentsAreNotVerified(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	f.payments.AddPayment(processingPayment("PAY-sbx", testNow))

	payment, err := f.service.GetStatus(context.Background(), "PAY-sbx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != domain.PaymentStatusProcessing {
		t.Errorf("expected processing, got %s", payment.Status)
	}
	if atomic.LoadInt32(&f.gateway.VerifyCallCount) != 0 {
		t.Error("sandbox payments should not be verified")
	}
}

func TestGetStatus_VerifyErrorReturnsStoredPayment(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()
	f.providers.AddProvider(liveProvider())
	f.live.VerifyError = ErrMockTimeout

	live := processingPayment("PAY-slow", testNow)
	live.ProviderCode = "paystack"
	f.payments.AddPayment(live)

	payment, err := f.service.GetStatus(context.Background(), "PAY-slow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Status != domain.PaymentStatusProcessing {
		t.Errorf("expected processing, got %s", payment.Status)
	}
}

func paystackSignature(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookService(payments *MockPaymentRepository) *service.PaymentService {
	return service.NewPaymentService(
		payments,
		service.NewProviderService(NewMockProviderRepository(), nil),
		map[string]service.Gateway{
			"paystack": service.NewPaystackGateway(service.PaystackConfig{SecretKey: "sk_test_secret"}),
		},
		nil,
		nil,
	)
}

func TestHandleWebhook_ResolvesPayment(t *testing.T) {
	t.Parallel()
	payments := NewMockPaymentRepository()
	payment := processingPayment("PAY-hook", testNow)
	payment.ProviderCode = "paystack"
	payments.AddPayment(payment)
	svc := newWebhookService(payments)

	body := []byte(`{"event":"charge.success","data":{"reference":"PAY-hook","status":"success"}}`)
	if err := svc.HandleWebhook(context.Background(), "paystack", body, paystackSignature("sk_test_secret", body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := payments.GetPayment("PAY-hook").Status; got != domain.PaymentStatusSuccessful {
		t.Errorf("expected successful, got %s", got)
	}

	// A redelivered notification is accepted without a second resolution.
	if err := svc.HandleWebhook(context.Background(), "paystack", body, paystackSignature("sk_test_secret", body)); err != nil {
		t.Fatalf("redelivery should be accepted, got %v", err)
	}
	if payments.ResolvedCount() != 1 {
		t.Errorf("expected 1 resolution, got %d", payments.ResolvedCount())
	}
}

func TestHandleWebhook_FailedCharge(t *testing.T) {
	t.Parallel()
	payments := NewMockPaymentRepository()
	payments.AddPayment(processingPayment("PAY-declined", testNow))
	svc := newWebhookService(payments)

	body := []byte(`{"event":"charge.failed","data":{"reference":"PAY-declined","gateway_response":"Insufficient funds"}}`)
	if err := svc.HandleWebhook(context.Background(), "paystack", body, paystackSignature("sk_test_secret", body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := payments.GetPayment("PAY-declined")
	if stored.Status != domain.PaymentStatusFailed || stored.FailureReason != "Insufficient funds" {
		t.Errorf("expected failed with gateway reason, got %s %q", stored.Status, stored.FailureReason)
	}
}

func TestHandleWebhook_RejectsBadSignature(t *testing.T) {
	t.Parallel()
	payments := NewMockPaymentRepository()
	payments.AddPayment(processingPayment("PAY-forged", testNow))
	svc := newWebhookService(payments)

	body := []byte(`{"event":"charge.success","data":{"reference":"PAY-forged"}}`)
	err := svc.HandleWebhook(context.Background(), "paystack", body, paystackSignature("wrong", body))
	if !errors.Is(err, service.ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
	if got := payments.GetPayment("PAY-forged").Status; got != domain.PaymentStatusProcessing {
		t.Errorf("payment must stay processing, got %s", got)
	}
}

func TestHandleWebhook_UnknownPaymentAndEventsIgnored(t *testing.T) {
	t.Parallel()
	svc := newWebhookService(NewMockPaymentRepository())

	for _, body := range [][]byte{
		[]byte(`{"event":"charge.success","data":{"reference":"PAY-nobody"}}`),
		[]byte(`{"event":"transfer.success","data":{"reference":"TRF-1"}}`),
	} {
		if err := svc.HandleWebhook(context.Background(), "paystack", body, paystackSignature("sk_test_secret", body)); err != nil {
			t.Errorf("expected notification to be ignored, got %v", err)
		}
	}

	if err := svc.HandleWebhook(context.Background(), "sandbox", []byte(`{}`), "sig"); !errors.Is(err, service.ErrGatewayNotConfigured) {
		t.Errorf("expected ErrGatewayNotConfigured, got %v", err)
	}
}

func TestListPayments_FiltersAndClampsLimit(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture()

	for i := 0; i < 60; i++ {
		p := processingPayment(fmt.Sprintf("PAY-%02d", i), testNow.Add(time.Duration(i)*time.Minute))
		if i%3 == 0 {
			p.Status = domain.PaymentStatusSuccessful
		}
		if i%2 == 0 {
			p.ProviderCode = "paystack"
		}
		f.payments.AddPayment(p)
	}
	ctx := context.Background()

	for _, limit := range []int{0, -1, 500} {
		list, err := f.service.ListPayments(ctx, domain.PaymentFilter{Limit: limit})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(list) != 50 {
			t.Errorf("limit %d: expected 50 payments, got %d", limit, len(list))
		}
	}

	list, err := f.service.ListPayments(ctx, domain.PaymentFilter{Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 5 || list[0].Reference != "PAY-59" {
		t.Errorf("expected the 5 newest payments, got %d starting at %s", len(list), list[0].Reference)
	}

	list, err = f.service.ListPayments(ctx, domain.PaymentFilter{
		Status:       domain.PaymentStatusSuccessful,
		ProviderCode: " Paystack ",
		Limit:        200,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// multiples of 6 below 60
	if len(list) != 10 {
		t.Errorf("expected 10 successful paystack payments, got %d", len(list))
	}
	for _, p := range list {
		if p.Status != domain.PaymentStatusSuccessful || p.ProviderCode != "paystack" {
			t.Errorf("unexpected payment %s %s/%s", p.Reference, p.Status, p.ProviderCode)
		}
	}
	if f.payments.LastListFilter.ProviderCode != "paystack" {
		t.Errorf("expected normalized provider filter, got %q", f.payments.LastListFilter.ProviderCode)
	}
}
