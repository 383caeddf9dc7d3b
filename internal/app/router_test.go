package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tours/internal/clock"
	"tours/internal/domain"
	"tours/internal/handler"
	"tours/internal/middleware"
	"tours/internal/service"
	"tours/internal/tests"
)

type memoryResponses struct {
	mu        sync.Mutex
	responses map[string]*middleware.CachedResponse
	claims    map[string]bool
}

func newMemoryResponses() *memoryResponses {
	return &memoryResponses{
		responses: make(map[string]*middleware.CachedResponse),
		claims:    make(map[string]bool),
	}
}

func (m *memoryResponses) Load(ctx context.Context, key string) (*middleware.CachedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.responses[key], nil
}

func (m *memoryResponses) Save(ctx context.Context, key string, response *middleware.CachedResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[key] = response
	return nil
}

func (m *memoryResponses) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claims[key] {
		return false, nil
	}
	m.claims[key] = true
	return true, nil
}

func (m *memoryResponses) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, key)
	return nil
}

func (m *memoryResponses) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

type routerFixture struct {
	engine    *gin.Engine
	token     string
	payments  *tests.MockPaymentRepository
	providers *tests.MockProviderRepository
	responses *memoryResponses
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	auth := service.NewAuthService(nil, "router-secret", time.Hour, nil)
	token, _, err := auth.IssueToken("admin-1", "ops@tours.test")
	require.NoError(t, err)

	f := &routerFixture{
		token:     token,
		payments:  tests.NewMockPaymentRepository(),
		providers: tests.NewMockProviderRepository(),
		responses: newMemoryResponses(),
	}
	providers := service.NewProviderService(f.providers, nil)
	payments := service.NewPaymentService(f.payments, providers, map[string]service.Gateway{}, nil, nil)

	f.engine = NewRouter(RouterDeps{
		CatalogHandler:  handler.NewCatalogHandler(nil, clock.NewSystem()),
		BookingHandler:  handler.NewBookingHandler(nil, nil),
		PurchaseHandler: handler.NewPurchaseHandler(nil, nil),
		PaymentHandler:  handler.NewPaymentHandler(payments, providers, "GHS"),
		GalleryHandler:  handler.NewGalleryHandler(nil),
		AdminHandler:    handler.NewAdminHandler(auth, nil),
		TokenValidator:  auth,
		ResponseStore:   f.responses,
	})
	return f
}

func (f *routerFixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

const providerBody = `{"name":"Paystack","active":true,"priority":1,"capabilities":[{"currency":"GHS","method":"mobile_money"}]}`

func TestRouter_AdminKeyIsNotReplayedToAnonymousCallers(t *testing.T) {
	f := newRouterFixture(t)
	admin := map[string]string{"Authorization": "Bearer " + f.token, "Idempotency-Key": "k-1"}

	rec := f.do(http.MethodPut, "/v1/admin/providers/paystack", providerBody, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPut, "/v1/admin/providers/paystack", providerBody, map[string]string{"Idempotency-Key": "k-1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Paystack")
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))

	rec = f.do(http.MethodPut, "/v1/admin/providers/paystack", providerBody, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
}

func TestRouter_UnauthenticatedAttemptDoesNotPoisonKey(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPut, "/v1/admin/providers/paystack", providerBody, map[string]string{"Idempotency-Key": "k-2"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, f.responses.count())

	rec = f.do(http.MethodPut, "/v1/admin/providers/paystack", providerBody,
		map[string]string{"Authorization": "Bearer " + f.token, "Idempotency-Key": "k-2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))

	provider, err := f.providers.GetByCode(context.Background(), "paystack")
	require.NoError(t, err)
	assert.Equal(t, "Paystack", provider.Name)
}

func TestRouter_LoginIsNeverStored(t *testing.T) {
	f := newRouterFixture(t)
	headers := map[string]string{"Idempotency-Key": "login-1"}

	rec := f.do(http.MethodPost, "/v1/admin/login", `{"email":"ops@tours.test"}`, headers)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(http.MethodPost, "/v1/admin/login", `{"email":"ops@tours.test"}`, headers)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
	assert.Zero(t, f.responses.count())
}

func TestRouter_PaymentCancelIsAdminOnly(t *testing.T) {
	f := newRouterFixture(t)
	f.payments.AddPayment(&domain.Payment{
		ID:           "0b7f3c1e-8a4d-4a57-9d1c-2f6e5b7a9c10",
		Reference:    "PAY-open",
		Amount:       50,
		Currency:     "GHS",
		Method:       domain.PaymentMethodMobileMoney,
		ProviderCode: "sandbox",
		Status:       domain.PaymentStatusPending,
	})

	rec := f.do(http.MethodPost, "/v1/payments/PAY-open/cancel", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/v1/admin/payments/PAY-open/cancel", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, domain.PaymentStatusPending, f.payments.GetPayment("PAY-open").Status)

	rec = f.do(http.MethodPost, "/v1/admin/payments/PAY-open/cancel", "",
		map[string]string{"Authorization": "Bearer " + f.token})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.PaymentStatusCancelled, f.payments.GetPayment("PAY-open").Status)
}
