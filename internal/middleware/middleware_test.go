package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tours/internal/log"
	"tours/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryStore struct {
	mu        sync.Mutex
	responses map[string]*CachedResponse
	claims    map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		responses: make(map[string]*CachedResponse),
		claims:    make(map[string]bool),
	}
}

func (m *memoryStore) Load(ctx context.Context, key string) (*CachedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.responses[key], nil
}

func (m *memoryStore) Save(ctx context.Context, key string, response *CachedResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[key] = response
	return nil
}

func (m *memoryStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claims[key] {
		return false, nil
	}
	m.claims[key] = true
	return true, nil
}

func (m *memoryStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, key)
	return nil
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	var calls atomic.Int32
	r := gin.New()
	r.Use(Idempotency(newMemoryStore()))
	r.POST("/v1/bookings", func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
		req.Header.Set(idempotencyHeader, "key-1")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	second := send()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotency_KeyIsScopedToRoute(t *testing.T) {
	var calls atomic.Int32
	r := gin.New()
	r.Use(Idempotency(newMemoryStore()))
	handler := func(c *gin.Context) {
		calls.Add(1)
		c.Status(http.StatusNoContent)
	}
	r.POST("/a", handler)
	r.POST("/b", handler)

	for _, path := range []string{"/a", "/b"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(idempotencyHeader, "shared")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_InFlightRequestConflicts(t *testing.T) {
	store := newMemoryStore()
	_, err := store.Claim(context.Background(), "POST:/v1/checkout:busy", time.Minute)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Idempotency(store))
	r.POST("/v1/checkout", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/checkout", nil)
	req.Header.Set(idempotencyHeader, "busy")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	store := newMemoryStore()
	r := gin.New()
	r.Use(Idempotency(store))
	r.POST("/x", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(idempotencyHeader, "k")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Empty(t, store.responses)
	assert.Empty(t, store.claims)
}

func TestIdempotency_AuthFailuresAreNotStored(t *testing.T) {
	store := newMemoryStore()
	r := gin.New()
	r.Use(Idempotency(store))
	r.POST("/x", func(c *gin.Context) {
		c.Status(http.StatusUnauthorized)
	})
	r.POST("/y", func(c *gin.Context) {
		c.Status(http.StatusForbidden)
	})

	for _, path := range []string{"/x", "/y"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(idempotencyHeader, "k")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Empty(t, store.responses)
}

func TestIdempotency_KeyIsScopedToAdmin(t *testing.T) {
	var calls atomic.Int32
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextAdminID, c.GetHeader("X-Admin"))
		c.Next()
	})
	r.Use(Idempotency(newMemoryStore()))
	r.POST("/v1/admin/galleries", func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})

	send := func(admin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/galleries", nil)
		req.Header.Set(idempotencyHeader, "shared")
		req.Header.Set("X-Admin", admin)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	send("admin-1")
	other := send("admin-2")
	again := send("admin-1")

	assert.Equal(t, int32(2), calls.Load())
	assert.Empty(t, other.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "true", again.Header().Get("Idempotent-Replayed"))
}

func TestCORS_PreflightAllowed(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.POST("/v1/bookings", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodOptions, "/v1/bookings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightForbidden(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.POST("/v1/bookings", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodOptions, "/v1/bookings", nil)
	req.Header.Set("Origin", "http://evil.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestLogger_PropagatesCorrelationID(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		seen = log.CorrelationIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(correlationHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(correlationHeader))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, rec.Header().Get(correlationHeader))
}

func TestAdminAuth(t *testing.T) {
	auth := service.NewAuthService(nil, "test-secret", time.Hour, nil)
	adminToken, _, err := auth.IssueToken("admin-1", "ops@example.com")
	require.NoError(t, err)

	userClaims := service.AdminClaims{
		AdminID: "user-1",
		Role:    "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	userToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, userClaims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin", AdminAuth(auth), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextAdminID))
	})

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"not admin", "Bearer " + userToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
