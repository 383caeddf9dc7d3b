package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"tours/internal/log"
)

const (
	idempotencyHeader  = "Idempotency-Key"
	idempotencyTTL     = 24 * time.Hour
	idempotencyLockTTL = 30 * time.Second
)

// CachedResponse stores the response for idempotent requests.
type CachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	Headers    http.Header     `json:"headers"`
}

// ResponseStore persists responses of idempotent requests.
type ResponseStore interface {
	// Load returns nil, nil when nothing is stored under key.
	Load(ctx context.Context, key string) (*CachedResponse, error)
	Save(ctx context.Context, key string, response *CachedResponse, ttl time.Duration) error
	// Claim marks key as in flight. It reports false when another request
	// holds it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisResponseStore keeps idempotent responses in Redis.
type RedisResponseStore struct {
	client *redis.Client
}

func NewRedisResponseStore(client *redis.Client) *RedisResponseStore {
	return &RedisResponseStore{client: client}
}

func (s *RedisResponseStore) Load(ctx context.Context, key string) (*CachedResponse, error) {
	data, err := s.client.Get(ctx, "idempotency:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (s *RedisResponseStore) Save(ctx context.Context, key string, response *CachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "idempotency:"+key, data, ttl).Err()
}

func (s *RedisResponseStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, "idempotency:lock:"+key, "1", ttl).Result()
}

func (s *RedisResponseStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, "idempotency:lock:"+key).Err()
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a mutating request that
// repeats an Idempotency-Key on the same route. A repeat that arrives while
// the first request is still running gets 409. On authenticated routes it
// must run after AdminAuth so keys are scoped to the admin.
func Idempotency(store ResponseStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		logger := log.FromContext(ctx).WithField("idempotency_key", key)
		scoped := c.Request.Method + ":" + c.FullPath() + ":" + key
		if adminID := c.GetString(ContextAdminID); adminID != "" {
			scoped = "admin:" + adminID + ":" + scoped
		}

		cached, err := store.Load(ctx, scoped)
		if err != nil {
			// Store unavailable: serve the request without replay.
			logger.WithError(err).Warn("idempotency store unavailable")
			c.Next()
			return
		}
		if cached != nil {
			replay(c, cached)
			return
		}

		claimed, err := store.Claim(ctx, scoped, idempotencyLockTTL)
		if err != nil {
			logger.WithError(err).Warn("idempotency store unavailable")
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "a request with this idempotency key is in progress",
				"code":  "idempotency_conflict",
			})
			return
		}
		defer func() {
			if err := store.Release(context.WithoutCancel(ctx), scoped); err != nil {
				logger.WithError(err).Warn("failed to release idempotency key")
			}
		}()

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		if status := c.Writer.Status(); storable(status) {
			response := CachedResponse{
				StatusCode: status,
				Body:       w.body.Bytes(),
				Headers:    extractResponseHeaders(c),
			}
			if err := store.Save(context.WithoutCancel(ctx), scoped, &response, idempotencyTTL); err != nil {
				logger.WithError(err).Warn("failed to store idempotent response")
			}
		}
	}
}

// storable reports whether a response is final for its key. Server errors
// and authentication failures are not.
func storable(status int) bool {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return false
	}
	return status >= 200 && status < 500
}

func replay(c *gin.Context, cached *CachedResponse) {
	for k, v := range cached.Headers {
		for _, val := range v {
			c.Header(k, val)
		}
	}
	c.Header("Idempotent-Replayed", "true")
	c.Data(cached.StatusCode, "application/json", cached.Body)
	c.Abort()
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
