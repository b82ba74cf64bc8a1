package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// IdempotencyHeader is the request header clients send to make a POST safe to retry
const IdempotencyHeader = "Idempotency-Key"

// IdempotencyStore stores responses by idempotency key so a retried checkout
// or application returns the first answer instead of acting twice
type IdempotencyStore struct {
	mu       sync.RWMutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	stopChan chan struct{}
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	inFlight  bool
	done      chan struct{}
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep idempotency results (default 24h)
	Cleanup time.Duration // Cleanup interval (default 1h)
}

// NewIdempotencyStore creates a new idempotency store
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop stops the cleanup goroutine
func (s *IdempotencyStore) Stop() {
	close(s.stopChan)
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.entries {
		if entry.expiresAt.Before(now) && !entry.inFlight {
			delete(s.entries, key)
		}
	}
}

// generateKey creates a unique key from user ID, idempotency key, and request fingerprint
func generateKey(userID, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte(idempotencyKey))
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter records the body while writing it through
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func replay(c *gin.Context, entry *idempotencyEntry) {
	for k, v := range entry.headers {
		for _, val := range v {
			c.Writer.Header().Add(k, val)
		}
	}
	c.Header("X-Idempotency-Replayed", "true")
	c.Data(entry.status, entry.headers.Get("Content-Type"), entry.body)
	c.Abort()
}

// Idempotency replays the stored response of a POST carrying a known Idempotency-Key
func Idempotency(store *IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		idempotencyKey := c.GetHeader(IdempotencyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		userID := GetUserID(c)
		if userID == "" {
			userID = c.ClientIP()
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := generateKey(userID, idempotencyKey, c.Request.Method, c.Request.URL.Path, body)

		store.mu.Lock()
		entry, exists := store.entries[key]
		if exists {
			if entry.inFlight {
				// Wait for the first request to finish
				store.mu.Unlock()
				<-entry.done

				store.mu.RLock()
				entry = store.entries[key]
				store.mu.RUnlock()

				if entry != nil && !entry.inFlight {
					replay(c, entry)
					return
				}
				store.mu.Lock()
			} else if entry.expiresAt.After(time.Now()) {
				store.mu.Unlock()
				replay(c, entry)
				return
			}
		}

		entry = &idempotencyEntry{
			inFlight: true,
			done:     make(chan struct{}),
		}
		store.entries[key] = entry
		store.mu.Unlock()

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		store.mu.Lock()
		// Server errors are not cached so the client can retry
		if w.Status() >= http.StatusInternalServerError {
			delete(store.entries, key)
		} else {
			entry.status = w.Status()
			entry.headers = w.Header().Clone()
			entry.body = w.body.Bytes()
			entry.expiresAt = time.Now().Add(store.ttl)
		}
		entry.inFlight = false
		close(entry.done)
		store.mu.Unlock()
	}
}
