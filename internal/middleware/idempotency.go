package middleware

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
	"golang.org/x/crypto/blake2b"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
)

// IdempotencyStore stores idempotency key results
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
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
	s.stopOnce.Do(func() { close(s.stopChan) })
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
		if !entry.inFlight && entry.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// acquire returns either a completed entry to replay (owner false) or a new
// in-flight entry the caller must complete (owner true). Concurrent requests
// with the same key wait for the first one. A nil entry with owner false
// means ctx ended while waiting.
func (s *IdempotencyStore) acquire(ctx context.Context, key string) (entry *idempotencyEntry, owner bool) {
	for {
		s.mu.Lock()
		existing, ok := s.entries[key]
		switch {
		case ok && existing.inFlight:
			done := existing.done
			s.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return nil, false
			}
		case ok && existing.expiresAt.After(time.Now()):
			s.mu.Unlock()
			return existing, false
		}

		entry = &idempotencyEntry{inFlight: true, done: make(chan struct{})}
		s.entries[key] = entry
		s.mu.Unlock()
		return entry, true
	}
}

// complete stores the captured response. Server errors are not kept so the
// client can retry with the same key.
func (s *IdempotencyStore) complete(key string, entry *idempotencyEntry, rw *idempotencyResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.inFlight = false
	if rw.status >= http.StatusInternalServerError {
		delete(s.entries, key)
	} else {
		entry.status = rw.status
		entry.headers = rw.Header().Clone()
		entry.body = rw.body.Bytes()
		entry.expiresAt = time.Now().Add(s.ttl)
	}
	close(entry.done)
}

func (s *IdempotencyStore) abandon(key string, entry *idempotencyEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.inFlight = false
	delete(s.entries, key)
	close(entry.done)
}

func (e *idempotencyEntry) replay(w http.ResponseWriter) {
	for k, v := range e.headers {
		if w.Header().Get(k) != "" {
			continue
		}
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	w.Header().Set(IdempotencyReplayedHeader, "true")
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// generateKey creates a unique key from client, idempotency key, and request fingerprint
func generateKey(client, idempotencyKey, method, path string, body []byte) string {
	var buf bytes.Buffer
	for _, part := range []string{client, idempotencyKey, method, path} {
		buf.WriteString(part)
		buf.WriteByte(0)
	}
	buf.Write(body)
	sum := blake2b.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// idempotencyResponseWriter captures the response for caching
type idempotencyResponseWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency returns middleware that replays POST responses for a repeated
// Idempotency-Key, so a retried group creation does not surface as a
// conflict with itself.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get(IdempotencyKeyHeader)
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				model.NewBadRequestError("unable to read request body").WriteJSON(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := generateKey(clientID(r), idempotencyKey, r.Method, r.URL.Path, body)

			entry, owner := store.acquire(r.Context(), key)
			if !owner {
				if entry != nil {
					entry.replay(w)
				}
				return
			}

			completed := false
			defer func() {
				if !completed {
					store.abandon(key, entry)
				}
			}()

			irw := &idempotencyResponseWriter{
				ResponseWriter: w,
				status:         http.StatusOK,
			}
			next.ServeHTTP(irw, r)

			store.complete(key, entry, irw)
			completed = true
		})
	}
}
