package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const idempotencyTTL = 24 * time.Hour

type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// responseRecorder captures status and body so a completed response can be
// replayed for a repeated Idempotency-Key.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated Idempotency-Key
// on POST requests. Requests without a key, or with Redis unavailable,
// pass straight through.
func Idempotency(rdb *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" || rdb == nil || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			cacheKey := fmt.Sprintf("idempotency:%s", key)

			if data, err := rdb.Get(ctx, cacheKey).Bytes(); err == nil {
				var stored storedResponse
				if json.Unmarshal(data, &stored) == nil {
					log.Printf("[IDEMPOTENCY] Replaying response for key %s", key)
					w.Header().Set("X-Idempotency-Hit", "true")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(stored.Status)
					w.Write(stored.Body)
					return
				}
			}

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			data, err := json.Marshal(storedResponse{Status: rec.status, Body: rec.body.Bytes()})
			if err != nil {
				return
			}
			if err := rdb.Set(ctx, cacheKey, data, idempotencyTTL).Err(); err != nil {
				log.Printf("[IDEMPOTENCY] Failed to store response for key %s: %v", key, err)
			}
		})
	}
}
