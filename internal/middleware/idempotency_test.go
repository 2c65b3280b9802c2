package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestIdempotency(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 10}`))
	})

	t.Run("no key passes through", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		wrapped := Idempotency(redisClient)(handler)

		req := httptest.NewRequest(http.MethodPost, "/transactions/refill", nil)
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Idempotency-Hit"))
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("nil redis passes through", func(t *testing.T) {
		wrapped := Idempotency(nil)(handler)

		req := httptest.NewRequest(http.MethodPost, "/transactions/refill", nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("get request bypasses the cache", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		wrapped := Idempotency(redisClient)(handler)

		req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("first request stores the response", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		wrapped := Idempotency(redisClient)(handler)

		stored, err := json.Marshal(storedResponse{Status: http.StatusCreated, Body: []byte(`{"id": 10}`)})
		assert.NoError(t, err)
		redisMock.ExpectGet("idempotency:abc").RedisNil()
		redisMock.ExpectSet("idempotency:abc", stored, 24*time.Hour).SetVal("OK")

		req := httptest.NewRequest(http.MethodPost, "/transactions/refill", nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, `{"id": 10}`, rec.Body.String())
		assert.Empty(t, rec.Header().Get("X-Idempotency-Hit"))
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("repeated key replays without hitting the handler", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		calls := 0
		counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusCreated)
		})
		wrapped := Idempotency(redisClient)(counting)

		stored, err := json.Marshal(storedResponse{Status: http.StatusCreated, Body: []byte(`{"id": 10}`)})
		assert.NoError(t, err)
		redisMock.ExpectGet("idempotency:abc").SetVal(string(stored))

		req := httptest.NewRequest(http.MethodPost, "/transactions/refill", nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, `{"id": 10}`, rec.Body.String())
		assert.Equal(t, "true", rec.Header().Get("X-Idempotency-Hit"))
		assert.Equal(t, 0, calls)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}
