package idempotency

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

const HeaderKey = "Idempotency-Key"

// Deduper claims request keys. *Store is the redis-backed implementation.
type Deduper interface {
	Key(method, path, key string) string
	Seen(ctx context.Context, key string) (bool, error)
}

// Middleware rejects a repeated submission carrying the same Idempotency-Key
// before it can reach the processor and reserve stock twice. Requests
// without the header pass through untouched.
func Middleware(log *slog.Logger, store Deduper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			seen, err := store.Seen(r.Context(), store.Key(r.Method, r.URL.Path, key))
			if err != nil {
				log.Error("idempotency check failed", "err", err)
				http.Error(w, "idempotency check failed", http.StatusInternalServerError)
				return
			}
			if seen {
				log.Info("duplicate request rejected", "key", key)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "duplicate request"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
