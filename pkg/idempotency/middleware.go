package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(method, path, token string) string {
	return fmt.Sprintf("idem:%s:%s:%s", method, path, token)
}

// Seen records the key and reports whether it was already present.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Middleware rejects replayed POST requests that carry an Idempotency-Key
// header already seen within the TTL. A redis outage degrades open: the
// request proceeds and the failure is logged.
func Middleware(log *slog.Logger, store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Idempotency-Key")
			if r.Method != http.MethodPost || token == "" {
				next.ServeHTTP(w, r)
				return
			}
			seen, err := store.Seen(r.Context(), store.Key(r.Method, r.URL.Path, token))
			if err != nil {
				log.Warn("idempotency check unavailable", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				http.Error(w, `{"error":"duplicate request"}`, http.StatusConflict)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
