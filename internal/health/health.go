package health

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/wawengkz/INVENT/internal/models"
)

// Check: проверка зависимости для readiness.
type Check func(ctx context.Context) error

// RegisterRoutes: базовый liveness.
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", liveness).Methods(http.MethodGet)
}

// RegisterRoutesWithChecks: liveness + readiness по всем проверкам.
func RegisterRoutesWithChecks(r *mux.Router, checks map[string]Check) {
	RegisterRoutes(r)
	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		names := make([]string, 0, len(checks))
		for n := range checks {
			names = append(names, n)
		}
		sort.Strings(names)

		res := make(map[string]string, len(checks))
		status := http.StatusOK
		for _, n := range names {
			if err := checks[n](ctx); err != nil {
				res[n] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			res[n] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "unavailable"
		}
		models.WriteJSON(w, status, map[string]any{"status": state, "checks": res})
	}).Methods(http.MethodGet)
}

// DB: ping БД.
func DB(db *gorm.DB) Check {
	return func(ctx context.Context) error {
		if db == nil {
			return errors.New("db not configured")
		}
		sqlDB, err := db.DB()
		if err != nil {
			return errors.New("db handle error")
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return errors.New("db unreachable")
		}
		return nil
	}
}

// Redis: ping хранилища лимитов.
func Redis(c *redis.Client) Check {
	return func(ctx context.Context) error {
		if err := c.Ping(ctx).Err(); err != nil {
			return errors.New("redis unreachable")
		}
		return nil
	}
}

func liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
