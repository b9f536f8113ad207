package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wawengkz/INVENT/internal/logs"
	"github.com/wawengkz/INVENT/internal/models"
	"github.com/wawengkz/INVENT/internal/ratelimit"
)

type RateLimitOptions struct {
	Store  ratelimit.Store
	Max    int
	Window time.Duration
	Now    func() time.Time             // nil: time.Now
	Key    func(r *http.Request) string // nil: ClientIP
}

// RateLimit ограничивает число запросов с ключа за скользящее окно.
// Ошибка хранилища не блокирует запрос.
func RateLimit(o RateLimitOptions) mux.MiddlewareFunc {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Key == nil {
		o.Key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := o.Key(r)
			res, err := o.Store.Allow(r.Context(), key, o.Max, o.Window, o.Now())
			if err != nil {
				logs.L().WithFields(logrus.Fields{"reqid": GetRequestID(r), "key": key}).
					WithError(err).Warn("rate limit store unavailable")
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
			if !res.Allowed {
				secs := int(math.Ceil(res.RetryAfter.Seconds()))
				h.Set("Retry-After", strconv.Itoa(secs))
				models.WriteProblem(w, http.StatusTooManyRequests, "Too Many Requests",
					"too many requests from this client, please try again later",
					map[string]any{"retryAfter": secs})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
