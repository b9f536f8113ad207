package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wawengkz/INVENT/internal/logs"
)

// DefaultSlowRequest: порог, после которого запрос пишется в warning.
const DefaultSlowRequest = time.Second

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// RequestLogger пишет строку на запрос; медленнее slow: warning с slow=true.
func RequestLogger(slow time.Duration) mux.MiddlewareFunc {
	if slow <= 0 {
		slow = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(sw, r)
			d := time.Since(start)
			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			e := logs.L().WithFields(logrus.Fields{
				"reqid":  GetRequestID(r),
				"method": r.Method,
				"uri":    r.RequestURI,
				"status": sw.status,
				"bytes":  sw.bytes,
				"dur":    d.String(),
				"ip":     ClientIP(r),
				"ua":     r.UserAgent(),
			})
			if d >= slow {
				e.WithField("slow", true).Warn("slow request")
				return
			}
			e.Info("request")
		})
	}
}
