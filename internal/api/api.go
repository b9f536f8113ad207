// Package api: JSON API поверх хранилищ, движка раскладки и сервиса аудитов.
// Успешные ответы: {"success": true, "data": ...}; ошибки: RFC 7807.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wawengkz/INVENT/internal/audit"
	"github.com/wawengkz/INVENT/internal/layout"
	"github.com/wawengkz/INVENT/internal/logs"
	"github.com/wawengkz/INVENT/internal/middleware"
	"github.com/wawengkz/INVENT/internal/models"
	"github.com/wawengkz/INVENT/internal/repo"
)

const (
	DefaultMaxBatch = 1000
	maxBodyBytes    = 4 << 20
)

type Dependencies struct {
	Stations    *repo.StationStore
	Bays        *repo.BayStore
	Departments *repo.DepartmentStore
	Engine      *layout.Engine
	Audits      *audit.Service
	MaxBatch    int              // 0: DefaultMaxBatch
	Now         func() time.Time // nil: time.Now
}

type Handler struct {
	d   Dependencies
	log logrus.FieldLogger
}

func NewHandler(d Dependencies) *Handler {
	if d.MaxBatch <= 0 {
		d.MaxBatch = DefaultMaxBatch
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handler{d: d, log: logs.L()}
}

// RegisterRoutes вешает все ресурсы на r (обычно подроутер /api).
func RegisterRoutes(r *mux.Router, h *Handler) {
	h.stationRoutes(r.PathPrefix("/stations").Subrouter())
	h.advancedRoutes(r.PathPrefix("/stations-advanced").Subrouter())
	h.bayRoutes(r.PathPrefix("/bays").Subrouter())
	h.departmentRoutes(r.PathPrefix("/departments").Subrouter())
	h.auditRoutes(r.PathPrefix("/audits").Subrouter())
	h.logRoutes(r.PathPrefix("/logs").Subrouter())
	h.reportRoutes(r.PathPrefix("/reports").Subrouter())
}

// -------- ответы --------

func ok(w http.ResponseWriter, status int, data any) {
	models.WriteJSON(w, status, map[string]any{"success": true, "data": data})
}

// okWith: ответ с дополнительными полями рядом с data (count, pagination...).
func okWith(w http.ResponseWriter, status int, data any, extra map[string]any) {
	body := map[string]any{"success": true, "data": data}
	for k, v := range extra {
		body[k] = v
	}
	models.WriteJSON(w, status, body)
}

// fail сопоставляет доменные ошибки со статусами.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var inUse *repo.BaysInUseError
	switch {
	case errors.As(err, &inUse):
		models.WriteProblem(w, http.StatusConflict, "Conflict", inUse.Error(),
			map[string]any{"baysWithStations": inUse.Bays})
	case errors.Is(err, models.ErrNotFound):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", detail(err, models.ErrNotFound), nil)
	case errors.Is(err, models.ErrConflict):
		models.WriteProblem(w, http.StatusConflict, "Conflict", detail(err, models.ErrConflict), nil)
	case errors.Is(err, models.ErrInvalid):
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", detail(err, models.ErrInvalid), nil)
	default:
		reqid := middleware.GetRequestID(r)
		h.log.WithFields(logrus.Fields{"reqid": reqid, "uri": r.RequestURI}).WithError(err).Error("request failed")
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error(),
			map[string]any{"reqid": reqid})
	}
}

// detail убирает хвост с именем sentinel-ошибки.
func detail(err, sentinel error) string {
	return strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, models.ErrInvalid)...)
}

// -------- разбор запроса --------

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// decodeOptional: пустое тело допустимо.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return badRequest("invalid JSON body: %v", err)
}

func deviceType(r *http.Request) (models.DeviceType, error) {
	return models.ParseDeviceType(mux.Vars(r)["deviceType"])
}

func bayVar(r *http.Request, name string) string {
	return models.NormalizeBayName(mux.Vars(r)[name])
}

func idVar(r *http.Request) (uint, error) {
	v, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || v == 0 {
		return 0, badRequest("invalid id %q", mux.Vars(r)["id"])
	}
	return uint(v), nil
}

// queryInt: пустое значение даёт def.
func queryInt(r *http.Request, key string, def int) (int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, badRequest("%s must be an integer", key)
	}
	return v, nil
}

// queryDay разбирает необязательную дату.
func queryDay(r *http.Request, key string) (*time.Time, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return nil, nil
	}
	t, err := audit.ParseDay(s)
	if err != nil {
		return nil, badRequest("%s: invalid date", key)
	}
	return &t, nil
}

// checkBatch: защита пакетных эндпоинтов.
func (h *Handler) checkBatch(n int) error {
	if n == 0 {
		return badRequest("batch is empty")
	}
	if n > h.d.MaxBatch {
		return badRequest("batch of %d items exceeds limit of %d", n, h.d.MaxBatch)
	}
	return nil
}

func (h *Handler) actor(r *http.Request) audit.Actor {
	return audit.Actor{
		UserID:    middleware.UserFrom(r.Context()),
		SessionID: middleware.GetRequestID(r),
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func badNotFound(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, models.ErrNotFound)...)
}
