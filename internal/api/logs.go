package api

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wawengkz/INVENT/internal/audit"
	"github.com/wawengkz/INVENT/internal/export"
	"github.com/wawengkz/INVENT/internal/models"
	"github.com/wawengkz/INVENT/internal/repo"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

func (h *Handler) logRoutes(r *mux.Router) {
	r.HandleFunc("", h.listLogs).Methods(http.MethodGet)
	r.HandleFunc("", h.createLog).Methods(http.MethodPost)
	r.HandleFunc("/audit/{date}", h.auditLogs).Methods(http.MethodGet)
	r.HandleFunc("/summary/recent", h.recentSummary).Methods(http.MethodGet)
	r.HandleFunc("/summary/user", h.userSummary).Methods(http.MethodGet)
	r.HandleFunc("/summary/user/{userId}", h.userSummary).Methods(http.MethodGet)
	r.HandleFunc("/item/{item}", h.itemHistory).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.logStats).Methods(http.MethodGet)
	r.HandleFunc("/export", h.exportLogs).Methods(http.MethodGet)
	r.HandleFunc("/cleanup", h.cleanupLogs).Methods(http.MethodDelete)
}

// logFilter собирает фильтр из query; endDate включает весь день.
func logFilter(r *http.Request) (repo.LogFilter, error) {
	q := r.URL.Query()
	f := repo.LogFilter{
		Action: models.LogAction(q.Get("action")),
		Item:   q.Get("item"),
		Field:  q.Get("field"),
		UserID: q.Get("userId"),
	}
	if f.Action != "" && !f.Action.Valid() {
		return f, badRequest("invalid action %q", f.Action)
	}
	var err error
	if f.From, err = queryDay(r, "startDate"); err != nil {
		return f, err
	}
	if f.To, err = queryDay(r, "endDate"); err != nil {
		return f, err
	}
	if f.To != nil {
		end := f.To.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	if f.AuditDate, err = queryDay(r, "auditDate"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	f, err := logFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if f.Page, err = queryInt(r, "page", 1); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.Limit, err = queryInt(r, "limit", defaultLogLimit); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLogLimit
	}
	if f.Limit > maxLogLimit {
		f.Limit = maxLogLimit
	}
	ls, total, err := h.d.Audits.Logs(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pages := (total + int64(f.Limit) - 1) / int64(f.Limit)
	okWith(w, http.StatusOK, ls, map[string]any{
		"pagination": map[string]any{"page": f.Page, "limit": f.Limit, "total": total, "pages": pages},
	})
}

func (h *Handler) auditLogs(w http.ResponseWriter, r *http.Request) {
	day, err := dateVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ls, err := h.d.Audits.AuditLogs(r.Context(), day)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusOK, ls, map[string]any{"count": len(ls)})
}

func (h *Handler) createLog(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Action      models.LogAction `json:"action"`
		AuditDate   string           `json:"auditDate"`
		Item        string           `json:"item"`
		Field       string           `json:"field"`
		OldValue    any              `json:"oldValue"`
		NewValue    any              `json:"newValue"`
		Description string           `json:"description"`
		RelatedTo   string           `json:"relatedTo"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	day, err := audit.ParseDay(in.AuditDate)
	if err != nil {
		h.fail(w, r, badRequest("auditDate is required in YYYY-MM-DD format"))
		return
	}
	l, err := h.d.Audits.AddLog(r.Context(), audit.LogInput{
		Action:      in.Action,
		AuditDate:   day,
		Item:        in.Item,
		Field:       in.Field,
		OldValue:    in.OldValue,
		NewValue:    in.NewValue,
		Description: in.Description,
		RelatedTo:   in.RelatedTo,
	}, h.actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, l)
}

func (h *Handler) recentSummary(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sum, err := h.d.Audits.RecentSummary(r.Context(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, sum)
}

// userSummary без {userId} берёт текущего пользователя.
func (h *Handler) userSummary(w http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["userId"]
	if user == "" {
		user = h.actor(r).UserID
	}
	days, err := queryInt(r, "days", 30)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.d.Audits.UserSummary(r.Context(), user, days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusOK, st, map[string]any{"userId": user})
}

func (h *Handler) itemHistory(w http.ResponseWriter, r *http.Request) {
	item := strings.TrimSpace(mux.Vars(r)["item"])
	days, err := queryInt(r, "days", 30)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ls, err := h.d.Audits.ItemHistory(r.Context(), item, days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusOK, ls, map[string]any{"item": item, "count": len(ls)})
}

func (h *Handler) logStats(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 30)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.d.Audits.Stats(r.Context(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, st)
}

func (h *Handler) exportLogs(w http.ResponseWriter, r *http.Request) {
	f, err := logFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	ls, _, err := h.d.Audits.Logs(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	now := h.d.Now()
	var buf bytes.Buffer
	switch format {
	case "csv":
		err = export.LogsCSV(&buf, ls)
		if err == nil {
			attach(w, export.ContentTypeCSV, export.FileName("audit_logs", "csv", now), buf.Bytes())
		}
	case "json":
		err = export.LogsJSON(&buf, ls, filterMap(r), now)
		if err == nil {
			attach(w, export.ContentTypeJSON, export.FileName("audit_logs", "json", now), buf.Bytes())
		}
	case "xlsx":
		err = export.LogsXLSX(&buf, ls)
		if err == nil {
			attach(w, export.ContentTypeXLSX, export.FileName("audit_logs", "xlsx", now), buf.Bytes())
		}
	default:
		err = badRequest("unsupported export format %q", format)
	}
	if err != nil {
		h.fail(w, r, err)
	}
}

// filterMap: непустые параметры запроса для шапки json-выгрузки.
func filterMap(r *http.Request) map[string]any {
	out := map[string]any{}
	for k, v := range r.URL.Query() {
		if k == "format" || len(v) == 0 || v[0] == "" {
			continue
		}
		out[k] = v[0]
	}
	return out
}

func (h *Handler) cleanupLogs(w http.ResponseWriter, r *http.Request) {
	var in struct {
		DaysToKeep int `json:"daysToKeep"`
	}
	if err := decodeOptional(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.DaysToKeep < 0 {
		h.fail(w, r, badRequest("daysToKeep must be positive"))
		return
	}
	n, kept, err := h.d.Audits.Cleanup(r.Context(), in.DaysToKeep)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"deletedCount": n, "daysKept": kept})
}
