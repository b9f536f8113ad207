package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wawengkz/INVENT/internal/audit"
	"github.com/wawengkz/INVENT/internal/models"
	"github.com/wawengkz/INVENT/internal/repo"
)

func (h *Handler) auditRoutes(r *mux.Router) {
	r.HandleFunc("", h.listAudits).Methods(http.MethodGet)
	r.HandleFunc("", h.createAudit).Methods(http.MethodPost)
	r.HandleFunc("/template/current", h.auditTemplate).Methods(http.MethodGet)
	r.HandleFunc("/migrate-departments", h.migrateDepartments).Methods(http.MethodPost)
	r.HandleFunc("/{date}", h.getAudit).Methods(http.MethodGet)
	r.HandleFunc("/{date}", h.updateAudit).Methods(http.MethodPut)
	r.HandleFunc("/{date}", h.deleteAudit).Methods(http.MethodDelete)
}

func (h *Handler) reportRoutes(r *mux.Router) {
	r.HandleFunc("/monthly-summary", h.monthlySummary).Methods(http.MethodGet)
	r.HandleFunc("/item-trends", h.itemTrends).Methods(http.MethodGet)
	r.HandleFunc("/defects-analysis", h.defectsAnalysis).Methods(http.MethodGet)
}

func dateVar(r *http.Request) (time.Time, error) {
	d, err := audit.ParseDay(mux.Vars(r)["date"])
	if err != nil {
		return time.Time{}, badRequest("invalid audit date %q", mux.Vars(r)["date"])
	}
	return d, nil
}

// monthQuery: month и year задаются парой; month 1..12.
func monthQuery(r *http.Request) (year, month int, err error) {
	if month, err = queryInt(r, "month", 0); err != nil {
		return 0, 0, err
	}
	if year, err = queryInt(r, "year", 0); err != nil {
		return 0, 0, err
	}
	if (month == 0) != (year == 0) {
		return 0, 0, badRequest("month and year must be given together")
	}
	if month != 0 && (month < 1 || month > 12) {
		return 0, 0, badRequest("month must be between 1 and 12")
	}
	return year, month, nil
}

func (h *Handler) listAudits(w http.ResponseWriter, r *http.Request) {
	year, month, err := monthQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f := repo.AuditFilter{Site: r.URL.Query().Get("site")}
	if month != 0 {
		from, to := repo.MonthRange(year, month)
		f.From, f.To = &from, &to
	}
	audits, err := h.d.Audits.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusOK, audits, map[string]any{"count": len(audits)})
}

func (h *Handler) getAudit(w http.ResponseWriter, r *http.Request) {
	day, err := dateVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.d.Audits.Get(r.Context(), day, r.URL.Query().Get("site"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, a)
}

func (h *Handler) createAudit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Date         string            `json:"date"`
		Site         string            `json:"site"`
		Items        models.AuditItems `json:"items"`
		OtherItems   map[string]int    `json:"otherItems"`
		MissingItems map[string]int    `json:"missingItems"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	day, err := audit.ParseDay(in.Date)
	if err != nil {
		h.fail(w, r, badRequest("date is required in YYYY-MM-DD format"))
		return
	}
	a, err := h.d.Audits.Create(r.Context(), audit.Input{
		Date:         day,
		Site:         in.Site,
		Items:        in.Items,
		OtherItems:   in.OtherItems,
		MissingItems: in.MissingItems,
	}, h.actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, a)
}

func (h *Handler) updateAudit(w http.ResponseWriter, r *http.Request) {
	day, err := dateVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var p audit.Patch
	if err := decode(r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	a, n, err := h.d.Audits.Update(r.Context(), day, r.URL.Query().Get("site"), p, h.actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusOK, a, map[string]any{"changesLogged": n})
}

func (h *Handler) deleteAudit(w http.ResponseWriter, r *http.Request) {
	day, err := dateVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.d.Audits.Delete(r.Context(), day, r.URL.Query().Get("site"), h.actor(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"message": "Audit deleted"})
}

func (h *Handler) auditTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.d.Audits.Template(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, tpl)
}

func (h *Handler) migrateDepartments(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Added   []string `json:"addedDepartments"`
		Removed []string `json:"removedDepartments"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.d.Audits.MigrateDepartments(r.Context(), in.Added, in.Removed)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"migratedAudits": n})
}

// -------- отчёты --------

func (h *Handler) monthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := monthQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if month == 0 {
		h.fail(w, r, badRequest("month and year are required"))
		return
	}
	sum, err := h.d.Audits.MonthlySummary(r.Context(), year, month, r.URL.Query().Get("site"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, sum)
}

func (h *Handler) itemTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := queryDay(r, "startDate")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := queryDay(r, "endDate")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	points, err := h.d.Audits.ItemTrends(r.Context(), q.Get("item"), from, to, q.Get("site"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusOK, points, map[string]any{"item": q.Get("item"), "count": len(points)})
}

func (h *Handler) defectsAnalysis(w http.ResponseWriter, r *http.Request) {
	year, month, err := monthQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rep, err := h.d.Audits.Defects(r.Context(), year, month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, rep)
}
