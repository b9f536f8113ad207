package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wawengkz/INVENT/internal/repo"
)

func (h *Handler) departmentRoutes(r *mux.Router) {
	r.HandleFunc("", h.listDepartments).Methods(http.MethodGet)
	r.HandleFunc("", h.createDepartment).Methods(http.MethodPost)
	r.HandleFunc("/initialize", h.initDepartments).Methods(http.MethodPost)
	r.HandleFunc("/reorder/batch", h.reorderDepartments).Methods(http.MethodPut)
	r.HandleFunc("/{id:[0-9]+}", h.getDepartment).Methods(http.MethodGet)
	r.HandleFunc("/{id:[0-9]+}", h.updateDepartment).Methods(http.MethodPut)
	r.HandleFunc("/{id:[0-9]+}", h.deleteDepartment).Methods(http.MethodDelete)
}

func (h *Handler) listDepartments(w http.ResponseWriter, r *http.Request) {
	var active *bool
	if s := r.URL.Query().Get("active"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			h.fail(w, r, badRequest("active must be true or false"))
			return
		}
		active = &v
	}
	deps, err := h.d.Departments.List(r.Context(), active)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusOK, deps, map[string]any{"count": len(deps)})
}

func (h *Handler) getDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.d.Departments.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, d)
}

func (h *Handler) createDepartment(w http.ResponseWriter, r *http.Request) {
	var in repo.DepartmentInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.d.Departments.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, d)
}

func (h *Handler) updateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in repo.DepartmentInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.d.Departments.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, d)
}

func (h *Handler) deleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.d.Departments.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"message": "Department deleted"})
}

func (h *Handler) reorderDepartments(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Departments []repo.DepartmentOrder `json:"departments"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.checkBatch(len(in.Departments)); err != nil {
		h.fail(w, r, err)
		return
	}
	deps, err := h.d.Departments.Reorder(r.Context(), in.Departments)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, deps)
}

func (h *Handler) initDepartments(w http.ResponseWriter, r *http.Request) {
	deps, err := h.d.Departments.InitDefaults(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusCreated, deps, map[string]any{"count": len(deps)})
}
