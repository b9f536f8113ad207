package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wawengkz/INVENT/internal/models"
	"github.com/wawengkz/INVENT/internal/repo"
)

func (h *Handler) bayRoutes(r *mux.Router) {
	r.HandleFunc("", h.createBay).Methods(http.MethodPost)
	r.HandleFunc("/bulk/positions", h.bulkBayPositions).Methods(http.MethodPatch)
	r.HandleFunc("/bulk/delete", h.bulkDeleteBays).Methods(http.MethodDelete)
	r.HandleFunc("/{id:[0-9]+}/stations", h.bayWithStations).Methods(http.MethodGet)
	r.HandleFunc("/{id:[0-9]+}/position", h.bayPosition).Methods(http.MethodPatch)
	r.HandleFunc("/{id:[0-9]+}", h.updateBay).Methods(http.MethodPut)
	r.HandleFunc("/{id:[0-9]+}", h.deleteBay).Methods(http.MethodDelete)
	r.HandleFunc("/{deviceType}", h.listBays).Methods(http.MethodGet)
}

func (h *Handler) listBays(w http.ResponseWriter, r *http.Request) {
	dt, err := deviceType(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bays, err := h.d.Bays.List(r.Context(), dt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusOK, bays, map[string]any{"count": len(bays)})
}

func (h *Handler) createBay(w http.ResponseWriter, r *http.Request) {
	var in repo.BayInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	b, reactivated, err := h.d.Bays.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.WithField("bay", b.Name).WithField("device_type", b.DeviceType).
		WithField("reactivated", reactivated).Info("bay saved")
	if reactivated {
		okWith(w, http.StatusOK, b, map[string]any{"message": "Bay reactivated"})
		return
	}
	ok(w, http.StatusCreated, b)
}

func (h *Handler) bayWithStations(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	b, sts, err := h.d.Bays.WithStations(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"bay": b, "stations": sts})
}

func (h *Handler) updateBay(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var p repo.BayPatch
	if err := decode(r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := h.d.Bays.Update(r.Context(), id, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, b)
}

func (h *Handler) bayPosition(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.X == nil || in.Y == nil {
		h.fail(w, r, badRequest("x and y are required"))
		return
	}
	b, err := h.d.Bays.UpdatePosition(r.Context(), id, models.Point{X: *in.X, Y: *in.Y})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, b)
}

func (h *Handler) bulkBayPositions(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Bays []repo.BayPosition `json:"bays"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.checkBatch(len(in.Bays)); err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.d.Bays.BulkPositions(r.Context(), in.Bays)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"updated": n})
}

func (h *Handler) deleteBay(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.d.Bays.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"message": "Bay deleted"})
}

func (h *Handler) bulkDeleteBays(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IDs []uint `json:"ids"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.checkBatch(len(in.IDs)); err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.d.Bays.BulkDelete(r.Context(), in.IDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{"deleted": n})
}
