package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wawengkz/INVENT/internal/layout"
	"github.com/wawengkz/INVENT/internal/models"
)

func (h *Handler) advancedRoutes(r *mux.Router) {
	r.HandleFunc("/bays/{bay}/{deviceType}/arrange", h.arrangeBay).Methods(http.MethodPost)
	r.HandleFunc("/bays/{bay}/{deviceType}/duplicate", h.duplicateBay).Methods(http.MethodPost)
	r.HandleFunc("/bays/{bay}/{deviceType}/renumber", h.renumberBay).Methods(http.MethodPost)
	r.HandleFunc("/bays/{bay}/{deviceType}/template", h.exportTemplate).Methods(http.MethodGet)
	r.HandleFunc("/bays/{bay}/{deviceType}/stats", h.bayStats).Methods(http.MethodGet)
	r.HandleFunc("/bays/{deviceType}/from-template", h.fromTemplate).Methods(http.MethodPost)
	r.HandleFunc("/layout/{deviceType}/validate", h.validateLayout).Methods(http.MethodGet)
	r.HandleFunc("/layout/{deviceType}/autofix", h.autoFixLayout).Methods(http.MethodPost)
	r.HandleFunc("/{deviceType}/comprehensive-stats", h.comprehensiveStats).Methods(http.MethodGet)
	r.HandleFunc("/clone-multiple", h.cloneStations).Methods(http.MethodPost)
}

// bayTarget: bay и deviceType из пути.
func bayTarget(r *http.Request) (string, models.DeviceType, error) {
	dt, err := deviceType(r)
	if err != nil {
		return "", "", err
	}
	bay := bayVar(r, "bay")
	if bay == "" {
		return "", "", badRequest("bay name is required")
	}
	return bay, dt, nil
}

func (h *Handler) arrangeBay(w http.ResponseWriter, r *http.Request) {
	bay, dt, err := bayTarget(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in struct {
		Pattern string  `json:"pattern"`
		Spacing float64 `json:"spacing"`
	}
	if err := decodeOptional(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	p, known := layout.ParsePattern(in.Pattern)
	if !known {
		h.fail(w, r, badRequest("invalid layout pattern %q", in.Pattern))
		return
	}
	if in.Spacing < 0 {
		h.fail(w, r, badRequest("spacing must be positive"))
		return
	}
	res, err := h.d.Engine.ArrangeBay(r.Context(), bay, dt, p, in.Spacing)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, res)
}

func (h *Handler) duplicateBay(w http.ResponseWriter, r *http.Request) {
	bay, dt, err := bayTarget(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in struct {
		TargetBay   string `json:"targetBay"`
		CopyDevices bool   `json:"copyDevices"`
		Overwrite   bool   `json:"overwrite"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.d.Engine.DuplicateBay(r.Context(), layout.DuplicateRequest{
		SourceBay:   bay,
		TargetBay:   models.NormalizeBayName(in.TargetBay),
		DeviceType:  dt,
		CopyDevices: in.CopyDevices,
		Overwrite:   in.Overwrite,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, res)
}

func (h *Handler) renumberBay(w http.ResponseWriter, r *http.Request) {
	bay, dt, err := bayTarget(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in struct {
		StartNumber int `json:"startNumber"`
	}
	if err := decodeOptional(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.StartNumber < 0 {
		h.fail(w, r, badRequest("start number must be positive"))
		return
	}
	res, err := h.d.Engine.RenumberBay(r.Context(), bay, dt, in.StartNumber)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, res)
}

func (h *Handler) exportTemplate(w http.ResponseWriter, r *http.Request) {
	bay, dt, err := bayTarget(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tpl, err := h.d.Engine.ExportBayTemplate(r.Context(), bay, dt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, tpl)
}

func (h *Handler) fromTemplate(w http.ResponseWriter, r *http.Request) {
	dt, err := deviceType(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in struct {
		Template      *layout.Template `json:"template"`
		NewBayName    string           `json:"newBayName"`
		StartPosition *models.Point    `json:"startPosition"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.Template == nil {
		h.fail(w, r, badRequest("template is required"))
		return
	}
	if err := h.checkBatch(len(in.Template.Layout)); err != nil {
		h.fail(w, r, err)
		return
	}
	var start models.Point
	if in.StartPosition != nil {
		start = *in.StartPosition
	}
	res, err := h.d.Engine.CreateBayFromTemplate(r.Context(), *in.Template, models.NormalizeBayName(in.NewBayName), dt, start)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, res)
}

func (h *Handler) bayStats(w http.ResponseWriter, r *http.Request) {
	bay, dt, err := bayTarget(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.d.Engine.BayStats(r.Context(), bay, dt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, st)
}

func (h *Handler) validateLayout(w http.ResponseWriter, r *http.Request) {
	dt, err := deviceType(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rep, err := h.d.Engine.ValidateLayout(r.Context(), dt, models.NormalizeBayName(r.URL.Query().Get("bay")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, rep)
}

func (h *Handler) autoFixLayout(w http.ResponseWriter, r *http.Request) {
	dt, err := deviceType(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in struct {
		Bay string `json:"bay"`
	}
	if err := decodeOptional(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.d.Engine.AutoFixLayout(r.Context(), dt, models.NormalizeBayName(in.Bay))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, res)
}

func (h *Handler) comprehensiveStats(w http.ResponseWriter, r *http.Request) {
	dt, err := deviceType(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.d.Engine.ComprehensiveStats(r.Context(), dt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, st)
}

func (h *Handler) cloneStations(w http.ResponseWriter, r *http.Request) {
	var in layout.CloneRequest
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.checkBatch(len(in.StationIDs)); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.TargetBay != nil {
		bay := models.NormalizeBayName(*in.TargetBay)
		in.TargetBay = &bay
	}
	res, err := h.d.Engine.CloneStations(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, res)
}
