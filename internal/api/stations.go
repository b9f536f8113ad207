package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wawengkz/INVENT/internal/export"
	"github.com/wawengkz/INVENT/internal/layout"
	"github.com/wawengkz/INVENT/internal/models"
	"github.com/wawengkz/INVENT/internal/repo"
)

func (h *Handler) stationRoutes(r *mux.Router) {
	r.HandleFunc("", h.createStation).Methods(http.MethodPost)
	r.HandleFunc("/bulk", h.bulkCreateStations).Methods(http.MethodPost)
	r.HandleFunc("/copy", h.copyStations).Methods(http.MethodPost)
	r.HandleFunc("/{id:[0-9]+}/number", h.setStationNumber).Methods(http.MethodPatch)
	r.HandleFunc("/{id:[0-9]+}/device", h.registerDevice).Methods(http.MethodPost)
	r.HandleFunc("/{id:[0-9]+}/device", h.removeDevice).Methods(http.MethodDelete)
	r.HandleFunc("/{id:[0-9]+}/position", h.moveStation).Methods(http.MethodPatch)
	r.HandleFunc("/{id:[0-9]+}/bay", h.setStationBay).Methods(http.MethodPatch)
	r.HandleFunc("/{id:[0-9]+}", h.deleteStation).Methods(http.MethodDelete)
	r.HandleFunc("/{deviceType}", h.listStations).Methods(http.MethodGet)
	r.HandleFunc("/{deviceType}/search", h.searchStations).Methods(http.MethodGet)
	r.HandleFunc("/{deviceType}/export", h.exportStations).Methods(http.MethodGet)
}

type stationInput struct {
	StationNumber *int              `json:"stationNumber"`
	Bay           string            `json:"bay"`
	DeviceType    models.DeviceType `json:"deviceType"`
	Position      models.Point      `json:"position"`
}

func (in stationInput) station() (models.Station, error) {
	dt, err := models.ParseDeviceType(string(in.DeviceType))
	if err != nil {
		return models.Station{}, err
	}
	st := models.Station{StationNumber: in.StationNumber, DeviceType: dt, Position: in.Position}
	if bay := models.NormalizeBayName(in.Bay); bay != "" {
		if err := models.ValidateBayName(bay); err != nil {
			return models.Station{}, err
		}
		st.Bay = &bay
	}
	return st, nil
}

func (h *Handler) listStations(w http.ResponseWriter, r *http.Request) {
	dt, err := deviceType(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sts, err := h.d.Stations.ListByDeviceType(r.Context(), dt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusOK, sts, map[string]any{"count": len(sts)})
}

func (h *Handler) createStation(w http.ResponseWriter, r *http.Request) {
	var in stationInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := in.station()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.d.Stations.Create(r.Context(), &st); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, st)
}

func (h *Handler) bulkCreateStations(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Stations []stationInput `json:"stations"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.checkBatch(len(in.Stations)); err != nil {
		h.fail(w, r, err)
		return
	}
	sts := make([]models.Station, len(in.Stations))
	for i, s := range in.Stations {
		st, err := s.station()
		if err != nil {
			h.fail(w, r, badRequest("station #%d: %v", i+1, err))
			return
		}
		sts[i] = st
	}
	created, err := h.d.Stations.BulkCreate(r.Context(), sts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusCreated, created, map[string]any{"count": len(created)})
}

func (h *Handler) setStationNumber(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in struct {
		StationNumber *int `json:"stationNumber"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.d.Stations.SetNumber(r.Context(), id, in.StationNumber)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, st)
}

func (h *Handler) registerDevice(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in repo.DeviceInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.d.Stations.RegisterDevice(r.Context(), id, in, h.d.Now().UTC())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, st)
}

func (h *Handler) removeDevice(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.d.Stations.RemoveDevice(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, st)
}

func (h *Handler) moveStation(w http.ResponseWriter, r *http.Request) {
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
	st, err := h.d.Stations.UpdatePosition(r.Context(), id, models.Point{X: *in.X, Y: *in.Y})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, st)
}

func (h *Handler) setStationBay(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in struct {
		Bay string `json:"bay"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.d.Stations.SetBay(r.Context(), id, in.Bay)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, st)
}

func (h *Handler) deleteStation(w http.ResponseWriter, r *http.Request) {
	id, err := idVar(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.d.Stations.SoftDelete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]any{})
}

func (h *Handler) searchStations(w http.ResponseWriter, r *http.Request) {
	dt, err := deviceType(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	sq := repo.SearchQuery{Serial: q.Get("serialNumber"), Bay: q.Get("bay")}
	if strings.TrimSpace(q.Get("stationNumber")) != "" {
		n, err := queryInt(r, "stationNumber", 0)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		sq.StationNumber = &n
	}
	sts, err := h.d.Stations.Search(r.Context(), dt, sq)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWith(w, http.StatusOK, sts, map[string]any{"count": len(sts)})
}

// copyStations отдаёт станции в виде буфера обмена клиента.
func (h *Handler) copyStations(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StationIDs []uint `json:"stationIds"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.checkBatch(len(in.StationIDs)); err != nil {
		h.fail(w, r, err)
		return
	}
	sts, err := h.d.Stations.ListStations(r.Context(), layout.StationFilter{IDs: in.StationIDs})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(sts) == 0 {
		h.fail(w, r, badNotFound("no stations found with provided ids"))
		return
	}
	ok(w, http.StatusOK, map[string]any{
		"type":          "station",
		"items":         sts,
		"copyTimestamp": h.d.Now().UTC(),
		"count":         len(sts),
	})
}

func (h *Handler) exportStations(w http.ResponseWriter, r *http.Request) {
	dt, err := deviceType(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sts, err := h.d.Stations.ListByDeviceType(r.Context(), dt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.StationsXLSX(&buf, dt, sts); err != nil {
		h.fail(w, r, err)
		return
	}
	attach(w, export.ContentTypeXLSX, export.FileName("stations_"+string(dt), "xlsx", h.d.Now()), buf.Bytes())
}

func attach(w http.ResponseWriter, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
