package layout

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wawengkz/INVENT/internal/models"
)

type TemplateSlot struct {
	Index            int          `json:"index"`
	RelativePosition models.Point `json:"relativePosition"`
}

// Template: раскладка бэя без имени, номеров и устройств; координаты от (0,0).
type Template struct {
	DeviceType   models.DeviceType `json:"deviceType"`
	StationCount int               `json:"stationCount"`
	CreatedAt    time.Time         `json:"createdAt"`
	Layout       []TemplateSlot    `json:"layout"`
}

type FromTemplateResult struct {
	Message         string           `json:"message"`
	CreatedStations int              `json:"createdStations"`
	NewStations     []models.Station `json:"newStations"`
}

func (e *Engine) ExportBayTemplate(ctx context.Context, bay string, dt models.DeviceType) (*Template, error) {
	sts, err := e.stations.ListStations(ctx, bayFilter(bay, dt))
	if err != nil {
		return nil, fmt.Errorf("export bay template: %w", err)
	}
	if len(sts) == 0 {
		return nil, fmt.Errorf("export bay template: bay %s not found or empty: %w", bay, models.ErrNotFound)
	}
	sortByNumber(sts)

	minX, minY := math.Inf(1), math.Inf(1)
	for _, st := range sts {
		minX = math.Min(minX, st.Position.X)
		minY = math.Min(minY, st.Position.Y)
	}
	tpl := &Template{
		DeviceType:   dt,
		StationCount: len(sts),
		CreatedAt:    e.now().UTC(),
		Layout:       make([]TemplateSlot, len(sts)),
	}
	for i, st := range sts {
		tpl.Layout[i] = TemplateSlot{
			Index:            i + 1,
			RelativePosition: models.Point{X: st.Position.X - minX, Y: st.Position.Y - minY},
		}
	}
	e.log.WithField("bay", bay).WithField("device_type", dt).Debug("bay template exported")
	return tpl, nil
}

// CreateBayFromTemplate создаёт станции нового бэя в start + relativePosition.
func (e *Engine) CreateBayFromTemplate(ctx context.Context, tpl Template, name string, dt models.DeviceType, start models.Point) (*FromTemplateResult, error) {
	if tpl.DeviceType != dt {
		return nil, fmt.Errorf("create bay from template: template is for %s, not %s: %w", tpl.DeviceType, dt, models.ErrInvalid)
	}
	if len(tpl.Layout) == 0 {
		return nil, fmt.Errorf("create bay from template: template has no stations: %w", models.ErrInvalid)
	}
	if err := models.ValidateBayName(name); err != nil {
		return nil, fmt.Errorf("create bay from template: %w", err)
	}
	existing, err := e.stations.ListStations(ctx, bayFilter(name, dt))
	if err != nil {
		return nil, fmt.Errorf("create bay from template: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("create bay from template: bay %s already exists: %w", name, models.ErrConflict)
	}

	created := make([]models.Station, 0, len(tpl.Layout))
	err = e.write(ctx, func(s Store) error {
		max, err := s.MaxStationNumber(ctx, dt)
		if err != nil {
			return err
		}
		for i, slot := range tpl.Layout {
			st := models.Station{
				StationNumber: models.IntPtr(max + i + 1),
				Bay:           models.StringPtr(name),
				DeviceType:    dt,
				Position: models.Point{
					X: start.X + slot.RelativePosition.X,
					Y: start.Y + slot.RelativePosition.Y,
				},
				IsActive: true,
			}
			if err := s.CreateStation(ctx, &st); err != nil {
				return fmt.Errorf("create station %d: %w", max+i+1, err)
			}
			created = append(created, st)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create bay from template: %w", err)
	}

	e.log.WithFields(logrus.Fields{"bay": name, "device_type": dt, "count": len(created)}).
		Info("bay created from template")
	return &FromTemplateResult{
		Message:         fmt.Sprintf("Created bay %s from template", name),
		CreatedStations: len(created),
		NewStations:     created,
	}, nil
}
