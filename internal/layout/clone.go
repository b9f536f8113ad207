package layout

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wawengkz/INVENT/internal/models"
)

const (
	DefaultCloneOffsetX = 100.0
	DefaultCloneOffsetY = 50.0
)

type CloneRequest struct {
	StationIDs []uint   `json:"stationIds"`
	TargetBay  *string  `json:"targetBay"`
	OffsetX    *float64 `json:"offsetX"`
	OffsetY    *float64 `json:"offsetY"`
}

type CloneResult struct {
	Message        string           `json:"message"`
	ClonedStations []models.Station `json:"clonedStations"`
}

// CloneStations копирует станции со сдвигом (по умолчанию +100,+50) в целевой
// бэй или в свой. Номера выдаются с max+1 отдельно для каждого типа устройства.
// Устройства не копируются.
func (e *Engine) CloneStations(ctx context.Context, req CloneRequest) (*CloneResult, error) {
	if len(req.StationIDs) == 0 {
		return nil, fmt.Errorf("clone stations: station ids are required: %w", models.ErrInvalid)
	}
	if req.TargetBay != nil {
		if err := models.ValidateBayName(*req.TargetBay); err != nil {
			return nil, fmt.Errorf("clone stations: %w", err)
		}
	}
	src, err := e.stations.ListStations(ctx, StationFilter{IDs: req.StationIDs})
	if err != nil {
		return nil, fmt.Errorf("clone stations: %w", err)
	}
	if len(src) == 0 {
		return nil, fmt.Errorf("clone stations: no stations found with provided ids: %w", models.ErrNotFound)
	}
	sortByNumber(src)

	dx, dy := DefaultCloneOffsetX, DefaultCloneOffsetY
	if req.OffsetX != nil {
		dx = *req.OffsetX
	}
	if req.OffsetY != nil {
		dy = *req.OffsetY
	}

	cloned := make([]models.Station, 0, len(src))
	err = e.write(ctx, func(s Store) error {
		next := make(map[models.DeviceType]int)
		for _, from := range src {
			n, ok := next[from.DeviceType]
			if !ok {
				max, err := s.MaxStationNumber(ctx, from.DeviceType)
				if err != nil {
					return err
				}
				n = max + 1
			}
			next[from.DeviceType] = n + 1

			bay := from.Bay
			if req.TargetBay != nil {
				bay = models.StringPtr(*req.TargetBay)
			}
			st := models.Station{
				StationNumber: models.IntPtr(n),
				Bay:           bay,
				DeviceType:    from.DeviceType,
				Position:      models.Point{X: from.Position.X + dx, Y: from.Position.Y + dy},
				IsActive:      true,
			}
			if err := s.CreateStation(ctx, &st); err != nil {
				return fmt.Errorf("create station %d: %w", n, err)
			}
			cloned = append(cloned, st)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("clone stations: %w", err)
	}

	e.log.WithFields(logrus.Fields{"count": len(cloned)}).Info("stations cloned")
	return &CloneResult{
		Message:        fmt.Sprintf("Cloned %d stations", len(cloned)),
		ClonedStations: cloned,
	}, nil
}
