package layout

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wawengkz/INVENT/internal/models"
)

type DuplicateRequest struct {
	SourceBay   string            `json:"sourceBay"`
	TargetBay   string            `json:"targetBay"`
	DeviceType  models.DeviceType `json:"deviceType"`
	CopyDevices bool              `json:"copyDevices"`
	Overwrite   bool              `json:"overwrite"`
}

type DuplicateResult struct {
	Message         string           `json:"message"`
	SourceStations  int              `json:"sourceStations"`
	CreatedStations int              `json:"createdStations"`
	NewStations     []models.Station `json:"newStations"`
}

// DuplicateBay копирует станции бэя в новый бэй со свежими номерами (max+1...).
// Позиции копируются как есть; устройство: только при CopyDevices,
// причём серийник получает суффикс _COPY_<unix ms>.
func (e *Engine) DuplicateBay(ctx context.Context, req DuplicateRequest) (*DuplicateResult, error) {
	if err := models.ValidateBayName(req.TargetBay); err != nil {
		return nil, fmt.Errorf("duplicate bay: %w", err)
	}
	target, err := e.stations.ListStations(ctx, bayFilter(req.TargetBay, req.DeviceType))
	if err != nil {
		return nil, fmt.Errorf("duplicate bay: %w", err)
	}
	if len(target) > 0 && !req.Overwrite {
		return nil, fmt.Errorf("duplicate bay: bay %s already exists: %w", req.TargetBay, models.ErrConflict)
	}

	source, err := e.stations.ListStations(ctx, bayFilter(req.SourceBay, req.DeviceType))
	if err != nil {
		return nil, fmt.Errorf("duplicate bay: %w", err)
	}
	if len(source) == 0 {
		return nil, fmt.Errorf("duplicate bay: source bay %s not found or empty: %w", req.SourceBay, models.ErrNotFound)
	}
	sortByNumber(source)

	now := e.now()
	created := make([]models.Station, 0, len(source))
	err = e.write(ctx, func(s Store) error {
		// max берётся до деактивации: номера затёртых станций не переиспользуются
		max, err := s.MaxStationNumber(ctx, req.DeviceType)
		if err != nil {
			return err
		}
		if req.Overwrite {
			if _, err := s.DeactivateBayStations(ctx, req.TargetBay, req.DeviceType); err != nil {
				return err
			}
		}
		for i, src := range source {
			st := models.Station{
				StationNumber: models.IntPtr(max + i + 1),
				Bay:           models.StringPtr(req.TargetBay),
				DeviceType:    req.DeviceType,
				Position:      src.Position,
				IsActive:      true,
			}
			if req.CopyDevices && src.HasDevice() {
				serial := fmt.Sprintf("%s_COPY_%d", strings.TrimSpace(*src.Device.SerialNumber), now.UnixMilli())
				st.RegisterDevice(serial, src.Device.Brand, src.Device.Model, src.Device.Notes, now)
			}
			if err := s.CreateStation(ctx, &st); err != nil {
				return fmt.Errorf("create station %d: %w", max+i+1, err)
			}
			created = append(created, st)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("duplicate bay: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"device_type": req.DeviceType, "source": req.SourceBay, "target": req.TargetBay, "count": len(created),
	}).Info("bay duplicated")
	return &DuplicateResult{
		Message:         fmt.Sprintf("Duplicated bay %s to %s", req.SourceBay, req.TargetBay),
		SourceStations:  len(source),
		CreatedStations: len(created),
		NewStations:     created,
	}, nil
}
