package layout

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wawengkz/INVENT/internal/models"
)

type ArrangeResult struct {
	Message         string `json:"message"`
	UpdatedStations int    `json:"updatedStations"`
}

// ArrangeBay переставляет станции бэя по паттерну. i-я координата достаётся
// i-й станции в порядке номеров. Частичный сбой не откатывается.
func (e *Engine) ArrangeBay(ctx context.Context, bay string, dt models.DeviceType, p Pattern, spacing float64) (*ArrangeResult, error) {
	sts, err := e.stations.ListStations(ctx, bayFilter(bay, dt))
	if err != nil {
		return nil, fmt.Errorf("arrange bay %s: %w", bay, err)
	}
	if len(sts) == 0 {
		return nil, fmt.Errorf("arrange bay %s: no stations found in this bay: %w", bay, models.ErrNotFound)
	}
	sortByNumber(sts)

	pos := Positions(p, len(sts), spacing)
	for i := range sts {
		sts[i].Position = pos[i]
		if err := e.stations.SaveStation(ctx, &sts[i]); err != nil {
			return nil, fmt.Errorf("arrange bay %s: save station %d: %w", bay, sts[i].ID, err)
		}
	}

	e.log.WithFields(logrus.Fields{"bay": bay, "device_type": dt, "pattern": p, "count": len(sts)}).
		Info("bay arranged")
	return &ArrangeResult{
		Message:         fmt.Sprintf("Arranged %d stations in %s pattern", len(sts), p),
		UpdatedStations: len(sts),
	}, nil
}
