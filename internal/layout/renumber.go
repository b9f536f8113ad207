package layout

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/wawengkz/INVENT/internal/models"
)

type NumberChange struct {
	OldNumber *int `json:"oldNumber"`
	NewNumber int  `json:"newNumber"`
}

type RenumberResult struct {
	Message string         `json:"message"`
	Updates []NumberChange `json:"updates"`
}

// RenumberBay нумерует станции бэя подряд в порядке чтения (y, затем x).
// start <= 0: max+1 по типу. Сохраняются только изменившиеся станции.
//
// Без RenumberCollisionCheck номера не сверяются со станциями вне бэя:
// неудачный start может дать дубликаты, их покажет ValidateLayout.
func (e *Engine) RenumberBay(ctx context.Context, bay string, dt models.DeviceType, start int) (*RenumberResult, error) {
	sts, err := e.stations.ListStations(ctx, bayFilter(bay, dt))
	if err != nil {
		return nil, fmt.Errorf("renumber bay %s: %w", bay, err)
	}
	if len(sts) == 0 {
		return nil, fmt.Errorf("renumber bay %s: no stations found in this bay: %w", bay, models.ErrNotFound)
	}
	sort.SliceStable(sts, func(i, j int) bool {
		a, b := sts[i].Position, sts[j].Position
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return sts[i].ID < sts[j].ID
	})

	if start <= 0 {
		max, err := e.stations.MaxStationNumber(ctx, dt)
		if err != nil {
			return nil, fmt.Errorf("renumber bay %s: %w", bay, err)
		}
		start = max + 1
	}

	if e.opts.RenumberCollisionCheck {
		if err := e.checkNumberCollisions(ctx, bay, dt, start, len(sts)); err != nil {
			return nil, fmt.Errorf("renumber bay %s: %w", bay, err)
		}
	}

	updates := make([]NumberChange, 0)
	err = e.write(ctx, func(s Store) error {
		for i := range sts {
			next := start + i
			old := sts[i].StationNumber
			if old != nil && *old == next {
				continue
			}
			sts[i].StationNumber = models.IntPtr(next)
			if err := s.SaveStation(ctx, &sts[i]); err != nil {
				return fmt.Errorf("save station %d: %w", sts[i].ID, err)
			}
			updates = append(updates, NumberChange{OldNumber: old, NewNumber: next})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("renumber bay %s: %w", bay, err)
	}

	e.log.WithFields(logrus.Fields{"bay": bay, "device_type": dt, "start": start, "updated": len(updates)}).
		Info("bay renumbered")
	return &RenumberResult{
		Message: fmt.Sprintf("Renumbered %d stations in bay %s", len(updates), bay),
		Updates: updates,
	}, nil
}

func (e *Engine) checkNumberCollisions(ctx context.Context, bay string, dt models.DeviceType, start, n int) error {
	all, err := e.stations.ListStations(ctx, StationFilter{DeviceType: dt})
	if err != nil {
		return err
	}
	for _, st := range all {
		if st.BayName() == bay || st.StationNumber == nil {
			continue
		}
		if num := *st.StationNumber; num >= start && num < start+n {
			return fmt.Errorf("station number %d is used by station %d in bay %q: %w",
				num, st.ID, st.BayName(), models.ErrConflict)
		}
	}
	return nil
}
