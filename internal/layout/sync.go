package layout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/wawengkz/INVENT/internal/models"
)

// bayColors: цвет новых бэев по типу устройства.
var bayColors = map[models.DeviceType]string{
	models.DeviceMouse:    "#6c757d",
	models.DeviceKeyboard: "#28a745",
	models.DeviceHeadset:  "#17a2b8",
}

type SyncReport struct {
	BaysCreated      int      `json:"baysCreated"`
	BaysSkipped      int      `json:"baysSkipped"`
	Created          []string `json:"created"`
	StationsNumbered int      `json:"stationsNumbered"`
}

type bayKey struct {
	name string
	dt   models.DeviceType
}

// SyncBays создаёт записи Bay для групп станций, у которых бэя ещё нет
// (в любом состоянии), и нумерует станции без номера с max+1 по каждому типу.
// Бэй ставится на 10px левее/выше первой станции группы, не ниже нуля.
func (e *Engine) SyncBays(ctx context.Context) (*SyncReport, error) {
	if e.bays == nil {
		return nil, errors.New("sync bays: bay store is not configured")
	}
	sts, err := e.stations.ListStations(ctx, StationFilter{})
	if err != nil {
		return nil, fmt.Errorf("sync bays: %w", err)
	}
	sortByID(sts)

	rep := &SyncReport{Created: make([]string, 0)}
	groups := make(map[bayKey][]models.Station)
	order := make([]bayKey, 0)
	unnumbered := make(map[models.DeviceType][]models.Station)
	for _, st := range sts {
		if st.StationNumber == nil {
			unnumbered[st.DeviceType] = append(unnumbered[st.DeviceType], st)
		}
		if st.Bay == nil || *st.Bay == "" {
			continue
		}
		k := bayKey{name: *st.Bay, dt: st.DeviceType}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], st)
	}

	for _, k := range order {
		_, err := e.bays.FindBay(ctx, k.name, k.dt)
		if err == nil {
			rep.BaysSkipped++
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			return rep, fmt.Errorf("sync bays: %w", err)
		}
		members := groups[k]
		first := members[0].Position
		b := models.Bay{
			Name:       k.name,
			DeviceType: k.dt,
			Position:   models.Point{X: math.Max(0, first.X-10), Y: math.Max(0, first.Y-10)},
			Color:      bayColors[k.dt],
			Metadata: datatypes.JSONMap{
				"description": fmt.Sprintf("Migrated bay containing %d stations", len(members)),
				"capacity":    len(members),
				"migrated":    true,
				"migratedAt":  e.now().UTC(),
			},
			State: models.BayActive,
		}
		b.ApplyDefaults()
		if err := e.bays.CreateBay(ctx, &b); err != nil {
			return rep, fmt.Errorf("sync bays: create bay %s (%s): %w", k.name, k.dt, err)
		}
		rep.BaysCreated++
		rep.Created = append(rep.Created, fmt.Sprintf("%s (%s)", k.name, k.dt))
	}

	for _, dt := range models.DeviceTypes {
		list := unnumbered[dt]
		if len(list) == 0 {
			continue
		}
		max, err := e.stations.MaxStationNumber(ctx, dt)
		if err != nil {
			return rep, fmt.Errorf("sync bays: %w", err)
		}
		for i := range list {
			list[i].StationNumber = models.IntPtr(max + i + 1)
			if err := e.stations.SaveStation(ctx, &list[i]); err != nil {
				return rep, fmt.Errorf("sync bays: number station %d: %w", list[i].ID, err)
			}
			rep.StationsNumbered++
		}
	}

	e.log.WithFields(logrus.Fields{
		"created": rep.BaysCreated, "skipped": rep.BaysSkipped, "numbered": rep.StationsNumbered,
	}).Info("bays synced")
	return rep, nil
}
