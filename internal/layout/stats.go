package layout

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wawengkz/INVENT/internal/models"
)

type BayCount struct {
	Bay               *string `json:"bay"`
	TotalStations     int     `json:"totalStations"`
	RegisteredDevices int     `json:"registeredDevices"`
}

type Stats struct {
	TotalStations     int        `json:"totalStations"`
	RegisteredDevices int        `json:"registeredDevices"`
	EmptyStations     int        `json:"emptyStations"`
	RegistrationRate  float64    `json:"registrationRate"`
	BayCount          int        `json:"bayCount"`
	Bays              []*string  `json:"bays"`
	BayStats          []BayCount `json:"bayStats"`
}

type Bounds struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
}

type BayStats struct {
	BayName           string            `json:"bayName"`
	DeviceType        models.DeviceType `json:"deviceType"`
	TotalStations     int               `json:"totalStations"`
	RegisteredDevices int               `json:"registeredDevices"`
	EmptyStations     int               `json:"emptyStations"`
	RegistrationRate  float64           `json:"registrationRate"`
	Bounds            *Bounds           `json:"bounds"`
	LastUpdated       time.Time         `json:"lastUpdated"`
}

// ComprehensiveStats: агрегаты по активным станциям типа. Станции без бэя
// попадают в группу с bay=null, она идёт первой.
func (e *Engine) ComprehensiveStats(ctx context.Context, dt models.DeviceType) (*Stats, error) {
	sts, err := e.stations.ListStations(ctx, StationFilter{DeviceType: dt})
	if err != nil {
		return nil, fmt.Errorf("comprehensive stats: %w", err)
	}

	groups := make(map[string]*BayCount)
	var orphan *BayCount
	st := &Stats{TotalStations: len(sts)}
	for _, s := range sts {
		var g *BayCount
		if s.Bay == nil {
			if orphan == nil {
				orphan = &BayCount{}
			}
			g = orphan
		} else {
			if groups[*s.Bay] == nil {
				groups[*s.Bay] = &BayCount{Bay: models.StringPtr(*s.Bay)}
			}
			g = groups[*s.Bay]
		}
		g.TotalStations++
		if s.HasDevice() {
			g.RegisteredDevices++
			st.RegisteredDevices++
		}
	}
	st.EmptyStations = st.TotalStations - st.RegisteredDevices
	st.RegistrationRate = rate(st.RegisteredDevices, st.TotalStations)

	st.BayStats = make([]BayCount, 0, len(groups)+1)
	if orphan != nil {
		st.BayStats = append(st.BayStats, *orphan)
	}
	for _, name := range models.SortedKeys(groups) {
		st.BayStats = append(st.BayStats, *groups[name])
	}
	st.Bays = make([]*string, len(st.BayStats))
	for i, g := range st.BayStats {
		st.Bays[i] = g.Bay
	}
	st.BayCount = len(st.Bays)
	return st, nil
}

// BayStats считает счётчики и габариты одного бэя. Для пустого бэя нули и bounds=null.
func (e *Engine) BayStats(ctx context.Context, bay string, dt models.DeviceType) (*BayStats, error) {
	sts, err := e.stations.ListStations(ctx, bayFilter(bay, dt))
	if err != nil {
		return nil, fmt.Errorf("bay stats %s: %w", bay, err)
	}
	out := &BayStats{BayName: bay, DeviceType: dt, TotalStations: len(sts), LastUpdated: e.now().UTC()}
	for i, s := range sts {
		if s.HasDevice() {
			out.RegisteredDevices++
		}
		p := s.Position
		if i == 0 {
			out.Bounds = &Bounds{MinX: p.X, MaxX: p.X, MinY: p.Y, MaxY: p.Y}
			continue
		}
		out.Bounds.MinX = math.Min(out.Bounds.MinX, p.X)
		out.Bounds.MaxX = math.Max(out.Bounds.MaxX, p.X)
		out.Bounds.MinY = math.Min(out.Bounds.MinY, p.Y)
		out.Bounds.MaxY = math.Max(out.Bounds.MaxY, p.Y)
	}
	out.EmptyStations = out.TotalStations - out.RegisteredDevices
	out.RegistrationRate = rate(out.RegisteredDevices, out.TotalStations)
	return out, nil
}

// rate: процент с одним знаком после запятой.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}
