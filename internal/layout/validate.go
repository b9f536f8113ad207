package layout

import (
	"context"
	"fmt"
	"math"

	"github.com/wawengkz/INVENT/internal/models"
)

type IssueType string

const (
	IssueOverlap         IssueType = "overlap"
	IssueDuplicateNumber IssueType = "duplicate_number"
	IssueTooClose        IssueType = "too_close"
)

// MinDistance: станции ближе этого (но не в одной точке) считаются слишком близкими.
const MinDistance = 30.0

// Issue: одна проблема раскладки. Stations: номера станций для overlap/too_close,
// id станций для duplicate_number. StationIDs всегда содержит id пары.
type Issue struct {
	Type          IssueType     `json:"type"`
	Stations      []any         `json:"stations"`
	StationIDs    []uint        `json:"stationIds"`
	Position      *models.Point `json:"position,omitempty"`
	StationNumber *int          `json:"stationNumber,omitempty"`
	Distance      *float64      `json:"distance,omitempty"`
	Message       string        `json:"message"`
}

type Summary struct {
	Overlaps   int `json:"overlaps"`
	Duplicates int `json:"duplicates"`
	TooClose   int `json:"tooClose"`
}

type Report struct {
	Valid         bool    `json:"valid"`
	TotalStations int     `json:"totalStations"`
	Issues        []Issue `json:"issues"`
	Summary       Summary `json:"summary"`
}

// ValidateLayout ничего не пишет. При bay == "" проверяются все бэи типа.
func (e *Engine) ValidateLayout(ctx context.Context, dt models.DeviceType, bay string) (*Report, error) {
	f := StationFilter{DeviceType: dt}
	if bay != "" {
		f.Bay = &bay
	}
	sts, err := e.stations.ListStations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("validate layout: %w", err)
	}
	sortByID(sts)
	rep := Check(sts)
	e.log.WithField("device_type", dt).WithField("bay", bay).WithField("issues", len(rep.Issues)).
		Debug("layout validated")
	return rep, nil
}

// Check строит отчёт по набору станций: overlap, duplicate_number, too_close.
func Check(sts []models.Station) *Report {
	issues := make([]Issue, 0)

	// overlap: совпадение округлённых координат; первая станция в точке
	// образует пару с каждой последующей
	seen := make(map[[2]float64]int, len(sts))
	for i, st := range sts {
		key := [2]float64{jsRound(st.Position.X), jsRound(st.Position.Y)}
		j, ok := seen[key]
		if !ok {
			seen[key] = i
			continue
		}
		first := sts[j]
		pos := st.Position
		issues = append(issues, Issue{
			Type:       IssueOverlap,
			Stations:   []any{first.DisplayNumber(), st.DisplayNumber()},
			StationIDs: []uint{first.ID, st.ID},
			Position:   &pos,
			Message:    fmt.Sprintf("Stations %v and %v overlap", first.DisplayNumber(), st.DisplayNumber()),
		})
	}

	// duplicate_number: станции без номера не сравниваются
	byNumber := make(map[int]models.Station, len(sts))
	for _, st := range sts {
		if st.StationNumber == nil {
			continue
		}
		n := *st.StationNumber
		first, ok := byNumber[n]
		if !ok {
			byNumber[n] = st
			continue
		}
		issues = append(issues, Issue{
			Type:          IssueDuplicateNumber,
			Stations:      []any{first.ID, st.ID},
			StationIDs:    []uint{first.ID, st.ID},
			StationNumber: models.IntPtr(n),
			Message:       fmt.Sprintf("Duplicate station number %d", n),
		})
	}

	for i := 0; i < len(sts); i++ {
		for j := i + 1; j < len(sts); j++ {
			a, b := sts[i], sts[j]
			d := distance(a.Position, b.Position)
			if d <= 0 || d >= MinDistance {
				continue
			}
			rd := jsRound(d)
			issues = append(issues, Issue{
				Type:       IssueTooClose,
				Stations:   []any{a.DisplayNumber(), b.DisplayNumber()},
				StationIDs: []uint{a.ID, b.ID},
				Distance:   &rd,
				Message:    fmt.Sprintf("Stations %v and %v are too close (%gpx)", a.DisplayNumber(), b.DisplayNumber(), rd),
			})
		}
	}

	rep := &Report{
		Valid:         len(issues) == 0,
		TotalStations: len(sts),
		Issues:        issues,
	}
	for _, is := range issues {
		switch is.Type {
		case IssueOverlap:
			rep.Summary.Overlaps++
		case IssueDuplicateNumber:
			rep.Summary.Duplicates++
		case IssueTooClose:
			rep.Summary.TooClose++
		}
	}
	return rep
}

func distance(a, b models.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
