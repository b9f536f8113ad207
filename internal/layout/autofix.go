package layout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wawengkz/INVENT/internal/models"
)

// FixNudge: сдвиг по x при наложении и целевая дистанция при too_close.
const FixNudge = 60.0

type AutoFixResult struct {
	FixedIssues []string `json:"fixedIssues"`
	Message     string   `json:"message"`
}

// AutoFixLayout пересчитывает отчёт и чинит проблемы по очереди: сначала все
// overlap, затем все too_close. Станция может сдвигаться несколько раз за проход;
// сходимость не гарантируется, запускать повторно до valid=true.
func (e *Engine) AutoFixLayout(ctx context.Context, dt models.DeviceType, bay string) (*AutoFixResult, error) {
	rep, err := e.ValidateLayout(ctx, dt, bay)
	if err != nil {
		return nil, fmt.Errorf("auto-fix layout: %w", err)
	}
	fixed := make([]string, 0)

	for _, is := range rep.Issues {
		if is.Type != IssueOverlap {
			continue
		}
		second, err := e.findActive(ctx, is.StationIDs[1])
		if err != nil {
			return nil, fmt.Errorf("auto-fix layout: %w", err)
		}
		if second == nil {
			continue
		}
		second.Position.X += FixNudge
		if err := e.stations.SaveStation(ctx, second); err != nil {
			return nil, fmt.Errorf("auto-fix layout: save station %d: %w", second.ID, err)
		}
		fixed = append(fixed, fmt.Sprintf("Moved station %v to resolve overlap", second.DisplayNumber()))
	}

	for _, is := range rep.Issues {
		if is.Type != IssueTooClose {
			continue
		}
		second, err := e.findActive(ctx, is.StationIDs[1])
		if err != nil {
			return nil, fmt.Errorf("auto-fix layout: %w", err)
		}
		first, err := e.findActive(ctx, is.StationIDs[0])
		if err != nil {
			return nil, fmt.Errorf("auto-fix layout: %w", err)
		}
		if first == nil || second == nil {
			continue
		}
		angle := math.Atan2(second.Position.Y-first.Position.Y, second.Position.X-first.Position.X)
		second.Position = models.Point{
			X: first.Position.X + math.Cos(angle)*FixNudge,
			Y: first.Position.Y + math.Sin(angle)*FixNudge,
		}
		if err := e.stations.SaveStation(ctx, second); err != nil {
			return nil, fmt.Errorf("auto-fix layout: save station %d: %w", second.ID, err)
		}
		fixed = append(fixed, fmt.Sprintf("Moved station %v to maintain minimum distance", second.DisplayNumber()))
	}

	if len(fixed) > 0 {
		e.log.WithField("device_type", dt).WithField("bay", bay).WithField("fixed", len(fixed)).Info("layout auto-fixed")
	}
	return &AutoFixResult{
		FixedIssues: fixed,
		Message:     fmt.Sprintf("Fixed %d layout issues", len(fixed)),
	}, nil
}

// findActive перечитывает станцию; nil: если её уже нет или она неактивна.
func (e *Engine) findActive(ctx context.Context, id uint) (*models.Station, error) {
	st, err := e.stations.FindStation(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !st.IsActive {
		return nil, nil
	}
	return st, nil
}
