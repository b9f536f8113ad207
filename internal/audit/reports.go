package audit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wawengkz/INVENT/internal/models"
	"github.com/wawengkz/INVENT/internal/repo"
)

type MonthlySummary struct {
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	Site            string          `json:"site,omitempty"`
	AuditCount      int             `json:"auditCount"`
	TotalUnits      int             `json:"totalUnits"`
	TotalDefectives int             `json:"totalDefectives"`
	DefectRate      float64         `json:"defectRate"`
	ItemTotals      map[string]int  `json:"itemTotals"`
	Departments     []DepartmentRef `json:"departments"`
}

// MonthlySummary: totalUnits считается как сумма overallTotal всех позиций,
// totalDefectives как сумма defectives, itemTotals только по основным позициям.
func (s *Service) MonthlySummary(ctx context.Context, year, month int, site string) (*MonthlySummary, error) {
	if month < 1 || month > 12 || year <= 0 {
		return nil, fmt.Errorf("month and year are required: %w", models.ErrInvalid)
	}
	from, to := repo.MonthRange(year, month)
	audits, err := s.audits.List(ctx, repo.AuditFilter{From: &from, To: &to, Site: site})
	if err != nil {
		return nil, err
	}
	deps, err := s.activeRefs(ctx)
	if err != nil {
		return nil, err
	}

	out := &MonthlySummary{
		Month: month, Year: year, Site: site,
		AuditCount:  len(audits),
		ItemTotals:  make(map[string]int, len(models.MainItems)),
		Departments: deps,
	}
	for _, name := range models.MainItems {
		out.ItemTotals[name] = 0
	}
	for _, a := range audits {
		for name, it := range a.Items.Data() {
			out.TotalUnits += it.OverallTotal
			out.TotalDefectives += it.Defectives
			if _, ok := out.ItemTotals[name]; ok {
				out.ItemTotals[name] += it.OverallTotal
			}
		}
	}
	if out.TotalUnits > 0 {
		out.DefectRate = math.Round(float64(out.TotalDefectives)/float64(out.TotalUnits)*10000) / 100
	}
	return out, nil
}

type TrendPoint struct {
	Date       time.Time `json:"date"`
	Site       string    `json:"site"`
	Total      int       `json:"total"`
	Defectives int       `json:"defectives"`
}

// ItemTrends: overallTotal и defectives позиции по аудитам в порядке дат.
func (s *Service) ItemTrends(ctx context.Context, item string, from, to *time.Time, site string) ([]TrendPoint, error) {
	if item == "" {
		return nil, fmt.Errorf("item name is required: %w", models.ErrInvalid)
	}
	audits, err := s.audits.List(ctx, repo.AuditFilter{From: from, To: to, Site: site})
	if err != nil {
		return nil, err
	}
	out := make([]TrendPoint, 0, len(audits))
	for _, a := range audits {
		it := a.Items.Data()[item]
		out = append(out, TrendPoint{Date: a.Date, Site: a.Site, Total: it.OverallTotal, Defectives: it.Defectives})
	}
	return out, nil
}

type DepartmentPerformance struct {
	Label         string         `json:"label"`
	TotalItems    int            `json:"totalItems"`
	ItemBreakdown map[string]int `json:"itemBreakdown"`
}

type DefectsReport struct {
	TotalAudits   int                              `json:"totalAudits"`
	DefectsByItem map[string]int                   `json:"defectsByItem"`
	PerDepartment map[string]DepartmentPerformance `json:"departmentPerformance"`
	Departments   []DepartmentRef                  `json:"departments"`
}

// Defects: дефекты по позициям и количество по отделам за месяц
// (month == 0: за всё время).
func (s *Service) Defects(ctx context.Context, year, month int) (*DefectsReport, error) {
	var f repo.AuditFilter
	if month != 0 {
		if month < 1 || month > 12 || year <= 0 {
			return nil, fmt.Errorf("invalid month %d/%d: %w", month, year, models.ErrInvalid)
		}
		from, to := repo.MonthRange(year, month)
		f.From, f.To = &from, &to
	}
	audits, err := s.audits.List(ctx, f)
	if err != nil {
		return nil, err
	}
	deps, err := s.activeRefs(ctx)
	if err != nil {
		return nil, err
	}
	out := &DefectsReport{
		TotalAudits:   len(audits),
		DefectsByItem: map[string]int{},
		PerDepartment: make(map[string]DepartmentPerformance, len(deps)),
		Departments:   deps,
	}
	for _, d := range deps {
		out.PerDepartment[d.Name] = DepartmentPerformance{Label: d.Label, ItemBreakdown: map[string]int{}}
	}
	for _, a := range audits {
		for name, it := range a.Items.Data() {
			out.DefectsByItem[name] += it.Defectives
			for dep, n := range it.Departments {
				p, ok := out.PerDepartment[dep]
				if !ok {
					continue
				}
				p.TotalItems += n
				p.ItemBreakdown[name] += n
				out.PerDepartment[dep] = p
			}
		}
	}
	return out, nil
}

func (s *Service) activeRefs(ctx context.Context) ([]DepartmentRef, error) {
	on := true
	deps, err := s.departments.List(ctx, &on)
	if err != nil {
		return nil, err
	}
	out := make([]DepartmentRef, len(deps))
	for i, d := range deps {
		out[i] = DepartmentRef{Name: d.Name, Label: d.Label, Order: d.Order}
	}
	return out, nil
}
