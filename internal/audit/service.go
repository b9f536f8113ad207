// Package audit ведёт ежедневные аудиты оборудования по площадкам: пересчёт
// итогов, журнал изменений по полям, миграция отделов и отчёты.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/wawengkz/INVENT/internal/logs"
	"github.com/wawengkz/INVENT/internal/models"
	"github.com/wawengkz/INVENT/internal/repo"
)

// Actor: кто и откуда меняет данные; попадает в журнал.
type Actor struct {
	UserID    string
	SessionID string
	IP        string
	UserAgent string
}

type Service struct {
	audits      *repo.AuditStore
	departments *repo.DepartmentStore
	logs        *repo.LogStore
	sites       []string
	retention   int
	now         func() time.Time
	log         logrus.FieldLogger
}

// New: пустой sites заменяется на models.DefaultSites, retentionDays <= 0 на 365.
func New(audits *repo.AuditStore, departments *repo.DepartmentStore, logStore *repo.LogStore, sites []string, retentionDays int) *Service {
	if len(sites) == 0 {
		sites = models.DefaultSites
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Service{
		audits:      audits,
		departments: departments,
		logs:        logStore,
		sites:       sites,
		retention:   retentionDays,
		now:         time.Now,
		log:         logs.L(),
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Sites() []string { return s.sites }

func (s *Service) checkSite(site string) error {
	if !slices.Contains(s.sites, site) {
		return fmt.Errorf("unknown site %q: %w", site, models.ErrInvalid)
	}
	return nil
}

func (s *Service) List(ctx context.Context, f repo.AuditFilter) ([]models.Audit, error) {
	return s.audits.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, day time.Time, site string) (*models.Audit, error) {
	return s.audits.Get(ctx, day, site)
}

type Input struct {
	Date         time.Time         `json:"date"`
	Site         string            `json:"site"`
	Items        models.AuditItems `json:"items"`
	OtherItems   map[string]int    `json:"otherItems"`
	MissingItems map[string]int    `json:"missingItems"`
}

// Create дополняет основные позиции нулями по активным отделам,
// пересчитывает итоги и пишет запись create в журнал.
func (s *Service) Create(ctx context.Context, in Input, who Actor) (*models.Audit, error) {
	if in.Date.IsZero() {
		return nil, fmt.Errorf("create audit: date is required: %w", models.ErrInvalid)
	}
	if err := s.checkSite(in.Site); err != nil {
		return nil, fmt.Errorf("create audit: %w", err)
	}
	deps, err := s.departments.ActiveNames(ctx)
	if err != nil {
		return nil, err
	}
	items := normalizeItems(in.Items, deps)

	a := &models.Audit{
		Date:         models.DayOf(in.Date),
		Site:         in.Site,
		Items:        datatypes.NewJSONType(items),
		OtherItems:   datatypes.NewJSONType(orEmpty(in.OtherItems)),
		MissingItems: datatypes.NewJSONType(orEmpty(in.MissingItems)),
		CreatedBy:    who.UserID,
	}
	err = s.audits.InTx(ctx, func(audits *repo.AuditStore, ls *repo.LogStore) error {
		if err := audits.Create(ctx, a); err != nil {
			return err
		}
		entry := s.entry(models.LogCreate, a, who,
			fmt.Sprintf("Created audit for %s at %s", a.Date.Format(time.DateOnly), a.Site))
		return ls.Create(ctx, &entry)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"date": a.Date.Format(time.DateOnly), "site": a.Site, "user": who.UserID}).
		Info("audit created")
	return a, nil
}

type Patch struct {
	Items        *models.AuditItems `json:"items"`
	OtherItems   *map[string]int    `json:"otherItems"`
	MissingItems *map[string]int    `json:"missingItems"`
}

// Update заменяет переданные разделы и пишет по записи update на каждое
// изменившееся числовое поле. Возвращает аудит и число таких записей.
func (s *Service) Update(ctx context.Context, day time.Time, site string, p Patch, who Actor) (*models.Audit, int, error) {
	deps, err := s.departments.ActiveNames(ctx)
	if err != nil {
		return nil, 0, err
	}
	var (
		out     *models.Audit
		changes []models.Log
	)
	err = s.audits.InTx(ctx, func(audits *repo.AuditStore, ls *repo.LogStore) error {
		a, err := audits.Get(ctx, day, site)
		if err != nil {
			return err
		}
		if p.Items != nil {
			next := recalcItems(*p.Items, deps)
			changes = append(changes, s.diffItems(a, a.Items.Data(), next, who)...)
			a.Items = datatypes.NewJSONType(next)
		}
		if p.OtherItems != nil {
			changes = append(changes, s.diffCounts(a, "otherItems", a.OtherItems.Data(), *p.OtherItems, who)...)
			a.OtherItems = datatypes.NewJSONType(orEmpty(*p.OtherItems))
		}
		if p.MissingItems != nil {
			changes = append(changes, s.diffCounts(a, "missingItems", a.MissingItems.Data(), *p.MissingItems, who)...)
			a.MissingItems = datatypes.NewJSONType(orEmpty(*p.MissingItems))
		}
		if err := audits.Save(ctx, a); err != nil {
			return err
		}
		out = a
		return ls.CreateBatch(ctx, changes)
	})
	if err != nil {
		return nil, 0, err
	}
	s.log.WithFields(logrus.Fields{"date": out.Date.Format(time.DateOnly), "site": out.Site, "changes": len(changes)}).
		Info("audit updated")
	return out, len(changes), nil
}

func (s *Service) Delete(ctx context.Context, day time.Time, site string, who Actor) error {
	return s.audits.InTx(ctx, func(audits *repo.AuditStore, ls *repo.LogStore) error {
		a, err := audits.Get(ctx, day, site)
		if err != nil {
			return err
		}
		if err := audits.Delete(ctx, a.ID); err != nil {
			return err
		}
		entry := s.entry(models.LogDelete, a, who,
			fmt.Sprintf("Deleted audit for %s at %s", a.Date.Format(time.DateOnly), a.Site))
		return ls.Create(ctx, &entry)
	})
}

// -------- шаблон и миграция отделов --------

type DepartmentRef struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Order int    `json:"order"`
}

type Template struct {
	Items        models.AuditItems `json:"items"`
	OtherItems   map[string]int    `json:"otherItems"`
	MissingItems map[string]int    `json:"missingItems"`
	Departments  []DepartmentRef   `json:"departments"`
	MainItems    []string          `json:"mainItems"`
	OtherNames   []string          `json:"otherItemNames"`
	Sites        []string          `json:"sites"`
}

// Template: пустой аудит по текущим активным отделам.
func (s *Service) Template(ctx context.Context) (*Template, error) {
	on := true
	deps, err := s.departments.List(ctx, &on)
	if err != nil {
		return nil, err
	}
	tpl := &Template{
		Items:        models.AuditItems{},
		OtherItems:   map[string]int{},
		MissingItems: map[string]int{},
		Departments:  make([]DepartmentRef, len(deps)),
		MainItems:    models.MainItems,
		OtherNames:   models.OtherItems,
		Sites:        s.sites,
	}
	for i, d := range deps {
		tpl.Departments[i] = DepartmentRef{Name: d.Name, Label: d.Label, Order: d.Order}
	}
	for _, name := range models.MainItems {
		it := models.AuditItem{Departments: map[string]int{}}
		for _, d := range deps {
			it.Departments[d.Name] = 0
		}
		tpl.Items[name] = it
		tpl.MissingItems[name] = 0
	}
	for _, name := range models.OtherItems {
		tpl.OtherItems[name] = 0
	}
	return tpl, nil
}

// MigrateDepartments добавляет отделы с нулём и удаляет отделы из всех
// аудитов, пересчитывая итоги. Возвращает число изменённых аудитов.
func (s *Service) MigrateDepartments(ctx context.Context, added, removed []string) (int, error) {
	if len(added) == 0 && len(removed) == 0 {
		return 0, fmt.Errorf("specify departments to add or remove: %w", models.ErrInvalid)
	}
	all, err := s.audits.List(ctx, repo.AuditFilter{})
	if err != nil {
		return 0, err
	}
	updated := 0
	for i := range all {
		a := &all[i]
		items := a.Items.Data()
		changed := false
		for name, it := range items {
			if it.Departments == nil {
				it.Departments = map[string]int{}
			}
			for _, d := range added {
				if _, ok := it.Departments[d]; !ok {
					it.Departments[d] = 0
					changed = true
				}
			}
			for _, d := range removed {
				if _, ok := it.Departments[d]; ok {
					delete(it.Departments, d)
					changed = true
				}
			}
			it.Recalc()
			items[name] = it
		}
		if !changed {
			continue
		}
		a.Items = datatypes.NewJSONType(items)
		if err := s.audits.Save(ctx, a); err != nil {
			return updated, fmt.Errorf("migrate departments: %w", err)
		}
		updated++
	}
	s.log.WithFields(logrus.Fields{"added": added, "removed": removed, "audits": updated}).
		Info("departments migrated")
	return updated, nil
}

// -------- helpers --------

func normalizeItems(in models.AuditItems, deps []string) models.AuditItems {
	out := make(models.AuditItems, len(in)+len(models.MainItems))
	for k, v := range in {
		out[k] = v
	}
	for _, name := range models.MainItems {
		if _, ok := out[name]; !ok {
			out[name] = models.AuditItem{}
		}
	}
	return recalcItems(out, deps)
}

// recalcItems копирует позиции, дополняет отделы нулями и пересчитывает итоги.
func recalcItems(in models.AuditItems, deps []string) models.AuditItems {
	out := make(models.AuditItems, len(in))
	for name, it := range in {
		d := make(map[string]int, len(it.Departments)+len(deps))
		for k, v := range it.Departments {
			d[k] = v
		}
		for _, dep := range deps {
			if _, ok := d[dep]; !ok {
				d[dep] = 0
			}
		}
		it.Departments = d
		it.Recalc()
		out[name] = it
	}
	return out
}

func orEmpty(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func (s *Service) entry(action models.LogAction, a *models.Audit, who Actor, desc string) models.Log {
	return models.Log{
		Action:      action,
		AuditDate:   a.Date,
		Description: desc,
		RelatedTo:   a.Site,
		UserID:      who.UserID,
		SessionID:   who.SessionID,
		IPAddress:   who.IP,
		UserAgent:   who.UserAgent,
		Timestamp:   s.now().UTC(),
	}
}

func (s *Service) change(a *models.Audit, who Actor, item, field string, old, cur int) models.Log {
	e := s.entry(models.LogUpdate, a, who,
		fmt.Sprintf("Updated %s %s from %d to %d", item, field, old, cur))
	e.Item = item
	e.Field = field
	e.OldValue = intJSON(old)
	e.NewValue = intJSON(cur)
	return e
}

// diffItems сравнивает счётчики отделов, stock и defectives. Производные
// total/overallTotal не журналируются.
func (s *Service) diffItems(a *models.Audit, prev, next models.AuditItems, who Actor) []models.Log {
	var out []models.Log
	for _, item := range unionKeys(prev, next) {
		p, n := prev[item], next[item]
		for _, dep := range unionKeys(p.Departments, n.Departments) {
			if p.Departments[dep] != n.Departments[dep] {
				out = append(out, s.change(a, who, item, "departments."+dep, p.Departments[dep], n.Departments[dep]))
			}
		}
		if p.Stock != n.Stock {
			out = append(out, s.change(a, who, item, "stock", p.Stock, n.Stock))
		}
		if p.Defectives != n.Defectives {
			out = append(out, s.change(a, who, item, "defectives", p.Defectives, n.Defectives))
		}
	}
	return out
}

func (s *Service) diffCounts(a *models.Audit, field string, prev, next map[string]int, who Actor) []models.Log {
	var out []models.Log
	for _, item := range unionKeys(prev, next) {
		if prev[item] != next[item] {
			out = append(out, s.change(a, who, item, field, prev[item], next[item]))
		}
	}
	return out
}

func unionKeys[V any](a, b map[string]V) []string {
	m := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		m[k] = struct{}{}
	}
	for k := range b {
		m[k] = struct{}{}
	}
	return models.SortedKeys(m)
}

func intJSON(v int) models.LogValue {
	b, _ := json.Marshal(v)
	return models.LogValue(b)
}

func anyJSON(v any) models.LogValue {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return models.LogValue(b)
}

// ParseDay принимает YYYY-MM-DD или RFC3339.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, models.ErrInvalid)
	}
	return models.DayOf(t), nil
}
