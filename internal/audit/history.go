package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wawengkz/INVENT/internal/models"
	"github.com/wawengkz/INVENT/internal/repo"
)

const (
	DefaultRetentionDays = 365
	// ItemHistoryLimit: потолок выборки по одной позиции.
	ItemHistoryLimit = 500
	topN             = 10
)

// -------- журнал --------

type LogInput struct {
	Action      models.LogAction `json:"action"`
	AuditDate   time.Time        `json:"auditDate"`
	Item        string           `json:"item"`
	Field       string           `json:"field"`
	OldValue    any              `json:"oldValue"`
	NewValue    any              `json:"newValue"`
	Description string           `json:"description"`
	RelatedTo   string           `json:"relatedTo"`
}

// AddLog: ручная запись в журнал (клиент фиксирует своё действие).
func (s *Service) AddLog(ctx context.Context, in LogInput, who Actor) (*models.Log, error) {
	if !in.Action.Valid() {
		return nil, fmt.Errorf("invalid action %q: %w", in.Action, models.ErrInvalid)
	}
	if in.AuditDate.IsZero() {
		return nil, fmt.Errorf("audit date is required: %w", models.ErrInvalid)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("description is required: %w", models.ErrInvalid)
	}
	l := models.Log{
		Action:      in.Action,
		AuditDate:   in.AuditDate.UTC(),
		Item:        in.Item,
		Field:       in.Field,
		OldValue:    anyJSON(in.OldValue),
		NewValue:    anyJSON(in.NewValue),
		Description: in.Description,
		RelatedTo:   in.RelatedTo,
		UserID:      who.UserID,
		SessionID:   who.SessionID,
		IPAddress:   who.IP,
		UserAgent:   who.UserAgent,
		Timestamp:   s.now().UTC(),
	}
	if err := s.logs.Create(ctx, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Service) Logs(ctx context.Context, f repo.LogFilter) ([]models.Log, int64, error) {
	return s.logs.List(ctx, f)
}

// AuditLogs: все записи за день аудита.
func (s *Service) AuditLogs(ctx context.Context, day time.Time) ([]models.Log, error) {
	out, _, err := s.logs.List(ctx, repo.LogFilter{AuditDate: &day})
	return out, err
}

// ItemHistory: изменения позиции за последние days дней, новые первыми.
func (s *Service) ItemHistory(ctx context.Context, item string, days int) ([]models.Log, error) {
	from := s.since(days, 30)
	out, _, err := s.logs.List(ctx, repo.LogFilter{Item: item, From: &from, Page: 1, Limit: ItemHistoryLimit})
	return out, err
}

// Cleanup удаляет записи старше daysToKeep (<= 0: срок из конфигурации).
func (s *Service) Cleanup(ctx context.Context, daysToKeep int) (int64, int, error) {
	if daysToKeep <= 0 {
		daysToKeep = s.retention
	}
	n, err := s.logs.Cleanup(ctx, s.now().UTC().AddDate(0, 0, -daysToKeep))
	if err != nil {
		return 0, daysToKeep, err
	}
	s.log.WithFields(logrus.Fields{"deleted": n, "days_kept": daysToKeep}).Info("logs cleaned up")
	return n, daysToKeep, nil
}

func (s *Service) since(days, def int) time.Time {
	if days <= 0 {
		days = def
	}
	return s.now().UTC().AddDate(0, 0, -days)
}

// -------- агрегаты --------

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type ActionSummary struct {
	Action      models.LogAction `json:"action"`
	TotalCount  int              `json:"totalCount"`
	DailyCounts []DayCount       `json:"dailyCounts"`
}

type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type LogStats struct {
	Days      int        `json:"days"`
	TotalLogs int        `json:"totalLogs"`
	ByAction  []KeyCount `json:"byAction"`
	ByItem    []KeyCount `json:"byItem"`
	ByUser    []KeyCount `json:"byUser"`
	Daily     []DayCount `json:"daily"`
}

func (s *Service) recent(ctx context.Context, days int, user string) ([]models.Log, error) {
	from := s.since(days, 7)
	out, _, err := s.logs.List(ctx, repo.LogFilter{From: &from, UserID: user})
	return out, err
}

// RecentSummary: число записей по действию и по дням за последние days дней.
func (s *Service) RecentSummary(ctx context.Context, days int) ([]ActionSummary, error) {
	ls, err := s.recent(ctx, days, "")
	if err != nil {
		return nil, err
	}
	byAction := map[string][]models.Log{}
	for _, l := range ls {
		byAction[string(l.Action)] = append(byAction[string(l.Action)], l)
	}
	out := make([]ActionSummary, 0, len(byAction))
	for _, a := range models.SortedKeys(byAction) {
		out = append(out, ActionSummary{
			Action:      models.LogAction(a),
			TotalCount:  len(byAction[a]),
			DailyCounts: daily(byAction[a]),
		})
	}
	return out, nil
}

// UserSummary: то же в разрезе одного пользователя.
func (s *Service) UserSummary(ctx context.Context, user string, days int) (*LogStats, error) {
	if user == "" {
		return nil, fmt.Errorf("user id required: %w", models.ErrInvalid)
	}
	ls, err := s.recent(ctx, orDays(days, 30), user)
	if err != nil {
		return nil, err
	}
	return buildStats(ls, orDays(days, 30)), nil
}

// Stats возвращает сводку за последние days дней (всего, по действиям, топ позиций
// и пользователей, по дням.
func (s *Service) Stats(ctx context.Context, days int) (*LogStats, error) {
	days = orDays(days, 30)
	ls, err := s.recent(ctx, days, "")
	if err != nil {
		return nil, err
	}
	return buildStats(ls, days), nil
}

func buildStats(ls []models.Log, days int) *LogStats {
	actions, items, users := map[string]int{}, map[string]int{}, map[string]int{}
	for _, l := range ls {
		actions[string(l.Action)]++
		if l.Item != "" {
			items[l.Item]++
		}
		if l.UserID != "" {
			users[l.UserID]++
		}
	}
	return &LogStats{
		Days:      days,
		TotalLogs: len(ls),
		ByAction:  ranked(actions, 0),
		ByItem:    ranked(items, topN),
		ByUser:    ranked(users, topN),
		Daily:     daily(ls),
	}
}

func orDays(days, def int) int {
	if days <= 0 {
		return def
	}
	return days
}

// ranked сортирует по убыванию счётчика, при равенстве по ключу; limit 0 без обрезки.
func ranked(m map[string]int, limit int) []KeyCount {
	out := make([]KeyCount, 0, len(m))
	for k, v := range m {
		out = append(out, KeyCount{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// daily группирует по дате (UTC), по возрастанию.
func daily(ls []models.Log) []DayCount {
	m := map[string]int{}
	for _, l := range ls {
		m[l.Timestamp.UTC().Format(time.DateOnly)]++
	}
	out := make([]DayCount, 0, len(m))
	for _, d := range models.SortedKeys(m) {
		out = append(out, DayCount{Date: d, Count: m[d]})
	}
	return out
}
