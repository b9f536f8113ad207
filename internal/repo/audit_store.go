package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wawengkz/INVENT/internal/models"
)

type AuditStore struct{ db *gorm.DB }

func NewAuditStore(db *gorm.DB) *AuditStore { return &AuditStore{db: db} }

type AuditFilter struct {
	From, To *time.Time // включительно
	Site     string
}

// MonthRange: [первый день, последний день] месяца (month 1..12).
func MonthRange(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, -1)
}

func (s *AuditStore) List(ctx context.Context, f AuditFilter) ([]models.Audit, error) {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	if f.Site != "" {
		q = q.Where("site = ?", f.Site)
	}
	var out []models.Audit
	if err := q.Order("date").Order("site").Find(&out).Error; err != nil {
		return nil, wrapErr("list audits", err)
	}
	return out, nil
}

// Get ищет аудит за день; без site: первый по имени площадки.
func (s *AuditStore) Get(ctx context.Context, day time.Time, site string) (*models.Audit, error) {
	q := s.db.WithContext(ctx).Where("date = ? AND is_active = ?", models.DayOf(day), true)
	if site != "" {
		q = q.Where("site = ?", site)
	}
	var a models.Audit
	if err := q.Order("site").First(&a).Error; err != nil {
		return nil, wrapErr(fmt.Sprintf("audit %s %s", day.Format(time.DateOnly), site), err)
	}
	return &a, nil
}

// Create: один аудит на (date, site).
func (s *AuditStore) Create(ctx context.Context, a *models.Audit) error {
	a.Date = models.DayOf(a.Date)
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Audit{}).
		Where("date = ? AND site = ?", a.Date, a.Site).Count(&n).Error
	if err != nil {
		return wrapErr("check audit", err)
	}
	if n > 0 {
		return fmt.Errorf("audit already exists for %s at %s: %w", a.Date.Format(time.DateOnly), a.Site, models.ErrConflict)
	}
	a.IsActive = true
	return wrapErr("create audit", s.db.WithContext(ctx).Create(a).Error)
}

func (s *AuditStore) Save(ctx context.Context, a *models.Audit) error {
	return wrapErr("save audit", s.db.WithContext(ctx).Save(a).Error)
}

func (s *AuditStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Audit{}, id)
	if res.Error != nil {
		return wrapErr("delete audit", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("audit %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// InTx выполняет fn с хранилищами поверх одной транзакции.
func (s *AuditStore) InTx(ctx context.Context, fn func(audits *AuditStore, logs *LogStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AuditStore{db: tx}, &LogStore{db: tx})
	})
}
