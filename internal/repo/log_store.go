package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wawengkz/INVENT/internal/models"
)

const (
	DefaultLogLimit = 100
	MaxLogLimit     = 1000
)

type LogStore struct{ db *gorm.DB }

func NewLogStore(db *gorm.DB) *LogStore { return &LogStore{db: db} }

type LogFilter struct {
	From, To  *time.Time
	Action    models.LogAction
	Item      string
	Field     string
	UserID    string
	AuditDate *time.Time // день целиком
	Page      int        // с 1
	Limit     int        // 0: без ограничения
}

func (f LogFilter) apply(q *gorm.DB) *gorm.DB {
	if f.From != nil {
		q = q.Where("timestamp >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("timestamp <= ?", *f.To)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Item != "" {
		q = q.Where("item = ?", f.Item)
	}
	if f.Field != "" {
		q = q.Where("field = ?", f.Field)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.AuditDate != nil {
		day := models.DayOf(*f.AuditDate)
		q = q.Where("audit_date >= ? AND audit_date < ?", day, day.Add(24*time.Hour))
	}
	return q
}

func (s *LogStore) Create(ctx context.Context, l *models.Log) error {
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	return wrapErr("create log", s.db.WithContext(ctx).Create(l).Error)
}

// CreateBatch пишет пачку одной вставкой.
func (s *LogStore) CreateBatch(ctx context.Context, ls []models.Log) error {
	if len(ls) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range ls {
		if ls[i].Timestamp.IsZero() {
			ls[i].Timestamp = now
		}
	}
	return wrapErr("create logs", s.db.WithContext(ctx).Create(&ls).Error)
}

// List возвращает страницу (новые первыми) и общее число записей под фильтром.
func (s *LogStore) List(ctx context.Context, f LogFilter) ([]models.Log, int64, error) {
	var total int64
	if err := f.apply(s.db.WithContext(ctx).Model(&models.Log{})).Count(&total).Error; err != nil {
		return nil, 0, wrapErr("count logs", err)
	}
	q := f.apply(s.db.WithContext(ctx)).Order("timestamp DESC").Order("id DESC")
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q = q.Limit(f.Limit).Offset((page - 1) * f.Limit)
	}
	var out []models.Log
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, wrapErr("list logs", err)
	}
	return out, total, nil
}

// Cleanup удаляет записи старше cutoff.
func (s *LogStore) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.Log{})
	return res.RowsAffected, wrapErr("cleanup logs", res.Error)
}
