package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/wawengkz/INVENT/internal/layout"
	"github.com/wawengkz/INVENT/internal/models"
)

type StationStore struct{ db *gorm.DB }

func NewStationStore(db *gorm.DB) *StationStore { return &StationStore{db: db} }

// -------- layout.Store --------

func (s *StationStore) ListStations(ctx context.Context, f layout.StationFilter) ([]models.Station, error) {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if f.DeviceType != "" {
		q = q.Where("device_type = ?", f.DeviceType)
	}
	if f.Bay != nil {
		q = q.Where("bay = ?", *f.Bay)
	}
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	var out []models.Station
	if err := q.Order("bay").Order("station_number").Order("id").Find(&out).Error; err != nil {
		return nil, wrapErr("list stations", err)
	}
	return out, nil
}

func (s *StationStore) FindStation(ctx context.Context, id uint) (*models.Station, error) {
	var st models.Station
	if err := s.db.WithContext(ctx).First(&st, id).Error; err != nil {
		return nil, wrapErr(fmt.Sprintf("station %d", id), err)
	}
	return &st, nil
}

func (s *StationStore) CreateStation(ctx context.Context, st *models.Station) error {
	return wrapErr("create station", s.db.WithContext(ctx).Create(st).Error)
}

func (s *StationStore) SaveStation(ctx context.Context, st *models.Station) error {
	return wrapErr("save station", s.db.WithContext(ctx).Save(st).Error)
}

func (s *StationStore) MaxStationNumber(ctx context.Context, dt models.DeviceType) (int, error) {
	var max int
	err := s.db.WithContext(ctx).Model(&models.Station{}).
		Where("device_type = ? AND is_active = ?", dt, true).
		Select("COALESCE(MAX(station_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, wrapErr("max station number", err)
	}
	return max, nil
}

func (s *StationStore) DeactivateBayStations(ctx context.Context, bay string, dt models.DeviceType) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Station{}).
		Where("bay = ? AND device_type = ? AND is_active = ?", bay, dt, true).
		Update("is_active", false)
	return res.RowsAffected, wrapErr("deactivate bay stations", res.Error)
}

// InTx: layout.Transactor поверх транзакции gorm.
func (s *StationStore) InTx(ctx context.Context, fn func(tx layout.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&StationStore{db: tx})
	})
}

// -------- CRUD для HTTP-слоя --------

// Get возвращает активную станцию.
func (s *StationStore) Get(ctx context.Context, id uint) (*models.Station, error) {
	var st models.Station
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&st).Error
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("station %d", id), err)
	}
	return &st, nil
}

// ListByDeviceType сортирует как карта, по бэю и затем по номеру.
func (s *StationStore) ListByDeviceType(ctx context.Context, dt models.DeviceType) ([]models.Station, error) {
	return s.ListStations(ctx, layout.StationFilter{DeviceType: dt})
}

// NumberTaken: занят ли номер активной станцией того же типа (кроме exceptID).
func (s *StationStore) NumberTaken(ctx context.Context, dt models.DeviceType, num int, exceptID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Station{}).
		Where("device_type = ? AND station_number = ? AND is_active = ? AND id <> ?", dt, num, true, exceptID).
		Count(&n).Error
	if err != nil {
		return false, wrapErr("check station number", err)
	}
	return n > 0, nil
}

// Create проверяет номер до вставки. Проверка и вставка не атомарны.
func (s *StationStore) Create(ctx context.Context, st *models.Station) error {
	if !st.DeviceType.Valid() {
		return fmt.Errorf("create station: device type %q: %w", st.DeviceType, models.ErrInvalid)
	}
	if st.StationNumber != nil {
		if err := s.ensureNumberFree(ctx, st.DeviceType, *st.StationNumber, 0); err != nil {
			return fmt.Errorf("create station: %w", err)
		}
	}
	st.IsActive = true
	return s.CreateStation(ctx, st)
}

// BulkCreate создаёт станции по одной; при ошибке уже созданные остаются.
func (s *StationStore) BulkCreate(ctx context.Context, sts []models.Station) ([]models.Station, error) {
	out := make([]models.Station, 0, len(sts))
	for i := range sts {
		if err := s.Create(ctx, &sts[i]); err != nil {
			return out, fmt.Errorf("bulk create station #%d: %w", i+1, err)
		}
		out = append(out, sts[i])
	}
	return out, nil
}

func (s *StationStore) ensureNumberFree(ctx context.Context, dt models.DeviceType, num int, exceptID uint) error {
	if num <= 0 {
		return fmt.Errorf("station number must be positive: %w", models.ErrInvalid)
	}
	taken, err := s.NumberTaken(ctx, dt, num, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("station number %d already exists for %s: %w", num, dt, models.ErrConflict)
	}
	return nil
}

// SetNumber: nil снимает номер.
func (s *StationStore) SetNumber(ctx context.Context, id uint, num *int) (*models.Station, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if num != nil {
		if err := s.ensureNumberFree(ctx, st.DeviceType, *num, st.ID); err != nil {
			return nil, fmt.Errorf("set station number: %w", err)
		}
	}
	st.StationNumber = num
	return st, s.SaveStation(ctx, st)
}

type DeviceInput struct {
	SerialNumber string `json:"serialNumber"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Notes        string `json:"notes"`
}

// RegisterDevice не проверяет уникальность серийника: дубликаты допустимы.
func (s *StationStore) RegisterDevice(ctx context.Context, id uint, in DeviceInput, at time.Time) (*models.Station, error) {
	if strings.TrimSpace(in.SerialNumber) == "" {
		return nil, fmt.Errorf("register device: serial number is required: %w", models.ErrInvalid)
	}
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st.RegisterDevice(in.SerialNumber, in.Brand, in.Model, in.Notes, at)
	return st, s.SaveStation(ctx, st)
}

func (s *StationStore) RemoveDevice(ctx context.Context, id uint) (*models.Station, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st.RemoveDevice()
	return st, s.SaveStation(ctx, st)
}

func (s *StationStore) UpdatePosition(ctx context.Context, id uint, p models.Point) (*models.Station, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st.Position = p
	return st, s.SaveStation(ctx, st)
}

// SetBay: пустая строка снимает станцию с бэя.
func (s *StationStore) SetBay(ctx context.Context, id uint, bay string) (*models.Station, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if bay = models.NormalizeBayName(bay); bay == "" {
		st.Bay = nil
	} else {
		if err := models.ValidateBayName(bay); err != nil {
			return nil, err
		}
		st.Bay = &bay
	}
	return st, s.SaveStation(ctx, st)
}

// SoftDelete: станции не удаляются физически.
func (s *StationStore) SoftDelete(ctx context.Context, id uint) error {
	st, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	st.IsActive = false
	return s.SaveStation(ctx, st)
}

type SearchQuery struct {
	Serial        string
	StationNumber *int
	Bay           string
}

// Search: подстрока серийника без учёта регистра, точный номер, точный бэй.
func (s *StationStore) Search(ctx context.Context, dt models.DeviceType, sq SearchQuery) ([]models.Station, error) {
	q := s.db.WithContext(ctx).Where("device_type = ? AND is_active = ?", dt, true)
	if v := strings.TrimSpace(sq.Serial); v != "" {
		q = q.Where("LOWER(device_serial_number) LIKE ?", "%"+strings.ToLower(v)+"%")
	}
	if sq.StationNumber != nil {
		q = q.Where("station_number = ?", *sq.StationNumber)
	}
	if v := models.NormalizeBayName(sq.Bay); v != "" {
		q = q.Where("bay = ?", v)
	}
	var out []models.Station
	if err := q.Order("station_number").Order("id").Find(&out).Error; err != nil {
		return nil, wrapErr("search stations", err)
	}
	return out, nil
}

// CountByBay: число активных станций на бэй.
func (s *StationStore) CountByBay(ctx context.Context, dt models.DeviceType) (map[string]int64, error) {
	type row struct {
		Bay   string
		Count int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&models.Station{}).
		Select("bay, COUNT(*) AS count").
		Where("device_type = ? AND is_active = ? AND bay IS NOT NULL", dt, true).
		Group("bay").Scan(&rows).Error
	if err != nil {
		return nil, wrapErr("count stations by bay", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Bay] = r.Count
	}
	return out, nil
}

func (s *StationStore) CountInBay(ctx context.Context, bay string, dt models.DeviceType) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Station{}).
		Where("bay = ? AND device_type = ? AND is_active = ?", bay, dt, true).
		Count(&n).Error
	return n, wrapErr("count stations in bay", err)
}
