package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wawengkz/INVENT/internal/models"
)

type BayStore struct{ db *gorm.DB }

func NewBayStore(db *gorm.DB) *BayStore { return &BayStore{db: db} }

// BayUsage описывает бэй, который нельзя удалить из-за активных станций.
type BayUsage struct {
	Name         string `json:"name"`
	StationCount int64  `json:"stationCount"`
}

// BaysInUseError возвращается пакетным удалением; Unwrap -> ErrConflict.
type BaysInUseError struct{ Bays []BayUsage }

func (e *BaysInUseError) Error() string {
	names := make([]string, len(e.Bays))
	for i, b := range e.Bays {
		names[i] = fmt.Sprintf("%s (%d)", b.Name, b.StationCount)
	}
	return "cannot delete bays with stations: " + strings.Join(names, ", ")
}

func (e *BaysInUseError) Unwrap() error { return models.ErrConflict }

// -------- layout.BayStore --------

// FindBay ищет бэй в любом состоянии.
func (s *BayStore) FindBay(ctx context.Context, name string, dt models.DeviceType) (*models.Bay, error) {
	var b models.Bay
	err := s.db.WithContext(ctx).Where("name = ? AND device_type = ?", name, dt).First(&b).Error
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("bay %s (%s)", name, dt), err)
	}
	return &b, nil
}

func (s *BayStore) CreateBay(ctx context.Context, b *models.Bay) error {
	return wrapErr("create bay", s.db.WithContext(ctx).Create(b).Error)
}

// -------- CRUD --------

func (s *BayStore) Get(ctx context.Context, id uint) (*models.Bay, error) {
	var b models.Bay
	err := s.db.WithContext(ctx).Where("id = ? AND state = ?", id, models.BayActive).First(&b).Error
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("bay %d", id), err)
	}
	return &b, nil
}

// List: активные бэи типа по имени, с числом станций.
func (s *BayStore) List(ctx context.Context, dt models.DeviceType) ([]models.Bay, error) {
	var out []models.Bay
	err := s.db.WithContext(ctx).
		Where("device_type = ? AND state = ?", dt, models.BayActive).
		Order("name").Find(&out).Error
	if err != nil {
		return nil, wrapErr("list bays", err)
	}
	counts, err := NewStationStore(s.db).CountByBay(ctx, dt)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].StationsCount = counts[out[i].Name]
	}
	return out, nil
}

type BayInput struct {
	Name       string            `json:"name"`
	DeviceType models.DeviceType `json:"deviceType"`
	Position   models.Point      `json:"position"`
	Size       *models.BaySize   `json:"size"`
	Color      string            `json:"color"`
	Metadata   map[string]any    `json:"metadata"`
}

// Create: имя в верхнем регистре; активный дубль даёт Conflict; удалённый бэй
// с тем же именем реактивируется с новыми полями.
func (s *BayStore) Create(ctx context.Context, in BayInput) (b *models.Bay, reactivated bool, err error) {
	name := models.NormalizeBayName(in.Name)
	if err := models.ValidateBayName(name); err != nil {
		return nil, false, fmt.Errorf("create bay: %w", err)
	}
	if !in.DeviceType.Valid() {
		return nil, false, fmt.Errorf("create bay: device type %q: %w", in.DeviceType, models.ErrInvalid)
	}

	existing, err := s.FindBay(ctx, name, in.DeviceType)
	switch {
	case err == nil:
		if err := existing.Reactivate(); err != nil {
			return nil, false, fmt.Errorf("bay %s already exists for %s: %w", name, in.DeviceType, models.ErrConflict)
		}
		b, reactivated = existing, true
	case errors.Is(err, models.ErrNotFound):
		b = &models.Bay{Name: name, DeviceType: in.DeviceType, State: models.BayActive}
	default:
		return nil, false, err
	}

	b.Position = in.Position
	b.Size = models.BaySize{}
	if in.Size != nil {
		b.Size = *in.Size
	}
	b.Color = strings.TrimSpace(in.Color)
	b.Metadata = datatypes.JSONMap(in.Metadata)
	b.ApplyDefaults()

	if reactivated {
		err = wrapErr("reactivate bay", s.db.WithContext(ctx).Save(b).Error)
	} else {
		err = s.CreateBay(ctx, b)
	}
	if err != nil {
		return nil, false, err
	}
	return b, reactivated, nil
}

type BayPatch struct {
	Name     *string         `json:"name"`
	Position *PointPatch     `json:"position"`
	Size     *SizePatch      `json:"size"`
	Color    *string         `json:"color"`
	Metadata *map[string]any `json:"metadata"`
}

type PointPatch struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type SizePatch struct {
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

// Update применяет частичные изменения. Переименование каскадно меняет bay
// у всех станций этого типа; всё выполняется в одной транзакции.
func (s *BayStore) Update(ctx context.Context, id uint, p BayPatch) (*models.Bay, error) {
	var out *models.Bay
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ts := &BayStore{db: tx}
		b, err := ts.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.Name != nil {
			name := models.NormalizeBayName(*p.Name)
			if err := models.ValidateBayName(name); err != nil {
				return err
			}
			if name != b.Name {
				if err := ts.rename(ctx, b, name); err != nil {
					return err
				}
			}
		}
		if p.Position != nil {
			if p.Position.X != nil {
				b.Position.X = *p.Position.X
			}
			if p.Position.Y != nil {
				b.Position.Y = *p.Position.Y
			}
		}
		if p.Size != nil {
			if p.Size.Width != nil {
				b.Size.Width = *p.Size.Width
			}
			if p.Size.Height != nil {
				b.Size.Height = *p.Size.Height
			}
		}
		if p.Color != nil {
			b.Color = strings.TrimSpace(*p.Color)
		}
		if p.Metadata != nil {
			b.Metadata = datatypes.JSONMap(*p.Metadata)
		}
		b.ApplyDefaults()
		if err := tx.Save(b).Error; err != nil {
			return wrapErr("update bay", err)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BayStore) rename(ctx context.Context, b *models.Bay, name string) error {
	clash, err := s.FindBay(ctx, name, b.DeviceType)
	switch {
	case err == nil && clash.IsActive():
		return fmt.Errorf("bay %s already exists for %s: %w", name, b.DeviceType, models.ErrConflict)
	case err == nil:
		// удалённый бэй держит уникальный индекс (name, device_type)
		if err := s.db.WithContext(ctx).Delete(&models.Bay{}, clash.ID).Error; err != nil {
			return wrapErr("drop deleted bay "+name, err)
		}
	case !errors.Is(err, models.ErrNotFound):
		return err
	}
	err = s.db.WithContext(ctx).Model(&models.Station{}).
		Where("bay = ? AND device_type = ?", b.Name, b.DeviceType).
		Update("bay", name).Error
	if err != nil {
		return wrapErr("rename bay stations", err)
	}
	b.Name = name
	return nil
}

func (s *BayStore) UpdatePosition(ctx context.Context, id uint, p models.Point) (*models.Bay, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Position = p
	return b, wrapErr("update bay position", s.db.WithContext(ctx).Save(b).Error)
}

type BayPosition struct {
	ID uint    `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// BulkPositions пропускает отсутствующие бэи и возвращает число обновлённых.
func (s *BayStore) BulkPositions(ctx context.Context, in []BayPosition) (int, error) {
	n := 0
	for _, p := range in {
		_, err := s.UpdatePosition(ctx, p.ID, models.Point{X: p.X, Y: p.Y})
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Delete переводит бэй в deleted; при активных станциях: Conflict с их числом.
func (s *BayStore) Delete(ctx context.Context, id uint) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	n, err := NewStationStore(s.db).CountInBay(ctx, b.Name, b.DeviceType)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("cannot delete bay with %d stations, remove or reassign stations first: %w", n, models.ErrConflict)
	}
	if err := b.SoftDelete(); err != nil {
		return err
	}
	return wrapErr("delete bay", s.db.WithContext(ctx).Save(b).Error)
}

// BulkDelete сначала проверяет все бэи; если хоть один занят: ничего не удаляет.
func (s *BayStore) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	var bays []models.Bay
	if err := s.db.WithContext(ctx).Where("id IN ? AND state = ?", ids, models.BayActive).Find(&bays).Error; err != nil {
		return 0, wrapErr("bulk delete bays", err)
	}
	stations := NewStationStore(s.db)
	inUse := &BaysInUseError{}
	for _, b := range bays {
		n, err := stations.CountInBay(ctx, b.Name, b.DeviceType)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			inUse.Bays = append(inUse.Bays, BayUsage{Name: b.Name, StationCount: n})
		}
	}
	if len(inUse.Bays) > 0 {
		return 0, inUse
	}
	res := s.db.WithContext(ctx).Model(&models.Bay{}).
		Where("id IN ? AND state = ?", ids, models.BayActive).
		Update("state", models.BayDeleted)
	return res.RowsAffected, wrapErr("bulk delete bays", res.Error)
}

// WithStations: бэй и его активные станции по номеру.
func (s *BayStore) WithStations(ctx context.Context, id uint) (*models.Bay, []models.Station, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var sts []models.Station
	err = s.db.WithContext(ctx).
		Where("bay = ? AND device_type = ? AND is_active = ?", b.Name, b.DeviceType, true).
		Order("station_number").Order("id").Find(&sts).Error
	if err != nil {
		return nil, nil, wrapErr("bay stations", err)
	}
	b.StationsCount = int64(len(sts))
	return b, sts, nil
}
