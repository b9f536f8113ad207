package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// BayState: жизненный цикл бэя, active <-> deleted.
type BayState string

const (
	BayActive  BayState = "active"
	BayDeleted BayState = "deleted"
)

// Размер новой секции по умолчанию, в тех же единицах, что и BaySize.
const (
	DefaultBayWidth  float64 = 55
	DefaultBayHeight float64 = 50
)

const (
	DefaultBayColor = "#6c757d"
	MaxBayNameLen   = 20
)

type BaySize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Bay struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name       string     `gorm:"size:20;not null;uniqueIndex:idx_bay_name_type,priority:1" json:"name"`
	DeviceType DeviceType `gorm:"size:16;not null;uniqueIndex:idx_bay_name_type,priority:2" json:"deviceType"`

	Position Point             `gorm:"embedded;embeddedPrefix:position_" json:"position"`
	Size     BaySize           `gorm:"embedded;embeddedPrefix:size_" json:"size"`
	Color    string            `gorm:"size:16" json:"color"`
	Metadata datatypes.JSONMap `json:"metadata"`

	State BayState `gorm:"size:16;not null;default:active;index" json:"state"`

	StationsCount int64 `gorm:"-" json:"stationsCount"`
}

func (b Bay) IsActive() bool { return b.State == BayActive }

// SoftDelete: active -> deleted.
func (b *Bay) SoftDelete() error {
	if b.State != BayActive {
		return fmt.Errorf("bay %s is %s: %w", b.Name, b.State, ErrConflict)
	}
	b.State = BayDeleted
	return nil
}

// Reactivate: deleted -> active. Повторное создание бэя с тем же именем
// переиспользует запись вместо дубликата.
func (b *Bay) Reactivate() error {
	if b.State != BayDeleted {
		return fmt.Errorf("bay %s already exists: %w", b.Name, ErrConflict)
	}
	b.State = BayActive
	return nil
}

// ApplyDefaults заполняет размер/цвет, если они не заданы.
func (b *Bay) ApplyDefaults() {
	if b.Size.Width <= 0 {
		b.Size.Width = DefaultBayWidth
	}
	if b.Size.Height <= 0 {
		b.Size.Height = DefaultBayHeight
	}
	if b.Color == "" {
		b.Color = DefaultBayColor
	}
	if b.Metadata == nil {
		b.Metadata = datatypes.JSONMap{}
	}
	if b.State == "" {
		b.State = BayActive
	}
}

func (b Bay) MarshalJSON() ([]byte, error) {
	type plain Bay
	return json.Marshal(struct {
		plain
		IsActive bool `json:"isActive"`
	}{plain: plain(b), IsActive: b.IsActive()})
}

// ValidateBayName проверяет уже нормализованное имя.
func ValidateBayName(name string) error {
	if name == "" {
		return fmt.Errorf("bay name is required: %w", ErrInvalid)
	}
	if len(name) > MaxBayNameLen {
		return fmt.Errorf("bay name %q longer than %d characters: %w", name, MaxBayNameLen, ErrInvalid)
	}
	return nil
}
