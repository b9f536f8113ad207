package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Point: координата на 2D-карте.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StationDevice: периферия, закреплённая за станцией.
// Серийный номер НЕ уникален: дубликаты допустимы.
type StationDevice struct {
	SerialNumber *string    `gorm:"size:128;index" json:"serialNumber"`
	Brand        string     `gorm:"size:50" json:"brand"`
	Model        string     `gorm:"size:50" json:"model"`
	Notes        string     `gorm:"size:200" json:"notes"`
	RegisteredAt *time.Time `json:"registeredAt,omitempty"`
	UpdatedAt    *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
}

type Station struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	StationNumber *int       `gorm:"index:idx_station_type_number,priority:2" json:"stationNumber"`
	Bay           *string    `gorm:"size:20;index:idx_station_type_bay,priority:2" json:"bay"`
	DeviceType    DeviceType `gorm:"size:16;not null;index:idx_station_type_number,priority:1;index:idx_station_type_bay,priority:1" json:"deviceType"`

	Position Point         `gorm:"embedded;embeddedPrefix:position_" json:"position"`
	Device   StationDevice `gorm:"embedded;embeddedPrefix:device_" json:"device"`

	IsActive bool `gorm:"not null;default:true;index" json:"isActive"`
}

// HasDevice: на станции зарегистрировано устройство (есть серийник).
func (s Station) HasDevice() bool {
	return s.Device.SerialNumber != nil && strings.TrimSpace(*s.Device.SerialNumber) != ""
}

// Status: inactive | occupied | empty.
func (s Station) Status() string {
	switch {
	case !s.IsActive:
		return "inactive"
	case s.HasDevice():
		return "occupied"
	default:
		return "empty"
	}
}

func (s Station) DisplayNumber() any {
	if s.StationNumber == nil {
		return "Unnumbered"
	}
	return *s.StationNumber
}

func (s Station) BayName() string {
	if s.Bay == nil {
		return ""
	}
	return *s.Bay
}

// RegisterDevice заменяет данные устройства целиком.
func (s *Station) RegisterDevice(serial, brand, model, notes string, at time.Time) {
	sn := strings.TrimSpace(serial)
	s.Device = StationDevice{
		SerialNumber: &sn,
		Brand:        strings.TrimSpace(brand),
		Model:        strings.TrimSpace(model),
		Notes:        strings.TrimSpace(notes),
		RegisteredAt: &at,
		UpdatedAt:    &at,
	}
}

func (s *Station) RemoveDevice() { s.Device = StationDevice{} }

// MarshalJSON добавляет вычисляемые поля и отдаёт device=null для пустой станции.
func (s Station) MarshalJSON() ([]byte, error) {
	type plain Station
	var dev *StationDevice
	if s.HasDevice() {
		d := s.Device
		dev = &d
	}
	return json.Marshal(struct {
		plain
		Device        *StationDevice `json:"device"`
		HasDevice     bool           `json:"hasDevice"`
		Status        string         `json:"status"`
		DisplayNumber any            `json:"displayNumber"`
	}{
		plain:         plain(s),
		Device:        dev,
		HasDevice:     s.HasDevice(),
		Status:        s.Status(),
		DisplayNumber: s.DisplayNumber(),
	})
}

func IntPtr(v int) *int          { return &v }
func StringPtr(v string) *string { return &v }
