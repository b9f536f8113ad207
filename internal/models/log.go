package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

type LogAction string

const (
	LogCreate LogAction = "create"
	LogUpdate LogAction = "update"
	LogDelete LogAction = "delete"
)

func (a LogAction) Valid() bool {
	switch a {
	case LogCreate, LogUpdate, LogDelete:
		return true
	}
	return false
}

// Log: запись об изменении одного поля. Только добавление;
// удаляются лишь очисткой по сроку хранения.
type Log struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Action      LogAction `gorm:"size:16;not null;index" json:"action"`
	AuditDate   time.Time `gorm:"not null;index" json:"auditDate"`
	Item        string    `gorm:"size:64;index:idx_log_item_field,priority:1" json:"item"`
	Field       string    `gorm:"size:64;index:idx_log_item_field,priority:2" json:"field"`
	OldValue    LogValue  `gorm:"type:text" json:"oldValue"`
	NewValue    LogValue  `gorm:"type:text" json:"newValue"`
	Description string    `gorm:"size:512;not null" json:"description"`
	RelatedTo   string    `gorm:"size:128" json:"relatedTo,omitempty"`
	UserID      string    `gorm:"size:128;index" json:"userId,omitempty"`
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
	SessionID   string    `gorm:"size:128" json:"sessionId,omitempty"`
	IPAddress   string    `gorm:"size:64" json:"ipAddress,omitempty"`
	UserAgent   string    `gorm:"size:256" json:"userAgent,omitempty"`
}

// LogValue: JSON-значение поля в журнале. Хранится текстом: колонка JSON в
// sqlite получает числовую affinity, и скаляр 5 возвращается как INTEGER.
type LogValue []byte

func (v LogValue) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return string(v), nil
}

// Scan принимает и текст, и числа, записанные старыми версиями схемы.
func (v *LogValue) Scan(src any) error {
	switch t := src.(type) {
	case nil:
		*v = nil
	case []byte:
		*v = append(LogValue(nil), t...)
	case string:
		*v = LogValue(t)
	case int64:
		*v = LogValue(strconv.FormatInt(t, 10))
	case float64:
		*v = LogValue(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*v = LogValue(strconv.FormatBool(t))
	default:
		return fmt.Errorf("log value: unsupported type %T", src)
	}
	return nil
}

func (v LogValue) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

func (v *LogValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = nil
		return nil
	}
	*v = append(LogValue(nil), b...)
	return nil
}
