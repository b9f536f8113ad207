package models

import (
	"sort"
	"time"

	"gorm.io/datatypes"
)

var (
	MainItems  = []string{"CPU", "Monitor", "Keyboard", "Mouse", "Headset"}
	OtherItems = []string{"Laptop", "Webcam", "RAM", "SSD"}
	// DefaultSites используется, если inventory.sites не задан в конфиге.
	DefaultSites = []string{"Calamba", "Bay", "Los Baños", "La Espacio"}
)

// AuditItem: счётчики одной позиции. Отделы динамические: имя -> количество.
type AuditItem struct {
	Departments  map[string]int `json:"departments"`
	Total        int            `json:"total"`
	Stock        int            `json:"stock"`
	Defectives   int            `json:"defectives"`
	OverallTotal int            `json:"overallTotal"`
}

// Recalc: total = сумма по отделам, overallTotal = total + stock + defectives.
func (it *AuditItem) Recalc() {
	sum := 0
	for _, v := range it.Departments {
		sum += v
	}
	it.Total = sum
	it.OverallTotal = it.Total + it.Stock + it.Defectives
}

type AuditItems map[string]AuditItem

type Audit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Date time.Time `gorm:"not null;uniqueIndex:idx_audit_date_site,priority:1" json:"date"`
	Site string    `gorm:"size:64;not null;uniqueIndex:idx_audit_date_site,priority:2;index" json:"site"`

	Items        datatypes.JSONType[AuditItems]     `json:"items"`
	OtherItems   datatypes.JSONType[map[string]int] `json:"otherItems"`
	MissingItems datatypes.JSONType[map[string]int] `json:"missingItems"`

	CreatedBy string `gorm:"size:128" json:"createdBy"`
	IsActive  bool   `gorm:"not null;default:true" json:"isActive"`
}

// DayOf обрезает время до начала суток (UTC).
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortedKeys: стабильный порядок обхода динамических map.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
