package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wawengkz/INVENT/internal/models"
)

func logRow(l models.Log) []string {
	return []string{
		l.Timestamp.UTC().Format(time.RFC3339),
		string(l.Action),
		l.AuditDate.UTC().Format(time.DateOnly),
		l.Item,
		l.Field,
		string(l.OldValue),
		string(l.NewValue),
		l.Description,
		l.UserID,
		l.IPAddress,
	}
}

func LogsCSV(w io.Writer, ls []models.Log) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(LogHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, l := range ls {
		if err := cw.Write(logRow(l)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type LogsDocument struct {
	ExportDate   time.Time      `json:"exportDate"`
	TotalRecords int            `json:"totalRecords"`
	Filters      map[string]any `json:"filters,omitempty"`
	Data         []models.Log   `json:"data"`
}

func LogsJSON(w io.Writer, ls []models.Log, filters map[string]any, now time.Time) error {
	if ls == nil {
		ls = []models.Log{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(LogsDocument{
		ExportDate:   now.UTC(),
		TotalRecords: len(ls),
		Filters:      filters,
		Data:         ls,
	})
}
