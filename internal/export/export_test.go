package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wawengkz/INVENT/internal/models"
)

var at = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func TestStationsXLSX(t *testing.T) {
	withDevice := models.Station{
		StationNumber: models.IntPtr(7),
		Bay:           models.StringPtr("A1"),
		DeviceType:    models.DeviceMouse,
		Position:      models.Point{X: 60, Y: 0},
		IsActive:      true,
	}
	withDevice.RegisterDevice("SN-1", "Logi", "M100", "", at)
	empty := models.Station{DeviceType: models.DeviceMouse, IsActive: true}

	var buf bytes.Buffer
	require.NoError(t, StationsXLSX(&buf, models.DeviceMouse, []models.Station{withDevice, empty}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Stations mouse"}, f.GetSheetList())
	rows, err := f.GetRows("Stations mouse")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, StationHeader, rows[0])
	assert.Equal(t, []string{"7", "A1", "mouse", "occupied", "SN-1", "Logi", "M100", "", "60", "0", "2024-06-01 09:30:00"}, rows[1])
	assert.Equal(t, "Unnumbered", rows[2][0])
	assert.Equal(t, "empty", rows[2][3])
}

func testLogs() []models.Log {
	return []models.Log{{
		Action:      models.LogUpdate,
		AuditDate:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		Item:        "CPU",
		Field:       "stock",
		OldValue:    models.LogValue("1"),
		NewValue:    models.LogValue("3"),
		Description: `Updated CPU stock, "urgent"`,
		UserID:      "alice",
		Timestamp:   at,
	}}
}

func TestLogsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, LogsCSV(&buf, testLogs()))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, LogHeader, recs[0])
	assert.Equal(t, []string{"2024-06-01T09:30:00Z", "update", "2024-05-31", "CPU", "stock", "1", "3", `Updated CPU stock, "urgent"`, "alice", ""}, recs[1])
}

func TestLogsXLSXAndJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, LogsXLSX(&buf, testLogs()))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Logs")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CPU", rows[1][3])

	buf.Reset()
	require.NoError(t, LogsJSON(&buf, nil, map[string]any{"format": "json"}, at))
	var doc struct {
		TotalRecords int               `json:"totalRecords"`
		Data         []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Zero(t, doc.TotalRecords)
	assert.NotNil(t, doc.Data)

	assert.Equal(t, "audit_logs_2024-06-01.csv", FileName("audit_logs", "csv", at))
}
