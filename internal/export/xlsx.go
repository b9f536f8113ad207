// Package export выгружает станции и журнал в xlsx, csv и json.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wawengkz/INVENT/internal/models"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
	ContentTypeJSON = "application/json"

	timeLayout = "2006-01-02 15:04:05"
)

var StationHeader = []string{
	"Station Number", "Bay", "Device Type", "Status", "Serial Number",
	"Brand", "Model", "Notes", "Position X", "Position Y", "Registered At",
}

var stationWidths = []float64{15, 12, 12, 10, 22, 15, 15, 30, 11, 11, 20}

var LogHeader = []string{
	"Timestamp", "Action", "Audit Date", "Item", "Field",
	"Old Value", "New Value", "Description", "User", "IP Address",
}

var logWidths = []float64{20, 10, 12, 12, 20, 12, 12, 45, 15, 15}

// StationsXLSX пишет лист со станциями одного типа.
func StationsXLSX(w io.Writer, dt models.DeviceType, sts []models.Station) error {
	rows := make([][]any, len(sts))
	for i, st := range sts {
		row := []any{st.DisplayNumber(), st.BayName(), string(st.DeviceType), st.Status(), "", "", "", "", st.Position.X, st.Position.Y, ""}
		if st.HasDevice() {
			row[4] = *st.Device.SerialNumber
			row[5] = st.Device.Brand
			row[6] = st.Device.Model
			row[7] = st.Device.Notes
			if st.Device.RegisteredAt != nil {
				row[10] = st.Device.RegisteredAt.UTC().Format(timeLayout)
			}
		}
		rows[i] = row
	}
	return writeSheet(w, "Stations "+string(dt), StationHeader, stationWidths, rows)
}

func LogsXLSX(w io.Writer, ls []models.Log) error {
	rows := make([][]any, len(ls))
	for i, l := range ls {
		row := logRow(l)
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		rows[i] = vals
	}
	return writeSheet(w, "Logs", LogHeader, logWidths, rows)
}

func writeSheet(w io.Writer, sheet string, header []string, widths []float64, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	for i, wd := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, wd); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// FileName: имя вложения вида audit_logs_2024-06-01.csv.
func FileName(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.UTC().Format(time.DateOnly), ext)
}
