package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wawengkz/INVENT/internal/models"
)

func at(id uint, num *int, x, y float64) models.Station {
	return models.Station{ID: id, StationNumber: num, Position: models.Point{X: x, Y: y}, IsActive: true}
}

func TestCheckCleanLayout(t *testing.T) {
	rep := Check([]models.Station{
		at(1, models.IntPtr(1), 0, 0),
		at(2, models.IntPtr(2), 60, 0),
		at(3, models.IntPtr(3), 9999, 9999),
	})
	assert.True(t, rep.Valid)
	assert.Empty(t, rep.Issues)
	assert.Equal(t, 3, rep.TotalStations)
	assert.Equal(t, Summary{}, rep.Summary)
}

func TestCheckOverlap(t *testing.T) {
	rep := Check([]models.Station{
		at(1, models.IntPtr(4), 100, 100),
		at(2, models.IntPtr(7), 100, 100),
	})
	require.Len(t, rep.Issues, 1)
	is := rep.Issues[0]
	assert.Equal(t, IssueOverlap, is.Type)
	assert.Equal(t, []any{4, 7}, is.Stations)
	assert.Equal(t, []uint{1, 2}, is.StationIDs)
	assert.Equal(t, &models.Point{X: 100, Y: 100}, is.Position)
	assert.Equal(t, "Stations 4 and 7 overlap", is.Message)
	assert.False(t, rep.Valid)
	assert.Equal(t, Summary{Overlaps: 1}, rep.Summary)
}

func TestCheckOverlapPairsWithFirst(t *testing.T) {
	rep := Check([]models.Station{
		at(1, models.IntPtr(1), 0, 0),
		at(2, models.IntPtr(2), 0, 0),
		at(3, models.IntPtr(3), 0, 0),
	})
	require.Equal(t, 2, rep.Summary.Overlaps)
	assert.Equal(t, []uint{1, 2}, rep.Issues[0].StationIDs)
	assert.Equal(t, []uint{1, 3}, rep.Issues[1].StationIDs)
}

func TestCheckDuplicateNumbers(t *testing.T) {
	rep := Check([]models.Station{
		at(10, models.IntPtr(5), 0, 0),
		at(11, models.IntPtr(5), 500, 0),
		at(12, nil, 1000, 0),
		at(13, nil, 1500, 0),
	})
	require.Len(t, rep.Issues, 1)
	is := rep.Issues[0]
	assert.Equal(t, IssueDuplicateNumber, is.Type)
	assert.Equal(t, []any{uint(10), uint(11)}, is.Stations)
	assert.Equal(t, 5, *is.StationNumber)
	assert.Equal(t, "Duplicate station number 5", is.Message)
}

func TestCheckTooClose(t *testing.T) {
	rep := Check([]models.Station{
		at(1, models.IntPtr(1), 0, 0),
		at(2, models.IntPtr(2), 10, 0),
		at(3, models.IntPtr(3), 29.9, 0),
	})
	// 1-2: 10, 1-3: 29.9, 2-3: 19.9
	require.Equal(t, 3, rep.Summary.TooClose)
	assert.Equal(t, 10.0, *rep.Issues[0].Distance)
	assert.Equal(t, 30.0, *rep.Issues[1].Distance)
	assert.Equal(t, "Stations 1 and 2 are too close (10px)", rep.Issues[0].Message)
}

func TestCheckExactlyThirtyApartIsFine(t *testing.T) {
	rep := Check([]models.Station{
		at(1, models.IntPtr(1), 0, 0),
		at(2, models.IntPtr(2), 30, 0),
	})
	assert.True(t, rep.Valid)
}

func TestValidateLayoutScopesToBay(t *testing.T) {
	m := newMemStore()
	m.station("A1", 1, 0, 0)
	m.station("A1", 2, 60, 0)
	m.station("B1", 3, 0, 0)
	m.add(models.Station{DeviceType: models.DeviceKeyboard, StationNumber: models.IntPtr(1), Position: models.Point{X: 0, Y: 0}})

	e := New(m, m, Options{})
	rep, err := e.ValidateLayout(context.Background(), models.DeviceMouse, "A1")
	require.NoError(t, err)
	assert.True(t, rep.Valid)
	assert.Equal(t, 2, rep.TotalStations)

	rep, err = e.ValidateLayout(context.Background(), models.DeviceMouse, "")
	require.NoError(t, err)
	assert.Equal(t, 3, rep.TotalStations)
	assert.Equal(t, 1, rep.Summary.Overlaps)
}
