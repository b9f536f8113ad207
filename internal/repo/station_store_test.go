package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wawengkz/INVENT/internal/layout"
	"github.com/wawengkz/INVENT/internal/models"
)

func mkStation(t *testing.T, s *StationStore, bay string, num int, x, y float64) models.Station {
	t.Helper()
	st := models.Station{DeviceType: models.DeviceMouse, Position: models.Point{X: x, Y: y}}
	if bay != "" {
		st.Bay = models.StringPtr(bay)
	}
	if num > 0 {
		st.StationNumber = models.IntPtr(num)
	}
	require.NoError(t, s.Create(context.Background(), &st))
	return st
}

func TestStationStoreNumberUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewStationStore(openTestDB(t))

	a := mkStation(t, s, "A1", 1, 0, 0)
	dup := models.Station{DeviceType: models.DeviceMouse, StationNumber: models.IntPtr(1)}
	require.ErrorIs(t, s.Create(ctx, &dup), models.ErrConflict)

	// другой тип устройства: свой набор номеров
	kb := models.Station{DeviceType: models.DeviceKeyboard, StationNumber: models.IntPtr(1)}
	require.NoError(t, s.Create(ctx, &kb))

	// номер мягко удалённой станции можно переиспользовать
	require.NoError(t, s.SoftDelete(ctx, a.ID))
	require.NoError(t, s.Create(ctx, &dup))

	b := mkStation(t, s, "A1", 2, 60, 0)
	_, err := s.SetNumber(ctx, b.ID, models.IntPtr(1))
	require.ErrorIs(t, err, models.ErrConflict)
	got, err := s.SetNumber(ctx, b.ID, models.IntPtr(2))
	require.NoError(t, err)
	assert.Equal(t, 2, *got.StationNumber)
}

func TestStationStoreLayoutContract(t *testing.T) {
	ctx := context.Background()
	s := NewStationStore(openTestDB(t))
	mkStation(t, s, "A1", 3, 0, 0)
	mkStation(t, s, "A1", 7, 60, 0)
	b := mkStation(t, s, "B1", 5, 0, 60)
	mkStation(t, s, "", 0, 9, 9)

	max, err := s.MaxStationNumber(ctx, models.DeviceMouse)
	require.NoError(t, err)
	assert.Equal(t, 7, max)

	max, err = s.MaxStationNumber(ctx, models.DeviceHeadset)
	require.NoError(t, err)
	assert.Zero(t, max)

	bay := "A1"
	sts, err := s.ListStations(ctx, layout.StationFilter{DeviceType: models.DeviceMouse, Bay: &bay})
	require.NoError(t, err)
	assert.Len(t, sts, 2)

	sts, err = s.ListStations(ctx, layout.StationFilter{IDs: []uint{b.ID}})
	require.NoError(t, err)
	require.Len(t, sts, 1)
	assert.Equal(t, "B1", sts[0].BayName())

	n, err := s.DeactivateBayStations(ctx, "A1", models.DeviceMouse)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	max, err = s.MaxStationNumber(ctx, models.DeviceMouse)
	require.NoError(t, err)
	assert.Equal(t, 5, max)

	_, err = s.FindStation(ctx, 9999)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestStationStoreDevices(t *testing.T) {
	ctx := context.Background()
	s := NewStationStore(openTestDB(t))
	a := mkStation(t, s, "A1", 1, 0, 0)
	b := mkStation(t, s, "A1", 2, 60, 0)
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	_, err := s.RegisterDevice(ctx, a.ID, DeviceInput{SerialNumber: "  "}, at)
	require.ErrorIs(t, err, models.ErrInvalid)

	// одинаковые серийники допустимы
	_, err = s.RegisterDevice(ctx, a.ID, DeviceInput{SerialNumber: "SN-ABC", Brand: "Logi"}, at)
	require.NoError(t, err)
	_, err = s.RegisterDevice(ctx, b.ID, DeviceInput{SerialNumber: "sn-abc"}, at)
	require.NoError(t, err)

	found, err := s.Search(ctx, models.DeviceMouse, SearchQuery{Serial: "n-ab"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = s.Search(ctx, models.DeviceMouse, SearchQuery{Serial: "abc", StationNumber: models.IntPtr(2)})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, b.ID, found[0].ID)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.HasDevice())
	assert.Equal(t, "occupied", got.Status())
	assert.Equal(t, "Logi", got.Device.Brand)

	got, err = s.RemoveDevice(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.HasDevice())

	got, err = s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Device.SerialNumber)
	assert.Equal(t, "empty", got.Status())
}

func TestStationStoreMoveAndCount(t *testing.T) {
	ctx := context.Background()
	s := NewStationStore(openTestDB(t))
	a := mkStation(t, s, "A1", 1, 0, 0)
	mkStation(t, s, "A1", 2, 60, 0)
	mkStation(t, s, "B1", 3, 0, 0)

	got, err := s.SetBay(ctx, a.ID, " b1 ")
	require.NoError(t, err)
	assert.Equal(t, "B1", got.BayName())

	got, err = s.UpdatePosition(ctx, a.ID, models.Point{X: 12.5, Y: 40})
	require.NoError(t, err)
	assert.Equal(t, models.Point{X: 12.5, Y: 40}, got.Position)

	counts, err := s.CountByBay(ctx, models.DeviceMouse)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"A1": 1, "B1": 2}, counts)

	got, err = s.SetBay(ctx, a.ID, "")
	require.NoError(t, err)
	assert.Nil(t, got.Bay)

	require.NoError(t, s.SoftDelete(ctx, a.ID))
	_, err = s.Get(ctx, a.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestStationStoreInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStationStore(openTestDB(t))
	mkStation(t, s, "A1", 1, 0, 0)

	err := s.InTx(ctx, func(tx layout.Store) error {
		st := models.Station{DeviceType: models.DeviceMouse, StationNumber: models.IntPtr(2), IsActive: true}
		if err := tx.CreateStation(ctx, &st); err != nil {
			return err
		}
		return models.ErrConflict
	})
	require.ErrorIs(t, err, models.ErrConflict)

	max, err := s.MaxStationNumber(ctx, models.DeviceMouse)
	require.NoError(t, err)
	assert.Equal(t, 1, max)
}

func TestEngineOverStationStore(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	s := NewStationStore(d)
	mkStation(t, s, "A1", 1, 0, 0)
	mkStation(t, s, "A1", 2, 60, 0)
	mkStation(t, s, "A1", 3, 9999, 9999)

	e := layout.New(s, NewBayStore(d), layout.Options{Transactional: true})
	res, err := e.RenumberBay(ctx, "A1", models.DeviceMouse, 10)
	require.NoError(t, err)
	assert.Len(t, res.Updates, 3)

	dup, err := e.DuplicateBay(ctx, layout.DuplicateRequest{SourceBay: "A1", TargetBay: "A2", DeviceType: models.DeviceMouse})
	require.NoError(t, err)
	assert.Equal(t, 13, *dup.NewStations[0].StationNumber)

	rep, err := e.SyncBays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.BaysCreated)
}
