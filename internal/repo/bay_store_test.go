package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wawengkz/INVENT/internal/models"
)

func TestBayStoreCreateAndReactivate(t *testing.T) {
	ctx := context.Background()
	s := NewBayStore(openTestDB(t))

	b, re, err := s.Create(ctx, BayInput{Name: " a1 ", DeviceType: models.DeviceMouse})
	require.NoError(t, err)
	assert.False(t, re)
	assert.Equal(t, "A1", b.Name)
	assert.Equal(t, models.BaySize{Width: models.DefaultBayWidth, Height: models.DefaultBayHeight}, b.Size)
	assert.Equal(t, models.DefaultBayColor, b.Color)

	_, _, err = s.Create(ctx, BayInput{Name: "A1", DeviceType: models.DeviceMouse})
	require.ErrorIs(t, err, models.ErrConflict)

	// то же имя для другого типа устройства допустимо
	_, _, err = s.Create(ctx, BayInput{Name: "A1", DeviceType: models.DeviceHeadset})
	require.NoError(t, err)

	_, _, err = s.Create(ctx, BayInput{Name: "THIS-NAME-IS-WAY-TOO-LONG", DeviceType: models.DeviceMouse})
	require.ErrorIs(t, err, models.ErrInvalid)

	require.NoError(t, s.Delete(ctx, b.ID))
	_, err = s.Get(ctx, b.ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	again, re, err := s.Create(ctx, BayInput{Name: "a1", DeviceType: models.DeviceMouse, Color: "#ffffff"})
	require.NoError(t, err)
	assert.True(t, re)
	assert.Equal(t, b.ID, again.ID)
	assert.Equal(t, "#ffffff", again.Color)
	assert.True(t, again.IsActive())
}

func TestBayStoreDeleteWithStations(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	s := NewBayStore(d)
	st := NewStationStore(d)

	b, _, err := s.Create(ctx, BayInput{Name: "B3", DeviceType: models.DeviceMouse})
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		mkStation(t, st, "B3", i, float64(i*60), 0)
	}

	err = s.Delete(ctx, b.ID)
	require.ErrorIs(t, err, models.ErrConflict)
	assert.Contains(t, err.Error(), "cannot delete bay with 4 stations")

	got, err := s.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive())

	empty, _, err := s.Create(ctx, BayInput{Name: "B4", DeviceType: models.DeviceMouse})
	require.NoError(t, err)

	_, err = s.BulkDelete(ctx, []uint{b.ID, empty.ID})
	var inUse *BaysInUseError
	require.True(t, errors.As(err, &inUse))
	require.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, []BayUsage{{Name: "B3", StationCount: 4}}, inUse.Bays)

	// ничего не удалено
	_, err = s.Get(ctx, empty.ID)
	require.NoError(t, err)

	n, err := s.BulkDelete(ctx, []uint{empty.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestBayStoreRenameCascades(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	s := NewBayStore(d)
	st := NewStationStore(d)

	b, _, err := s.Create(ctx, BayInput{Name: "OLD", DeviceType: models.DeviceKeyboard})
	require.NoError(t, err)
	other, _, err := s.Create(ctx, BayInput{Name: "OTHER", DeviceType: models.DeviceKeyboard})
	require.NoError(t, err)
	kb := models.Station{DeviceType: models.DeviceKeyboard, Bay: models.StringPtr("OLD"), StationNumber: models.IntPtr(1)}
	require.NoError(t, st.Create(ctx, &kb))

	_, err = s.Update(ctx, b.ID, BayPatch{Name: models.StringPtr("other")})
	require.ErrorIs(t, err, models.ErrConflict)

	// имя удалённого бэя можно занять
	require.NoError(t, s.Delete(ctx, other.ID))
	w := 80.0
	got, err := s.Update(ctx, b.ID, BayPatch{Name: models.StringPtr("other"), Size: &SizePatch{Width: &w}})
	require.NoError(t, err)
	assert.Equal(t, "OTHER", got.Name)
	assert.Equal(t, 80.0, got.Size.Width)
	assert.Equal(t, models.DefaultBayHeight, got.Size.Height)

	moved, err := st.Get(ctx, kb.ID)
	require.NoError(t, err)
	assert.Equal(t, "OTHER", moved.BayName())

	list, err := s.List(ctx, models.DeviceKeyboard)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 1, list[0].StationsCount)

	_, sts, err := s.WithStations(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, sts, 1)
}

func TestBayStoreBulkPositionsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	s := NewBayStore(openTestDB(t))
	b, _, err := s.Create(ctx, BayInput{Name: "P1", DeviceType: models.DeviceMouse})
	require.NoError(t, err)

	n, err := s.BulkPositions(ctx, []BayPosition{{ID: b.ID, X: 10, Y: 20}, {ID: 999, X: 1, Y: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Point{X: 10, Y: 20}, got.Position)
}
