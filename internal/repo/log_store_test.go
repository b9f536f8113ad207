package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wawengkz/INVENT/internal/models"
)

func TestLogStorePaginationAndFilters(t *testing.T) {
	ctx := context.Background()
	s := NewLogStore(openTestDB(t))
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	audit := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

	var batch []models.Log
	for i := 0; i < 25; i++ {
		act := models.LogUpdate
		if i%5 == 0 {
			act = models.LogCreate
		}
		batch = append(batch, models.Log{
			Action:      act,
			AuditDate:   audit,
			Item:        "CPU",
			Field:       "stock",
			Description: "change",
			UserID:      "alice",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, s.CreateBatch(ctx, batch))

	page, total, err := s.List(ctx, LogFilter{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	require.Len(t, page, 5)
	// новые первыми: на третьей странице самые старые
	assert.True(t, page[4].Timestamp.Equal(base))

	page, total, err = s.List(ctx, LogFilter{Action: models.LogCreate})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 5)

	ad := audit.Add(7 * time.Hour)
	_, total, err = s.List(ctx, LogFilter{AuditDate: &ad})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)

	next := audit.AddDate(0, 0, 1)
	_, total, err = s.List(ctx, LogFilter{AuditDate: &next})
	require.NoError(t, err)
	assert.Zero(t, total)

	n, err := s.Cleanup(ctx, base.Add(10*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 10, n)

	_, total, err = s.List(ctx, LogFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
}

func TestLogStoreKeepsValuesVerbatim(t *testing.T) {
	ctx := context.Background()
	s := NewLogStore(openTestDB(t))
	audit := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	want := map[string][2]string{
		"number": {`5`, `7`},
		"object": {`{"hr":2}`, `{"hr":3}`},
		"string": {`"old"`, `"new"`},
	}
	var batch []models.Log
	i := 0
	for item, v := range want {
		batch = append(batch, models.Log{
			Action:      models.LogUpdate,
			AuditDate:   audit,
			Item:        item,
			Field:       "stock",
			OldValue:    models.LogValue(v[0]),
			NewValue:    models.LogValue(v[1]),
			Description: "x",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
		i++
	}
	batch = append(batch, models.Log{
		Action: models.LogCreate, AuditDate: audit, Item: "empty",
		Description: "x", Timestamp: base.Add(time.Hour),
	})
	require.NoError(t, s.CreateBatch(ctx, batch))

	got, total, err := s.List(ctx, LogFilter{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	for _, l := range got {
		if l.Item == "empty" {
			assert.Empty(t, l.OldValue)
			assert.Empty(t, l.NewValue)
			continue
		}
		assert.Equal(t, want[l.Item][0], string(l.OldValue), l.Item)
		assert.Equal(t, want[l.Item][1], string(l.NewValue), l.Item)
	}
}
