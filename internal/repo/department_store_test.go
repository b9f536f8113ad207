package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wawengkz/INVENT/internal/models"
)

func TestDepartmentStore(t *testing.T) {
	ctx := context.Background()
	s := NewDepartmentStore(openTestDB(t))

	deps, err := s.InitDefaults(ctx)
	require.NoError(t, err)
	assert.Len(t, deps, len(models.DefaultDepartments))

	_, err = s.InitDefaults(ctx)
	require.ErrorIs(t, err, models.ErrConflict)

	d, err := s.Create(ctx, DepartmentInput{Name: models.StringPtr(" QA "), Label: models.StringPtr("quality")})
	require.NoError(t, err)
	assert.Equal(t, "qa", d.Name)
	assert.Equal(t, "QUALITY", d.Label)
	assert.Equal(t, len(models.DefaultDepartments), d.Order)

	_, err = s.Create(ctx, DepartmentInput{Name: models.StringPtr("HR"), Label: models.StringPtr("x")})
	require.ErrorIs(t, err, models.ErrConflict)

	_, err = s.Create(ctx, DepartmentInput{Name: models.StringPtr("x")})
	require.ErrorIs(t, err, models.ErrInvalid)

	off := false
	_, err = s.Update(ctx, d.ID, DepartmentInput{IsActive: &off})
	require.NoError(t, err)

	names, err := s.ActiveNames(ctx)
	require.NoError(t, err)
	assert.NotContains(t, names, "qa")
	assert.Equal(t, "firstprod", names[0])

	all, err := s.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, len(models.DefaultDepartments)+1)

	// qa переезжает в начало
	_, err = s.Reorder(ctx, []DepartmentOrder{{ID: d.ID, Order: -1}})
	require.NoError(t, err)
	all, err = s.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "qa", all[0].Name)

	_, err = s.Reorder(ctx, []DepartmentOrder{{ID: 999, Order: 1}})
	require.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.Delete(ctx, d.ID))
	require.ErrorIs(t, s.Delete(ctx, d.ID), models.ErrNotFound)
}
