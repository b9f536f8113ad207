package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/wawengkz/INVENT/internal/models"
)

type DepartmentStore struct{ db *gorm.DB }

func NewDepartmentStore(db *gorm.DB) *DepartmentStore { return &DepartmentStore{db: db} }

// List: при active == nil все отделы.
func (s *DepartmentStore) List(ctx context.Context, active *bool) ([]models.Department, error) {
	q := s.db.WithContext(ctx)
	if active != nil {
		q = q.Where("is_active = ?", *active)
	}
	var out []models.Department
	if err := q.Order("sort_order").Order("created_at").Order("id").Find(&out).Error; err != nil {
		return nil, wrapErr("list departments", err)
	}
	return out, nil
}

// ActiveNames: имена активных отделов в порядке сортировки.
func (s *DepartmentStore) ActiveNames(ctx context.Context) ([]string, error) {
	on := true
	deps, err := s.List(ctx, &on)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.Name
	}
	return names, nil
}

func (s *DepartmentStore) Get(ctx context.Context, id uint) (*models.Department, error) {
	var d models.Department
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, wrapErr(fmt.Sprintf("department %d", id), err)
	}
	return &d, nil
}

type DepartmentInput struct {
	Name     *string `json:"name"`
	Label    *string `json:"label"`
	Order    *int    `json:"order"`
	IsActive *bool   `json:"isActive"`
}

func (s *DepartmentStore) nameTaken(ctx context.Context, name string, exceptID uint) error {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Department{}).
		Where("name = ? AND id <> ?", name, exceptID).Count(&n).Error
	if err != nil {
		return wrapErr("check department name", err)
	}
	if n > 0 {
		return fmt.Errorf("department with name %q already exists: %w", name, models.ErrConflict)
	}
	return nil
}

// Create: имя в нижнем регистре, метка в верхнем; без order берётся max+1.
func (s *DepartmentStore) Create(ctx context.Context, in DepartmentInput) (*models.Department, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("department name is required: %w", models.ErrInvalid)
	}
	if in.Label == nil || strings.TrimSpace(*in.Label) == "" {
		return nil, fmt.Errorf("department label is required: %w", models.ErrInvalid)
	}
	d := models.Department{
		Name:     strings.ToLower(strings.TrimSpace(*in.Name)),
		Label:    strings.ToUpper(strings.TrimSpace(*in.Label)),
		IsActive: true,
	}
	if err := s.nameTaken(ctx, d.Name, 0); err != nil {
		return nil, err
	}
	if in.Order != nil {
		d.Order = *in.Order
	} else {
		var last models.Department
		err := s.db.WithContext(ctx).Order("sort_order DESC").First(&last).Error
		switch {
		case err == nil:
			d.Order = last.Order + 1
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, wrapErr("department order", err)
		}
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, wrapErr("create department", err)
	}
	return &d, nil
}

func (s *DepartmentStore) Update(ctx context.Context, id uint, in DepartmentInput) (*models.Department, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.ToLower(strings.TrimSpace(*in.Name))
		if name == "" {
			return nil, fmt.Errorf("department name cannot be empty: %w", models.ErrInvalid)
		}
		if name != d.Name {
			if err := s.nameTaken(ctx, name, d.ID); err != nil {
				return nil, err
			}
		}
		d.Name = name
	}
	if in.Label != nil {
		label := strings.ToUpper(strings.TrimSpace(*in.Label))
		if label == "" {
			return nil, fmt.Errorf("department label cannot be empty: %w", models.ErrInvalid)
		}
		d.Label = label
	}
	if in.Order != nil {
		d.Order = *in.Order
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}
	if err := s.db.WithContext(ctx).Save(d).Error; err != nil {
		return nil, wrapErr("update department", err)
	}
	return d, nil
}

func (s *DepartmentStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Department{}, id)
	if res.Error != nil {
		return wrapErr("delete department", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("department %d: %w", id, models.ErrNotFound)
	}
	return nil
}

type DepartmentOrder struct {
	ID    uint `json:"id"`
	Order int  `json:"order"`
}

// Reorder обновляет порядок пачкой в одной транзакции.
func (s *DepartmentStore) Reorder(ctx context.Context, in []DepartmentOrder) ([]models.Department, error) {
	out := make([]models.Department, 0, len(in))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ts := &DepartmentStore{db: tx}
		for _, o := range in {
			d, err := ts.Get(ctx, o.ID)
			if err != nil {
				return err
			}
			d.Order = o.Order
			if err := tx.Save(d).Error; err != nil {
				return wrapErr("reorder department", err)
			}
			out = append(out, *d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InitDefaults создаёт стандартный набор; если отделы уже есть: Conflict.
func (s *DepartmentStore) InitDefaults(ctx context.Context) ([]models.Department, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Department{}).Count(&n).Error; err != nil {
		return nil, wrapErr("count departments", err)
	}
	if n > 0 {
		return nil, fmt.Errorf("departments already initialized: %w", models.ErrConflict)
	}
	deps := make([]models.Department, len(models.DefaultDepartments))
	copy(deps, models.DefaultDepartments)
	if err := s.db.WithContext(ctx).Create(&deps).Error; err != nil {
		return nil, wrapErr("init departments", err)
	}
	return deps, nil
}
