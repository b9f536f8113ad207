package repo

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/wawengkz/INVENT/internal/models"
)

// wrapErr переводит ошибки gorm в доменные: запись не найдена -> ErrNotFound,
// нарушение уникальности -> ErrConflict.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err):
		return fmt.Errorf("%s: %v: %w", op, err, models.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueViolation: запасной вариант для драйверов без TranslateError.
func isUniqueViolation(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "duplicate entry")
}
