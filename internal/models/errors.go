package models

import "errors"

// Базовые ошибки домена. Все слои оборачивают их через fmt.Errorf("...: %w"),
// а HTTP-слой сопоставляет их со статусами через errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid input")
)
