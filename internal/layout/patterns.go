package layout

import (
	"math"
	"strings"

	"github.com/wawengkz/INVENT/internal/models"
)

type Pattern string

const (
	PatternGrid      Pattern = "grid"
	PatternRow       Pattern = "row"
	PatternCircle    Pattern = "circle"
	PatternStaggered Pattern = "staggered"
)

const (
	DefaultSpacing = 60.0
	DefaultRadius  = 100.0
)

var Patterns = []Pattern{PatternGrid, PatternRow, PatternCircle, PatternStaggered}

// ParsePattern: пустая строка означает grid, неизвестное имя даёт false (HTTP-слой отвечает 400).
func ParsePattern(s string) (Pattern, bool) {
	p := Pattern(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PatternGrid, true
	}
	for _, known := range Patterns {
		if p == known {
			return p, true
		}
	}
	return PatternGrid, false
}

// Positions возвращает ровно n координат для паттерна; неизвестный паттерн: grid.
// spacing <= 0: значение по умолчанию; для circle spacing задаёт радиус.
func Positions(p Pattern, n int, spacing float64) []models.Point {
	switch p {
	case PatternRow:
		return Row(n, spacing)
	case PatternCircle:
		return Circle(n, spacing)
	case PatternStaggered:
		return Staggered(n, spacing)
	default:
		return Grid(n, spacing)
	}
}

func Grid(n int, spacing float64) []models.Point {
	if n <= 0 {
		return []models.Point{}
	}
	spacing = orDefault(spacing, DefaultSpacing)
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	out := make([]models.Point, n)
	for i := range out {
		out[i] = models.Point{X: float64(i%cols) * spacing, Y: float64(i/cols) * spacing}
	}
	return out
}

func Row(n int, spacing float64) []models.Point {
	if n <= 0 {
		return []models.Point{}
	}
	spacing = orDefault(spacing, DefaultSpacing)
	out := make([]models.Point, n)
	for i := range out {
		out[i] = models.Point{X: float64(i) * spacing}
	}
	return out
}

// Circle раскладывает по окружности радиуса radius с центром (radius, radius),
// так что все координаты неотрицательны.
func Circle(n int, radius float64) []models.Point {
	if n <= 0 {
		return []models.Point{}
	}
	radius = orDefault(radius, DefaultRadius)
	step := 2 * math.Pi / float64(n)
	out := make([]models.Point, n)
	for i := range out {
		a := float64(i) * step
		out[i] = models.Point{X: radius + math.Cos(a)*radius, Y: radius + math.Sin(a)*radius}
	}
	return out
}

// Staggered: как grid, нечётные ряды сдвинуты на spacing/2 («кирпичная кладка»).
func Staggered(n int, spacing float64) []models.Point {
	if n <= 0 {
		return []models.Point{}
	}
	spacing = orDefault(spacing, DefaultSpacing)
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	out := make([]models.Point, n)
	for i := range out {
		row, col := i/cols, i%cols
		offset := float64(row%2) * (spacing / 2)
		out[i] = models.Point{X: float64(col)*spacing + offset, Y: float64(row) * spacing}
	}
	return out
}

func orDefault(v, def float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// jsRound: округление половины вверх (как на фронтенде), а не от нуля.
func jsRound(v float64) float64 { return math.Floor(v + 0.5) }
