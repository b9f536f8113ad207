// Package layout рассчитывает и меняет раскладку станций на 2D-карте:
// паттерны расстановки, валидация, автоисправление, дублирование бэев,
// шаблоны, перенумерация и статистика.
//
// Движок без состояния. Блокировок нет: параллельные arrange/renumber/duplicate
// по одному бэю могут гоняться и дать несогласованную нумерацию.
package layout

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wawengkz/INVENT/internal/logs"
	"github.com/wawengkz/INVENT/internal/models"
)

// StationFilter: выборка активных станций.
type StationFilter struct {
	DeviceType models.DeviceType // пусто: все типы
	Bay        *string           // nil: любой бэй
	IDs        []uint
}

// Store хранит станции. Каждая запись идёт отдельным вызовом, без транзакций.
type Store interface {
	// ListStations возвращает только активные станции.
	ListStations(ctx context.Context, f StationFilter) ([]models.Station, error)
	// FindStation ищет по id (ErrNotFound, если нет).
	FindStation(ctx context.Context, id uint) (*models.Station, error)
	CreateStation(ctx context.Context, st *models.Station) error
	SaveStation(ctx context.Context, st *models.Station) error
	// MaxStationNumber: максимальный номер среди активных станций типа, 0 если нет.
	MaxStationNumber(ctx context.Context, dt models.DeviceType) (int, error)
	DeactivateBayStations(ctx context.Context, bay string, dt models.DeviceType) (int64, error)
}

// Transactor: необязательная возможность хранилища выполнить пакет записей атомарно.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// BayStore нужен только для SyncBays.
type BayStore interface {
	// FindBay ищет бэй в любом состоянии.
	FindBay(ctx context.Context, name string, dt models.DeviceType) (*models.Bay, error)
	CreateBay(ctx context.Context, b *models.Bay) error
}

type Options struct {
	// Transactional: duplicate / from-template / renumber / clone в одной транзакции,
	// если Store реализует Transactor.
	Transactional bool
	// RenumberCollisionCheck: отклонять перенумерацию, если целевой номер занят
	// активной станцией вне бэя. По умолчанию выключено.
	RenumberCollisionCheck bool
}

type Engine struct {
	stations Store
	bays     BayStore
	opts     Options
	now      func() time.Time
	log      logrus.FieldLogger
}

func New(stations Store, bays BayStore, opts Options) *Engine {
	return &Engine{
		stations: stations,
		bays:     bays,
		opts:     opts,
		now:      time.Now,
		log:      logs.L(),
	}
}

// WithClock подменяет часы (тесты).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// write выполняет пакет записей: в транзакции, если она включена и доступна.
func (e *Engine) write(ctx context.Context, fn func(s Store) error) error {
	if e.opts.Transactional {
		if tx, ok := e.stations.(Transactor); ok {
			return tx.InTx(ctx, fn)
		}
	}
	return fn(e.stations)
}

func bayFilter(bay string, dt models.DeviceType) StationFilter {
	return StationFilter{DeviceType: dt, Bay: &bay}
}

// sortByNumber: сначала без номера, затем по номеру, затем по id.
func sortByNumber(sts []models.Station) {
	sort.SliceStable(sts, func(i, j int) bool {
		a, b := sts[i].StationNumber, sts[j].StationNumber
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && *a != *b:
			return *a < *b
		}
		return sts[i].ID < sts[j].ID
	})
}

func sortByID(sts []models.Station) {
	sort.SliceStable(sts, func(i, j int) bool { return sts[i].ID < sts[j].ID })
}
