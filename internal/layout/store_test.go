package layout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wawengkz/INVENT/internal/models"
)

// memStore: хранилище станций в памяти для тестов движка.
type memStore struct {
	mu       sync.Mutex
	seq      uint
	stations map[uint]models.Station
	bays     map[bayKey]models.Bay
	failSave int // >0: n-я запись (create/save) вернёт ошибку
	writes   int
}

func newMemStore() *memStore {
	return &memStore{stations: map[uint]models.Station{}, bays: map[bayKey]models.Bay{}}
}

var errBoom = errors.New("boom")

func (m *memStore) add(st models.Station) models.Station {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	st.ID = m.seq
	if st.DeviceType == "" {
		st.DeviceType = models.DeviceMouse
	}
	st.IsActive = true
	m.stations[st.ID] = st
	return st
}

func (m *memStore) station(bay string, num int, x, y float64) models.Station {
	return m.add(models.Station{
		Bay:           models.StringPtr(bay),
		StationNumber: models.IntPtr(num),
		Position:      models.Point{X: x, Y: y},
	})
}

func (m *memStore) get(id uint) models.Station {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stations[id]
}

func (m *memStore) ListStations(_ context.Context, f StationFilter) ([]models.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := map[uint]bool{}
	for _, id := range f.IDs {
		ids[id] = true
	}
	out := []models.Station{}
	for _, st := range m.stations {
		if !st.IsActive {
			continue
		}
		if f.DeviceType != "" && st.DeviceType != f.DeviceType {
			continue
		}
		if f.Bay != nil && st.BayName() != *f.Bay {
			continue
		}
		if len(ids) > 0 && !ids[st.ID] {
			continue
		}
		out = append(out, st)
	}
	// порядок map случайный: движок не должен на него полагаться
	return out, nil
}

func (m *memStore) FindStation(_ context.Context, id uint) (*models.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stations[id]
	if !ok {
		return nil, fmt.Errorf("station %d: %w", id, models.ErrNotFound)
	}
	return &st, nil
}

func (m *memStore) write() error {
	m.writes++
	if m.failSave > 0 && m.writes == m.failSave {
		return errBoom
	}
	return nil
}

func (m *memStore) CreateStation(_ context.Context, st *models.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.write(); err != nil {
		return err
	}
	m.seq++
	st.ID = m.seq
	m.stations[st.ID] = *st
	return nil
}

func (m *memStore) SaveStation(_ context.Context, st *models.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.write(); err != nil {
		return err
	}
	m.stations[st.ID] = *st
	return nil
}

func (m *memStore) MaxStationNumber(_ context.Context, dt models.DeviceType) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, st := range m.stations {
		if st.IsActive && st.DeviceType == dt && st.StationNumber != nil && *st.StationNumber > max {
			max = *st.StationNumber
		}
	}
	return max, nil
}

func (m *memStore) DeactivateBayStations(_ context.Context, bay string, dt models.DeviceType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, st := range m.stations {
		if st.IsActive && st.DeviceType == dt && st.BayName() == bay {
			st.IsActive = false
			m.stations[id] = st
			n++
		}
	}
	return n, nil
}

func (m *memStore) FindBay(_ context.Context, name string, dt models.DeviceType) (*models.Bay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bays[bayKey{name, dt}]
	if !ok {
		return nil, fmt.Errorf("bay %s: %w", name, models.ErrNotFound)
	}
	return &b, nil
}

func (m *memStore) CreateBay(_ context.Context, b *models.Bay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uint(len(m.bays) + 1)
	m.bays[bayKey{b.Name, b.DeviceType}] = *b
	return nil
}

// txStore откатывает все записи, если fn вернула ошибку.
type txStore struct {
	*memStore
	txCalls int
}

func (t *txStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	t.txCalls++
	t.mu.Lock()
	snapshot := make(map[uint]models.Station, len(t.stations))
	for k, v := range t.stations {
		snapshot[k] = v
	}
	seq := t.seq
	t.mu.Unlock()

	if err := fn(t.memStore); err != nil {
		t.mu.Lock()
		t.stations, t.seq = snapshot, seq
		t.mu.Unlock()
		return err
	}
	return nil
}
