package memory

import (
	"context"
	"sync"

	"condobook/internal/app/uow"
	domaincalendar "condobook/internal/domain/calendar"
)

// CalendarStore keeps committed calendar items.
type CalendarStore struct {
	mu    sync.RWMutex
	items map[domaincalendar.ItemID]*domaincalendar.Item
}

func NewCalendarStore() *CalendarStore {
	return &CalendarStore{items: make(map[domaincalendar.ItemID]*domaincalendar.Item)}
}

func (s *CalendarStore) get(id domaincalendar.ItemID) (*domaincalendar.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return cloneItem(item), ok
}

func (s *CalendarStore) snapshot() map[domaincalendar.ItemID]*domaincalendar.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domaincalendar.ItemID]*domaincalendar.Item, len(s.items))
	for id, item := range s.items {
		out[id] = cloneItem(item)
	}
	return out
}

// Len reports the number of committed items.
func (s *CalendarStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

type calendarTx struct {
	store *CalendarStore
	saved map[domaincalendar.ItemID]*domaincalendar.Item
}

func newCalendarTx(store *CalendarStore) *calendarTx {
	return &calendarTx{store: store, saved: make(map[domaincalendar.ItemID]*domaincalendar.Item)}
}

func (t *calendarTx) ByID(_ context.Context, id domaincalendar.ItemID) (*domaincalendar.Item, error) {
	if item, ok := t.saved[id]; ok {
		return cloneItem(item), nil
	}
	if item, ok := t.store.get(id); ok {
		return item, nil
	}
	return nil, domaincalendar.ErrItemNotFound
}

func (t *calendarTx) Search(_ context.Context, filter domaincalendar.Filter) (domaincalendar.Page, error) {
	merged := t.store.snapshot()
	for id, item := range t.saved {
		merged[id] = cloneItem(item)
	}
	all := make([]*domaincalendar.Item, 0, len(merged))
	for _, item := range merged {
		all = append(all, item)
	}
	return filter.Apply(all), nil
}

func (t *calendarTx) Save(_ context.Context, item *domaincalendar.Item) error {
	t.saved[item.ID] = cloneItem(item)
	return nil
}

func (t *calendarTx) check() error {
	for id, item := range t.saved {
		current, ok := t.store.items[id]
		if ok && current.Version != item.Version || !ok && item.Version != 0 {
			return uow.ErrConcurrentUpdate
		}
	}
	return nil
}

func (t *calendarTx) apply() {
	for id, item := range t.saved {
		stored := cloneItem(item)
		stored.Version++
		t.store.items[id] = stored
	}
}

var _ domaincalendar.Repository = (*calendarTx)(nil)
