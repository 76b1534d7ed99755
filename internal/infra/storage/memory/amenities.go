package memory

import (
	"context"
	"sort"
	"sync"

	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
)

// AmenityStore keeps committed amenities.
type AmenityStore struct {
	mu    sync.RWMutex
	items map[domainamenity.ID]*domainamenity.Amenity
}

func NewAmenityStore() *AmenityStore {
	return &AmenityStore{items: make(map[domainamenity.ID]*domainamenity.Amenity)}
}

func (s *AmenityStore) get(id domainamenity.ID) (*domainamenity.Amenity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.items[id]
	return cloneAmenity(a), ok
}

func (s *AmenityStore) list() []*domainamenity.Amenity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domainamenity.Amenity, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, cloneAmenity(a))
	}
	return out
}

// Seed stores amenities outside any unit of work. Used for fixtures.
func (s *AmenityStore) Seed(list ...*domainamenity.Amenity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range list {
		if a != nil {
			s.items[a.ID] = cloneAmenity(a)
		}
	}
}

// amenityTx stages amenity writes of one unit.
type amenityTx struct {
	store   *AmenityStore
	saved   map[domainamenity.ID]*domainamenity.Amenity
	deleted map[domainamenity.ID]int64
}

func newAmenityTx(store *AmenityStore) *amenityTx {
	return &amenityTx{
		store:   store,
		saved:   make(map[domainamenity.ID]*domainamenity.Amenity),
		deleted: make(map[domainamenity.ID]int64),
	}
}

func (t *amenityTx) ByID(_ context.Context, id domainamenity.ID) (*domainamenity.Amenity, error) {
	if _, gone := t.deleted[id]; gone {
		return nil, domainamenity.ErrNotFound
	}
	if a, ok := t.saved[id]; ok {
		return cloneAmenity(a), nil
	}
	if a, ok := t.store.get(id); ok {
		return a, nil
	}
	return nil, domainamenity.ErrNotFound
}

func (t *amenityTx) ListByCommunity(_ context.Context, communityID string) ([]*domainamenity.Amenity, error) {
	merged := make(map[domainamenity.ID]*domainamenity.Amenity)
	for _, a := range t.store.list() {
		merged[a.ID] = a
	}
	for id, a := range t.saved {
		merged[id] = cloneAmenity(a)
	}
	out := make([]*domainamenity.Amenity, 0, len(merged))
	for id, a := range merged {
		if _, gone := t.deleted[id]; gone || a.CommunityID != communityID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *amenityTx) Save(_ context.Context, a *domainamenity.Amenity) error {
	delete(t.deleted, a.ID)
	t.saved[a.ID] = cloneAmenity(a)
	return nil
}

func (t *amenityTx) Delete(ctx context.Context, id domainamenity.ID) error {
	current, err := t.ByID(ctx, id)
	if err != nil {
		return err
	}
	delete(t.saved, id)
	t.deleted[id] = current.Version
	return nil
}

// check reports a stale write. The caller holds the store lock.
func (t *amenityTx) check() error {
	for id, a := range t.saved {
		current, ok := t.store.items[id]
		if ok && current.Version != a.Version || !ok && a.Version != 0 {
			return uow.ErrConcurrentUpdate
		}
	}
	for id, version := range t.deleted {
		if current, ok := t.store.items[id]; ok && current.Version != version {
			return uow.ErrConcurrentUpdate
		}
	}
	return nil
}

func (t *amenityTx) apply() {
	for id, a := range t.saved {
		stored := cloneAmenity(a)
		stored.Version++
		t.store.items[id] = stored
	}
	for id := range t.deleted {
		delete(t.store.items, id)
	}
}

var _ domainamenity.Repository = (*amenityTx)(nil)
