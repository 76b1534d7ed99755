package memory

import (
	"context"
	"sync"

	domainamenity "condobook/internal/domain/amenity"
)

// amenityLocks hands out one exclusive slot per amenity.
type amenityLocks struct {
	mu    sync.Mutex
	slots map[domainamenity.ID]chan struct{}
}

func newAmenityLocks() *amenityLocks {
	return &amenityLocks{slots: make(map[domainamenity.ID]chan struct{})}
}

func (l *amenityLocks) slot(id domainamenity.ID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[id] = ch
	}
	return ch
}

// acquire blocks until the amenity is free or ctx is done.
func (l *amenityLocks) acquire(ctx context.Context, id domainamenity.ID) error {
	select {
	case l.slot(id) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *amenityLocks) release(id domainamenity.ID) {
	<-l.slot(id)
}
