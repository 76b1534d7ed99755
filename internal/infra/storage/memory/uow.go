package memory

import (
	"context"
	"errors"
	"sync"

	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
)

var (
	// ErrFactoryMisconfigured indicates missing stores.
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrUnitClosed           = errors.New("memory: unit of work already finished")
	ErrReadOnly             = errors.New("memory: read-only unit of work")
)

// Factory opens units over shared in-memory stores. Writes are staged in the
// unit and applied atomically on Commit with optimistic version checks.
type Factory struct {
	Amenities *AmenityStore
	Calendar  *CalendarStore
	locks     *amenityLocks
	once      sync.Once
}

func NewFactory() *Factory {
	return &Factory{Amenities: NewAmenityStore(), Calendar: NewCalendarStore()}
}

func (f *Factory) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Amenities == nil || f.Calendar == nil {
		return nil, ErrFactoryMisconfigured
	}
	f.once.Do(func() { f.locks = newAmenityLocks() })
	return &Unit{
		factory:   f,
		readOnly:  opts.ReadOnly,
		amenities: newAmenityTx(f.Amenities),
		calendar:  newCalendarTx(f.Calendar),
		held:      make(map[domainamenity.ID]struct{}),
	}, nil
}

type Unit struct {
	factory   *Factory
	readOnly  bool
	amenities *amenityTx
	calendar  *calendarTx
	held      map[domainamenity.ID]struct{}
	done      bool
}

func (u *Unit) Amenities() domainamenity.Repository { return u.amenities }
func (u *Unit) Calendar() domaincalendar.Repository { return u.calendar }

// LockAmenity takes the amenity's slot until the unit finishes. Locking an
// amenity already held by this unit is a no-op.
func (u *Unit) LockAmenity(ctx context.Context, id domainamenity.ID) error {
	if u.done {
		return ErrUnitClosed
	}
	if _, ok := u.held[id]; ok {
		return nil
	}
	if err := u.factory.locks.acquire(ctx, id); err != nil {
		return err
	}
	u.held[id] = struct{}{}
	return nil
}

func (u *Unit) Commit(context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	defer u.finish()
	staged := len(u.amenities.saved) + len(u.amenities.deleted) + len(u.calendar.saved)
	if staged == 0 {
		return nil
	}
	if u.readOnly {
		return ErrReadOnly
	}
	f := u.factory
	f.Amenities.mu.Lock()
	defer f.Amenities.mu.Unlock()
	f.Calendar.mu.Lock()
	defer f.Calendar.mu.Unlock()
	if err := u.amenities.check(); err != nil {
		return err
	}
	if err := u.calendar.check(); err != nil {
		return err
	}
	u.amenities.apply()
	u.calendar.apply()
	return nil
}

func (u *Unit) Rollback(context.Context) error {
	if u.done {
		return nil
	}
	u.finish()
	return nil
}

func (u *Unit) finish() {
	u.done = true
	for id := range u.held {
		u.factory.locks.release(id)
	}
	u.held = nil
}

var (
	_ uow.UoWFactory = (*Factory)(nil)
	_ uow.UnitOfWork = (*Unit)(nil)
)
