package uow

import (
	"context"
	"errors"

	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
)

// ErrConcurrentUpdate is returned when another writer won the race for the
// same aggregate or amenity lock. The operation may be retried.
var ErrConcurrentUpdate = errors.New("uow: concurrent update")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Amenities() domainamenity.Repository
	Calendar() domaincalendar.Repository

	// LockAmenity serializes every admission decision for one amenity until
	// the unit commits or rolls back. Conflict and quota checks must run
	// after the lock is held.
	LockAmenity(ctx context.Context, id domainamenity.ID) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
