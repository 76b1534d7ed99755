package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"condobook/internal/app/dto"
	"condobook/internal/app/outbox"
	"condobook/internal/app/policies"
	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/timerange"
)

var ErrPolicyRequired = errors.New("booking: admission policy required")

// Workflow holds the collaborators every booking handler needs.
type Workflow struct {
	UoWFactory uow.UoWFactory
	Policy     *domaincalendar.AdmissionPolicy
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (w *Workflow) encoder() outbox.EventEncoder {
	if w.Encoder != nil {
		return w.Encoder
	}
	return outbox.JSONEventEncoder{}
}

// loadItem fetches an item of the actor's community. Items of other
// communities are reported as missing.
func loadItem(ctx context.Context, unit uow.UnitOfWork, actor policies.Actor, id string) (*domaincalendar.Item, error) {
	item, err := unit.Calendar().ByID(ctx, domaincalendar.ItemID(strings.TrimSpace(id)))
	if err != nil {
		return nil, err
	}
	if item.CommunityID != actor.CommunityID {
		return nil, domaincalendar.ErrItemNotFound
	}
	return item, nil
}

func loadAmenity(ctx context.Context, unit uow.UnitOfWork, communityID string, id domainamenity.ID) (*domainamenity.Amenity, error) {
	amenity, err := unit.Amenities().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if amenity.CommunityID != communityID {
		return nil, domainamenity.ErrNotFound
	}
	return amenity, nil
}

// admit locks the amenity, reloads it under the lock and evaluates rng
// against its current bookings. An amenity deleted while waiting for the lock
// is reported as missing. The lock stays held until the unit finishes.
func (w *Workflow) admit(ctx context.Context, unit uow.UnitOfWork, communityID string, id domainamenity.ID, rng timerange.Interval, unitID string, exclude domaincalendar.ItemID) (*domainamenity.Amenity, error) {
	if err := unit.LockAmenity(ctx, id); err != nil {
		return nil, err
	}
	amenity, err := loadAmenity(ctx, unit, communityID, id)
	if err != nil {
		return nil, err
	}
	window := w.Policy.AdmissionWindow(rng)
	existing, err := unit.Calendar().Search(ctx, domaincalendar.Filter{
		CommunityID: amenity.CommunityID,
		AmenityID:   amenity.ID,
		Statuses:    domaincalendar.ActiveStatuses(),
		Overlapping: &window,
		ExcludeID:   exclude,
	})
	if err != nil {
		return nil, err
	}
	err = w.Policy.Evaluate(domaincalendar.AdmissionRequest{
		Amenity:   amenity,
		Range:     rng,
		UnitID:    unitID,
		Existing:  existing.Items,
		ExcludeID: exclude,
	})
	if err != nil {
		return nil, err
	}
	return amenity, nil
}

// persist saves item and queues its pending domain events in the same unit.
func (w *Workflow) persist(ctx context.Context, unit uow.UnitOfWork, item *domaincalendar.Item) error {
	if err := unit.Calendar().Save(ctx, item); err != nil {
		return err
	}
	return outbox.RecordDomainEvents(ctx, w.Outbox, w.encoder(), item.DrainEvents())
}

func (w *Workflow) notify(ctx context.Context, item *domaincalendar.Item, template string) {
	policies.NotifyQuietly(ctx, w.Notifier, w.Logger, item.RequesterID, template, policies.NoticeOf(item))
}

func (w *Workflow) logTransition(msg string, item *domaincalendar.Item, actorID string) {
	if w.Logger == nil {
		return
	}
	amenityID, _ := item.AmenityID()
	w.Logger.Info(msg, "item_id", item.ID, "amenity_id", amenityID, "status", item.Status.String(), "actor_id", actorID)
}

// amenityFor resolves the amenity for display. A missing amenity is not an
// error for decisions on existing items.
func (w *Workflow) amenityFor(ctx context.Context, unit uow.UnitOfWork, item *domaincalendar.Item) *domainamenity.Amenity {
	id, ok := item.AmenityID()
	if !ok {
		return nil
	}
	amenity, err := unit.Amenities().ByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domainamenity.ErrNotFound) && w.Logger != nil {
			w.Logger.Warn("amenity lookup failed", "item_id", item.ID, "amenity_id", id, "error", err)
		}
		return nil
	}
	return amenity
}

func view(item *domaincalendar.Item, amenity *domainamenity.Amenity, callerID string) *dto.CalendarItem {
	v := dto.MapCalendarItem(item, amenity, callerID)
	return &v
}
