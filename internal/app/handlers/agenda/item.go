package agenda

import (
	"context"
	"errors"
	"strings"

	"condobook/internal/app/dto"
	handlersupport "condobook/internal/app/handlers/support"
	"condobook/internal/app/policies"
	"condobook/internal/app/queries"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
)

const GetItemKey = "agenda.item"

type GetItemQuery struct {
	Actor  policies.Actor
	ItemID string `validate:"required"`
}

func (q GetItemQuery) Key() string             { return GetItemKey }
func (q GetItemQuery) Caller() policies.Actor  { return q.Actor }
func (q GetItemQuery) RequiresPrivilege() bool { return false }

type GetItemHandler struct {
	Reader
}

// Handle returns ErrItemNotFound for items the caller may not see, so their
// existence is not disclosed.
func (h *GetItemHandler) Handle(ctx context.Context, q GetItemQuery) (dto.CalendarItem, error) {
	if err := q.Actor.Validate(); err != nil {
		return dto.CalendarItem{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CalendarItem{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	item, err := unit.Calendar().ByID(execCtx, domaincalendar.ItemID(strings.TrimSpace(q.ItemID)))
	if err != nil {
		return dto.CalendarItem{}, err
	}
	if item.CommunityID != q.Actor.CommunityID {
		return dto.CalendarItem{}, domaincalendar.ErrItemNotFound
	}
	var amenity *domainamenity.Amenity
	if id, ok := item.AmenityID(); ok {
		amenity, err = unit.Amenities().ByID(execCtx, id)
		if err != nil && !errors.Is(err, domainamenity.ErrNotFound) {
			return dto.CalendarItem{}, err
		}
	}
	if !Visible(item, amenity, q.Actor) {
		return dto.CalendarItem{}, domaincalendar.ErrItemNotFound
	}
	return dto.MapCalendarItem(item, amenity, q.Actor.UserID), nil
}

// Visible reports whether actor may open the item's detail. General entries
// are community-wide announcements and always visible.
func Visible(item *domaincalendar.Item, amenity *domainamenity.Amenity, actor policies.Actor) bool {
	switch {
	case actor.Privileged, item.OwnedBy(actor.UserID), item.IsGeneral():
		return true
	case amenity != nil:
		return amenity.PublicDetails
	default:
		return false
	}
}

var _ queries.Handler[GetItemQuery, dto.CalendarItem] = (*GetItemHandler)(nil)
