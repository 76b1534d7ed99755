package agenda

import (
	"context"
	"strings"
	"time"

	"condobook/internal/app/dto"
	handlersupport "condobook/internal/app/handlers/support"
	"condobook/internal/app/policies"
	"condobook/internal/app/queries"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/timerange"
)

const (
	ListAllKey      = "agenda.list_all"
	ListMineKey     = "agenda.list_mine"
	ListBulletinKey = "agenda.bulletin"
)

// BulletinWindow is how long a finished item stays on the bulletin.
const BulletinWindow = 24 * time.Hour

// ListAllQuery is the management list over every item of the community.
type ListAllQuery struct {
	Actor     policies.Actor
	AmenityID string
	UnitID    string
	Statuses  []string
	From      *time.Time
	To        *time.Time
	Sort      string
	Paging
}

func (q ListAllQuery) Key() string             { return ListAllKey }
func (q ListAllQuery) Caller() policies.Actor  { return q.Actor }
func (q ListAllQuery) RequiresPrivilege() bool { return true }

type ListAllHandler struct {
	Reader
}

func (h *ListAllHandler) Handle(ctx context.Context, q ListAllQuery) (dto.CalendarPage, error) {
	if err := q.Actor.Validate(); err != nil {
		return dto.CalendarPage{}, err
	}
	if !q.Actor.Privileged {
		return dto.CalendarPage{}, policies.ErrForbidden
	}
	statuses, err := parseStatuses(q.Statuses)
	if err != nil {
		return dto.CalendarPage{}, err
	}
	order, err := domaincalendar.ParseSortOrder(strings.TrimSpace(q.Sort))
	if err != nil {
		return dto.CalendarPage{}, err
	}
	filter := domaincalendar.Filter{
		CommunityID: q.Actor.CommunityID,
		AmenityID:   domainamenity.ID(strings.TrimSpace(q.AmenityID)),
		UnitID:      strings.TrimSpace(q.UnitID),
		Statuses:    statuses,
		Sort:        order,
	}
	switch {
	case q.From != nil && q.To != nil:
		window, err := timerange.New(*q.From, *q.To)
		if err != nil {
			return dto.CalendarPage{}, &domaincalendar.ValidationError{Field: "to", Message: "must be after from"}
		}
		filter.Overlapping = &window
	case q.From != nil:
		filter.EndsAfter = q.From.UTC()
	case q.To != nil:
		filter.StartsBefore = q.To.UTC()
	}
	q.Paging.apply(&filter)
	return h.search(ctx, q.Actor, q.Paging, filter)
}

// ListMineQuery lists the caller's own items, awaiting decisions first.
type ListMineQuery struct {
	Actor    policies.Actor
	Statuses []string
	Paging
}

func (q ListMineQuery) Key() string             { return ListMineKey }
func (q ListMineQuery) Caller() policies.Actor  { return q.Actor }
func (q ListMineQuery) RequiresPrivilege() bool { return false }

type ListMineHandler struct {
	Reader
}

func (h *ListMineHandler) Handle(ctx context.Context, q ListMineQuery) (dto.CalendarPage, error) {
	if err := q.Actor.Validate(); err != nil {
		return dto.CalendarPage{}, err
	}
	statuses, err := parseStatuses(q.Statuses)
	if err != nil {
		return dto.CalendarPage{}, err
	}
	filter := domaincalendar.Filter{
		CommunityID: q.Actor.CommunityID,
		RequesterID: q.Actor.UserID,
		Statuses:    statuses,
		Sort:        domaincalendar.SortPendingFirst,
	}
	q.Paging.apply(&filter)
	return h.search(ctx, q.Actor, q.Paging, filter)
}

// ListBulletinQuery is the public board: confirmed items that have not ended
// more than a day ago, on amenities shown on the bulletin or general entries.
type ListBulletinQuery struct {
	Actor policies.Actor
	Paging
}

func (q ListBulletinQuery) Key() string             { return ListBulletinKey }
func (q ListBulletinQuery) Caller() policies.Actor  { return q.Actor }
func (q ListBulletinQuery) RequiresPrivilege() bool { return false }

type ListBulletinHandler struct {
	Reader
}

func (h *ListBulletinHandler) Handle(ctx context.Context, q ListBulletinQuery) (dto.CalendarPage, error) {
	if err := q.Actor.Validate(); err != nil {
		return dto.CalendarPage{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CalendarPage{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	amenities, err := amenityIndex(execCtx, unit, q.Actor.CommunityID)
	if err != nil {
		return dto.CalendarPage{}, err
	}
	visible := make([]domainamenity.ID, 0, len(amenities))
	for id, amenity := range amenities {
		if amenity.ShowOnBulletin {
			visible = append(visible, id)
		}
	}
	filter := domaincalendar.Filter{
		CommunityID:    q.Actor.CommunityID,
		Amenities:      visible,
		IncludeGeneral: true,
		Statuses:       []domaincalendar.Status{domaincalendar.StatusConfirmed},
		EndsAfter:      h.now().Add(-BulletinWindow),
		Sort:           domaincalendar.SortStartAsc,
	}
	q.Paging.apply(&filter)
	page, err := unit.Calendar().Search(execCtx, filter)
	if err != nil {
		return dto.CalendarPage{}, err
	}
	return q.Paging.wrap(render(page.Items, amenities, q.Actor), page.Total), nil
}

func (r *Reader) search(ctx context.Context, actor policies.Actor, paging Paging, filter domaincalendar.Filter) (dto.CalendarPage, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, r.UoWFactory)
	if err != nil {
		return dto.CalendarPage{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	page, err := unit.Calendar().Search(execCtx, filter)
	if err != nil {
		return dto.CalendarPage{}, err
	}
	amenities, err := amenityIndex(execCtx, unit, actor.CommunityID)
	if err != nil {
		return dto.CalendarPage{}, err
	}
	if r.Logger != nil {
		r.Logger.Debug("calendar searched", "community_id", actor.CommunityID, "total", page.Total)
	}
	return paging.wrap(render(page.Items, amenities, actor), page.Total), nil
}

var (
	_ queries.Handler[ListAllQuery, dto.CalendarPage]      = (*ListAllHandler)(nil)
	_ queries.Handler[ListMineQuery, dto.CalendarPage]     = (*ListMineHandler)(nil)
	_ queries.Handler[ListBulletinQuery, dto.CalendarPage] = (*ListBulletinHandler)(nil)
)
