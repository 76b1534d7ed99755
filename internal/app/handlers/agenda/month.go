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

const GetAgendaKey = "agenda.month"

// GetAgendaQuery is the month view: every non-terminal item touching the
// local calendar month.
type GetAgendaQuery struct {
	Actor     policies.Actor
	Year      int `validate:"gte=1970,lte=9999"`
	Month     int `validate:"gte=1,lte=12"`
	AmenityID string
	UnitID    string
	Statuses  []string
}

func (q GetAgendaQuery) Key() string             { return GetAgendaKey }
func (q GetAgendaQuery) Caller() policies.Actor  { return q.Actor }
func (q GetAgendaQuery) RequiresPrivilege() bool { return false }

type GetAgendaHandler struct {
	Reader
}

func (h *GetAgendaHandler) Handle(ctx context.Context, q GetAgendaQuery) (dto.MonthAgenda, error) {
	if err := q.Actor.Validate(); err != nil {
		return dto.MonthAgenda{}, err
	}
	if q.Month < 1 || q.Month > 12 {
		return dto.MonthAgenda{}, &domaincalendar.ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}
	requested, err := parseStatuses(q.Statuses)
	if err != nil {
		return dto.MonthAgenda{}, err
	}
	month := timerange.MonthOf(q.Year, time.Month(q.Month), h.location())
	result := dto.MonthAgenda{
		Year:  q.Year,
		Month: q.Month,
		From:  month.Start,
		To:    month.End,
		Items: []dto.CalendarItem{},
	}
	statuses := activeOnly(requested)
	if len(requested) > 0 && len(statuses) == 0 {
		return result, nil
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.MonthAgenda{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	filter := domaincalendar.Filter{
		CommunityID: q.Actor.CommunityID,
		AmenityID:   domainamenity.ID(strings.TrimSpace(q.AmenityID)),
		Statuses:    statuses,
		Overlapping: &month,
		Sort:        domaincalendar.SortStartAsc,
	}
	if q.Actor.Privileged {
		filter.UnitID = strings.TrimSpace(q.UnitID)
	}
	page, err := unit.Calendar().Search(execCtx, filter)
	if err != nil {
		return dto.MonthAgenda{}, err
	}
	amenities, err := amenityIndex(execCtx, unit, q.Actor.CommunityID)
	if err != nil {
		return dto.MonthAgenda{}, err
	}
	result.Items = render(page.Items, amenities, q.Actor)
	return result, nil
}

// activeOnly keeps the non-terminal statuses of requested, or returns every
// non-terminal status when nothing was requested.
func activeOnly(requested []domaincalendar.Status) []domaincalendar.Status {
	if len(requested) == 0 {
		return domaincalendar.ActiveStatuses()
	}
	out := make([]domaincalendar.Status, 0, len(requested))
	for _, status := range requested {
		if !status.IsTerminal() {
			out = append(out, status)
		}
	}
	return out
}

var _ queries.Handler[GetAgendaQuery, dto.MonthAgenda] = (*GetAgendaHandler)(nil)
