package agenda

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"condobook/internal/app/dto"
	"condobook/internal/app/policies"
	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/locale"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Reader holds what every calendar query needs.
type Reader struct {
	UoWFactory uow.UoWFactory
	Clock      domaincalendar.Clock
	Locale     locale.Locale
	Logger     *slog.Logger
}

func (r *Reader) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now()
}

func (r *Reader) location() *time.Location {
	if r.Locale == nil {
		return time.UTC
	}
	return r.Locale.Location()
}

// Paging is the page/page-size pair accepted by list queries. Pages start at 1.
type Paging struct {
	Page     int `validate:"gte=0"`
	PageSize int `validate:"gte=0"`
}

func (p Paging) normalize() (page, size int) {
	page, size = p.Page, p.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func (p Paging) apply(filter *domaincalendar.Filter) {
	page, size := p.normalize()
	filter.Offset = (page - 1) * size
	filter.Limit = size
}

func (p Paging) wrap(items []dto.CalendarItem, total int) dto.CalendarPage {
	page, size := p.normalize()
	return dto.CalendarPage{Items: items, Total: total, Page: page, PageSize: size}
}

// amenityIndex maps the community's amenities by id.
func amenityIndex(ctx context.Context, unit uow.UnitOfWork, communityID string) (map[domainamenity.ID]*domainamenity.Amenity, error) {
	list, err := unit.Amenities().ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	index := make(map[domainamenity.ID]*domainamenity.Amenity, len(list))
	for _, amenity := range list {
		index[amenity.ID] = amenity
	}
	return index, nil
}

// render maps items for actor. Items whose details actor may not open are
// redacted.
func render(items []*domaincalendar.Item, amenities map[domainamenity.ID]*domainamenity.Amenity, actor policies.Actor) []dto.CalendarItem {
	out := make([]dto.CalendarItem, 0, len(items))
	for _, item := range items {
		var amenity *domainamenity.Amenity
		if id, ok := item.AmenityID(); ok {
			amenity = amenities[id]
		}
		view := dto.MapCalendarItem(item, amenity, actor.UserID)
		if !Visible(item, amenity, actor) {
			view = view.Redacted()
		}
		out = append(out, view)
	}
	return out
}

// parseStatuses turns raw status names into the closed enum.
func parseStatuses(raw []string) ([]domaincalendar.Status, error) {
	out := make([]domaincalendar.Status, 0, len(raw))
	for _, value := range raw {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, err := domaincalendar.ParseStatus(value)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}
	return out, nil
}
