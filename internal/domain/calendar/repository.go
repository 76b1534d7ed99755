package calendar

import (
	"context"
	"sort"
	"time"

	"condobook/internal/domain/amenity"
	"condobook/internal/domain/shared/timerange"
)

type Repository interface {
	ByID(ctx context.Context, id ItemID) (*Item, error)
	Search(ctx context.Context, filter Filter) (Page, error)
	Save(ctx context.Context, item *Item) error
}

type SortOrder string

const (
	SortStartAsc     SortOrder = "start_asc"
	SortStartDesc    SortOrder = "start_desc"
	SortCreatedDesc  SortOrder = "created_desc"
	SortPendingFirst SortOrder = "pending_first"
)

func ParseSortOrder(raw string) (SortOrder, error) {
	switch order := SortOrder(raw); order {
	case "":
		return SortStartAsc, nil
	case SortStartAsc, SortStartDesc, SortCreatedDesc, SortPendingFirst:
		return order, nil
	default:
		return "", &ValidationError{Field: "sort", Message: "unknown sort order " + raw}
	}
}

// Filter is the predicate every storage adapter must support. Zero fields do
// not constrain the result. Amenities and IncludeGeneral combine as a union:
// items booking one of the amenities, or general entries when IncludeGeneral
// is set.
type Filter struct {
	CommunityID    string
	AmenityID      amenity.ID
	Amenities      []amenity.ID
	IncludeGeneral bool
	UnitID         string
	RequesterID    string
	Statuses       []Status
	Overlapping    *timerange.Interval
	EndsAfter      time.Time
	StartsBefore   time.Time
	ReminderSent   *bool
	ExcludeID      ItemID
	Sort           SortOrder
	Offset         int
	Limit          int
}

type Page struct {
	Items []*Item
	Total int
}

// Matches evaluates the filter in memory. Adapters without a query language
// use it directly; the others translate the same predicate.
func (f Filter) Matches(item *Item) bool {
	if item == nil {
		return false
	}
	if f.CommunityID != "" && item.CommunityID != f.CommunityID {
		return false
	}
	amenityID, booked := item.AmenityID()
	if f.AmenityID != "" && (!booked || amenityID != f.AmenityID) {
		return false
	}
	if f.Amenities != nil || f.IncludeGeneral {
		allowed := !booked && f.IncludeGeneral
		if booked {
			for _, id := range f.Amenities {
				if id == amenityID {
					allowed = true
					break
				}
			}
		}
		if !allowed {
			return false
		}
	}
	if f.UnitID != "" && item.UnitID != f.UnitID {
		return false
	}
	if f.RequesterID != "" && item.RequesterID != f.RequesterID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, item.Status) {
		return false
	}
	if f.Overlapping != nil && !f.Overlapping.Overlaps(item.Range) {
		return false
	}
	if !f.EndsAfter.IsZero() && item.Range.End.Before(f.EndsAfter) {
		return false
	}
	if !f.StartsBefore.IsZero() && !item.Range.Start.Before(f.StartsBefore) {
		return false
	}
	if f.ReminderSent != nil && item.ReminderSent != *f.ReminderSent {
		return false
	}
	if f.ExcludeID != "" && item.ID == f.ExcludeID {
		return false
	}
	return true
}

// Less orders two items according to the sort order. Ties fall back to the id
// so pagination is stable.
func (o SortOrder) Less(a, b *Item) bool {
	switch o {
	case SortStartDesc:
		if !a.Range.Start.Equal(b.Range.Start) {
			return a.Range.Start.After(b.Range.Start)
		}
	case SortCreatedDesc:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	case SortPendingFirst:
		pa, pb := a.Status.AwaitingDecision(), b.Status.AwaitingDecision()
		if pa != pb {
			return pa
		}
		if !a.Range.Start.Equal(b.Range.Start) {
			return a.Range.Start.Before(b.Range.Start)
		}
	default:
		if !a.Range.Start.Equal(b.Range.Start) {
			return a.Range.Start.Before(b.Range.Start)
		}
	}
	return a.ID < b.ID
}

// Apply filters, sorts and pages items in memory.
func (f Filter) Apply(items []*Item) Page {
	matched := make([]*Item, 0, len(items))
	for _, item := range items {
		if f.Matches(item) {
			matched = append(matched, item)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return f.Sort.Less(matched[i], matched[j]) })
	total := len(matched)
	start := f.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return Page{Items: matched[start:end], Total: total}
}

func containsStatus(list []Status, status Status) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}
