package postgres

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	domaincalendar "condobook/internal/domain/calendar"
)

// applyFilter translates the repository filter into WHERE clauses. It must
// agree with Filter.Matches.
func applyFilter(q *gorm.DB, f domaincalendar.Filter) *gorm.DB {
	if f.CommunityID != "" {
		q = q.Where("community_id = ?", f.CommunityID)
	}
	if f.AmenityID != "" {
		q = q.Where("kind = ? AND amenity_id = ?", kindBooking, string(f.AmenityID))
	}
	if f.Amenities != nil || f.IncludeGeneral {
		ids := make([]string, 0, len(f.Amenities))
		for _, id := range f.Amenities {
			ids = append(ids, string(id))
		}
		switch {
		case len(ids) > 0 && f.IncludeGeneral:
			q = q.Where("((kind = ? AND amenity_id IN ?) OR kind = ?)", kindBooking, ids, kindGeneral)
		case len(ids) > 0:
			q = q.Where("kind = ? AND amenity_id IN ?", kindBooking, ids)
		case f.IncludeGeneral:
			q = q.Where("kind = ?", kindGeneral)
		default:
			q = q.Where("1 = 0")
		}
	}
	if f.UnitID != "" {
		q = q.Where("unit_id = ?", f.UnitID)
	}
	if f.RequesterID != "" {
		q = q.Where("requester_id = ?", f.RequesterID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", statusNames(f.Statuses))
	}
	if f.Overlapping != nil {
		q = q.Where("start_at < ? AND end_at > ?", f.Overlapping.End.UTC(), f.Overlapping.Start.UTC())
	}
	if !f.EndsAfter.IsZero() {
		q = q.Where("end_at >= ?", f.EndsAfter.UTC())
	}
	if !f.StartsBefore.IsZero() {
		q = q.Where("start_at < ?", f.StartsBefore.UTC())
	}
	if f.ReminderSent != nil {
		q = q.Where("reminder_sent = ?", *f.ReminderSent)
	}
	if f.ExcludeID != "" {
		q = q.Where("id <> ?", string(f.ExcludeID))
	}
	return q
}

func applyOrder(q *gorm.DB, order domaincalendar.SortOrder) *gorm.DB {
	return q.Order(orderClause(order))
}

func orderClause(order domaincalendar.SortOrder) string {
	switch order {
	case domaincalendar.SortStartDesc:
		return "start_at DESC, id ASC"
	case domaincalendar.SortCreatedDesc:
		return "created_at DESC, id ASC"
	case domaincalendar.SortPendingFirst:
		return fmt.Sprintf("CASE WHEN status IN (%s) THEN 0 ELSE 1 END, start_at ASC, id ASC", awaitingList())
	default:
		return "start_at ASC, id ASC"
	}
}

func applyPaging(q *gorm.DB, f domaincalendar.Filter) *gorm.DB {
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return q
}

func statusNames(statuses []domaincalendar.Status) []string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.String())
	}
	return names
}

// awaitingList quotes the status names; they are constants, never input.
func awaitingList() string {
	quoted := []string{
		"'" + domaincalendar.StatusPending.String() + "'",
		"'" + domaincalendar.StatusAwaitingApproval.String() + "'",
	}
	return strings.Join(quoted, ", ")
}
