package memory

import (
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/events"
)

// Stored values never share memory with the aggregates handed to callers.

func cloneAmenity(a *domainamenity.Amenity) *domainamenity.Amenity {
	if a == nil {
		return nil
	}
	c := *a
	if a.MonthlyQuota != nil {
		quota := *a.MonthlyQuota
		c.MonthlyQuota = &quota
	}
	c.Blackouts = append([]string(nil), a.Blackouts...)
	return &c
}

func cloneItem(item *domaincalendar.Item) *domaincalendar.Item {
	if item == nil {
		return nil
	}
	c := *item
	c.EventRecorder = events.EventRecorder{}
	return &c
}
