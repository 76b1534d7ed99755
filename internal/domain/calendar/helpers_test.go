package calendar

import (
	"time"

	"condobook/internal/domain/amenity"
	"condobook/internal/domain/shared/locale"
	"condobook/internal/domain/shared/timerange"
)

var brt = time.FixedZone("BRT", -3*60*60)

// now is Tuesday 2026-03-10 12:00 local.
var now = time.Date(2026, 3, 10, 12, 0, 0, 0, brt)

func at(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2026, month, day, hour, minute, 0, 0, brt)
}

func span(start, end time.Time) timerange.Interval {
	return timerange.Interval{Start: start.UTC(), End: end.UTC()}
}

func newPolicy() *AdmissionPolicy {
	return NewAdmissionPolicy(ClockFunc(func() time.Time { return now }), locale.Fixed(brt, "pt-br"))
}

func gym() *amenity.Amenity {
	return &amenity.Amenity{
		ID:          "gym",
		CommunityID: "c1",
		Name:        "Gym",
		Hours:       amenity.OperatingHours{Open: 6 * 60, Close: 22 * 60},
		MinDuration: 30 * time.Minute,
		MaxDuration: 2 * time.Hour,
	}
}

func partyRoom() *amenity.Amenity {
	quota := 1
	return &amenity.Amenity{
		ID:                    "party",
		CommunityID:           "c1",
		Name:                  "Party Room",
		RequiresApproval:      true,
		MonthlyQuota:          &quota,
		CancellationLeadHours: 48,
	}
}

func booking(id ItemID, a *amenity.Amenity, unit string, rng timerange.Interval, status Status) *Item {
	return &Item{
		ID:          id,
		CommunityID: "c1",
		UnitID:      unit,
		RequesterID: "user-" + unit,
		Subject:     ResourceBooking{AmenityID: a.ID},
		Range:       rng,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
