package calendar

import (
	"condobook/internal/domain/amenity"
	"condobook/internal/domain/shared/timerange"
)

// DetectConflict returns the first active booking of amenityID that overlaps
// proposed. The item identified by exclude is ignored so edits do not collide
// with themselves.
func DetectConflict(amenityID amenity.ID, proposed timerange.Interval, existing []*Item, exclude ItemID) (*Item, bool) {
	for _, other := range existing {
		if other == nil || other.Status.IsTerminal() {
			continue
		}
		if exclude != "" && other.ID == exclude {
			continue
		}
		if id, ok := other.AmenityID(); !ok || id != amenityID {
			continue
		}
		if proposed.Overlaps(other.Range) {
			return other, true
		}
	}
	return nil, false
}
