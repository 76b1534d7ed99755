package calendar

import "condobook/internal/domain/amenity"

// Subject tells what a calendar item occupies: an amenity or nothing at all.
type Subject interface {
	subject()
}

// ResourceBooking reserves an amenity.
type ResourceBooking struct {
	AmenityID amenity.ID
}

// GeneralEntry is a community-wide event that occupies no resource.
type GeneralEntry struct{}

func (ResourceBooking) subject() {}
func (GeneralEntry) subject()    {}

// AmenityOf returns the amenity reserved by s, if any.
func AmenityOf(s Subject) (amenity.ID, bool) {
	if rb, ok := s.(ResourceBooking); ok {
		return rb.AmenityID, true
	}
	return "", false
}
