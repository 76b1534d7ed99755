package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectConflict(t *testing.T) {
	g := gym()
	room := partyRoom()
	rng := span(at(3, 11, 7, 0), at(3, 11, 8, 0))
	existing := []*Item{
		booking("other-amenity", room, "101", rng, StatusConfirmed),
		nil,
		booking("before", g, "101", span(at(3, 11, 6, 0), at(3, 11, 7, 0)), StatusConfirmed),
		booking("after", g, "101", span(at(3, 11, 8, 0), at(3, 11, 9, 0)), StatusPending),
	}
	_, found := DetectConflict(g.ID, rng, existing, "")
	assert.False(t, found)

	existing = append(existing, booking("inside", g, "202", span(at(3, 11, 7, 15), at(3, 11, 7, 45)), StatusAwaitingApproval))
	other, found := DetectConflict(g.ID, rng, existing, "")
	assert.True(t, found)
	assert.Equal(t, ItemID("inside"), other.ID)
}
