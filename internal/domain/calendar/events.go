package calendar

import (
	"time"

	"condobook/internal/domain/shared/timerange"
)

type ItemRequested struct {
	ItemID      ItemID
	CommunityID string
	AmenityID   string
	UnitID      string
	RequesterID string
	Range       timerange.Interval
	Status      Status
	At          time.Time
}

func (e ItemRequested) EventName() string     { return "calendar.item_requested" }
func (e ItemRequested) AggregateID() string   { return string(e.ItemID) }
func (e ItemRequested) OccurredAt() time.Time { return e.At }

type ItemApproved struct {
	ItemID        ItemID
	ApproverID    string
	Justification string
	At            time.Time
}

func (e ItemApproved) EventName() string     { return "calendar.item_approved" }
func (e ItemApproved) AggregateID() string   { return string(e.ItemID) }
func (e ItemApproved) OccurredAt() time.Time { return e.At }

type ItemRefused struct {
	ItemID        ItemID
	ApproverID    string
	Justification string
	At            time.Time
}

func (e ItemRefused) EventName() string     { return "calendar.item_refused" }
func (e ItemRefused) AggregateID() string   { return string(e.ItemID) }
func (e ItemRefused) OccurredAt() time.Time { return e.At }

type ItemCancelled struct {
	ItemID      ItemID
	CancelledBy string
	Status      Status
	At          time.Time
}

func (e ItemCancelled) EventName() string     { return "calendar.item_cancelled" }
func (e ItemCancelled) AggregateID() string   { return string(e.ItemID) }
func (e ItemCancelled) OccurredAt() time.Time { return e.At }

type ItemEdited struct {
	ItemID          ItemID
	EditorID        string
	Range           timerange.Interval
	IntervalChanged bool
	At              time.Time
}

func (e ItemEdited) EventName() string     { return "calendar.item_edited" }
func (e ItemEdited) AggregateID() string   { return string(e.ItemID) }
func (e ItemEdited) OccurredAt() time.Time { return e.At }
