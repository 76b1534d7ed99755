package calendar

import (
	"strings"
	"time"

	"condobook/internal/domain/amenity"
	"condobook/internal/domain/shared/events"
	"condobook/internal/domain/shared/money"
	"condobook/internal/domain/shared/timerange"
)

type ItemID string

// Item is a scheduled occupation of time. Items are never deleted; cancelling
// one moves it into a terminal status.
type Item struct {
	ID            ItemID
	CommunityID   string
	UnitID        string
	RequesterID   string
	Subject       Subject
	Range         timerange.Interval
	Title         string
	Notes         string
	Fee           money.Money
	Status        Status
	ApproverID    string
	Justification string
	ReminderSent  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type NewItemParams struct {
	ID               ItemID
	CommunityID      string
	UnitID           string
	RequesterID      string
	Subject          Subject
	Range            timerange.Interval
	Title            string
	Notes            string
	Fee              money.Money
	RequiresApproval bool
	CreatedAt        time.Time
}

// NewItem creates an item in its initial status: Pending when the amenity asks
// for approval, Confirmed otherwise. General entries are always Confirmed.
func NewItem(params NewItemParams) (*Item, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, &ValidationError{Field: "id", Message: "is required"}
	}
	if strings.TrimSpace(params.CommunityID) == "" {
		return nil, &ValidationError{Field: "community_id", Message: "is required"}
	}
	if strings.TrimSpace(params.RequesterID) == "" {
		return nil, &ValidationError{Field: "requester_id", Message: "is required"}
	}
	if err := params.Range.Validate(); err != nil {
		return nil, &ValidationError{Field: "range", Message: "end must be after start"}
	}
	status := StatusConfirmed
	switch subject := params.Subject.(type) {
	case ResourceBooking:
		if strings.TrimSpace(string(subject.AmenityID)) == "" {
			return nil, &ValidationError{Field: "amenity_id", Message: "is required"}
		}
		if strings.TrimSpace(params.UnitID) == "" {
			return nil, &ValidationError{Field: "unit_id", Message: "is required for amenity bookings"}
		}
		if params.RequiresApproval {
			status = StatusPending
		}
	case GeneralEntry:
		if strings.TrimSpace(params.Title) == "" {
			return nil, &ValidationError{Field: "title", Message: "is required for general entries"}
		}
	default:
		return nil, &ValidationError{Field: "subject", Message: "is required"}
	}

	now := params.CreatedAt.UTC()
	item := &Item{
		ID:          params.ID,
		CommunityID: strings.TrimSpace(params.CommunityID),
		UnitID:      strings.TrimSpace(params.UnitID),
		RequesterID: strings.TrimSpace(params.RequesterID),
		Subject:     params.Subject,
		Range:       timerange.Interval{Start: params.Range.Start.UTC(), End: params.Range.End.UTC()},
		Title:       strings.TrimSpace(params.Title),
		Notes:       strings.TrimSpace(params.Notes),
		Fee:         params.Fee,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	amenityID, _ := item.AmenityID()
	item.Record(ItemRequested{
		ItemID:      item.ID,
		CommunityID: item.CommunityID,
		AmenityID:   string(amenityID),
		UnitID:      item.UnitID,
		RequesterID: item.RequesterID,
		Range:       item.Range,
		Status:      item.Status,
		At:          now,
	})
	return item, nil
}

func (i *Item) AmenityID() (amenity.ID, bool) {
	return AmenityOf(i.Subject)
}

func (i *Item) IsGeneral() bool {
	_, ok := i.Subject.(GeneralEntry)
	return ok
}

func (i *Item) OwnedBy(userID string) bool {
	return userID != "" && i.RequesterID == userID
}

func (i *Item) Approve(approverID, justification string, now time.Time) error {
	if !i.Status.AwaitingDecision() {
		return ErrInvalidTransition
	}
	i.Status = StatusConfirmed
	i.ApproverID = approverID
	i.Justification = strings.TrimSpace(justification)
	i.UpdatedAt = now.UTC()
	i.Record(ItemApproved{ItemID: i.ID, ApproverID: approverID, Justification: i.Justification, At: i.UpdatedAt})
	return nil
}

func (i *Item) Refuse(approverID, justification string, now time.Time) error {
	if !i.Status.AwaitingDecision() {
		return ErrInvalidTransition
	}
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return &ValidationError{Field: "justification", Message: "is required to refuse a booking"}
	}
	i.Status = StatusRefused
	i.ApproverID = approverID
	i.Justification = justification
	i.UpdatedAt = now.UTC()
	i.Record(ItemRefused{ItemID: i.ID, ApproverID: approverID, Justification: justification, At: i.UpdatedAt})
	return nil
}

// CancelByRequester enforces the cancellation lead time: the request is
// accepted while now+lead is not after the start.
func (i *Item) CancelByRequester(lead time.Duration, now time.Time) error {
	if i.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	if now.Add(lead).After(i.Range.Start) {
		return reject(ReasonCancellationTooLate, "cancellations require %s notice", lead)
	}
	i.cancel(StatusCancelledByUser, i.RequesterID, "", now)
	return nil
}

func (i *Item) CancelByManager(managerID, justification string, now time.Time) error {
	if i.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	i.cancel(StatusCancelledByManager, managerID, justification, now)
	i.ApproverID = managerID
	return nil
}

func (i *Item) cancel(status Status, by, justification string, now time.Time) {
	i.Status = status
	if justification = strings.TrimSpace(justification); justification != "" {
		i.Justification = justification
	}
	i.UpdatedAt = now.UTC()
	i.Record(ItemCancelled{ItemID: i.ID, CancelledBy: by, Status: status, At: i.UpdatedAt})
}

// Changes lists the fields an edit may touch. Nil fields are left alone.
type Changes struct {
	Range *timerange.Interval
	Title *string
	Notes *string
}

// ProposedRange returns the interval the item would have after applying c.
func (c Changes) ProposedRange(current timerange.Interval) timerange.Interval {
	if c.Range == nil {
		return current
	}
	return timerange.Interval{Start: c.Range.Start.UTC(), End: c.Range.End.UTC()}
}

// Edit applies privileged changes and reports whether the interval moved.
// Admission of the new interval is checked by the caller beforehand.
func (i *Item) Edit(editorID string, changes Changes, now time.Time) (bool, error) {
	if i.Status.IsTerminal() {
		return false, ErrInvalidTransition
	}
	next := changes.ProposedRange(i.Range)
	if err := next.Validate(); err != nil {
		return false, &ValidationError{Field: "range", Message: "end must be after start"}
	}
	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if title == "" && i.IsGeneral() {
			return false, &ValidationError{Field: "title", Message: "is required for general entries"}
		}
		i.Title = title
	}
	if changes.Notes != nil {
		i.Notes = strings.TrimSpace(*changes.Notes)
	}
	moved := !next.Equal(i.Range)
	if moved {
		i.Range = next
		i.ReminderSent = false
	}
	i.ApproverID = editorID
	i.UpdatedAt = now.UTC()
	i.Record(ItemEdited{ItemID: i.ID, EditorID: editorID, Range: i.Range, IntervalChanged: moved, At: i.UpdatedAt})
	return moved, nil
}

// MarkReminderSent flags the 24-hour reminder as delivered.
func (i *Item) MarkReminderSent(now time.Time) {
	i.ReminderSent = true
	i.UpdatedAt = now.UTC()
}
