package dto

import (
	"time"

	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
)

const (
	KindBooking = "booking"
	KindGeneral = "general"
)

type CalendarItem struct {
	ID            string    `json:"id"`
	CommunityID   string    `json:"community_id"`
	Kind          string    `json:"kind"`
	UnitID        string    `json:"unit_id,omitempty"`
	RequesterID   string    `json:"requester_id"`
	AmenityID     string    `json:"amenity_id,omitempty"`
	AmenityName   string    `json:"amenity_name,omitempty"`
	Title         string    `json:"title,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Status        string    `json:"status"`
	Fee           MoneyDTO  `json:"fee"`
	ApproverID    string    `json:"approver_id,omitempty"`
	Justification string    `json:"justification,omitempty"`
	ReminderSent  bool      `json:"reminder_sent"`
	Mine          bool      `json:"mine"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CalendarPage struct {
	Items    []CalendarItem `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// MonthAgenda is the month view of a community calendar.
type MonthAgenda struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	From  time.Time      `json:"from"`
	To    time.Time      `json:"to"`
	Items []CalendarItem `json:"items"`
}

// MapCalendarItem renders item for callerID. amenity may be nil when the item
// is a general entry or its amenity was removed.
func MapCalendarItem(item *domaincalendar.Item, amenity *domainamenity.Amenity, callerID string) CalendarItem {
	view := CalendarItem{
		ID:            string(item.ID),
		CommunityID:   item.CommunityID,
		Kind:          KindGeneral,
		UnitID:        item.UnitID,
		RequesterID:   item.RequesterID,
		Title:         item.Title,
		Notes:         item.Notes,
		Start:         item.Range.Start,
		End:           item.Range.End,
		Status:        item.Status.String(),
		Fee:           MapMoney(item.Fee),
		ApproverID:    item.ApproverID,
		Justification: item.Justification,
		ReminderSent:  item.ReminderSent,
		Mine:          item.OwnedBy(callerID),
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
	if id, ok := item.AmenityID(); ok {
		view.Kind = KindBooking
		view.AmenityID = string(id)
		if amenity != nil {
			view.AmenityName = amenity.Name
		}
	}
	return view
}

// Redacted keeps what a calendar grid needs and drops who booked and why.
func (c CalendarItem) Redacted() CalendarItem {
	c.UnitID = ""
	c.RequesterID = ""
	c.Title = ""
	c.Notes = ""
	c.ApproverID = ""
	c.Justification = ""
	return c
}
