package policies

import (
	"context"
	"log/slog"
	"time"

	domaincalendar "condobook/internal/domain/calendar"
)

const (
	TemplateBookingRequested = "booking.requested"
	TemplateBookingApproved  = "booking.approved"
	TemplateBookingRefused   = "booking.refused"
	TemplateBookingCancelled = "booking.cancelled"
	TemplateBookingEdited    = "booking.edited"
	TemplateBookingReminder  = "booking.reminder"
)

// Notifier delivers a templated message to a user.
type Notifier interface {
	Send(ctx context.Context, to string, template string, data any) error
}

// BookingNotice is the payload every booking template receives.
type BookingNotice struct {
	ItemID        string    `json:"item_id"`
	CommunityID   string    `json:"community_id"`
	AmenityID     string    `json:"amenity_id,omitempty"`
	Title         string    `json:"title,omitempty"`
	Status        string    `json:"status"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Justification string    `json:"justification,omitempty"`
}

func NoticeOf(item *domaincalendar.Item) BookingNotice {
	amenityID, _ := item.AmenityID()
	return BookingNotice{
		ItemID:        string(item.ID),
		CommunityID:   item.CommunityID,
		AmenityID:     string(amenityID),
		Title:         item.Title,
		Status:        item.Status.String(),
		Start:         item.Range.Start,
		End:           item.Range.End,
		Justification: item.Justification,
	}
}

// NotifyQuietly sends after the triggering transition committed. Failures are
// logged and otherwise dropped.
func NotifyQuietly(ctx context.Context, n Notifier, logger *slog.Logger, to, template string, data any) {
	if n == nil || to == "" {
		return
	}
	if err := n.Send(context.WithoutCancel(ctx), to, template, data); err != nil && logger != nil {
		logger.Warn("notification failed", "to", to, "template", template, "error", err)
	}
}

// NopNotifier discards every message.
type NopNotifier struct{}

func (NopNotifier) Send(context.Context, string, string, any) error { return nil }
