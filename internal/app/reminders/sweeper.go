// Package reminders sends the day-before notice for confirmed bookings.
package reminders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"condobook/internal/app/policies"
	"condobook/internal/app/uow"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/timerange"
)

const (
	DefaultLead     = 24 * time.Hour
	DefaultInterval = 5 * time.Minute
)

var ErrSweeperNotConfigured = errors.New("reminders: sweeper missing dependencies")

// Sweeper periodically marks confirmed items starting within Lead as
// reminded and notifies their requesters after the marks are committed.
type Sweeper struct {
	UoWFactory uow.UoWFactory
	Notifier   policies.Notifier
	Clock      domaincalendar.Clock
	Logger     *slog.Logger
	Lead       time.Duration
	Interval   time.Duration
}

func (s *Sweeper) Start(ctx context.Context) error {
	if s.UoWFactory == nil || s.Notifier == nil {
		return ErrSweeperNotConfigured
	}
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	s.log().Info("reminder sweeper started", "interval", s.interval(), "lead", s.lead())
	for {
		select {
		case <-ctx.Done():
			s.log().Info("reminder sweeper stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log().Error("reminder sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs one pass and returns how many reminders were sent. A concurrent
// edit of any candidate aborts the pass; the next tick picks it up again.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	if s.UoWFactory == nil || s.Notifier == nil {
		return 0, ErrSweeperNotConfigured
	}
	now := s.now()
	window := timerange.Interval{Start: now, End: now.Add(s.lead())}
	pending := false

	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	page, err := unit.Calendar().Search(ctx, domaincalendar.Filter{
		Statuses:     []domaincalendar.Status{domaincalendar.StatusConfirmed},
		Overlapping:  &window,
		StartsBefore: window.End,
		ReminderSent: &pending,
		Sort:         domaincalendar.SortStartAsc,
	})
	if err != nil {
		return 0, err
	}
	due := make([]*domaincalendar.Item, 0, len(page.Items))
	for _, item := range page.Items {
		if item.Range.Start.Before(now) {
			continue
		}
		item.MarkReminderSent(now)
		if err := unit.Calendar().Save(ctx, item); err != nil {
			return 0, err
		}
		due = append(due, item)
	}
	if err := unit.Commit(ctx); err != nil {
		return 0, err
	}
	committed = true

	for _, item := range due {
		policies.NotifyQuietly(ctx, s.Notifier, s.Logger, item.RequesterID, policies.TemplateBookingReminder, policies.NoticeOf(item))
	}
	if len(due) > 0 {
		s.log().Info("reminders sent", "count", len(due))
	}
	return len(due), nil
}

func (s *Sweeper) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s *Sweeper) lead() time.Duration {
	if s.Lead <= 0 {
		return DefaultLead
	}
	return s.Lead
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return DefaultInterval
	}
	return s.Interval
}

func (s *Sweeper) log() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
