package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"condobook/internal/app/handlers/booking"
	"condobook/internal/app/policies"
	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/locale"
	"condobook/internal/domain/shared/money"
	"condobook/internal/infra/storage/memory"
)

var brt = time.FixedZone("BRT", -3*60*60)

// now is Tuesday 2026-03-10 12:00 local.
var now = time.Date(2026, 3, 10, 12, 0, 0, 0, brt)

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2026, month, day, hour, 0, 0, 0, brt)
}

var (
	resident = policies.Actor{UserID: "u-101", CommunityID: "c1", UnitIDs: []string{"101"}}
	neighbor = policies.Actor{UserID: "u-202", CommunityID: "c1", UnitIDs: []string{"202"}}
	manager  = policies.Actor{UserID: "m-1", CommunityID: "c1", Privileged: true}
)

type notice struct {
	To       string
	Template string
	Data     policies.BookingNotice
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notice
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, to, template string, data any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	payload, _ := data.(policies.BookingNotice)
	n.sent = append(n.sent, notice{To: to, Template: template, Data: payload})
	return n.err
}

func (n *recordingNotifier) last() notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return notice{}
	}
	return n.sent[len(n.sent)-1]
}

type fixture struct {
	factory  *memory.Factory
	outbox   *memory.Outbox
	notifier *recordingNotifier
	workflow booking.Workflow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	factory := memory.NewFactory()
	quota := 1
	factory.Amenities.Seed(
		&domainamenity.Amenity{
			ID:          "gym",
			CommunityID: "c1",
			Name:        "Gym",
			Hours:       domainamenity.OperatingHours{Open: 6 * 60, Close: 22 * 60},
			MinDuration: 30 * time.Minute,
			MaxDuration: 2 * time.Hour,
		},
		&domainamenity.Amenity{
			ID:                    "party",
			CommunityID:           "c1",
			Name:                  "Party Room",
			RequiresApproval:      true,
			MonthlyQuota:          &quota,
			CancellationLeadHours: 48,
			Fee:                   money.Must(15000, "BRL"),
		},
	)
	box := memory.NewOutbox()
	notifier := &recordingNotifier{}
	clock := domaincalendar.ClockFunc(func() time.Time { return now })
	return &fixture{
		factory:  factory,
		outbox:   box,
		notifier: notifier,
		workflow: booking.Workflow{
			UoWFactory: factory,
			Policy:     domaincalendar.NewAdmissionPolicy(clock, locale.Fixed(brt, "pt-br")),
			Notifier:   notifier,
			Outbox:     box,
		},
	}
}

func (f *fixture) request(ctx context.Context, actor policies.Actor, amenityID, unitID string, start, end time.Time) (string, error) {
	h := &booking.RequestBookingHandler{Workflow: f.workflow}
	view, err := h.Handle(ctx, booking.RequestBookingCommand{
		Actor:     actor,
		AmenityID: amenityID,
		UnitID:    unitID,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return "", err
	}
	return view.ID, nil
}

func (f *fixture) stored(t *testing.T, id string) *domaincalendar.Item {
	t.Helper()
	unit, err := f.factory.Begin(context.Background(), uowReadOnly)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer unit.Rollback(context.Background())
	item, err := unit.Calendar().ByID(context.Background(), domaincalendar.ItemID(id))
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	return item
}

func reasonOf(err error) domaincalendar.RejectionReason {
	var rejection *domaincalendar.Rejection
	if errors.As(err, &rejection) {
		return rejection.Reason
	}
	return ""
}

var (
	uowReadOnly = uow.TxOptions{ReadOnly: true}
	uowWrite    = uow.TxOptions{}
)
