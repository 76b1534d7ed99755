package booking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condobook/internal/app/dto"
	"condobook/internal/app/handlers/booking"
	"condobook/internal/app/policies"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
)

func strptr(s string) *string { return &s }

func TestRequestConfirmsWithoutApproval(t *testing.T) {
	f := newFixture(t)
	h := &booking.RequestBookingHandler{Workflow: f.workflow}

	view, err := h.Handle(context.Background(), booking.RequestBookingCommand{
		Actor:     resident,
		AmenityID: "gym",
		UnitID:    "101",
		Start:     at(3, 12, 10),
		End:       at(3, 12, 11),
	})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", view.Status)
	assert.Equal(t, dto.KindBooking, view.Kind)
	assert.Equal(t, "Gym", view.AmenityName)
	assert.True(t, view.Mine)

	sent := f.notifier.last()
	assert.Equal(t, resident.UserID, sent.To)
	assert.Equal(t, policies.TemplateBookingRequested, sent.Template)
	assert.Equal(t, "CONFIRMED", sent.Data.Status)

	records := f.outbox.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "calendar.item_requested", records[0].Name)
	assert.Equal(t, view.ID, records[0].Aggregate)
}

func TestRequestAwaitsApprovalAndSnapshotsFee(t *testing.T) {
	f := newFixture(t)
	id, err := f.request(context.Background(), resident, "party", "101", at(3, 20, 18), at(3, 20, 23))
	require.NoError(t, err)

	item := f.stored(t, id)
	assert.Equal(t, domaincalendar.StatusPending, item.Status)
	assert.Equal(t, int64(15000), item.Fee.Amount)
	assert.Equal(t, "BRL", item.Fee.Currency)
}

func TestRequestGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.request(ctx, resident, "gym", "202", at(3, 12, 10), at(3, 12, 11))
	assert.ErrorIs(t, err, policies.ErrForbidden, "residents book for their own units only")

	_, err = f.request(ctx, resident, "gym", "", at(3, 12, 10), at(3, 12, 11))
	assert.ErrorIs(t, err, domaincalendar.ErrValidation)

	_, err = f.request(ctx, resident, "sauna", "101", at(3, 12, 10), at(3, 12, 11))
	assert.Error(t, err)

	_, err = f.request(ctx, resident, "gym", "101", at(3, 12, 5), at(3, 12, 6))
	assert.Equal(t, domaincalendar.ReasonOutsideOperatingHours, reasonOf(err))

	_, err = f.request(ctx, policies.Actor{}, "gym", "101", at(3, 12, 10), at(3, 12, 11))
	assert.ErrorIs(t, err, policies.ErrUnauthenticated)

	empty := &booking.RequestBookingHandler{Workflow: booking.Workflow{UoWFactory: f.factory}}
	_, err = empty.Handle(ctx, booking.RequestBookingCommand{Actor: resident, AmenityID: "gym", UnitID: "101", Start: at(3, 12, 10), End: at(3, 12, 11)})
	assert.ErrorIs(t, err, booking.ErrPolicyRequired)
}

func TestGeneralEntriesArePrivileged(t *testing.T) {
	f := newFixture(t)
	h := &booking.RequestBookingHandler{Workflow: f.workflow}
	cmd := booking.RequestBookingCommand{
		Actor: resident,
		Title: "Assembly",
		Start: at(3, 25, 19),
		End:   at(3, 25, 21),
	}
	assert.True(t, cmd.RequiresPrivilege())

	_, err := h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, policies.ErrForbidden)

	cmd.Actor = manager
	view, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, dto.KindGeneral, view.Kind)
	assert.Equal(t, "CONFIRMED", view.Status)
}

func TestConcurrentRequestsNeverDoubleBook(t *testing.T) {
	f := newFixture(t)
	const callers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unit := fmt.Sprintf("%d", 100+i)
			actor := policies.Actor{UserID: "u-" + unit, CommunityID: "c1", UnitIDs: []string{unit}}
			_, err := f.request(context.Background(), actor, "gym", unit, at(3, 12, 10), at(3, 12, 11))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domaincalendar.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, conflicts)
	assert.Equal(t, 1, f.factory.Calendar.Len())
}

func TestConcurrentRequestsNeverExceedQuota(t *testing.T) {
	f := newFixture(t)
	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_, err := f.request(context.Background(), resident, "party", "101", at(3, day, 18), at(3, day, 22))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case reasonOf(err) == domaincalendar.ReasonQuotaExceeded:
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(16 + i)
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
}

func TestNotificationFailureKeepsTransition(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")

	id, err := f.request(context.Background(), resident, "gym", "101", at(3, 12, 10), at(3, 12, 11))
	require.NoError(t, err)
	assert.Equal(t, domaincalendar.StatusConfirmed, f.stored(t, id).Status)
}

func TestManagerDecisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.request(ctx, resident, "party", "101", at(3, 20, 18), at(3, 20, 23))
	require.NoError(t, err)
	h := &booking.UpdateStatusHandler{Workflow: f.workflow}

	_, err = h.Handle(ctx, booking.UpdateStatusCommand{Actor: resident, ItemID: id, Status: "CONFIRMED"})
	assert.ErrorIs(t, err, policies.ErrForbidden)

	_, err = h.Handle(ctx, booking.UpdateStatusCommand{Actor: manager, ItemID: id, Status: "REFUSED"})
	assert.ErrorIs(t, err, domaincalendar.ErrValidation, "refusal needs a justification")

	_, err = h.Handle(ctx, booking.UpdateStatusCommand{Actor: manager, ItemID: id, Status: "PENDING"})
	assert.ErrorIs(t, err, domaincalendar.ErrInvalidTransition)

	view, err := h.Handle(ctx, booking.UpdateStatusCommand{Actor: manager, ItemID: id, Status: "confirmed", Justification: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", view.Status)
	assert.Equal(t, manager.UserID, view.ApproverID)
	assert.Equal(t, "Party Room", view.AmenityName)
	assert.Equal(t, policies.TemplateBookingApproved, f.notifier.last().Template)
	assert.Equal(t, resident.UserID, f.notifier.last().To)

	_, err = h.Handle(ctx, booking.UpdateStatusCommand{Actor: manager, ItemID: id, Status: "REFUSED", Justification: "late"})
	assert.ErrorIs(t, err, domaincalendar.ErrInvalidTransition)

	names := make([]string, 0)
	for _, rec := range f.outbox.Records() {
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"calendar.item_requested", "calendar.item_approved"}, names)
}

func TestCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := &booking.CancelItemHandler{Workflow: f.workflow}

	// starts in 30h, the party room needs 48h notice
	soon, err := f.request(ctx, resident, "party", "101", at(3, 11, 18), at(3, 11, 22))
	require.NoError(t, err)
	// starts exactly 48h from now
	boundary, err := f.request(ctx, neighbor, "party", "202", at(3, 12, 12), at(3, 12, 16))
	require.NoError(t, err)

	_, err = h.Handle(ctx, booking.CancelItemCommand{Actor: neighbor, ItemID: soon})
	assert.ErrorIs(t, err, policies.ErrForbidden)

	_, err = h.Handle(ctx, booking.CancelItemCommand{Actor: resident, ItemID: soon})
	assert.Equal(t, domaincalendar.ReasonCancellationTooLate, reasonOf(err))
	assert.ErrorIs(t, err, domaincalendar.ErrPolicyRejected)

	view, err := h.Handle(ctx, booking.CancelItemCommand{Actor: neighbor, ItemID: boundary})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED_BY_USER", view.Status)

	view, err = h.Handle(ctx, booking.CancelItemCommand{Actor: manager, ItemID: soon, Justification: "maintenance"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED_BY_MANAGER", view.Status)
	assert.Equal(t, policies.TemplateBookingCancelled, f.notifier.last().Template)
	assert.Equal(t, resident.UserID, f.notifier.last().To)

	_, err = h.Handle(ctx, booking.CancelItemCommand{Actor: manager, ItemID: soon})
	assert.ErrorIs(t, err, domaincalendar.ErrInvalidTransition)

	// a cancelled booking frees the unit's quota
	_, err = f.request(ctx, resident, "party", "101", at(3, 27, 18), at(3, 27, 22))
	assert.NoError(t, err)
}

func TestEditRevalidatesMovedInterval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.request(ctx, resident, "gym", "101", at(3, 12, 10), at(3, 12, 11))
	require.NoError(t, err)
	other, err := f.request(ctx, neighbor, "gym", "202", at(3, 12, 12), at(3, 12, 13))
	require.NoError(t, err)
	h := &booking.EditItemHandler{Workflow: f.workflow}

	start, end := at(3, 12, 10).Add(30 * time.Minute), at(3, 12, 11).Add(30 * time.Minute)
	_, err = h.Handle(ctx, booking.EditItemCommand{Actor: manager, ItemID: other, Start: &start, End: &end})
	assert.ErrorIs(t, err, domaincalendar.ErrConflict)

	_, err = h.Handle(ctx, booking.EditItemCommand{Actor: neighbor, ItemID: other, Notes: strptr("x")})
	assert.ErrorIs(t, err, policies.ErrForbidden)

	// shrinking in place does not conflict with itself
	end = at(3, 12, 12).Add(45 * time.Minute)
	start = at(3, 12, 12)
	view, err := h.Handle(ctx, booking.EditItemCommand{Actor: manager, ItemID: other, Start: &start, End: &end, Notes: strptr("bring towels")})
	require.NoError(t, err)
	assert.Equal(t, end.UTC(), view.End)
	assert.Equal(t, "bring towels", view.Notes)
	assert.Equal(t, manager.UserID, view.ApproverID)
	assert.False(t, view.ReminderSent)
	assert.Equal(t, policies.TemplateBookingEdited, f.notifier.last().Template)
	assert.Equal(t, neighbor.UserID, f.notifier.last().To)
}

func TestItemsOfOtherCommunitiesAreHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.request(ctx, resident, "party", "101", at(3, 20, 18), at(3, 20, 23))
	require.NoError(t, err)

	outsider := policies.Actor{UserID: "m-9", CommunityID: "c2", Privileged: true}
	h := &booking.UpdateStatusHandler{Workflow: f.workflow}
	_, err = h.Handle(ctx, booking.UpdateStatusCommand{Actor: outsider, ItemID: id, Status: "CONFIRMED"})
	assert.ErrorIs(t, err, domaincalendar.ErrItemNotFound)
}

func TestRequestWaitingOnDeletedAmenityFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	holder, err := f.factory.Begin(ctx, uowWrite)
	require.NoError(t, err)
	require.NoError(t, holder.LockAmenity(ctx, "gym"))

	done := make(chan error, 1)
	go func() {
		_, err := f.request(ctx, resident, "gym", "101", at(3, 12, 10), at(3, 12, 11))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, holder.Amenities().Delete(ctx, "gym"))
	require.NoError(t, holder.Commit(ctx))

	select {
	case err = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("request still waiting for the amenity lock")
	}
	assert.ErrorIs(t, err, domainamenity.ErrNotFound)

	unit, err := f.factory.Begin(ctx, uowReadOnly)
	require.NoError(t, err)
	defer unit.Rollback(ctx)
	page, err := unit.Calendar().Search(ctx, domaincalendar.Filter{CommunityID: "c1", AmenityID: "gym"})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}
