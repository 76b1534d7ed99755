package agenda_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condobook/internal/app/dto"
	"condobook/internal/app/handlers/agenda"
	"condobook/internal/app/policies"
	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/locale"
	"condobook/internal/domain/shared/timerange"
	"condobook/internal/infra/storage/memory"
)

var brt = time.FixedZone("BRT", -3*60*60)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, brt)

var (
	resident = policies.Actor{UserID: "u-101", CommunityID: "c1", UnitIDs: []string{"101"}}
	neighbor = policies.Actor{UserID: "u-202", CommunityID: "c1", UnitIDs: []string{"202"}}
	manager  = policies.Actor{UserID: "m-1", CommunityID: "c1", Privileged: true}
)

type seed struct {
	id       string
	amenity  domainamenity.ID
	owner    policies.Actor
	start    time.Time
	hours    int
	approval bool
	cancel   bool
	notes    string
}

func setup(t *testing.T, seeds ...seed) agenda.Reader {
	t.Helper()
	ctx := context.Background()
	factory := memory.NewFactory()
	factory.Amenities.Seed(
		&domainamenity.Amenity{ID: "gym", CommunityID: "c1", Name: "Gym", ShowOnBulletin: true},
		&domainamenity.Amenity{ID: "party", CommunityID: "c1", Name: "Party Room"},
		&domainamenity.Amenity{ID: "pool", CommunityID: "c1", Name: "Pool", PublicDetails: true},
	)
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	for _, s := range seeds {
		params := domaincalendar.NewItemParams{
			ID:               domaincalendar.ItemID(s.id),
			CommunityID:      "c1",
			RequesterID:      s.owner.UserID,
			Range:            timerange.Interval{Start: s.start.UTC(), End: s.start.Add(time.Duration(s.hours) * time.Hour).UTC()},
			RequiresApproval: s.approval,
			Notes:            s.notes,
			CreatedAt:        s.start.AddDate(0, 0, -7),
		}
		if s.amenity == "" {
			params.Subject = domaincalendar.GeneralEntry{}
			params.Title = "Assembly"
		} else {
			params.Subject = domaincalendar.ResourceBooking{AmenityID: s.amenity}
			params.UnitID = s.owner.UnitIDs[0]
		}
		item, err := domaincalendar.NewItem(params)
		require.NoError(t, err)
		if s.cancel {
			require.NoError(t, item.CancelByManager(manager.UserID, "closed", now))
		}
		require.NoError(t, unit.Calendar().Save(ctx, item))
	}
	require.NoError(t, unit.Commit(ctx))
	return agenda.Reader{
		UoWFactory: factory,
		Clock:      domaincalendar.ClockFunc(func() time.Time { return now }),
		Locale:     locale.Fixed(brt, "pt-br"),
	}
}

func local(month time.Month, day, hour int) time.Time {
	return time.Date(2026, month, day, hour, 0, 0, 0, brt)
}

func TestMonthUsesLocalBoundaries(t *testing.T) {
	reader := setup(t,
		seed{id: "late-march", amenity: "gym", owner: resident, start: local(3, 31, 22), hours: 1},
		seed{id: "early-april", amenity: "gym", owner: neighbor, start: local(4, 1, 0), hours: 1},
		seed{id: "feb-overlap", amenity: "party", owner: neighbor, start: local(2, 28, 23), hours: 3},
		seed{id: "cancelled", amenity: "gym", owner: resident, start: local(3, 15, 9), hours: 1, cancel: true},
	)
	h := &agenda.GetAgendaHandler{Reader: reader}

	march, err := h.Handle(context.Background(), agenda.GetAgendaQuery{Actor: resident, Year: 2026, Month: 3})
	require.NoError(t, err)
	got := make([]string, 0, len(march.Items))
	for _, item := range march.Items {
		got = append(got, item.ID)
	}
	assert.Equal(t, []string{"feb-overlap", "late-march"}, got)
	assert.Equal(t, local(3, 1, 0).UTC(), march.From)
	assert.True(t, march.Items[1].Mine)
	assert.False(t, march.Items[0].Mine)
	assert.Equal(t, "Party Room", march.Items[0].AmenityName)

	april, err := h.Handle(context.Background(), agenda.GetAgendaQuery{Actor: resident, Year: 2026, Month: 4})
	require.NoError(t, err)
	require.Len(t, april.Items, 1)
	assert.Equal(t, "early-april", april.Items[0].ID)
}

func TestMonthFilters(t *testing.T) {
	reader := setup(t,
		seed{id: "a", amenity: "gym", owner: resident, start: local(3, 12, 10), hours: 1},
		seed{id: "b", amenity: "party", owner: neighbor, start: local(3, 13, 18), hours: 4, approval: true},
	)
	h := &agenda.GetAgendaHandler{Reader: reader}
	ctx := context.Background()

	byUnit, err := h.Handle(ctx, agenda.GetAgendaQuery{Actor: resident, Year: 2026, Month: 3, UnitID: "202"})
	require.NoError(t, err)
	assert.Len(t, byUnit.Items, 2, "unit filter is ignored for residents")

	byUnit, err = h.Handle(ctx, agenda.GetAgendaQuery{Actor: manager, Year: 2026, Month: 3, UnitID: "202"})
	require.NoError(t, err)
	require.Len(t, byUnit.Items, 1)
	assert.Equal(t, "b", byUnit.Items[0].ID)

	pending, err := h.Handle(ctx, agenda.GetAgendaQuery{Actor: resident, Year: 2026, Month: 3, Statuses: []string{"PENDING"}})
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, "b", pending.Items[0].ID)

	terminal, err := h.Handle(ctx, agenda.GetAgendaQuery{Actor: resident, Year: 2026, Month: 3, Statuses: []string{"REFUSED"}})
	require.NoError(t, err)
	assert.Empty(t, terminal.Items)

	gym, err := h.Handle(ctx, agenda.GetAgendaQuery{Actor: resident, Year: 2026, Month: 3, AmenityID: "gym"})
	require.NoError(t, err)
	require.Len(t, gym.Items, 1)

	_, err = h.Handle(ctx, agenda.GetAgendaQuery{Actor: resident, Year: 2026, Month: 3, Statuses: []string{"LOST"}})
	assert.ErrorIs(t, err, domaincalendar.ErrValidation)
}

func TestListAllIsPrivilegedSortedAndPaged(t *testing.T) {
	reader := setup(t,
		seed{id: "a", amenity: "gym", owner: resident, start: local(3, 12, 10), hours: 1},
		seed{id: "b", amenity: "gym", owner: neighbor, start: local(3, 14, 10), hours: 1},
		seed{id: "c", amenity: "party", owner: neighbor, start: local(3, 16, 18), hours: 2, cancel: true},
	)
	h := &agenda.ListAllHandler{Reader: reader}
	ctx := context.Background()

	_, err := h.Handle(ctx, agenda.ListAllQuery{Actor: resident})
	assert.ErrorIs(t, err, policies.ErrForbidden)

	page, err := h.Handle(ctx, agenda.ListAllQuery{Actor: manager, Sort: "start_desc", Paging: agenda.Paging{Page: 1, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.PageSize)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c", page.Items[0].ID)
	assert.Equal(t, "b", page.Items[1].ID)

	from, to := local(3, 13, 0), local(3, 15, 0)
	window, err := h.Handle(ctx, agenda.ListAllQuery{Actor: manager, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window.Items, 1)
	assert.Equal(t, "b", window.Items[0].ID)

	_, err = h.Handle(ctx, agenda.ListAllQuery{Actor: manager, From: &to, To: &from})
	assert.ErrorIs(t, err, domaincalendar.ErrValidation)

	_, err = h.Handle(ctx, agenda.ListAllQuery{Actor: manager, Sort: "random"})
	assert.ErrorIs(t, err, domaincalendar.ErrValidation)
}

func TestListMinePutsPendingFirst(t *testing.T) {
	reader := setup(t,
		seed{id: "confirmed", amenity: "gym", owner: resident, start: local(3, 12, 10), hours: 1},
		seed{id: "pending", amenity: "party", owner: resident, start: local(3, 20, 18), hours: 2, approval: true},
		seed{id: "theirs", amenity: "gym", owner: neighbor, start: local(3, 11, 10), hours: 1},
	)
	h := &agenda.ListMineHandler{Reader: reader}
	page, err := h.Handle(context.Background(), agenda.ListMineQuery{Actor: resident})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "pending", page.Items[0].ID)
	assert.Equal(t, "confirmed", page.Items[1].ID)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, agenda.DefaultPageSize, page.PageSize)
}

func TestBulletinShowsRecentConfirmedPublicItems(t *testing.T) {
	reader := setup(t,
		seed{id: "gym-now", amenity: "gym", owner: resident, start: local(3, 12, 10), hours: 1},
		seed{id: "gym-yesterday", amenity: "gym", owner: resident, start: local(3, 9, 13), hours: 1},
		seed{id: "gym-old", amenity: "gym", owner: resident, start: local(3, 8, 10), hours: 1},
		seed{id: "gym-pending", amenity: "gym", owner: resident, start: local(3, 13, 10), hours: 1, approval: true},
		seed{id: "party", amenity: "party", owner: neighbor, start: local(3, 14, 18), hours: 2},
		seed{id: "assembly", owner: manager, start: local(3, 15, 19), hours: 2},
	)
	h := &agenda.ListBulletinHandler{Reader: reader}
	page, err := h.Handle(context.Background(), agenda.ListBulletinQuery{Actor: neighbor})
	require.NoError(t, err)
	got := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		got = append(got, item.ID)
	}
	assert.Equal(t, []string{"gym-yesterday", "gym-now", "assembly"}, got)
	assert.Equal(t, 3, page.Total)
}

func TestDetailHidesPrivateItems(t *testing.T) {
	reader := setup(t,
		seed{id: "private", amenity: "party", owner: resident, start: local(3, 20, 18), hours: 2},
		seed{id: "public", amenity: "pool", owner: resident, start: local(3, 21, 10), hours: 2},
		seed{id: "assembly", owner: manager, start: local(3, 15, 19), hours: 2},
	)
	h := &agenda.GetItemHandler{Reader: reader}
	ctx := context.Background()

	_, err := h.Handle(ctx, agenda.GetItemQuery{Actor: neighbor, ItemID: "private"})
	assert.ErrorIs(t, err, domaincalendar.ErrItemNotFound)

	for _, tc := range []struct {
		actor policies.Actor
		id    string
	}{
		{resident, "private"},
		{manager, "private"},
		{neighbor, "public"},
		{neighbor, "assembly"},
	} {
		view, err := h.Handle(ctx, agenda.GetItemQuery{Actor: tc.actor, ItemID: tc.id})
		require.NoError(t, err, "%s opening %s", tc.actor.UserID, tc.id)
		assert.Equal(t, tc.id, view.ID)
	}

	outsider := policies.Actor{UserID: "m-9", CommunityID: "c2", Privileged: true}
	_, err = h.Handle(ctx, agenda.GetItemQuery{Actor: outsider, ItemID: "private"})
	assert.ErrorIs(t, err, domaincalendar.ErrItemNotFound)

	_, err = h.Handle(ctx, agenda.GetItemQuery{Actor: manager, ItemID: "missing"})
	assert.ErrorIs(t, err, domaincalendar.ErrItemNotFound)
}

func TestGridViewsRedactPrivateBookings(t *testing.T) {
	reader := setup(t,
		seed{id: "private", amenity: "party", owner: resident, start: local(3, 20, 18), hours: 2, notes: "gate code 4411"},
		seed{id: "public", amenity: "pool", owner: resident, start: local(3, 21, 10), hours: 2, notes: "lap swim"},
		seed{id: "gym", amenity: "gym", owner: resident, start: local(3, 12, 10), hours: 1, notes: "legs"},
	)
	ctx := context.Background()
	month := &agenda.GetAgendaHandler{Reader: reader}

	byID := func(items []dto.CalendarItem) map[string]dto.CalendarItem {
		out := make(map[string]dto.CalendarItem, len(items))
		for _, item := range items {
			out[item.ID] = item
		}
		return out
	}

	seen, err := month.Handle(ctx, agenda.GetAgendaQuery{Actor: neighbor, Year: 2026, Month: 3})
	require.NoError(t, err)
	items := byID(seen.Items)
	require.Len(t, items, 3)

	private := items["private"]
	assert.Equal(t, "party", private.AmenityID)
	assert.Equal(t, "Party Room", private.AmenityName)
	assert.Equal(t, "CONFIRMED", private.Status)
	assert.Equal(t, local(3, 20, 18).UTC(), private.Start)
	assert.False(t, private.Mine)
	assert.Empty(t, private.RequesterID)
	assert.Empty(t, private.UnitID)
	assert.Empty(t, private.Notes)

	assert.Equal(t, "lap swim", items["public"].Notes, "public amenities keep their details")
	assert.Equal(t, resident.UserID, items["public"].RequesterID)

	for _, actor := range []policies.Actor{resident, manager} {
		seen, err := month.Handle(ctx, agenda.GetAgendaQuery{Actor: actor, Year: 2026, Month: 3})
		require.NoError(t, err)
		got := byID(seen.Items)["private"]
		assert.Equal(t, "gate code 4411", got.Notes, actor.UserID)
		assert.Equal(t, "101", got.UnitID, actor.UserID)
	}

	bulletin := &agenda.ListBulletinHandler{Reader: reader}
	page, err := bulletin.Handle(ctx, agenda.ListBulletinQuery{Actor: neighbor})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "gym", page.Items[0].ID)
	assert.Empty(t, page.Items[0].Notes)
	assert.Empty(t, page.Items[0].RequesterID)
}
