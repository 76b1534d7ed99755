package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condobook/internal/app/middleware"
	appoutbox "condobook/internal/app/outbox"
	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/timerange"
)

var t0 = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func entry(t *testing.T, id string) *domaincalendar.Item {
	t.Helper()
	item, err := domaincalendar.NewItem(domaincalendar.NewItemParams{
		ID:          domaincalendar.ItemID(id),
		CommunityID: "c1",
		RequesterID: "manager",
		Subject:     domaincalendar.GeneralEntry{},
		Range:       timerange.Interval{Start: t0, End: t0.Add(time.Hour)},
		Title:       "Assembly",
		CreatedAt:   t0,
	})
	require.NoError(t, err)
	return item
}

func begin(t *testing.T, f *Factory, readOnly bool) uow.UnitOfWork {
	t.Helper()
	unit, err := f.Begin(context.Background(), uow.TxOptions{ReadOnly: readOnly})
	require.NoError(t, err)
	return unit
}

func TestUnitStagesWritesUntilCommit(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	writer := begin(t, f, false)
	require.NoError(t, writer.Calendar().Save(ctx, entry(t, "i1")))

	staged, err := writer.Calendar().ByID(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "Assembly", staged.Title)

	reader := begin(t, f, true)
	_, err = reader.Calendar().ByID(ctx, "i1")
	assert.ErrorIs(t, err, domaincalendar.ErrItemNotFound)

	require.NoError(t, writer.Commit(ctx))
	stored, err := reader.Calendar().ByID(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	assert.Empty(t, stored.PendingEvents())
	assert.Equal(t, 1, f.Calendar.Len())
}

func TestRollbackDiscardsStagedWrites(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	unit := begin(t, f, false)
	require.NoError(t, unit.Calendar().Save(ctx, entry(t, "i1")))
	require.NoError(t, unit.Rollback(ctx))
	assert.Equal(t, 0, f.Calendar.Len())
}

func TestCommitRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	seed := begin(t, f, false)
	require.NoError(t, seed.Calendar().Save(ctx, entry(t, "i1")))
	require.NoError(t, seed.Commit(ctx))

	first := begin(t, f, false)
	second := begin(t, f, false)
	a, err := first.Calendar().ByID(ctx, "i1")
	require.NoError(t, err)
	b, err := second.Calendar().ByID(ctx, "i1")
	require.NoError(t, err)

	a.Title = "first"
	b.Title = "second"
	require.NoError(t, first.Calendar().Save(ctx, a))
	require.NoError(t, second.Calendar().Save(ctx, b))
	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, second.Commit(ctx), uow.ErrConcurrentUpdate)

	reader := begin(t, f, true)
	stored, err := reader.Calendar().ByID(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Title)
	assert.Equal(t, int64(2), stored.Version)
}

func TestSearchMergesStagedItems(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	seed := begin(t, f, false)
	require.NoError(t, seed.Calendar().Save(ctx, entry(t, "i1")))
	require.NoError(t, seed.Commit(ctx))

	unit := begin(t, f, false)
	require.NoError(t, unit.Calendar().Save(ctx, entry(t, "i2")))
	page, err := unit.Calendar().Search(ctx, domaincalendar.Filter{CommunityID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestLockAmenityIsExclusiveUntilUnitEnds(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	holder := begin(t, f, false)
	require.NoError(t, holder.LockAmenity(ctx, "gym"))
	require.NoError(t, holder.LockAmenity(ctx, "gym"), "re-entrant for the same unit")

	waiter := begin(t, f, false)
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, waiter.LockAmenity(short, "gym"), context.DeadlineExceeded)
	require.NoError(t, waiter.LockAmenity(ctx, "pool"), "other amenities stay free")

	acquired := make(chan error, 1)
	go func() { acquired <- waiter.LockAmenity(ctx, "gym") }()
	require.NoError(t, holder.Commit(ctx))
	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("lock not released on commit")
	}
	require.NoError(t, waiter.Rollback(ctx))
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	unit := begin(t, f, true)
	require.NoError(t, unit.Calendar().Save(ctx, entry(t, "i1")))
	assert.ErrorIs(t, unit.Commit(ctx), ErrReadOnly)
	assert.Equal(t, 0, f.Calendar.Len())
}

func TestAmenityDeleteAndList(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	f.Amenities.Seed(
		&domainamenity.Amenity{ID: "pool", CommunityID: "c1", Name: "Pool"},
		&domainamenity.Amenity{ID: "gym", CommunityID: "c1", Name: "Gym"},
		&domainamenity.Amenity{ID: "hall", CommunityID: "c2", Name: "Hall"},
	)
	unit := begin(t, f, false)
	list, err := unit.Amenities().ListByCommunity(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domainamenity.ID("gym"), list[0].ID)

	require.NoError(t, unit.Amenities().Delete(ctx, "gym"))
	_, err = unit.Amenities().ByID(ctx, "gym")
	assert.ErrorIs(t, err, domainamenity.ErrNotFound)
	require.NoError(t, unit.Commit(ctx))

	reader := begin(t, f, true)
	list, err = reader.Amenities().ListByCommunity(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOutboxRelayLifecycle(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "e1", Name: "calendar.item_requested"}))

	claimed, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "e1", claimed.ID)

	again, err := box.Claim(ctx, "w2")
	require.NoError(t, err)
	assert.Nil(t, again, "claimed records are not handed out twice")

	require.NoError(t, box.MarkFailed(ctx, "e1", time.Now().Add(-time.Second), "broker down"))
	retried, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, retried)
	assert.Equal(t, 1, retried.Attempts)

	require.NoError(t, box.MarkSent(ctx, "e1"))
	require.NoError(t, box.Flush(ctx))
	assert.Empty(t, box.Records())
}

func TestIdempotencyStoreExpiresAndPrunes(t *testing.T) {
	now := t0
	store := NewIdempotencyStore(time.Hour)
	store.Now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "old", OccurredAt: t0}))
	rec, ok, err := store.Get(ctx, "old")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "old", rec.Key)

	now = t0.Add(2 * time.Hour)
	_, ok, err = store.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "new", OccurredAt: now}))
	assert.Equal(t, 1, store.Len())
}
