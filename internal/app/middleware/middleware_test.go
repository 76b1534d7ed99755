package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condobook/internal/app/commands"
	appoutbox "condobook/internal/app/outbox"
	"condobook/internal/app/policies"
	"condobook/internal/app/queries"
	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
)

type fakeUnit struct {
	committed  bool
	rolledBack bool
}

func (u *fakeUnit) Amenities() domainamenity.Repository                 { return nil }
func (u *fakeUnit) Calendar() domaincalendar.Repository                 { return nil }
func (u *fakeUnit) LockAmenity(context.Context, domainamenity.ID) error { return nil }
func (u *fakeUnit) Commit(context.Context) error                        { u.committed = true; return nil }
func (u *fakeUnit) Rollback(context.Context) error                      { u.rolledBack = true; return nil }

type fakeFactory struct {
	units []*fakeUnit
}

func (f *fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	f.units = append(f.units, u)
	return u, nil
}

type pingCommand struct {
	Name      string `validate:"required"`
	Start     time.Time
	End       time.Time `validate:"omitempty,gtfield=Start"`
	key       string
	selfOwned bool
	fail      bool
}

func (c pingCommand) Key() string             { return "test.ping" }
func (c pingCommand) IdempotencyKey() string  { return c.key }
func (c pingCommand) ResultPrototype() any    { return &pingResult{} }
func (c pingCommand) ManagesUnitOfWork() bool { return c.selfOwned }

type pingResult struct {
	Calls int `json:"calls"`
}

func newBus(calls *int) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[pingCommand, *pingResult](bus, "test.ping", commands.HandlerFunc[pingCommand, *pingResult](
		func(ctx context.Context, cmd pingCommand) (*pingResult, error) {
			*calls++
			if cmd.fail {
				return nil, errors.New("boom")
			}
			_, inUnit := uow.FromContext(ctx)
			if !inUnit && !cmd.selfOwned {
				return nil, errors.New("unit missing")
			}
			return &pingResult{Calls: *calls}, nil
		}))
	return bus
}

func TestTransactionCommitsAndRollsBack(t *testing.T) {
	calls := 0
	factory := &fakeFactory{}
	bus := ChainCommands(newBus(&calls), Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), pingCommand{Name: "ok"})
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), pingCommand{Name: "ko", fail: true})
	require.Error(t, err)

	require.Len(t, factory.units, 2)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)
	assert.False(t, factory.units[1].committed)
	assert.True(t, factory.units[1].rolledBack)
}

func TestTransactionSkipsSelfManagedCommands(t *testing.T) {
	calls := 0
	factory := &fakeFactory{}
	bus := ChainCommands(newBus(&calls), Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), pingCommand{Name: "ok", selfOwned: true})
	require.NoError(t, err)
	assert.Empty(t, factory.units)
}

type mapStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (s *mapStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *mapStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

func TestIdempotencyReplaysResult(t *testing.T) {
	calls := 0
	store := &mapStore{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(newBus(&calls), Idempotency(store, nil), Transaction(&fakeFactory{}, nil))

	first, err := commands.Dispatch[pingCommand, *pingResult](context.Background(), bus, pingCommand{Name: "a", key: "k1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[pingCommand, *pingResult](context.Background(), bus, pingCommand{Name: "a", key: "k1"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Calls, second.Calls)
	_, stored := store.items["test.ping:k1"]
	assert.True(t, stored)

	_, err = bus.Dispatch(context.Background(), pingCommand{Name: "b", key: "k2", fail: true})
	require.Error(t, err)
	_, err = bus.Dispatch(context.Background(), pingCommand{Name: "b", key: "k2"})
	assert.ErrorIs(t, err, ErrReplayedFailure)
	assert.Equal(t, 2, calls)
}

func TestStructValidatorReportsField(t *testing.T) {
	calls := 0
	bus := ChainCommands(newBus(&calls), Validation(NewStructValidator()), Transaction(&fakeFactory{}, nil))

	_, err := bus.Dispatch(context.Background(), pingCommand{})
	var verr *domaincalendar.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	now := time.Now()
	_, err = bus.Dispatch(context.Background(), pingCommand{Name: "x", Start: now, End: now.Add(-time.Hour)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end", verr.Field)
	assert.Equal(t, 0, calls)
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "unit_id", snakeCase("UnitID"))
	assert.Equal(t, "amenity_id", snakeCase("AmenityID"))
	assert.Equal(t, "page_size", snakeCase("PageSize"))
}

func TestTransactionJoinsUnitAlreadyInContext(t *testing.T) {
	calls := 0
	factory := &fakeFactory{}
	bus := ChainCommands(newBus(&calls), Transaction(factory, nil))

	outer := &fakeUnit{}
	ctx := uow.WithUnit(context.Background(), outer)
	_, err := bus.Dispatch(ctx, pingCommand{Name: "ok"})
	require.NoError(t, err)
	assert.Empty(t, factory.units)
	assert.False(t, outer.committed)
}

type guardedPing struct {
	pingCommand
	actor policies.Actor
}

func (c guardedPing) Caller() policies.Actor  { return c.actor }
func (c guardedPing) RequiresPrivilege() bool { return false }

func TestIdempotencyScopesKeysByCaller(t *testing.T) {
	calls := 0
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[guardedPing, *pingResult](bus, "test.ping", commands.HandlerFunc[guardedPing, *pingResult](
		func(context.Context, guardedPing) (*pingResult, error) {
			calls++
			return &pingResult{Calls: calls}, nil
		}))
	store := &mapStore{items: map[string]IdempotencyRecord{}}
	chained := ChainCommands(bus, Idempotency(store, nil))

	alice := guardedPing{pingCommand: pingCommand{Name: "a", key: "same"}, actor: policies.Actor{UserID: "alice", CommunityID: "c1"}}
	bob := guardedPing{pingCommand: pingCommand{Name: "a", key: "same"}, actor: policies.Actor{UserID: "bob", CommunityID: "c1"}}
	_, err := chained.Dispatch(context.Background(), alice)
	require.NoError(t, err)
	_, err = chained.Dispatch(context.Background(), bob)
	require.NoError(t, err)
	_, err = chained.Dispatch(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Contains(t, store.items, "alice/test.ping:same")
	assert.Contains(t, store.items, "bob/test.ping:same")
}

type failingOutbox struct{ flushed int }

func (o *failingOutbox) Add(context.Context, appoutbox.EventRecord) error { return nil }
func (o *failingOutbox) Flush(context.Context) error {
	o.flushed++
	return errors.New("disk full")
}

func TestOutboxFlushFailureKeepsResult(t *testing.T) {
	calls := 0
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	box := &failingOutbox{}
	bus := ChainCommands(newBus(&calls), OutboxFlush(box, logger), Transaction(&fakeFactory{}, nil))

	res, err := commands.Dispatch[pingCommand, *pingResult](context.Background(), bus, pingCommand{Name: "ok"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Calls)
	assert.Equal(t, 1, box.flushed)
	assert.Contains(t, buf.String(), "outbox flush failed")

	_, err = bus.Dispatch(context.Background(), pingCommand{Name: "ko", fail: true})
	require.Error(t, err)
	assert.Equal(t, 1, box.flushed)
}

type listQuery struct {
	actor policies.Actor
	admin bool
}

func (q listQuery) Key() string             { return "test.list" }
func (q listQuery) Caller() policies.Actor  { return q.actor }
func (q listQuery) RequiresPrivilege() bool { return q.admin }

func TestQueryAuthorization(t *testing.T) {
	bus := queries.NewInMemoryBus()
	queries.RegisterHandler[listQuery, int](bus, "test.list", queries.HandlerFunc[listQuery, int](
		func(context.Context, listQuery) (int, error) { return 3, nil }))
	chained := ChainQueries(bus, QueryLogging(nil), QueryAuthorization(policies.RoleAuthorizer{}))

	resident := policies.Actor{UserID: "u1", CommunityID: "c1"}
	n, err := queries.Ask[listQuery, int](context.Background(), chained, listQuery{actor: resident})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = chained.Ask(context.Background(), listQuery{actor: resident, admin: true})
	assert.ErrorIs(t, err, policies.ErrForbidden)

	_, err = chained.Ask(context.Background(), listQuery{})
	assert.ErrorIs(t, err, policies.ErrUnauthenticated)
}
