package amenities_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condobook/internal/app/handlers/amenities"
	"condobook/internal/app/policies"
	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/timerange"
	"condobook/internal/infra/storage/memory"
)

var brt = time.FixedZone("BRT", -3*60*60)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, brt)

var (
	resident = policies.Actor{UserID: "u-101", CommunityID: "c1", UnitIDs: []string{"101"}}
	manager  = policies.Actor{UserID: "m-1", CommunityID: "c1", Privileged: true}
	outsider = policies.Actor{UserID: "m-9", CommunityID: "c2", Privileged: true}
	clock    = domaincalendar.ClockFunc(func() time.Time { return now })
)

func newFactory(t *testing.T) *memory.Factory {
	t.Helper()
	factory := memory.NewFactory()
	factory.Amenities.Seed(&domainamenity.Amenity{ID: "gym", CommunityID: "c1", Name: "Gym", Version: 1})
	return factory
}

func book(t *testing.T, factory *memory.Factory, id string, start time.Time, cancelled bool) {
	t.Helper()
	ctx := context.Background()
	item, err := domaincalendar.NewItem(domaincalendar.NewItemParams{
		ID:          domaincalendar.ItemID(id),
		CommunityID: "c1",
		UnitID:      "101",
		RequesterID: resident.UserID,
		Subject:     domaincalendar.ResourceBooking{AmenityID: "gym"},
		Range:       timerange.Interval{Start: start.UTC(), End: start.Add(time.Hour).UTC()},
		CreatedAt:   now.AddDate(0, 0, -7),
	})
	require.NoError(t, err)
	if cancelled {
		require.NoError(t, item.CancelByManager(manager.UserID, "maintenance", now))
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Calendar().Save(ctx, item))
	require.NoError(t, unit.Commit(ctx))
}

func exists(t *testing.T, factory *memory.Factory, id domainamenity.ID) bool {
	t.Helper()
	ctx := context.Background()
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(ctx)
	_, err = unit.Amenities().ByID(ctx, id)
	if errors.Is(err, domainamenity.ErrNotFound) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestDeleteRejectedWhileUpcomingBookingExists(t *testing.T) {
	factory := newFactory(t)
	book(t, factory, "upcoming", time.Date(2026, 3, 12, 10, 0, 0, 0, brt), false)
	h := &amenities.DeleteAmenityHandler{UoWFactory: factory, Clock: clock}

	_, err := h.Handle(context.Background(), amenities.DeleteAmenityCommand{Actor: manager, AmenityID: "gym"})
	assert.ErrorIs(t, err, domainamenity.ErrInUse)
	assert.True(t, exists(t, factory, "gym"))
}

func TestDeleteAllowedOnceBookingsEndedOrCancelled(t *testing.T) {
	factory := newFactory(t)
	book(t, factory, "past", time.Date(2026, 3, 9, 10, 0, 0, 0, brt), false)
	book(t, factory, "cancelled", time.Date(2026, 3, 12, 10, 0, 0, 0, brt), true)
	h := &amenities.DeleteAmenityHandler{UoWFactory: factory, Clock: clock}

	_, err := h.Handle(context.Background(), amenities.DeleteAmenityCommand{Actor: manager, AmenityID: "gym"})
	require.NoError(t, err)
	assert.False(t, exists(t, factory, "gym"))
}

func TestDeleteGuards(t *testing.T) {
	factory := newFactory(t)
	h := &amenities.DeleteAmenityHandler{UoWFactory: factory, Clock: clock}
	ctx := context.Background()

	_, err := h.Handle(ctx, amenities.DeleteAmenityCommand{Actor: resident, AmenityID: "gym"})
	assert.ErrorIs(t, err, policies.ErrForbidden)

	_, err = h.Handle(ctx, amenities.DeleteAmenityCommand{Actor: outsider, AmenityID: "gym"})
	assert.ErrorIs(t, err, domainamenity.ErrNotFound)
	assert.True(t, exists(t, factory, "gym"))
}

func TestCreateAndUpdate(t *testing.T) {
	factory := newFactory(t)
	create := &amenities.CreateAmenityHandler{UoWFactory: factory, Clock: clock}
	update := &amenities.UpdateAmenityHandler{UoWFactory: factory, Clock: clock}
	ctx := context.Background()
	input := amenities.Input{
		Name:               "Pool",
		OpenTime:           "08:00",
		CloseTime:          "24:00",
		MinDurationMinutes: 30,
		MaxDurationMinutes: 120,
		FeeAmount:          5000,
		FeeCurrency:        "brl",
	}

	created, err := create.Handle(ctx, amenities.CreateAmenityCommand{Actor: manager, AmenityID: "pool", Input: input})
	require.NoError(t, err)
	assert.Equal(t, "pool", created.ID)
	assert.Equal(t, "c1", created.CommunityID)
	assert.Equal(t, "BRL", created.Fee.Currency)
	assert.True(t, exists(t, factory, "pool"))

	input.Name = "Rooftop Pool"
	updated, err := update.Handle(ctx, amenities.UpdateAmenityCommand{Actor: manager, AmenityID: "pool", Input: input})
	require.NoError(t, err)
	assert.Equal(t, "Rooftop Pool", updated.Name)

	_, err = create.Handle(ctx, amenities.CreateAmenityCommand{Actor: resident, Input: input})
	assert.ErrorIs(t, err, policies.ErrForbidden)
	_, err = update.Handle(ctx, amenities.UpdateAmenityCommand{Actor: resident, AmenityID: "pool", Input: input})
	assert.ErrorIs(t, err, policies.ErrForbidden)
	_, err = update.Handle(ctx, amenities.UpdateAmenityCommand{Actor: outsider, AmenityID: "pool", Input: input})
	assert.ErrorIs(t, err, domainamenity.ErrNotFound)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	h := &amenities.CreateAmenityHandler{UoWFactory: newFactory(t), Clock: clock}
	ctx := context.Background()

	_, err := h.Handle(ctx, amenities.CreateAmenityCommand{Actor: manager, Input: amenities.Input{Name: "Sauna", OpenTime: "25:00"}})
	assert.ErrorIs(t, err, domainamenity.ErrInvalidConfig)

	_, err = h.Handle(ctx, amenities.CreateAmenityCommand{Actor: manager, Input: amenities.Input{Name: "Sauna", MinDurationMinutes: 90, MaxDurationMinutes: 60}})
	assert.ErrorIs(t, err, domainamenity.ErrInvalidConfig)

	_, err = h.Handle(ctx, amenities.CreateAmenityCommand{Actor: manager, Input: amenities.Input{Name: "Sauna", FeeAmount: 100, FeeCurrency: "real"}})
	assert.ErrorIs(t, err, domaincalendar.ErrValidation)

	_, err = h.Handle(ctx, amenities.CreateAmenityCommand{Actor: manager, AmenityID: "gym", Input: amenities.Input{Name: "Gym"}})
	assert.ErrorIs(t, err, uow.ErrConcurrentUpdate, "an existing id is not overwritten")
}

func TestAmenityQueriesStayInCommunity(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()

	list, err := (&amenities.ListAmenitiesHandler{UoWFactory: factory}).Handle(ctx, amenities.ListAmenitiesQuery{Actor: resident})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Gym", list.Items[0].Name)

	other, err := (&amenities.ListAmenitiesHandler{UoWFactory: factory}).Handle(ctx, amenities.ListAmenitiesQuery{Actor: outsider})
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	get := &amenities.GetAmenityHandler{UoWFactory: factory}
	got, err := get.Handle(ctx, amenities.GetAmenityQuery{Actor: resident, AmenityID: "gym"})
	require.NoError(t, err)
	assert.Equal(t, "gym", got.ID)

	_, err = get.Handle(ctx, amenities.GetAmenityQuery{Actor: outsider, AmenityID: "gym"})
	assert.ErrorIs(t, err, domainamenity.ErrNotFound)
}

type fakeUploader struct {
	key  string
	body string
}

func (u *fakeUploader) Upload(_ context.Context, key string, reader io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	u.key, u.body = key, string(data)
	return "https://cdn.example/" + key, nil
}

func TestUploadPhoto(t *testing.T) {
	factory := newFactory(t)
	uploader := &fakeUploader{}
	h := &amenities.UploadAmenityPhotoHandler{UoWFactory: factory, Uploader: uploader, Clock: clock}
	ctx := context.Background()

	view, err := h.Handle(ctx, amenities.UploadAmenityPhotoCommand{
		Actor:       manager,
		AmenityID:   "gym",
		FileName:    "front.PNG",
		ContentType: "image/png",
		Reader:      strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uploader.key, "communities/c1/amenities/gym/"))
	assert.True(t, strings.HasSuffix(uploader.key, ".png"))
	assert.Equal(t, "png-bytes", uploader.body)
	assert.Equal(t, "https://cdn.example/"+uploader.key, view.PhotoURL)

	_, err = h.Handle(ctx, amenities.UploadAmenityPhotoCommand{Actor: manager, AmenityID: "gym"})
	assert.ErrorIs(t, err, domaincalendar.ErrValidation)

	bare := &amenities.UploadAmenityPhotoHandler{UoWFactory: factory}
	_, err = bare.Handle(ctx, amenities.UploadAmenityPhotoCommand{Actor: manager, AmenityID: "gym", Reader: strings.NewReader("x")})
	assert.ErrorIs(t, err, amenities.ErrUploaderUnavailable)
}
