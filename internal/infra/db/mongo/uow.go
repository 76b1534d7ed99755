package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	AmenityRepo  *AmenityRepository
	CalendarRepo *CalendarRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func NewFactory(db *mongo.Database) Factory {
	return Factory{DB: db, AmenityRepo: NewAmenityRepository(db), CalendarRepo: NewCalendarRepository(db)}
}

// Begin starts a MongoDB session/transaction. Every unit runs with snapshot
// reads so the conflict check sees one consistent view.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.AmenityRepo == nil || f.CalendarRepo == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(f.DB.WriteConcern()).
		SetReadPreference(readpref.Primary())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:        f.DB,
		session:   session,
		readOnly:  opts.ReadOnly,
		amenities: f.AmenityRepo,
		calendar:  f.CalendarRepo,
	}, nil
}

type Unit struct {
	db       *mongo.Database
	session  mongo.Session
	readOnly bool

	amenities *AmenityRepository
	calendar  *CalendarRepository
}

func (u *Unit) Amenities() domainamenity.Repository {
	return sessionAmenities{repo: u.amenities, session: u.session}
}

func (u *Unit) Calendar() domaincalendar.Repository {
	return sessionCalendar{repo: u.calendar, session: u.session}
}

// LockAmenity bumps the amenity's lock document inside the transaction. A
// second transaction touching the same document fails with a write conflict
// instead of waiting, which surfaces as uow.ErrConcurrentUpdate.
func (u *Unit) LockAmenity(ctx context.Context, id domainamenity.ID) error {
	update := bson.M{
		"$inc": bson.M{"seq": 1},
		"$set": bson.M{"locked_at": time.Now().UTC()},
	}
	_, err := u.db.Collection(lockCollection).UpdateOne(u.InjectContext(ctx), bson.M{"_id": string(id)}, update, options.Update().SetUpsert(true))
	return asConcurrentUpdate(err)
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return u.session.AbortTransaction(ctx)
	}
	return asConcurrentUpdate(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

type sessionAmenities struct {
	repo    *AmenityRepository
	session mongo.Session
}

func (s sessionAmenities) ctx(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, s.session)
}

func (s sessionAmenities) ByID(ctx context.Context, id domainamenity.ID) (*domainamenity.Amenity, error) {
	return s.repo.ByID(s.ctx(ctx), id)
}

func (s sessionAmenities) ListByCommunity(ctx context.Context, communityID string) ([]*domainamenity.Amenity, error) {
	return s.repo.ListByCommunity(s.ctx(ctx), communityID)
}

func (s sessionAmenities) Save(ctx context.Context, a *domainamenity.Amenity) error {
	return s.repo.Save(s.ctx(ctx), a)
}

func (s sessionAmenities) Delete(ctx context.Context, id domainamenity.ID) error {
	return s.repo.Delete(s.ctx(ctx), id)
}

type sessionCalendar struct {
	repo    *CalendarRepository
	session mongo.Session
}

func (s sessionCalendar) ctx(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, s.session)
}

func (s sessionCalendar) ByID(ctx context.Context, id domaincalendar.ItemID) (*domaincalendar.Item, error) {
	return s.repo.ByID(s.ctx(ctx), id)
}

func (s sessionCalendar) Search(ctx context.Context, filter domaincalendar.Filter) (domaincalendar.Page, error) {
	return s.repo.Search(s.ctx(ctx), filter)
}

func (s sessionCalendar) Save(ctx context.Context, item *domaincalendar.Item) error {
	return s.repo.Save(s.ctx(ctx), item)
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.UnitOfWork      = (*Unit)(nil)
	_ uow.ContextInjector = (*Unit)(nil)
)
