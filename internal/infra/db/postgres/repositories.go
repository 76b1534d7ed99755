package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
)

// AmenityRepository runs on the transaction handed out by a Unit.
type AmenityRepository struct {
	db *gorm.DB
}

func NewAmenityRepository(db *gorm.DB) *AmenityRepository {
	return &AmenityRepository{db: db}
}

func (r *AmenityRepository) ByID(ctx context.Context, id domainamenity.ID) (*domainamenity.Amenity, error) {
	var m amenityModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainamenity.ErrNotFound
		}
		return nil, err
	}
	return m.toAggregate(), nil
}

func (r *AmenityRepository) ListByCommunity(ctx context.Context, communityID string) ([]*domainamenity.Amenity, error) {
	var models []amenityModel
	if err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("name ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domainamenity.Amenity, 0, len(models))
	for _, m := range models {
		out = append(out, m.toAggregate())
	}
	return out, nil
}

// Save writes the amenity if nobody changed it since it was loaded.
func (r *AmenityRepository) Save(ctx context.Context, a *domainamenity.Amenity) error {
	m := newAmenityModel(a)
	m.Version = a.Version + 1
	if err := saveVersioned(ctx, r.db, &m, m.ID, a.Version); err != nil {
		return err
	}
	a.Version = m.Version
	return nil
}

func (r *AmenityRepository) Delete(ctx context.Context, id domainamenity.ID) error {
	res := r.db.WithContext(ctx).Delete(&amenityModel{}, "id = ?", string(id))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainamenity.ErrNotFound
	}
	return nil
}

type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) ByID(ctx context.Context, id domaincalendar.ItemID) (*domaincalendar.Item, error) {
	var m itemModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domaincalendar.ErrItemNotFound
		}
		return nil, err
	}
	return m.toAggregate()
}

func (r *CalendarRepository) Search(ctx context.Context, filter domaincalendar.Filter) (domaincalendar.Page, error) {
	q := applyFilter(r.db.WithContext(ctx).Model(&itemModel{}), filter)
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return domaincalendar.Page{}, err
	}
	var models []itemModel
	if err := applyPaging(applyOrder(q, filter.Sort), filter).Find(&models).Error; err != nil {
		return domaincalendar.Page{}, err
	}
	page := domaincalendar.Page{Items: make([]*domaincalendar.Item, 0, len(models)), Total: int(total)}
	for _, m := range models {
		item, err := m.toAggregate()
		if err != nil {
			return domaincalendar.Page{}, err
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// Save writes the item if nobody changed it since it was loaded.
func (r *CalendarRepository) Save(ctx context.Context, item *domaincalendar.Item) error {
	m := newItemModel(item)
	m.Version = item.Version + 1
	if err := saveVersioned(ctx, r.db, &m, m.ID, item.Version); err != nil {
		return err
	}
	item.Version = m.Version
	return nil
}

// saveVersioned updates the row holding version expected, or inserts it when
// expected is zero and no row exists yet.
func saveVersioned(ctx context.Context, db *gorm.DB, model any, id string, expected int64) error {
	res := db.WithContext(ctx).Model(model).
		Where("id = ? AND version = ?", id, expected).
		Select("*").
		Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if expected != 0 {
		return uow.ErrConcurrentUpdate
	}
	if err := db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Join(uow.ErrConcurrentUpdate, err)
		}
		return err
	}
	return nil
}

var (
	_ domainamenity.Repository  = (*AmenityRepository)(nil)
	_ domaincalendar.Repository = (*CalendarRepository)(nil)
)
