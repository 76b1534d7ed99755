package mongo

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/money"
	"condobook/internal/domain/shared/timerange"
)

const (
	amenityCollection  = "agg_amenity"
	calendarCollection = "agg_calendar_item"
	lockCollection     = "amenity_locks"

	kindBooking = "booking"
	kindGeneral = "general"

	writeConflictCode = 112
)

func bsonKeys(fields ...string) bson.D {
	keys := make(bson.D, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	return keys
}

// asConcurrentUpdate maps transaction write conflicts to the port's error.
func asConcurrentUpdate(err error) error {
	if err == nil {
		return nil
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && (serverErr.HasErrorCode(writeConflictCode) || serverErr.HasErrorLabel("TransientTransactionError")) {
		return errors.Join(uow.ErrConcurrentUpdate, err)
	}
	if mongo.IsDuplicateKeyError(err) {
		return errors.Join(uow.ErrConcurrentUpdate, err)
	}
	return err
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

type amenityDocument struct {
	ID                    string        `bson:"_id"`
	CommunityID           string        `bson:"community_id"`
	Name                  string        `bson:"name"`
	Description           string        `bson:"description"`
	Capacity              int           `bson:"capacity"`
	OpenMinute            int           `bson:"open_minute"`
	CloseMinute           int           `bson:"close_minute"`
	MinDurationMinutes    int64         `bson:"min_duration_minutes"`
	MaxDurationMinutes    int64         `bson:"max_duration_minutes"`
	MaxAdvanceDays        int           `bson:"max_advance_days"`
	CancellationLeadHours int           `bson:"cancellation_lead_hours"`
	MonthlyQuota          *int          `bson:"monthly_quota,omitempty"`
	RequiresApproval      bool          `bson:"requires_approval"`
	Blackouts             []string      `bson:"blackouts"`
	ShowOnBulletin        bool          `bson:"show_on_bulletin"`
	PublicDetails         bool          `bson:"public_details"`
	Fee                   moneyDocument `bson:"fee"`
	PhotoURL              string        `bson:"photo_url,omitempty"`
	CreatedAt             int64         `bson:"created_at"`
	UpdatedAt             int64         `bson:"updated_at"`
	Version               int64         `bson:"version"`
}

func newAmenityDocument(a *domainamenity.Amenity) amenityDocument {
	return amenityDocument{
		ID:                    string(a.ID),
		CommunityID:           a.CommunityID,
		Name:                  a.Name,
		Description:           a.Description,
		Capacity:              a.Capacity,
		OpenMinute:            int(a.Hours.Open),
		CloseMinute:           int(a.Hours.Close),
		MinDurationMinutes:    int64(a.MinDuration / time.Minute),
		MaxDurationMinutes:    int64(a.MaxDuration / time.Minute),
		MaxAdvanceDays:        a.MaxAdvanceDays,
		CancellationLeadHours: a.CancellationLeadHours,
		MonthlyQuota:          a.MonthlyQuota,
		RequiresApproval:      a.RequiresApproval,
		Blackouts:             a.Blackouts,
		ShowOnBulletin:        a.ShowOnBulletin,
		PublicDetails:         a.PublicDetails,
		Fee:                   moneyDocument{Amount: a.Fee.Amount, Currency: a.Fee.Currency},
		PhotoURL:              a.PhotoURL,
		CreatedAt:             a.CreatedAt.UnixMilli(),
		UpdatedAt:             a.UpdatedAt.UnixMilli(),
		Version:               a.Version,
	}
}

func (d amenityDocument) toAggregate() *domainamenity.Amenity {
	return &domainamenity.Amenity{
		ID:                    domainamenity.ID(d.ID),
		CommunityID:           d.CommunityID,
		Name:                  d.Name,
		Description:           d.Description,
		Capacity:              d.Capacity,
		Hours:                 domainamenity.OperatingHours{Open: domainamenity.TimeOfDay(d.OpenMinute), Close: domainamenity.TimeOfDay(d.CloseMinute)},
		MinDuration:           time.Duration(d.MinDurationMinutes) * time.Minute,
		MaxDuration:           time.Duration(d.MaxDurationMinutes) * time.Minute,
		MaxAdvanceDays:        d.MaxAdvanceDays,
		CancellationLeadHours: d.CancellationLeadHours,
		MonthlyQuota:          d.MonthlyQuota,
		RequiresApproval:      d.RequiresApproval,
		Blackouts:             d.Blackouts,
		ShowOnBulletin:        d.ShowOnBulletin,
		PublicDetails:         d.PublicDetails,
		Fee:                   money.Money{Amount: d.Fee.Amount, Currency: d.Fee.Currency},
		PhotoURL:              d.PhotoURL,
		CreatedAt:             timestampToTime(d.CreatedAt),
		UpdatedAt:             timestampToTime(d.UpdatedAt),
		Version:               d.Version,
	}
}

type itemDocument struct {
	ID            string        `bson:"_id"`
	CommunityID   string        `bson:"community_id"`
	UnitID        string        `bson:"unit_id,omitempty"`
	RequesterID   string        `bson:"requester_id"`
	Kind          string        `bson:"kind"`
	AmenityID     string        `bson:"amenity_id,omitempty"`
	Start         int64         `bson:"start"`
	End           int64         `bson:"end"`
	Title         string        `bson:"title,omitempty"`
	Notes         string        `bson:"notes,omitempty"`
	Fee           moneyDocument `bson:"fee"`
	Status        string        `bson:"status"`
	ApproverID    string        `bson:"approver_id,omitempty"`
	Justification string        `bson:"justification,omitempty"`
	ReminderSent  bool          `bson:"reminder_sent"`
	CreatedAt     int64         `bson:"created_at"`
	UpdatedAt     int64         `bson:"updated_at"`
	Version       int64         `bson:"version"`
}

func newItemDocument(item *domaincalendar.Item) itemDocument {
	doc := itemDocument{
		ID:            string(item.ID),
		CommunityID:   item.CommunityID,
		UnitID:        item.UnitID,
		RequesterID:   item.RequesterID,
		Kind:          kindGeneral,
		Start:         item.Range.Start.UnixMilli(),
		End:           item.Range.End.UnixMilli(),
		Title:         item.Title,
		Notes:         item.Notes,
		Fee:           moneyDocument{Amount: item.Fee.Amount, Currency: item.Fee.Currency},
		Status:        item.Status.String(),
		ApproverID:    item.ApproverID,
		Justification: item.Justification,
		ReminderSent:  item.ReminderSent,
		CreatedAt:     item.CreatedAt.UnixMilli(),
		UpdatedAt:     item.UpdatedAt.UnixMilli(),
		Version:       item.Version,
	}
	if id, ok := item.AmenityID(); ok {
		doc.Kind = kindBooking
		doc.AmenityID = string(id)
	}
	return doc
}

func (d itemDocument) toAggregate() (*domaincalendar.Item, error) {
	status, err := domaincalendar.ParseStatus(d.Status)
	if err != nil {
		return nil, err
	}
	var subject domaincalendar.Subject = domaincalendar.GeneralEntry{}
	if d.Kind == kindBooking {
		subject = domaincalendar.ResourceBooking{AmenityID: domainamenity.ID(d.AmenityID)}
	}
	return &domaincalendar.Item{
		ID:            domaincalendar.ItemID(d.ID),
		CommunityID:   d.CommunityID,
		UnitID:        d.UnitID,
		RequesterID:   d.RequesterID,
		Subject:       subject,
		Range:         timerange.Interval{Start: timestampToTime(d.Start), End: timestampToTime(d.End)},
		Title:         d.Title,
		Notes:         d.Notes,
		Fee:           money.Money{Amount: d.Fee.Amount, Currency: d.Fee.Currency},
		Status:        status,
		ApproverID:    d.ApproverID,
		Justification: d.Justification,
		ReminderSent:  d.ReminderSent,
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}, nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
