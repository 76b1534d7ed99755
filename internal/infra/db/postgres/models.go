package postgres

import (
	"time"

	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/money"
	"condobook/internal/domain/shared/timerange"
)

const (
	kindBooking = "booking"
	kindGeneral = "general"
)

type amenityModel struct {
	ID                    string   `gorm:"primaryKey;type:varchar(64)"`
	CommunityID           string   `gorm:"type:varchar(64);not null;index:idx_amenity_community_name"`
	Name                  string   `gorm:"not null;index:idx_amenity_community_name"`
	Description           string   `gorm:"type:text"`
	Capacity              int      `gorm:"not null;default:0"`
	OpenMinute            int      `gorm:"not null"`
	CloseMinute           int      `gorm:"not null"`
	MinDurationMinutes    int64    `gorm:"not null"`
	MaxDurationMinutes    int64    `gorm:"not null"`
	MaxAdvanceDays        int      `gorm:"not null"`
	CancellationLeadHours int      `gorm:"not null"`
	MonthlyQuota          *int
	RequiresApproval      bool     `gorm:"not null;default:false"`
	Blackouts             []string `gorm:"serializer:json"`
	ShowOnBulletin        bool     `gorm:"not null;default:false"`
	PublicDetails         bool     `gorm:"not null;default:false"`
	FeeAmount             int64    `gorm:"not null;default:0"`
	FeeCurrency           string   `gorm:"type:varchar(3)"`
	PhotoURL              string
	CreatedAt             time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime:false"`
	Version               int64     `gorm:"not null;default:0"`
}

func (amenityModel) TableName() string { return "amenities" }

func newAmenityModel(a *domainamenity.Amenity) amenityModel {
	return amenityModel{
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
		FeeAmount:             a.Fee.Amount,
		FeeCurrency:           a.Fee.Currency,
		PhotoURL:              a.PhotoURL,
		CreatedAt:             a.CreatedAt.UTC(),
		UpdatedAt:             a.UpdatedAt.UTC(),
		Version:               a.Version,
	}
}

func (m amenityModel) toAggregate() *domainamenity.Amenity {
	return &domainamenity.Amenity{
		ID:                    domainamenity.ID(m.ID),
		CommunityID:           m.CommunityID,
		Name:                  m.Name,
		Description:           m.Description,
		Capacity:              m.Capacity,
		Hours:                 domainamenity.OperatingHours{Open: domainamenity.TimeOfDay(m.OpenMinute), Close: domainamenity.TimeOfDay(m.CloseMinute)},
		MinDuration:           time.Duration(m.MinDurationMinutes) * time.Minute,
		MaxDuration:           time.Duration(m.MaxDurationMinutes) * time.Minute,
		MaxAdvanceDays:        m.MaxAdvanceDays,
		CancellationLeadHours: m.CancellationLeadHours,
		MonthlyQuota:          m.MonthlyQuota,
		RequiresApproval:      m.RequiresApproval,
		Blackouts:             m.Blackouts,
		ShowOnBulletin:        m.ShowOnBulletin,
		PublicDetails:         m.PublicDetails,
		Fee:                   money.Money{Amount: m.FeeAmount, Currency: m.FeeCurrency},
		PhotoURL:              m.PhotoURL,
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
		Version:               m.Version,
	}
}

type itemModel struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)"`
	CommunityID   string    `gorm:"type:varchar(64);not null;index:idx_item_community_start"`
	UnitID        string    `gorm:"type:varchar(64);index"`
	RequesterID   string    `gorm:"type:varchar(64);not null;index"`
	Kind          string    `gorm:"type:varchar(16);not null"`
	AmenityID     string    `gorm:"type:varchar(64);index"`
	StartAt       time.Time `gorm:"not null;index:idx_item_community_start"`
	EndAt         time.Time `gorm:"not null"`
	Title         string
	Notes         string `gorm:"type:text"`
	FeeAmount     int64  `gorm:"not null;default:0"`
	FeeCurrency   string `gorm:"type:varchar(3)"`
	Status        string `gorm:"type:varchar(32);not null;index"`
	ApproverID    string `gorm:"type:varchar(64)"`
	Justification string `gorm:"type:text"`
	ReminderSent  bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false"`
	Version       int64     `gorm:"not null;default:0"`
}

func (itemModel) TableName() string { return "calendar_items" }

func newItemModel(item *domaincalendar.Item) itemModel {
	m := itemModel{
		ID:            string(item.ID),
		CommunityID:   item.CommunityID,
		UnitID:        item.UnitID,
		RequesterID:   item.RequesterID,
		Kind:          kindGeneral,
		StartAt:       item.Range.Start.UTC(),
		EndAt:         item.Range.End.UTC(),
		Title:         item.Title,
		Notes:         item.Notes,
		FeeAmount:     item.Fee.Amount,
		FeeCurrency:   item.Fee.Currency,
		Status:        item.Status.String(),
		ApproverID:    item.ApproverID,
		Justification: item.Justification,
		ReminderSent:  item.ReminderSent,
		CreatedAt:     item.CreatedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
		Version:       item.Version,
	}
	if id, ok := item.AmenityID(); ok {
		m.Kind = kindBooking
		m.AmenityID = string(id)
	}
	return m
}

func (m itemModel) toAggregate() (*domaincalendar.Item, error) {
	status, err := domaincalendar.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	var subject domaincalendar.Subject = domaincalendar.GeneralEntry{}
	if m.Kind == kindBooking {
		subject = domaincalendar.ResourceBooking{AmenityID: domainamenity.ID(m.AmenityID)}
	}
	return &domaincalendar.Item{
		ID:            domaincalendar.ItemID(m.ID),
		CommunityID:   m.CommunityID,
		UnitID:        m.UnitID,
		RequesterID:   m.RequesterID,
		Subject:       subject,
		Range:         timerange.Interval{Start: m.StartAt.UTC(), End: m.EndAt.UTC()},
		Title:         m.Title,
		Notes:         m.Notes,
		Fee:           money.Money{Amount: m.FeeAmount, Currency: m.FeeCurrency},
		Status:        status,
		ApproverID:    m.ApproverID,
		Justification: m.Justification,
		ReminderSent:  m.ReminderSent,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
		Version:       m.Version,
	}, nil
}

type outboxModel struct {
	ID          string            `gorm:"primaryKey;type:varchar(64)"`
	Name        string            `gorm:"not null"`
	Payload     []byte            `gorm:"type:bytea"`
	OccurredAt  time.Time         `gorm:"not null"`
	Aggregate   string            `gorm:"type:varchar(64)"`
	Headers     map[string]string `gorm:"serializer:json"`
	State       string            `gorm:"type:varchar(16);not null;index:idx_outbox_state_next"`
	Attempts    int               `gorm:"not null;default:0"`
	NextAttempt time.Time         `gorm:"not null;index:idx_outbox_state_next"`
	ClaimedBy   string            `gorm:"type:varchar(64)"`
	ClaimedAt   *time.Time
	SentAt      *time.Time
	LastError   string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (outboxModel) TableName() string { return "app_outbox" }

type idempotencyModel struct {
	Key        string `gorm:"primaryKey;type:varchar(255)"`
	Payload    []byte `gorm:"type:bytea"`
	Error      string `gorm:"type:text"`
	OccurredAt time.Time
	CreatedAt  time.Time `gorm:"index"`
}

func (idempotencyModel) TableName() string { return "app_idempotency" }
