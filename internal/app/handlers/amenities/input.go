package amenities

import (
	"context"
	"strings"
	"time"

	"condobook/internal/app/policies"
	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/money"
)

// Input is the editable amenity configuration as received from callers.
type Input struct {
	Name                  string `validate:"required"`
	Description           string
	Capacity              int `validate:"gte=0"`
	OpenTime              string
	CloseTime             string
	MinDurationMinutes    int  `validate:"gte=0"`
	MaxDurationMinutes    int  `validate:"gte=0"`
	MaxAdvanceDays        int  `validate:"gte=0"`
	CancellationLeadHours int  `validate:"gte=0"`
	MonthlyQuota          *int `validate:"omitempty,gte=1"`
	RequiresApproval      bool
	Blackouts             []string
	ShowOnBulletin        bool
	PublicDetails         bool
	FeeAmount             int64 `validate:"gte=0"`
	FeeCurrency           string
}

func (in Input) params() (domainamenity.Params, error) {
	var hours domainamenity.OperatingHours
	if strings.TrimSpace(in.OpenTime) != "" || strings.TrimSpace(in.CloseTime) != "" {
		open, err := parseOptionalTime(in.OpenTime)
		if err != nil {
			return domainamenity.Params{}, err
		}
		closing, err := parseOptionalTime(in.CloseTime)
		if err != nil {
			return domainamenity.Params{}, err
		}
		if closing == 24*60 {
			closing = 0
		}
		hours = domainamenity.OperatingHours{Open: open, Close: closing}
	}
	fee := money.Money{}
	if in.FeeAmount > 0 || strings.TrimSpace(in.FeeCurrency) != "" {
		var err error
		fee, err = money.New(in.FeeAmount, strings.TrimSpace(in.FeeCurrency))
		if err != nil {
			return domainamenity.Params{}, &domaincalendar.ValidationError{Field: "fee", Message: err.Error()}
		}
	}
	return domainamenity.Params{
		Name:                  in.Name,
		Description:           in.Description,
		Capacity:              in.Capacity,
		Hours:                 hours,
		MinDuration:           time.Duration(in.MinDurationMinutes) * time.Minute,
		MaxDuration:           time.Duration(in.MaxDurationMinutes) * time.Minute,
		MaxAdvanceDays:        in.MaxAdvanceDays,
		CancellationLeadHours: in.CancellationLeadHours,
		MonthlyQuota:          in.MonthlyQuota,
		RequiresApproval:      in.RequiresApproval,
		Blackouts:             in.Blackouts,
		ShowOnBulletin:        in.ShowOnBulletin,
		PublicDetails:         in.PublicDetails,
		Fee:                   fee,
	}, nil
}

func parseOptionalTime(raw string) (domainamenity.TimeOfDay, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return domainamenity.ParseTimeOfDay(raw)
}

// loadOwned fetches an amenity and hides amenities of other communities.
func loadOwned(ctx context.Context, unit uow.UnitOfWork, actor policies.Actor, id string) (*domainamenity.Amenity, error) {
	amenity, err := unit.Amenities().ByID(ctx, domainamenity.ID(strings.TrimSpace(id)))
	if err != nil {
		return nil, err
	}
	if amenity.CommunityID != actor.CommunityID {
		return nil, domainamenity.ErrNotFound
	}
	return amenity, nil
}

func now(clock domaincalendar.Clock) time.Time {
	if clock == nil {
		return policies.SystemClock{}.Now()
	}
	return clock.Now().UTC()
}
