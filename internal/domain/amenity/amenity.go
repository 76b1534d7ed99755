package amenity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"condobook/internal/domain/shared/locale"
	"condobook/internal/domain/shared/money"
)

var (
	ErrNotFound      = errors.New("amenity: not found")
	ErrInvalidConfig = errors.New("amenity: invalid configuration")
	ErrInUse         = errors.New("amenity: has upcoming bookings")
)

const blackoutDateLayout = "2006-01-02"

type ID string

// Amenity is a shared, finite, bookable resource and the rules that govern it.
type Amenity struct {
	ID                    ID
	CommunityID           string
	Name                  string
	Description           string
	Capacity              int
	Hours                 OperatingHours
	MinDuration           time.Duration
	MaxDuration           time.Duration
	MaxAdvanceDays        int
	CancellationLeadHours int
	MonthlyQuota          *int
	RequiresApproval      bool
	Blackouts             []string
	ShowOnBulletin        bool
	PublicDetails         bool
	Fee                   money.Money
	PhotoURL              string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Version               int64
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Amenity, error)
	ListByCommunity(ctx context.Context, communityID string) ([]*Amenity, error)
	Save(ctx context.Context, amenity *Amenity) error
	Delete(ctx context.Context, id ID) error
}

// Params carries the editable configuration of an amenity.
type Params struct {
	Name                  string
	Description           string
	Capacity              int
	Hours                 OperatingHours
	MinDuration           time.Duration
	MaxDuration           time.Duration
	MaxAdvanceDays        int
	CancellationLeadHours int
	MonthlyQuota          *int
	RequiresApproval      bool
	Blackouts             []string
	ShowOnBulletin        bool
	PublicDetails         bool
	Fee                   money.Money
}

func New(id ID, communityID string, params Params, now time.Time) (*Amenity, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(communityID) == "" {
		return nil, fmt.Errorf("%w: community id is required", ErrInvalidConfig)
	}
	a := &Amenity{ID: id, CommunityID: strings.TrimSpace(communityID), CreatedAt: now.UTC()}
	if err := a.Update(params, now); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces the configuration after validating it as a whole.
func (a *Amenity) Update(params Params, now time.Time) error {
	normalized, err := params.normalize()
	if err != nil {
		return err
	}
	a.Name = normalized.Name
	a.Description = normalized.Description
	a.Capacity = normalized.Capacity
	a.Hours = normalized.Hours
	a.MinDuration = normalized.MinDuration
	a.MaxDuration = normalized.MaxDuration
	a.MaxAdvanceDays = normalized.MaxAdvanceDays
	a.CancellationLeadHours = normalized.CancellationLeadHours
	a.MonthlyQuota = normalized.MonthlyQuota
	a.RequiresApproval = normalized.RequiresApproval
	a.Blackouts = normalized.Blackouts
	a.ShowOnBulletin = normalized.ShowOnBulletin
	a.PublicDetails = normalized.PublicDetails
	a.Fee = normalized.Fee
	a.UpdatedAt = now.UTC()
	return nil
}

func (a *Amenity) SetPhoto(url string, now time.Time) {
	a.PhotoURL = strings.TrimSpace(url)
	a.UpdatedAt = now.UTC()
}

// Quota reports the per-unit monthly cap, if any.
func (a *Amenity) Quota() (int, bool) {
	if a.MonthlyQuota == nil {
		return 0, false
	}
	return *a.MonthlyQuota, true
}

func (a *Amenity) CancellationLead() time.Duration {
	return time.Duration(a.CancellationLeadHours) * time.Hour
}

// BlackedOut reports whether the local date of day is blocked, either by its
// exact date or by its weekday name in the community locale.
func (a *Amenity) BlackedOut(day time.Time, l locale.Locale) bool {
	if len(a.Blackouts) == 0 {
		return false
	}
	local := day.In(l.Location())
	date := local.Format(blackoutDateLayout)
	localName := l.WeekdayName(local.Weekday())
	englishName := local.Weekday().String()
	for _, entry := range a.Blackouts {
		if entry == date || strings.EqualFold(entry, localName) || strings.EqualFold(entry, englishName) {
			return true
		}
	}
	return false
}

func (p Params) normalize() (Params, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Name == "" {
		return Params{}, fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if p.Capacity < 0 {
		return Params{}, fmt.Errorf("%w: capacity must not be negative", ErrInvalidConfig)
	}
	if err := p.Hours.Validate(); err != nil {
		return Params{}, err
	}
	if p.MinDuration < 0 || p.MaxDuration < 0 {
		return Params{}, fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if p.MinDuration > 0 && p.MaxDuration > 0 && p.MinDuration > p.MaxDuration {
		return Params{}, fmt.Errorf("%w: minimum duration exceeds maximum", ErrInvalidConfig)
	}
	if p.MaxAdvanceDays < 0 {
		return Params{}, fmt.Errorf("%w: advance booking days must not be negative", ErrInvalidConfig)
	}
	if p.CancellationLeadHours < 0 {
		return Params{}, fmt.Errorf("%w: cancellation lead hours must not be negative", ErrInvalidConfig)
	}
	if p.MonthlyQuota != nil {
		if *p.MonthlyQuota < 1 {
			return Params{}, fmt.Errorf("%w: monthly quota must be positive", ErrInvalidConfig)
		}
		quota := *p.MonthlyQuota
		p.MonthlyQuota = &quota
	}
	if p.Fee.Amount < 0 {
		return Params{}, fmt.Errorf("%w: fee must not be negative", ErrInvalidConfig)
	}
	blackouts := make([]string, 0, len(p.Blackouts))
	seen := make(map[string]struct{}, len(p.Blackouts))
	for _, raw := range p.Blackouts {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if looksLikeDate(entry) {
			if _, err := time.Parse(blackoutDateLayout, entry); err != nil {
				return Params{}, fmt.Errorf("%w: blackout date %q", ErrInvalidConfig, entry)
			}
		}
		key := strings.ToLower(entry)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		blackouts = append(blackouts, entry)
	}
	p.Blackouts = blackouts
	return p, nil
}

func looksLikeDate(entry string) bool {
	return len(entry) > 0 && entry[0] >= '0' && entry[0] <= '9'
}
