package dto

import (
	"time"

	domainamenity "condobook/internal/domain/amenity"
)

type Amenity struct {
	ID                    string    `json:"id"`
	CommunityID           string    `json:"community_id"`
	Name                  string    `json:"name"`
	Description           string    `json:"description,omitempty"`
	Capacity              int       `json:"capacity"`
	OpenTime              string    `json:"open_time,omitempty"`
	CloseTime             string    `json:"close_time,omitempty"`
	MinDurationMinutes    int       `json:"min_duration_minutes,omitempty"`
	MaxDurationMinutes    int       `json:"max_duration_minutes,omitempty"`
	MaxAdvanceDays        int       `json:"max_advance_days,omitempty"`
	CancellationLeadHours int       `json:"cancellation_lead_hours"`
	MonthlyQuota          *int      `json:"monthly_quota"`
	RequiresApproval      bool      `json:"requires_approval"`
	Blackouts             []string  `json:"blackouts"`
	ShowOnBulletin        bool      `json:"show_on_bulletin"`
	PublicDetails         bool      `json:"public_details"`
	Fee                   MoneyDTO  `json:"fee"`
	PhotoURL              string    `json:"photo_url,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type AmenityCollection struct {
	Items []Amenity `json:"items"`
}

func MapAmenity(a *domainamenity.Amenity) Amenity {
	if a == nil {
		return Amenity{}
	}
	view := Amenity{
		ID:                    string(a.ID),
		CommunityID:           a.CommunityID,
		Name:                  a.Name,
		Description:           a.Description,
		Capacity:              a.Capacity,
		MinDurationMinutes:    int(a.MinDuration / time.Minute),
		MaxDurationMinutes:    int(a.MaxDuration / time.Minute),
		MaxAdvanceDays:        a.MaxAdvanceDays,
		CancellationLeadHours: a.CancellationLeadHours,
		RequiresApproval:      a.RequiresApproval,
		Blackouts:             append([]string{}, a.Blackouts...),
		ShowOnBulletin:        a.ShowOnBulletin,
		PublicDetails:         a.PublicDetails,
		Fee:                   MapMoney(a.Fee),
		PhotoURL:              a.PhotoURL,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
	if quota, ok := a.Quota(); ok {
		view.MonthlyQuota = &quota
	}
	if a.Hours.Configured() {
		view.OpenTime = a.Hours.Open.String()
		view.CloseTime = a.Hours.Close.String()
	}
	return view
}
