package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"condobook/internal/app/commands"
	"condobook/internal/app/dto"
	amenityapp "condobook/internal/app/handlers/amenities"
	"condobook/internal/app/policies"
	"condobook/internal/app/uow"
)

const fixtureActorID = "fixtures"

// loadAmenityFixtures creates the amenities listed in the fixtures file.
// Amenities that already exist are left untouched.
func (a *application) loadAmenityFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("amenity fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("amenity fixtures file empty", "path", path)
		return nil
	}

	var fixtures []amenityFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, fx := range fixtures {
		cmd := amenityapp.CreateAmenityCommand{
			Actor:     policies.Actor{UserID: fixtureActorID, CommunityID: fx.CommunityID, Privileged: true},
			AmenityID: fx.ID,
			Input: amenityapp.Input{
				Name:                  fx.Name,
				Description:           fx.Description,
				Capacity:              fx.Capacity,
				OpenTime:              fx.OpenTime,
				CloseTime:             fx.CloseTime,
				MinDurationMinutes:    fx.MinDurationMinutes,
				MaxDurationMinutes:    fx.MaxDurationMinutes,
				MaxAdvanceDays:        fx.MaxAdvanceDays,
				CancellationLeadHours: fx.CancellationLeadHours,
				MonthlyQuota:          fx.MonthlyQuota,
				RequiresApproval:      fx.RequiresApproval,
				Blackouts:             append([]string(nil), fx.Blackouts...),
				ShowOnBulletin:        fx.ShowOnBulletin,
				PublicDetails:         fx.PublicDetails,
				FeeAmount:             fx.FeeAmount,
				FeeCurrency:           fx.FeeCurrency,
			},
		}
		amenity, err := commands.Dispatch[amenityapp.CreateAmenityCommand, dto.Amenity](ctx, a.commands, cmd)
		switch {
		case errors.Is(err, uow.ErrConcurrentUpdate):
			logger.Debug("amenity fixture already present", "amenity_id", fx.ID)
		case err != nil:
			logger.Error("amenity fixture rejected", "amenity_id", fx.ID, "error", err)
		default:
			logger.Info("amenity fixture imported", "amenity_id", amenity.ID, "community_id", fx.CommunityID)
		}
	}
	return nil
}

type amenityFixture struct {
	ID                    string   `json:"id"`
	CommunityID           string   `json:"community_id"`
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Capacity              int      `json:"capacity"`
	OpenTime              string   `json:"open_time"`
	CloseTime             string   `json:"close_time"`
	MinDurationMinutes    int      `json:"min_duration_minutes"`
	MaxDurationMinutes    int      `json:"max_duration_minutes"`
	MaxAdvanceDays        int      `json:"max_advance_days"`
	CancellationLeadHours int      `json:"cancellation_lead_hours"`
	MonthlyQuota          *int     `json:"monthly_quota"`
	RequiresApproval      bool     `json:"requires_approval"`
	Blackouts             []string `json:"blackouts"`
	ShowOnBulletin        bool     `json:"show_on_bulletin"`
	PublicDetails         bool     `json:"public_details"`
	FeeAmount             int64    `json:"fee_amount"`
	FeeCurrency           string   `json:"fee_currency"`
}
