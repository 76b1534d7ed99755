package ginserver

import (
	"errors"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"condobook/internal/app/commands"
	"condobook/internal/app/dto"
	amenityapp "condobook/internal/app/handlers/amenities"
	"condobook/internal/app/queries"
)

const maxPhotoBytes = 8 << 20

type AmenityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type amenityRequest struct {
	ID                    string   `json:"id"`
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

func (r amenityRequest) input() amenityapp.Input {
	return amenityapp.Input{
		Name:                  r.Name,
		Description:           r.Description,
		Capacity:              r.Capacity,
		OpenTime:              r.OpenTime,
		CloseTime:             r.CloseTime,
		MinDurationMinutes:    r.MinDurationMinutes,
		MaxDurationMinutes:    r.MaxDurationMinutes,
		MaxAdvanceDays:        r.MaxAdvanceDays,
		CancellationLeadHours: r.CancellationLeadHours,
		MonthlyQuota:          r.MonthlyQuota,
		RequiresApproval:      r.RequiresApproval,
		Blackouts:             r.Blackouts,
		ShowOnBulletin:        r.ShowOnBulletin,
		PublicDetails:         r.PublicDetails,
		FeeAmount:             r.FeeAmount,
		FeeCurrency:           r.FeeCurrency,
	}
}

func (h AmenityHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := queries.Ask[amenityapp.ListAmenitiesQuery, dto.AmenityCollection](c.Request.Context(), h.Queries, amenityapp.ListAmenitiesQuery{Actor: actor})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AmenityHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	q := amenityapp.GetAmenityQuery{Actor: actor, AmenityID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[amenityapp.GetAmenityQuery, dto.Amenity](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AmenityHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req amenityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}
	cmd := amenityapp.CreateAmenityCommand{Actor: actor, AmenityID: strings.TrimSpace(req.ID), Input: req.input()}
	result, err := commands.Dispatch[amenityapp.CreateAmenityCommand, dto.Amenity](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AmenityHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req amenityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}
	cmd := amenityapp.UpdateAmenityCommand{Actor: actor, AmenityID: strings.TrimSpace(c.Param("id")), Input: req.input()}
	result, err := commands.Dispatch[amenityapp.UpdateAmenityCommand, dto.Amenity](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AmenityHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := amenityapp.DeleteAmenityCommand{Actor: actor, AmenityID: strings.TrimSpace(c.Param("id"))}
	if _, err := commands.Dispatch[amenityapp.DeleteAmenityCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPhoto expects a multipart form with the image in the "photo" field.
func (h AmenityHandler) UploadPhoto(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)
	header, err := c.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorBody{Error: "photo too large", Code: "too_large"})
			return
		}
		badRequest(c, "photo", "is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()
	cmd := amenityapp.UploadAmenityPhotoCommand{
		Actor:       actor,
		AmenityID:   strings.TrimSpace(c.Param("id")),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	}
	result, err := commands.Dispatch[amenityapp.UploadAmenityPhotoCommand, dto.Amenity](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AmenityHTTP = AmenityHandler{}
