package ginserver

import (
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"condobook/internal/app/commands"
	"condobook/internal/app/dto"
	bookingapp "condobook/internal/app/handlers/booking"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	Commands commands.Bus
}

type requestBookingRequest struct {
	AmenityID string    `json:"amenity_id"`
	UnitID    string    `json:"unit_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
}

// Request books an amenity, or creates a general entry when amenity_id is
// empty.
func (h BookingHandler) Request(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req requestBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		Actor:           actor,
		AmenityID:       strings.TrimSpace(req.AmenityID),
		UnitID:          strings.TrimSpace(req.UnitID),
		Start:           req.Start,
		End:             req.End,
		Title:           req.Title,
		Notes:           req.Notes,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader(idempotencyHeader)),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *dto.CalendarItem](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type editItemRequest struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
	Title *string    `json:"title"`
	Notes *string    `json:"notes"`
}

func (h BookingHandler) Edit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req editItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}
	cmd := bookingapp.EditItemCommand{
		Actor:  actor,
		ItemID: strings.TrimSpace(c.Param("id")),
		Start:  req.Start,
		End:    req.End,
		Title:  req.Title,
		Notes:  req.Notes,
	}
	h.respond(c, func() (*dto.CalendarItem, error) {
		return commands.Dispatch[bookingapp.EditItemCommand, *dto.CalendarItem](c.Request.Context(), h.Commands, cmd)
	})
}

type statusRequest struct {
	Status        string `json:"status"`
	Justification string `json:"justification"`
}

func (h BookingHandler) UpdateStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}
	cmd := bookingapp.UpdateStatusCommand{
		Actor:         actor,
		ItemID:        strings.TrimSpace(c.Param("id")),
		Status:        strings.TrimSpace(req.Status),
		Justification: req.Justification,
	}
	h.respond(c, func() (*dto.CalendarItem, error) {
		return commands.Dispatch[bookingapp.UpdateStatusCommand, *dto.CalendarItem](c.Request.Context(), h.Commands, cmd)
	})
}

type cancelRequest struct {
	Justification string `json:"justification"`
}

// Cancel accepts an empty body.
func (h BookingHandler) Cancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body", err.Error())
			return
		}
	}
	cmd := bookingapp.CancelItemCommand{
		Actor:         actor,
		ItemID:        strings.TrimSpace(c.Param("id")),
		Justification: req.Justification,
	}
	h.respond(c, func() (*dto.CalendarItem, error) {
		return commands.Dispatch[bookingapp.CancelItemCommand, *dto.CalendarItem](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) respond(c *gin.Context, dispatch func() (*dto.CalendarItem, error)) {
	result, err := dispatch()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
