package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"condobook/internal/app/commands"
	"condobook/internal/app/dto"
	handlersupport "condobook/internal/app/handlers/support"
	"condobook/internal/app/middleware"
	"condobook/internal/app/policies"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/timerange"
)

const RequestBookingKey = "booking.request"

// RequestBookingCommand books an amenity for a unit or, without AmenityID,
// creates a general calendar entry.
type RequestBookingCommand struct {
	Actor           policies.Actor
	ItemID          string
	AmenityID       string
	UnitID          string
	Start           time.Time `validate:"required"`
	End             time.Time `validate:"required,gtfield=Start"`
	Title           string
	Notes           string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string             { return RequestBookingKey }
func (c RequestBookingCommand) IdempotencyKey() string  { return c.IdempotencyKeyV }
func (c RequestBookingCommand) ResultPrototype() any    { return &dto.CalendarItem{} }
func (c RequestBookingCommand) ManagesUnitOfWork() bool { return true }
func (c RequestBookingCommand) Caller() policies.Actor  { return c.Actor }

// RequiresPrivilege is true for general entries only.
func (c RequestBookingCommand) RequiresPrivilege() bool {
	return strings.TrimSpace(c.AmenityID) == ""
}

type RequestBookingHandler struct {
	Workflow
	IDs func() string
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.CalendarItem, error) {
	if err := cmd.Actor.Validate(); err != nil {
		return nil, err
	}
	if h.Policy == nil {
		return nil, ErrPolicyRequired
	}
	rng, err := timerange.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, &domaincalendar.ValidationError{Field: "end", Message: "must be after start"}
	}
	amenityID := domainamenity.ID(strings.TrimSpace(cmd.AmenityID))
	if amenityID == "" && !cmd.Actor.Privileged {
		return nil, policies.ErrForbidden
	}
	unitID := strings.TrimSpace(cmd.UnitID)
	if amenityID != "" {
		if unitID == "" {
			return nil, &domaincalendar.ValidationError{Field: "unit_id", Message: "is required for amenity bookings"}
		}
		if !cmd.Actor.CanActForUnit(unitID) {
			return nil, policies.ErrForbidden
		}
	}

	unit, execCtx, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close(execCtx)

	params := domaincalendar.NewItemParams{
		ID:          domaincalendar.ItemID(h.nextID(cmd.ItemID)),
		CommunityID: cmd.Actor.CommunityID,
		UnitID:      unitID,
		RequesterID: cmd.Actor.UserID,
		Range:       rng,
		Title:       cmd.Title,
		Notes:       cmd.Notes,
		CreatedAt:   h.Policy.Now(),
	}
	var amenity *domainamenity.Amenity
	if amenityID == "" {
		params.Subject = domaincalendar.GeneralEntry{}
		if err := h.Policy.Evaluate(domaincalendar.AdmissionRequest{Range: rng}); err != nil {
			return nil, err
		}
	} else {
		amenity, err = h.admit(execCtx, unit, cmd.Actor.CommunityID, amenityID, rng, unitID, "")
		if err != nil {
			return nil, err
		}
		params.Subject = domaincalendar.ResourceBooking{AmenityID: amenity.ID}
		params.Fee = amenity.Fee
		params.RequiresApproval = amenity.RequiresApproval
	}

	item, err := domaincalendar.NewItem(params)
	if err != nil {
		return nil, err
	}
	if err := h.persist(execCtx, unit, item); err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}

	h.logTransition("calendar item requested", item, cmd.Actor.UserID)
	h.notify(ctx, item, policies.TemplateBookingRequested)
	return view(item, amenity, cmd.Actor.UserID), nil
}

func (h *RequestBookingHandler) nextID(requested string) string {
	if id := strings.TrimSpace(requested); id != "" {
		return id
	}
	if h.IDs != nil {
		return h.IDs()
	}
	return uuid.NewString()
}

var (
	_ commands.Handler[RequestBookingCommand, *dto.CalendarItem] = (*RequestBookingHandler)(nil)
	_ middleware.IdempotentCommand                               = RequestBookingCommand{}
	_ middleware.SelfManaged                                     = RequestBookingCommand{}
)
