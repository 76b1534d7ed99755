package booking

import (
	"context"
	"time"

	"condobook/internal/app/commands"
	"condobook/internal/app/dto"
	handlersupport "condobook/internal/app/handlers/support"
	"condobook/internal/app/middleware"
	"condobook/internal/app/policies"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
)

const EditItemKey = "booking.edit"

// EditItemCommand changes time, title or notes of an item. Nil fields stay.
type EditItemCommand struct {
	Actor  policies.Actor
	ItemID string `validate:"required"`
	Start  *time.Time
	End    *time.Time
	Title  *string
	Notes  *string
}

func (c EditItemCommand) Key() string             { return EditItemKey }
func (c EditItemCommand) ManagesUnitOfWork() bool { return true }
func (c EditItemCommand) Caller() policies.Actor  { return c.Actor }
func (c EditItemCommand) RequiresPrivilege() bool { return true }

type EditItemHandler struct {
	Workflow
}

func (h *EditItemHandler) Handle(ctx context.Context, cmd EditItemCommand) (*dto.CalendarItem, error) {
	if err := cmd.Actor.Validate(); err != nil {
		return nil, err
	}
	if !cmd.Actor.Privileged {
		return nil, policies.ErrForbidden
	}
	if h.Policy == nil {
		return nil, ErrPolicyRequired
	}

	unit, execCtx, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close(execCtx)

	item, err := loadItem(execCtx, unit, cmd.Actor, cmd.ItemID)
	if err != nil {
		return nil, err
	}
	if item.Status.IsTerminal() {
		return nil, domaincalendar.ErrInvalidTransition
	}
	changes := domaincalendar.Changes{Title: cmd.Title, Notes: cmd.Notes}
	if cmd.Start != nil || cmd.End != nil {
		rng := item.Range
		if cmd.Start != nil {
			rng.Start = cmd.Start.UTC()
		}
		if cmd.End != nil {
			rng.End = cmd.End.UTC()
		}
		if err := rng.Validate(); err != nil {
			return nil, &domaincalendar.ValidationError{Field: "end", Message: "must be after start"}
		}
		changes.Range = &rng
	}

	var amenity *domainamenity.Amenity
	amenityID, isBooking := item.AmenityID()
	proposed := changes.ProposedRange(item.Range)
	moved := !proposed.Equal(item.Range)
	switch {
	case moved && isBooking:
		amenity, err = h.admit(execCtx, unit, item.CommunityID, amenityID, proposed, item.UnitID, item.ID)
	case moved:
		err = h.Policy.Evaluate(domaincalendar.AdmissionRequest{Range: proposed})
	case isBooking:
		amenity, err = loadAmenity(execCtx, unit, item.CommunityID, amenityID)
	}
	if err != nil {
		return nil, err
	}

	if _, err := item.Edit(cmd.Actor.UserID, changes, h.Policy.Now()); err != nil {
		return nil, err
	}
	if err := h.persist(execCtx, unit, item); err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}

	h.logTransition("calendar item edited", item, cmd.Actor.UserID)
	h.notify(ctx, item, policies.TemplateBookingEdited)
	return view(item, amenity, cmd.Actor.UserID), nil
}

var (
	_ commands.Handler[EditItemCommand, *dto.CalendarItem] = (*EditItemHandler)(nil)
	_ middleware.SelfManaged                               = EditItemCommand{}
)
