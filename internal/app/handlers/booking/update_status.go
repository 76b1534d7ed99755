package booking

import (
	"context"

	"condobook/internal/app/commands"
	"condobook/internal/app/dto"
	handlersupport "condobook/internal/app/handlers/support"
	"condobook/internal/app/middleware"
	"condobook/internal/app/policies"
	domaincalendar "condobook/internal/domain/calendar"
)

const UpdateStatusKey = "booking.update_status"

// UpdateStatusCommand is a manager decision on an item: approve (CONFIRMED),
// refuse (REFUSED) or cancel (CANCELLED_BY_MANAGER).
type UpdateStatusCommand struct {
	Actor         policies.Actor
	ItemID        string `validate:"required"`
	Status        string `validate:"required"`
	Justification string
}

func (c UpdateStatusCommand) Key() string             { return UpdateStatusKey }
func (c UpdateStatusCommand) ManagesUnitOfWork() bool { return true }
func (c UpdateStatusCommand) Caller() policies.Actor  { return c.Actor }
func (c UpdateStatusCommand) RequiresPrivilege() bool { return true }

type UpdateStatusHandler struct {
	Workflow
}

func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*dto.CalendarItem, error) {
	if err := cmd.Actor.Validate(); err != nil {
		return nil, err
	}
	if !cmd.Actor.Privileged {
		return nil, policies.ErrForbidden
	}
	if h.Policy == nil {
		return nil, ErrPolicyRequired
	}
	target, err := domaincalendar.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
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
	now := h.Policy.Now()
	var template string
	switch target {
	case domaincalendar.StatusConfirmed:
		err = item.Approve(cmd.Actor.UserID, cmd.Justification, now)
		template = policies.TemplateBookingApproved
	case domaincalendar.StatusRefused:
		err = item.Refuse(cmd.Actor.UserID, cmd.Justification, now)
		template = policies.TemplateBookingRefused
	case domaincalendar.StatusCancelledByManager:
		err = item.CancelByManager(cmd.Actor.UserID, cmd.Justification, now)
		template = policies.TemplateBookingCancelled
	case domaincalendar.StatusPending, domaincalendar.StatusAwaitingApproval, domaincalendar.StatusCancelledByUser:
		err = domaincalendar.ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}
	if err := h.persist(execCtx, unit, item); err != nil {
		return nil, err
	}
	amenity := h.amenityFor(execCtx, unit, item)
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}

	h.logTransition("calendar item status updated", item, cmd.Actor.UserID)
	h.notify(ctx, item, template)
	return view(item, amenity, cmd.Actor.UserID), nil
}

var (
	_ commands.Handler[UpdateStatusCommand, *dto.CalendarItem] = (*UpdateStatusHandler)(nil)
	_ middleware.SelfManaged                                   = UpdateStatusCommand{}
)
