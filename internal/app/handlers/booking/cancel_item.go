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
)

const CancelItemKey = "booking.cancel"

// CancelItemCommand cancels an item. Owners are bound by the amenity's
// cancellation lead time; privileged actors are not.
type CancelItemCommand struct {
	Actor         policies.Actor
	ItemID        string `validate:"required"`
	Justification string
}

func (c CancelItemCommand) Key() string             { return CancelItemKey }
func (c CancelItemCommand) ManagesUnitOfWork() bool { return true }
func (c CancelItemCommand) Caller() policies.Actor  { return c.Actor }
func (c CancelItemCommand) RequiresPrivilege() bool { return false }

type CancelItemHandler struct {
	Workflow
}

func (h *CancelItemHandler) Handle(ctx context.Context, cmd CancelItemCommand) (*dto.CalendarItem, error) {
	if err := cmd.Actor.Validate(); err != nil {
		return nil, err
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
	amenity := h.amenityFor(execCtx, unit, item)
	now := h.Policy.Now()
	switch {
	case cmd.Actor.Privileged:
		err = item.CancelByManager(cmd.Actor.UserID, cmd.Justification, now)
	case item.OwnedBy(cmd.Actor.UserID):
		err = item.CancelByRequester(leadFor(amenity), now)
	default:
		err = policies.ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if err := h.persist(execCtx, unit, item); err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}

	h.logTransition("calendar item cancelled", item, cmd.Actor.UserID)
	h.notify(ctx, item, policies.TemplateBookingCancelled)
	return view(item, amenity, cmd.Actor.UserID), nil
}

func leadFor(amenity *domainamenity.Amenity) time.Duration {
	if amenity == nil {
		return 0
	}
	return amenity.CancellationLead()
}

var (
	_ commands.Handler[CancelItemCommand, *dto.CalendarItem] = (*CancelItemHandler)(nil)
	_ middleware.SelfManaged                                 = CancelItemCommand{}
)
