package amenities

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"condobook/internal/app/commands"
	"condobook/internal/app/dto"
	handlersupport "condobook/internal/app/handlers/support"
	"condobook/internal/app/policies"
	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
)

const (
	CreateAmenityKey      = "amenities.create"
	UpdateAmenityKey      = "amenities.update"
	DeleteAmenityKey      = "amenities.delete"
	UploadAmenityPhotoKey = "amenities.photo.upload"
)

type CreateAmenityCommand struct {
	Actor     policies.Actor
	AmenityID string
	Input     Input
}

func (c CreateAmenityCommand) Key() string             { return CreateAmenityKey }
func (c CreateAmenityCommand) Caller() policies.Actor  { return c.Actor }
func (c CreateAmenityCommand) RequiresPrivilege() bool { return true }

type CreateAmenityHandler struct {
	UoWFactory uow.UoWFactory
	Clock      domaincalendar.Clock
	Logger     *slog.Logger
}

func (h *CreateAmenityHandler) Handle(ctx context.Context, cmd CreateAmenityCommand) (dto.Amenity, error) {
	if !cmd.Actor.Privileged {
		return dto.Amenity{}, policies.ErrForbidden
	}
	params, err := cmd.Input.params()
	if err != nil {
		return dto.Amenity{}, err
	}
	id := strings.TrimSpace(cmd.AmenityID)
	if id == "" {
		id = uuid.NewString()
	}
	amenity, err := domainamenity.New(domainamenity.ID(id), cmd.Actor.CommunityID, params, now(h.Clock))
	if err != nil {
		return dto.Amenity{}, err
	}

	unit, execCtx, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Amenity{}, err
	}
	defer unit.Close(execCtx)

	if err := unit.Amenities().Save(execCtx, amenity); err != nil {
		return dto.Amenity{}, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return dto.Amenity{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("amenity created", "amenity_id", amenity.ID, "community_id", amenity.CommunityID, "actor_id", cmd.Actor.UserID)
	}
	return dto.MapAmenity(amenity), nil
}

type UpdateAmenityCommand struct {
	Actor     policies.Actor
	AmenityID string `validate:"required"`
	Input     Input
}

func (c UpdateAmenityCommand) Key() string             { return UpdateAmenityKey }
func (c UpdateAmenityCommand) Caller() policies.Actor  { return c.Actor }
func (c UpdateAmenityCommand) RequiresPrivilege() bool { return true }

type UpdateAmenityHandler struct {
	UoWFactory uow.UoWFactory
	Clock      domaincalendar.Clock
	Logger     *slog.Logger
}

// Handle replaces the amenity configuration. Existing bookings keep the fee and
// interval they were admitted with.
func (h *UpdateAmenityHandler) Handle(ctx context.Context, cmd UpdateAmenityCommand) (dto.Amenity, error) {
	if !cmd.Actor.Privileged {
		return dto.Amenity{}, policies.ErrForbidden
	}
	params, err := cmd.Input.params()
	if err != nil {
		return dto.Amenity{}, err
	}
	unit, execCtx, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Amenity{}, err
	}
	defer unit.Close(execCtx)

	amenity, err := loadOwned(execCtx, unit, cmd.Actor, cmd.AmenityID)
	if err != nil {
		return dto.Amenity{}, err
	}
	if err := amenity.Update(params, now(h.Clock)); err != nil {
		return dto.Amenity{}, err
	}
	if err := unit.Amenities().Save(execCtx, amenity); err != nil {
		return dto.Amenity{}, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return dto.Amenity{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("amenity updated", "amenity_id", amenity.ID, "actor_id", cmd.Actor.UserID)
	}
	return dto.MapAmenity(amenity), nil
}

type DeleteAmenityCommand struct {
	Actor     policies.Actor
	AmenityID string `validate:"required"`
}

func (c DeleteAmenityCommand) Key() string             { return DeleteAmenityKey }
func (c DeleteAmenityCommand) Caller() policies.Actor  { return c.Actor }
func (c DeleteAmenityCommand) RequiresPrivilege() bool { return true }

type DeleteAmenityHandler struct {
	UoWFactory uow.UoWFactory
	Clock      domaincalendar.Clock
	Logger     *slog.Logger
}

// Handle removes an amenity unless it still has active bookings that have not
// ended yet. The amenity lock keeps new bookings out while checking.
func (h *DeleteAmenityHandler) Handle(ctx context.Context, cmd DeleteAmenityCommand) (struct{}, error) {
	if !cmd.Actor.Privileged {
		return struct{}{}, policies.ErrForbidden
	}
	unit, execCtx, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	defer unit.Close(execCtx)

	amenity, err := loadOwned(execCtx, unit, cmd.Actor, cmd.AmenityID)
	if err != nil {
		return struct{}{}, err
	}
	if err := unit.LockAmenity(execCtx, amenity.ID); err != nil {
		return struct{}{}, err
	}
	upcoming, err := unit.Calendar().Search(execCtx, domaincalendar.Filter{
		CommunityID: amenity.CommunityID,
		AmenityID:   amenity.ID,
		Statuses:    domaincalendar.ActiveStatuses(),
		EndsAfter:   now(h.Clock),
		Limit:       1,
	})
	if err != nil {
		return struct{}{}, err
	}
	if upcoming.Total > 0 {
		return struct{}{}, fmt.Errorf("%w: %d active bookings", domainamenity.ErrInUse, upcoming.Total)
	}
	if err := unit.Amenities().Delete(execCtx, amenity.ID); err != nil {
		return struct{}{}, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return struct{}{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("amenity deleted", "amenity_id", amenity.ID, "actor_id", cmd.Actor.UserID)
	}
	return struct{}{}, nil
}

type UploadAmenityPhotoCommand struct {
	Actor       policies.Actor
	AmenityID   string `validate:"required"`
	FileName    string
	ContentType string
	Reader      io.Reader
}

func (c UploadAmenityPhotoCommand) Key() string             { return UploadAmenityPhotoKey }
func (c UploadAmenityPhotoCommand) Caller() policies.Actor  { return c.Actor }
func (c UploadAmenityPhotoCommand) RequiresPrivilege() bool { return true }

type UploadAmenityPhotoHandler struct {
	UoWFactory uow.UoWFactory
	Uploader   policies.Uploader
	Clock      domaincalendar.Clock
	Logger     *slog.Logger
}

func (h *UploadAmenityPhotoHandler) Handle(ctx context.Context, cmd UploadAmenityPhotoCommand) (dto.Amenity, error) {
	if !cmd.Actor.Privileged {
		return dto.Amenity{}, policies.ErrForbidden
	}
	if h.Uploader == nil {
		return dto.Amenity{}, ErrUploaderUnavailable
	}
	if cmd.Reader == nil {
		return dto.Amenity{}, &domaincalendar.ValidationError{Field: "photo", Message: "is required"}
	}
	unit, execCtx, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Amenity{}, err
	}
	defer unit.Close(execCtx)

	amenity, err := loadOwned(execCtx, unit, cmd.Actor, cmd.AmenityID)
	if err != nil {
		return dto.Amenity{}, err
	}
	objectKey := photoKey(amenity, cmd.FileName)
	publicURL, err := h.Uploader.Upload(execCtx, objectKey, cmd.Reader, cmd.ContentType)
	if err != nil {
		return dto.Amenity{}, fmt.Errorf("upload photo: %w", err)
	}
	amenity.SetPhoto(publicURL, now(h.Clock))
	if err := unit.Amenities().Save(execCtx, amenity); err != nil {
		return dto.Amenity{}, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return dto.Amenity{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("amenity photo uploaded", "amenity_id", amenity.ID, "object_key", objectKey)
	}
	return dto.MapAmenity(amenity), nil
}

func photoKey(amenity *domainamenity.Amenity, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("communities/%s/amenities/%s/%s%s", amenity.CommunityID, amenity.ID, uuid.NewString(), ext)
}

var (
	_ commands.Handler[CreateAmenityCommand, dto.Amenity]      = (*CreateAmenityHandler)(nil)
	_ commands.Handler[UpdateAmenityCommand, dto.Amenity]      = (*UpdateAmenityHandler)(nil)
	_ commands.Handler[DeleteAmenityCommand, struct{}]         = (*DeleteAmenityHandler)(nil)
	_ commands.Handler[UploadAmenityPhotoCommand, dto.Amenity] = (*UploadAmenityPhotoHandler)(nil)
)
