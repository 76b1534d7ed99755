package amenities

import (
	"context"
	"log/slog"

	"condobook/internal/app/dto"
	handlersupport "condobook/internal/app/handlers/support"
	"condobook/internal/app/policies"
	"condobook/internal/app/queries"
	"condobook/internal/app/uow"
)

const (
	ListAmenitiesKey = "amenities.list"
	GetAmenityKey    = "amenities.get"
)

type ListAmenitiesQuery struct {
	Actor policies.Actor
}

func (q ListAmenitiesQuery) Key() string             { return ListAmenitiesKey }
func (q ListAmenitiesQuery) Caller() policies.Actor  { return q.Actor }
func (q ListAmenitiesQuery) RequiresPrivilege() bool { return false }

type ListAmenitiesHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListAmenitiesHandler) Handle(ctx context.Context, q ListAmenitiesQuery) (dto.AmenityCollection, error) {
	if err := q.Actor.Validate(); err != nil {
		return dto.AmenityCollection{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.AmenityCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	list, err := unit.Amenities().ListByCommunity(execCtx, q.Actor.CommunityID)
	if err != nil {
		return dto.AmenityCollection{}, err
	}
	items := make([]dto.Amenity, 0, len(list))
	for _, amenity := range list {
		items = append(items, dto.MapAmenity(amenity))
	}
	if h.Logger != nil {
		h.Logger.Debug("amenities listed", "community_id", q.Actor.CommunityID, "count", len(items))
	}
	return dto.AmenityCollection{Items: items}, nil
}

type GetAmenityQuery struct {
	Actor     policies.Actor
	AmenityID string `validate:"required"`
}

func (q GetAmenityQuery) Key() string             { return GetAmenityKey }
func (q GetAmenityQuery) Caller() policies.Actor  { return q.Actor }
func (q GetAmenityQuery) RequiresPrivilege() bool { return false }

type GetAmenityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetAmenityHandler) Handle(ctx context.Context, q GetAmenityQuery) (dto.Amenity, error) {
	if err := q.Actor.Validate(); err != nil {
		return dto.Amenity{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Amenity{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	amenity, err := loadOwned(execCtx, unit, q.Actor, q.AmenityID)
	if err != nil {
		return dto.Amenity{}, err
	}
	return dto.MapAmenity(amenity), nil
}

var (
	_ queries.Handler[ListAmenitiesQuery, dto.AmenityCollection] = (*ListAmenitiesHandler)(nil)
	_ queries.Handler[GetAmenityQuery, dto.Amenity]              = (*GetAmenityHandler)(nil)
)
