package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	amenityapp "condobook/internal/app/handlers/amenities"
	"condobook/internal/app/middleware"
	"condobook/internal/app/policies"
	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
	domaincalendar "condobook/internal/domain/calendar"
	"condobook/internal/domain/shared/timerange"
)

type errorBody struct {
	Error       string `json:"error"`
	Code        string `json:"code"`
	Field       string `json:"field,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Conflicting string `json:"conflicting_item_id,omitempty"`
}

// respondError maps application errors to HTTP. Unknown errors become 500
// without leaking their text.
func respondError(c *gin.Context, err error) {
	status, body := describeError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

func describeError(err error) (int, errorBody) {
	var validation *domaincalendar.ValidationError
	var rejection *domaincalendar.Rejection
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: "validation_failed", Field: validation.Field}
	case errors.Is(err, domaincalendar.ErrValidation),
		errors.Is(err, timerange.ErrInvalidInterval),
		errors.Is(err, domainamenity.ErrInvalidConfig):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: "validation_failed"}
	case errors.As(err, &rejection):
		status, code := http.StatusUnprocessableEntity, "policy_rejected"
		if rejection.Reason == domaincalendar.ReasonConflict {
			status, code = http.StatusConflict, "conflict"
		}
		return status, errorBody{Error: err.Error(), Code: code, Reason: string(rejection.Reason), Conflicting: string(rejection.Conflicting)}
	case errors.Is(err, domaincalendar.ErrConflict):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "conflict"}
	case errors.Is(err, domaincalendar.ErrPolicyRejected):
		return http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: "policy_rejected"}
	case errors.Is(err, domaincalendar.ErrInvalidTransition):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "invalid_transition"}
	case errors.Is(err, uow.ErrConcurrentUpdate):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "concurrent_update"}
	case errors.Is(err, domainamenity.ErrInUse):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "amenity_in_use"}
	case errors.Is(err, middleware.ErrReplayedFailure):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "replayed_failure"}
	case errors.Is(err, domaincalendar.ErrItemNotFound), errors.Is(err, domainamenity.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: err.Error(), Code: "not_found"}
	case errors.Is(err, policies.ErrUnauthenticated):
		return http.StatusUnauthorized, errorBody{Error: err.Error(), Code: "unauthenticated"}
	case errors.Is(err, policies.ErrForbidden):
		return http.StatusForbidden, errorBody{Error: err.Error(), Code: "forbidden"}
	case errors.Is(err, amenityapp.ErrUploaderUnavailable):
		return http.StatusServiceUnavailable, errorBody{Error: err.Error(), Code: "unavailable"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"}
	}
}

func badRequest(c *gin.Context, field, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: message, Code: "validation_failed", Field: field})
}
