package handler

import (
	"errors"
	"log/slog"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/database"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var (
		validationErr *service.RequestValidationError
		conflictErr   *service.UnitConflictError
		unitErr       *service.UnitError
		notFoundErr   *service.GroupNotFoundError
	)

	switch {
	// ===== Field Validation Errors → 422 =====
	case errors.As(err, &validationErr):
		return model.NewValidationError(validationErr.Fields)

	// ===== Conflict Errors → 409 =====
	case errors.As(err, &conflictErr):
		pd := model.NewAlreadyGroupedError(conflictErr.UnitKey, conflictErr.Error())
		pd.GroupID = conflictErr.GroupID
		return pd
	case errors.Is(err, service.ErrUnitAlreadyGrouped):
		return model.NewAlreadyGroupedError("", err.Error())

	// ===== Unit Errors → 422 =====
	case errors.As(err, &unitErr):
		pd := model.NewInvalidUnitError(unitErr.Error())
		pd.UnitKey = unitErr.UnitKey
		return pd
	case errors.Is(err, service.ErrInvalidUnit),
		errors.Is(err, service.ErrDuplicateMember),
		errors.Is(err, service.ErrUnitNotInBucket),
		errors.Is(err, service.ErrUnitNotGroupable):
		return model.NewInvalidUnitError(err.Error())

	// ===== Input Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidServiceDate):
		return model.NewValidationError([]model.FieldError{{Field: "service_date", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidServiceTime):
		return model.NewValidationError([]model.FieldError{{Field: "service_time", Message: err.Error()}})
	case errors.Is(err, service.ErrGroupNameRequired),
		errors.Is(err, service.ErrGroupNameTooLong):
		return model.NewValidationError([]model.FieldError{{Field: "group_name", Message: err.Error()}})
	case errors.Is(err, service.ErrTooFewMembers),
		errors.Is(err, service.ErrTooManyMembers):
		return model.NewValidationError([]model.FieldError{{Field: "members", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidGuideID):
		return model.NewValidationError([]model.FieldError{{Field: "guide_id", Message: err.Error()}})
	case errors.Is(err, service.ErrInvalidGroupRequest):
		return model.NewValidationError([]model.FieldError{{Field: "body", Message: err.Error()}})

	// ===== Not Found Errors → 404 =====
	case errors.As(err, &notFoundErr):
		pd := model.NewNotFoundError("service group " + notFoundErr.GroupID)
		pd.GroupID = notFoundErr.GroupID
		return pd
	case errors.Is(err, service.ErrServiceGroupNotFound):
		return model.NewNotFoundError("service group")

	// ===== Store Errors =====
	case errors.Is(err, database.ErrConnection):
		slog.Error("group store unavailable", slog.String("error", err.Error()))
		return model.NewServiceUnavailableError("group store unavailable, retry shortly")
	case errors.Is(err, database.ErrDuplicate):
		return model.NewConflictError("the request conflicts with the current state")
	case errors.Is(err, database.ErrConflict):
		return model.NewConflictError("a concurrent change interfered, retry the request")

	// ===== Default → 500 =====
	default:
		slog.Error("unhandled service error", slog.String("error", err.Error()))
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
