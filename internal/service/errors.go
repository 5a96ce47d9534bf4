package service

import (
	"errors"
	"fmt"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Validation Errors =====
var (
	ErrInvalidGroupRequest = errors.New("invalid service group request")
	ErrTooFewMembers       = errors.New("a service group needs at least 2 members")
	ErrTooManyMembers      = errors.New("a service group holds at most 50 members")
	ErrGroupNameRequired   = errors.New("group name is required")
	ErrGroupNameTooLong    = errors.New("group name exceeds maximum length")
	ErrInvalidServiceDate  = errors.New("service date must be YYYY-MM-DD")
	ErrInvalidServiceTime  = errors.New("service time must be HH:MM")
	ErrInvalidUnit         = errors.New("unit does not exist for this service date")
	ErrDuplicateMember     = errors.New("unit selected more than once")
	ErrUnitNotInBucket     = errors.New("unit is not in the requested time bucket")
	ErrUnitNotGroupable    = errors.New("availability has splits; group its splits instead")
	ErrInvalidGuideID      = errors.New("invalid guide id")
)

// ===== Conflict Errors =====
var (
	ErrUnitAlreadyGrouped = errors.New("unit already belongs to another service group")
)

// ===== Not Found Errors =====
var (
	ErrServiceGroupNotFound = errors.New("service group not found")
)

// RequestValidationError carries the field errors of a rejected request.
// It unwraps to the sentinel of the first failing field.
type RequestValidationError struct {
	Fields []model.FieldError
	Cause  error
}

func (e *RequestValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%v: %s %s", e.Cause, e.Fields[0].Field, e.Fields[0].Message)
}

func (e *RequestValidationError) Unwrap() error {
	return e.Cause
}

// GroupNotFoundError names the service group that does not exist.
type GroupNotFoundError struct {
	GroupID string
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("%v: %s", ErrServiceGroupNotFound, e.GroupID)
}

func (e *GroupNotFoundError) Unwrap() error {
	return ErrServiceGroupNotFound
}

// UnitConflictError names the unit that is already grouped and, when known,
// the group holding it.
type UnitConflictError struct {
	UnitKey string
	GroupID string
}

func (e *UnitConflictError) Error() string {
	if e.GroupID == "" {
		return fmt.Sprintf("%v: %s", ErrUnitAlreadyGrouped, e.UnitKey)
	}
	return fmt.Sprintf("%v: %s is in group %s", ErrUnitAlreadyGrouped, e.UnitKey, e.GroupID)
}

func (e *UnitConflictError) Unwrap() error {
	return ErrUnitAlreadyGrouped
}

// UnitError reports a member that cannot join the requested group.
type UnitError struct {
	UnitKey string
	Err     error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.UnitKey)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}
