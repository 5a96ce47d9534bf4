package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/database"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/service"
)

func TestMapServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   model.ErrorCode
		wantField  string
		wantUnit   string
		wantGroup  string
	}{
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("get: %w", service.ErrServiceGroupNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrCodeNotFound,
		},
		{
			name:       "not found carries group",
			err:        fmt.Errorf("delete: %w", &service.GroupNotFoundError{GroupID: "g_missing"}),
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrCodeNotFound,
			wantGroup:  "g_missing",
		},
		{
			name:       "conflict carries unit",
			err:        &service.UnitConflictError{UnitKey: "availability:av_1/split:sp_a"},
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeAlreadyGrouped,
			wantUnit:   "availability:av_1/split:sp_a",
		},
		{
			name:       "conflict carries owning group",
			err:        &service.UnitConflictError{UnitKey: "availability:av_1", GroupID: "g_owner"},
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeAlreadyGrouped,
			wantUnit:   "availability:av_1",
			wantGroup:  "g_owner",
		},
		{
			name:       "bare already grouped",
			err:        service.ErrUnitAlreadyGrouped,
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeAlreadyGrouped,
		},
		{
			name:       "unit error",
			err:        &service.UnitError{UnitKey: "availability:av_2", Err: service.ErrUnitNotInBucket},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   model.ErrCodeInvalidUnit,
			wantUnit:   "availability:av_2",
		},
		{
			name:       "too few members",
			err:        service.ErrTooFewMembers,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   model.ErrCodeValidation,
			wantField:  "members",
		},
		{
			name: "too many members",
			err: &service.RequestValidationError{
				Fields: []model.FieldError{{Field: "members", Message: "must contain at most 50 items", Rule: "max"}},
				Cause:  service.ErrTooManyMembers,
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   model.ErrCodeValidation,
			wantField:  "members",
		},
		{
			name:       "too many members sentinel",
			err:        service.ErrTooManyMembers,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   model.ErrCodeValidation,
			wantField:  "members",
		},
		{
			name:       "guide id",
			err:        service.ErrInvalidGuideID,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   model.ErrCodeValidation,
			wantField:  "guide_id",
		},
		{
			name: "request validation keeps every field",
			err: &service.RequestValidationError{
				Fields: []model.FieldError{{Field: "group_name", Message: "is required"}, {Field: "service_time", Message: "must be HH:MM"}},
				Cause:  service.ErrGroupNameRequired,
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   model.ErrCodeValidation,
			wantField:  "service_time",
		},
		{
			name:       "store down",
			err:        fmt.Errorf("load inventory: %w", database.ErrConnection),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   model.ErrCodeUnavailable,
		},
		{
			name:       "unexpected duplicate",
			err:        database.ErrDuplicate,
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeConflict,
		},
		{
			name:       "commit conflict",
			err:        fmt.Errorf("create service group: %w", database.ErrConflict),
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeConflict,
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   model.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pd := MapServiceError(tt.err)
			if pd.Status != tt.wantStatus {
				t.Errorf("status = %d, want %d", pd.Status, tt.wantStatus)
			}
			if pd.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", pd.Code, tt.wantCode)
			}
			if pd.UnitKey != tt.wantUnit {
				t.Errorf("unit key = %q, want %q", pd.UnitKey, tt.wantUnit)
			}
			if pd.GroupID != tt.wantGroup {
				t.Errorf("group id = %q, want %q", pd.GroupID, tt.wantGroup)
			}
			if tt.wantGroup != "" && !strings.Contains(pd.Detail, tt.wantGroup) {
				t.Errorf("detail %q should name group %q", pd.Detail, tt.wantGroup)
			}
			if tt.wantField != "" {
				found := false
				for _, fe := range pd.Errors {
					if fe.Field == tt.wantField {
						found = true
					}
				}
				if !found {
					t.Errorf("expected field %q in %+v", tt.wantField, pd.Errors)
				}
			}
		})
	}
}

func TestMapServiceError_Nil(t *testing.T) {
	t.Parallel()

	if MapServiceError(nil) != nil {
		t.Error("nil error should map to nil")
	}
}

func TestMapServiceErrorWithContext_OnlyRewritesInternal(t *testing.T) {
	t.Parallel()

	pd := MapServiceErrorWithContext(service.ErrServiceGroupNotFound, "get group")
	if pd.Detail == "get group: an unexpected error occurred" {
		t.Error("non-internal detail should be preserved")
	}

	pd = MapServiceErrorWithContext(errors.New("x"), "get group")
	if pd.Detail != "get group: an unexpected error occurred" {
		t.Errorf("unexpected detail %q", pd.Detail)
	}
}
