package model

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func validCreateRequest() *CreateServiceGroupRequest {
	return &CreateServiceGroupRequest{
		ServiceDate: "2025-06-01",
		ServiceTime: "10:00",
		GroupName:   "Joint 10:00",
		Members: []MemberRequest{
			{AvailabilityID: "av-colosseum"},
			{AvailabilityID: "av-forum", SplitID: strPtr("split-a")},
		},
	}
}

func hasFieldError(errs []FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

// ============================================================================
// CreateServiceGroupRequest Tests
// ============================================================================

func TestCreateServiceGroupRequest_Validate_Valid(t *testing.T) {
	t.Parallel()

	if errs := validCreateRequest().Validate(); len(errs) > 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestCreateServiceGroupRequest_Validate_Fields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *CreateServiceGroupRequest)
		field   string
		message string
	}{
		{
			name:    "missing name",
			mutate:  func(r *CreateServiceGroupRequest) { r.GroupName = "" },
			field:   "group_name",
			message: "is required",
		},
		{
			name:    "name too long",
			mutate:  func(r *CreateServiceGroupRequest) { r.GroupName = strings.Repeat("x", MaxGroupNameLength+1) },
			field:   "group_name",
			message: "at most 100",
		},
		{
			name:    "bad date",
			mutate:  func(r *CreateServiceGroupRequest) { r.ServiceDate = "01/06/2025" },
			field:   "service_date",
			message: "2006-01-02",
		},
		{
			name:    "bad time",
			mutate:  func(r *CreateServiceGroupRequest) { r.ServiceTime = "25:00" },
			field:   "service_time",
			message: "HH:MM",
		},
		{
			name:    "one member",
			mutate:  func(r *CreateServiceGroupRequest) { r.Members = r.Members[:1] },
			field:   "members",
			message: "at least 2",
		},
		{
			name:    "no members",
			mutate:  func(r *CreateServiceGroupRequest) { r.Members = nil },
			field:   "members",
			message: "is required",
		},
		{
			name:    "member without availability",
			mutate:  func(r *CreateServiceGroupRequest) { r.Members[1].AvailabilityID = "" },
			field:   "members[1].availability_id",
			message: "is required",
		},
		{
			name:    "empty split id",
			mutate:  func(r *CreateServiceGroupRequest) { r.Members[1].SplitID = strPtr("") },
			field:   "members[1].split_id",
			message: "at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := validCreateRequest()
			tt.mutate(req)

			errs := req.Validate()
			found := false
			for _, e := range errs {
				if e.Field == tt.field && strings.Contains(e.Message, tt.message) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected %s error containing %q, got %v", tt.field, tt.message, errs)
			}
		})
	}
}

func TestCreateServiceGroupRequest_Validate_RecordsRule(t *testing.T) {
	t.Parallel()

	req := validCreateRequest()
	for i := len(req.Members); i <= MaxGroupMembers; i++ {
		req.Members = append(req.Members, MemberRequest{AvailabilityID: "av-extra"})
	}

	errs := req.Validate()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if errs[0].Field != "members" || errs[0].Rule != "max" {
		t.Errorf("expected members max error, got %+v", errs[0])
	}
	if !strings.Contains(errs[0].Message, "at most 50") {
		t.Errorf("unexpected message %q", errs[0].Message)
	}
}

func TestCreateServiceGroupRequest_Validate_AcceptsSeconds(t *testing.T) {
	t.Parallel()

	req := validCreateRequest()
	req.ServiceTime = "10:00:00"

	if errs := req.Validate(); hasFieldError(errs, "service_time") {
		t.Errorf("HH:MM:SS should be accepted, got %v", errs)
	}
}

func TestCreateServiceGroupRequest_Normalize(t *testing.T) {
	t.Parallel()

	req := validCreateRequest()
	req.GroupName = "  Joint 10:00  "
	req.ServiceTime = "10:00:00"

	req.Normalize()

	if req.GroupName != "Joint 10:00" {
		t.Errorf("expected trimmed name, got %q", req.GroupName)
	}
	if req.ServiceTime != "10:00" {
		t.Errorf("expected normalized time, got %q", req.ServiceTime)
	}
}

func TestCreateServiceGroupRequest_Normalize_WhitespaceNameFailsValidation(t *testing.T) {
	t.Parallel()

	req := validCreateRequest()
	req.GroupName = "   "
	req.Normalize()

	if !hasFieldError(req.Validate(), "group_name") {
		t.Error("whitespace-only name should fail validation after Normalize")
	}
}

func TestMemberRequest_Ref(t *testing.T) {
	t.Parallel()

	bare := MemberRequest{AvailabilityID: "av-1"}
	if bare.Ref().Kind() != UnitKindAvailability {
		t.Errorf("expected availability unit, got %s", bare.Ref().Kind())
	}

	split := MemberRequest{AvailabilityID: "av-1", SplitID: strPtr("s-1")}
	if split.Ref() != SplitUnit("av-1", "s-1") {
		t.Errorf("unexpected split ref %v", split.Ref())
	}
}

// ============================================================================
// AssignGuideRequest Tests
// ============================================================================

func TestAssignGuideRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		guideID *string
		wantErr bool
	}{
		{"assign", strPtr("G1"), false},
		{"unassign", nil, false},
		{"empty id", strPtr(""), true},
		{"too long", strPtr(strings.Repeat("g", MaxGuideIDLength+1)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := &AssignGuideRequest{GuideID: tt.guideID}
			errs := req.Validate()
			if tt.wantErr != hasFieldError(errs, "guide_id") {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, errs)
			}
		})
	}
}
