package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// UnitRef Tests
// ============================================================================

func TestUnitRef_Key(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref  UnitRef
		key  string
		kind UnitKind
	}{
		{AvailabilityUnit("A1"), "availability:A1", UnitKindAvailability},
		{SplitUnit("A1", "S1"), "availability:A1/split:S1", UnitKindSplit},
		{NewUnitRef("A1", nil), "availability:A1", UnitKindAvailability},
		{NewUnitRef("A1", strPtr("")), "availability:A1", UnitKindAvailability},
		{NewUnitRef("A1", strPtr("S2")), "availability:A1/split:S2", UnitKindSplit},
	}

	for _, tt := range tests {
		if got := tt.ref.Key(); got != tt.key {
			t.Errorf("Key() = %q, want %q", got, tt.key)
		}
		if got := tt.ref.Kind(); got != tt.kind {
			t.Errorf("Kind() = %q, want %q", got, tt.kind)
		}
	}
}

func TestUnitRef_SplitAndBareAreDistinct(t *testing.T) {
	t.Parallel()

	bare := AvailabilityUnit("A1")
	split := SplitUnit("A1", "S1")

	if bare == split {
		t.Fatal("bare availability and split must not compare equal")
	}
	if bare.Key() == split.Key() {
		t.Fatal("bare availability and split must not share a key")
	}
	if _, ok := bare.SplitID(); ok {
		t.Error("bare availability should not report a split id")
	}
	if bare.SplitIDPtr() != nil {
		t.Error("bare availability should have nil split pointer")
	}
}

func TestParseUnitKey_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, ref := range []UnitRef{AvailabilityUnit("A1"), SplitUnit("A1", "S1")} {
		parsed, err := ParseUnitKey(ref.Key())
		if err != nil {
			t.Fatalf("ParseUnitKey(%q): %v", ref.Key(), err)
		}
		if parsed != ref {
			t.Errorf("ParseUnitKey(%q) = %v, want %v", ref.Key(), parsed, ref)
		}
	}
}

func TestParseUnitKey_Invalid(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"", "A1", "availability:", "availability:/split:S1", "availability:A1/split:"} {
		if _, err := ParseUnitKey(key); !errors.Is(err, ErrInvalidUnitKey) {
			t.Errorf("ParseUnitKey(%q) error = %v, want ErrInvalidUnitKey", key, err)
		}
	}
}

func TestUnitRef_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(SplitUnit("A1", "S1"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"availability_id":"A1","split_id":"S1"}` {
		t.Errorf("unexpected JSON %s", data)
	}

	data, err = json.Marshal(AvailabilityUnit("A1"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"availability_id":"A1"}` {
		t.Errorf("bare unit should omit split_id, got %s", data)
	}

	var ref UnitRef
	if err := json.Unmarshal([]byte(`{"availability_id":"A2","split_id":null}`), &ref); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ref != AvailabilityUnit("A2") {
		t.Errorf("unexpected ref %v", ref)
	}
}

// ============================================================================
// Service date/time Tests
// ============================================================================

func TestNormalizeServiceTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"10:00", "10:00", false},
		{"09:30:00", "09:30", false},
		{" 08:15 ", "08:15", false},
		{"9:30", "09:30", false},
		{"24:00", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeServiceTime(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeServiceTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeServiceTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidServiceDate(t *testing.T) {
	t.Parallel()

	if !ValidServiceDate("2025-06-01") {
		t.Error("2025-06-01 should be valid")
	}
	for _, s := range []string{"2025-6-1", "2025-02-30", "tomorrow", ""} {
		if ValidServiceDate(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}

// ============================================================================
// ServiceGroup Tests
// ============================================================================

func TestServiceGroup_ActivityIDs_DistinctSorted(t *testing.T) {
	t.Parallel()

	g := &ServiceGroup{Members: []*ServiceGroupMember{
		{Unit: SplitUnit("A2", "S1"), ActivityID: "forum"},
		{Unit: AvailabilityUnit("A1"), ActivityID: "colosseum"},
		{Unit: SplitUnit("A2", "S2"), ActivityID: "forum"},
	}}

	ids := g.ActivityIDs()
	if len(ids) != 2 || ids[0] != "colosseum" || ids[1] != "forum" {
		t.Errorf("unexpected activity ids %v", ids)
	}
}

func TestNewGuideAssignmentMessage_CopiesGuideAndMembers(t *testing.T) {
	t.Parallel()

	guide := "G1"
	g := &ServiceGroup{
		ID:             "grp-1",
		ServiceDate:    "2025-06-01",
		ServiceTime:    "10:00",
		GuideID:        &guide,
		CalculatedCost: decimal.NewFromInt(100),
		Members: []*ServiceGroupMember{
			{Unit: AvailabilityUnit("A1")},
			{Unit: SplitUnit("A2", "S1")},
		},
	}

	msg := NewGuideAssignmentMessage(g, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))

	guide = "changed"
	if msg.GuideID == nil || *msg.GuideID != "G1" {
		t.Errorf("message guide should be a copy, got %v", msg.GuideID)
	}
	if len(msg.Members) != 2 || msg.Members[1] != SplitUnit("A2", "S1") {
		t.Errorf("unexpected members %v", msg.Members)
	}
	if msg.GroupID != "grp-1" || msg.ServiceTime != "10:00" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestNewGuideAssignmentMessage_Unassign(t *testing.T) {
	t.Parallel()

	msg := NewGuideAssignmentMessage(&ServiceGroup{ID: "grp-1"}, time.Now())

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := raw["guide_id"]; !ok || v != nil {
		t.Errorf("unassign must serialize guide_id as null, got %v", raw["guide_id"])
	}
}

func TestBookingAllocation_IsCancelled(t *testing.T) {
	t.Parallel()

	for status, want := range map[string]bool{
		"CANCELLED":  true,
		"cancelled":  true,
		" Cancelled": true,
		"CONFIRMED":  false,
		"":           false,
	} {
		b := &BookingAllocation{Status: status}
		if got := b.IsCancelled(); got != want {
			t.Errorf("IsCancelled(%q) = %v, want %v", status, got, want)
		}
	}
}
