package service

import (
	"testing"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

func strPtr(s string) *string { return &s }

func testInventory() *model.Inventory {
	return &model.Inventory{
		ServiceDate: "2025-06-01",
		Activities: map[string]*model.Activity{
			"act_colosseum": {ID: "act_colosseum", Title: "Colosseum"},
			"act_forum":     {ID: "act_forum", Title: "Forum"},
			"act_vatican":   {ID: "act_vatican", Title: "Vatican"},
		},
		Availabilities: []*model.Availability{
			{ID: "av_col", ActivityID: "act_colosseum", LocalDate: "2025-06-01", LocalTime: "10:00:00", ConsumedCapacity: 10},
			{ID: "av_forum", ActivityID: "act_forum", LocalDate: "2025-06-01", LocalTime: "10:00", ConsumedCapacity: 5},
			{ID: "av_vat", ActivityID: "act_vatican", LocalDate: "2025-06-01", LocalTime: "09:00", ConsumedCapacity: 30},
		},
		Splits: []*model.Split{
			{ID: "sp_a", AvailabilityID: "av_vat", Name: "Group A"},
			{ID: "sp_b", AvailabilityID: "av_vat", Name: "Group B"},
		},
		Allocations: []*model.BookingAllocation{
			{BookingID: "b1", AvailabilityID: "av_vat", SplitID: strPtr("sp_a"), Quantity: 4, Status: model.BookingStatusConfirmed},
			{BookingID: "b2", AvailabilityID: "av_vat", SplitID: strPtr("sp_a"), Quantity: 3, Status: model.BookingStatusPending},
			{BookingID: "b3", AvailabilityID: "av_vat", SplitID: strPtr("sp_a"), Quantity: 9, Status: "cancelled"},
		},
	}
}

func TestBuildCatalog_SplitsReplaceBareAvailability(t *testing.T) {
	t.Parallel()
	c := BuildCatalog(testInventory())

	if c.Len() != 4 {
		t.Fatalf("expected 4 units, got %d", c.Len())
	}
	bare := model.AvailabilityUnit("av_vat")
	if c.IsGroupable(bare) {
		t.Error("split availability should not be groupable as a whole")
	}
	if _, ok := c.Lookup(bare); !ok {
		t.Error("hidden availability should still resolve")
	}
	if !c.IsGroupable(model.SplitUnit("av_vat", "sp_a")) {
		t.Error("split should be groupable")
	}
}

func TestBuildCatalog_SplitPaxExcludesCancelled(t *testing.T) {
	t.Parallel()
	c := BuildCatalog(testInventory())

	u, ok := c.Lookup(model.SplitUnit("av_vat", "sp_a"))
	if !ok {
		t.Fatal("split A not found")
	}
	if u.Pax != 7 {
		t.Errorf("expected 7 pax, got %d", u.Pax)
	}
}

func TestBuildCatalog_SplitWithoutBookingsHasZeroPax(t *testing.T) {
	t.Parallel()
	c := BuildCatalog(testInventory())

	u, ok := c.Lookup(model.SplitUnit("av_vat", "sp_b"))
	if !ok {
		t.Fatal("split B not found")
	}
	if u.Pax != 0 {
		t.Errorf("expected 0 pax, got %d", u.Pax)
	}
	if !c.IsGroupable(u.Ref) {
		t.Error("zero pax split should be groupable")
	}
}

func TestBuildCatalog_BarePaxIsConsumedCapacity(t *testing.T) {
	t.Parallel()
	c := BuildCatalog(testInventory())

	u, _ := c.Lookup(model.AvailabilityUnit("av_col"))
	if u == nil || u.Pax != 10 {
		t.Fatalf("expected Colosseum with 10 pax, got %+v", u)
	}
	if u.ServiceTime != "10:00" {
		t.Errorf("expected normalized time 10:00, got %q", u.ServiceTime)
	}
}

func TestBuildCatalog_OrdersByTimeThenTitle(t *testing.T) {
	t.Parallel()
	c := BuildCatalog(testInventory())

	var labels []string
	for _, u := range c.Units() {
		labels = append(labels, u.ServiceTime+" "+u.Label())
	}
	want := []string{
		"09:00 Vatican / Group A",
		"09:00 Vatican / Group B",
		"10:00 Colosseum",
		"10:00 Forum",
	}
	if len(labels) != len(want) {
		t.Fatalf("expected %v, got %v", want, labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], labels[i])
		}
	}
}

func TestBuildCatalog_MissingActivityTitle(t *testing.T) {
	t.Parallel()
	inv := &model.Inventory{
		ServiceDate: "2025-06-01",
		Availabilities: []*model.Availability{
			{ID: "av_x", ActivityID: "act_gone", LocalDate: "2025-06-01", LocalTime: "11:00"},
		},
	}
	c := BuildCatalog(inv)

	u, ok := c.Lookup(model.AvailabilityUnit("av_x"))
	if !ok {
		t.Fatal("unit not found")
	}
	if u.ActivityTitle != model.UnknownActivityTitle {
		t.Errorf("expected %q, got %q", model.UnknownActivityTitle, u.ActivityTitle)
	}
}

func TestBuildCatalog_SkipsOtherDates(t *testing.T) {
	t.Parallel()
	inv := testInventory()
	inv.Availabilities = append(inv.Availabilities, &model.Availability{
		ID: "av_tomorrow", ActivityID: "act_forum", LocalDate: "2025-06-02", LocalTime: "10:00",
	})
	c := BuildCatalog(inv)

	if _, ok := c.Lookup(model.AvailabilityUnit("av_tomorrow")); ok {
		t.Error("availability of another date should be skipped")
	}
}
