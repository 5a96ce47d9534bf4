package service

import (
	"testing"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

func groupOf(id, serviceTime string, refs ...model.UnitRef) *model.ServiceGroup {
	g := &model.ServiceGroup{ID: id, ServiceDate: "2025-06-01", ServiceTime: serviceTime, GroupName: id}
	for _, ref := range refs {
		g.Members = append(g.Members, &model.ServiceGroupMember{GroupID: id, Unit: ref})
	}
	return g
}

func bucketAt(buckets []*model.TimeBucket, serviceTime string) *model.TimeBucket {
	for _, b := range buckets {
		if b.ServiceTime == serviceTime {
			return b
		}
	}
	return nil
}

func TestResolveBuckets_NoGroups(t *testing.T) {
	t.Parallel()
	buckets := ResolveBuckets(BuildCatalog(testInventory()), nil)

	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].ServiceTime != "09:00" || buckets[1].ServiceTime != "10:00" {
		t.Errorf("buckets not ordered by time: %s, %s", buckets[0].ServiceTime, buckets[1].ServiceTime)
	}
	for _, b := range buckets {
		if !b.Groupable || len(b.EligibleUnits) != 2 {
			t.Errorf("bucket %s: expected 2 eligible units, got %d", b.ServiceTime, len(b.EligibleUnits))
		}
	}
}

func TestResolveBuckets_GroupedUnitsLeaveEligibleList(t *testing.T) {
	t.Parallel()
	g := groupOf("g1", "10:00", model.AvailabilityUnit("av_col"), model.AvailabilityUnit("av_forum"))
	buckets := ResolveBuckets(BuildCatalog(testInventory()), []*model.ServiceGroup{g})

	b := bucketAt(buckets, "10:00")
	if b == nil {
		t.Fatal("bucket with a group must be returned")
	}
	if b.Groupable {
		t.Error("bucket without free units should not be groupable")
	}
	if len(b.EligibleUnits) != 0 {
		t.Errorf("expected no eligible units, got %d", len(b.EligibleUnits))
	}
	if len(b.GroupedUnits) != 2 {
		t.Fatalf("expected 2 grouped units, got %d", len(b.GroupedUnits))
	}
	for _, u := range b.GroupedUnits {
		if u.GroupID == nil || *u.GroupID != "g1" {
			t.Errorf("grouped unit %s not tagged with its group", u.Ref)
		}
	}
}

func TestResolveBuckets_SingleFreeUnitIsNotOffered(t *testing.T) {
	t.Parallel()
	inv := testInventory()
	inv.Availabilities = append(inv.Availabilities, &model.Availability{
		ID: "av_pantheon", ActivityID: "act_forum", LocalDate: "2025-06-01", LocalTime: "15:00", ConsumedCapacity: 2,
	})
	buckets := ResolveBuckets(BuildCatalog(inv), nil)

	if bucketAt(buckets, "15:00") != nil {
		t.Error("bucket with one ungrouped unit and no groups should be omitted")
	}
}

func TestResolveBuckets_DoesNotMutateCatalog(t *testing.T) {
	t.Parallel()
	c := BuildCatalog(testInventory())
	g := groupOf("g1", "10:00", model.AvailabilityUnit("av_col"), model.AvailabilityUnit("av_forum"))
	ResolveBuckets(c, []*model.ServiceGroup{g})

	u, _ := c.Lookup(model.AvailabilityUnit("av_col"))
	if u.GroupID != nil {
		t.Error("catalog unit should not be tagged")
	}
}

func TestResolveBuckets_VanishedMemberFallsBackToStoredRow(t *testing.T) {
	t.Parallel()
	g := groupOf("g1", "10:00", model.AvailabilityUnit("av_col"), model.AvailabilityUnit("av_deleted"))
	g.Members[1].ActivityTitle = "Catacombs"
	buckets := ResolveBuckets(BuildCatalog(testInventory()), []*model.ServiceGroup{g})

	b := bucketAt(buckets, "10:00")
	if b == nil || len(b.GroupedUnits) != 2 {
		t.Fatal("expected both members in grouped units")
	}
	if b.GroupedUnits[1].ActivityTitle != "Catacombs" {
		t.Errorf("expected stored title, got %q", b.GroupedUnits[1].ActivityTitle)
	}
}

func TestResolveBuckets_SplitsOfGroupedAvailabilityNotEligible(t *testing.T) {
	t.Parallel()
	// av_vat was grouped whole before its splits were created.
	groups := []*model.ServiceGroup{
		groupOf("g1", "09:00", model.AvailabilityUnit("av_vat"), model.AvailabilityUnit("av_gone")),
	}

	buckets := ResolveBuckets(BuildCatalog(testInventory()), groups)

	morning := bucketAt(buckets, "09:00")
	if morning == nil {
		t.Fatal("missing 09:00 bucket")
	}
	if morning.Groupable || len(morning.EligibleUnits) != 0 {
		t.Errorf("expected no eligible units at 09:00, got %d", len(morning.EligibleUnits))
	}
	if len(morning.GroupedUnits) != 2 {
		t.Errorf("expected 2 grouped units, got %d", len(morning.GroupedUnits))
	}

	if ten := bucketAt(buckets, "10:00"); ten == nil || !ten.Groupable {
		t.Error("10:00 bucket should stay groupable")
	}
}
