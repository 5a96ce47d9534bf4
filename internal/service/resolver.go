package service

import (
	"sort"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

// ResolveBuckets partitions the catalog into time buckets, ascending by time.
//
// A bucket is returned when it already holds a service group or when at
// least MinGroupMembers of its units are still ungrouped. EligibleUnits is
// only filled in the second case; a bucket with a single free unit offers no
// choice. Splits of a grouped bare availability, and a bare availability with
// a grouped split, are not offered again.
func ResolveBuckets(catalog *UnitCatalog, groups []*model.ServiceGroup) []*model.TimeBucket {
	buckets := make(map[string]*model.TimeBucket)
	bucket := func(serviceTime string) *model.TimeBucket {
		b, ok := buckets[serviceTime]
		if !ok {
			b = &model.TimeBucket{
				ServiceTime:   serviceTime,
				Groups:        make([]*model.ServiceGroup, 0),
				GroupedUnits:  make([]*model.Unit, 0),
				EligibleUnits: make([]*model.Unit, 0),
			}
			buckets[serviceTime] = b
		}
		return b
	}

	claimed := newClaimIndex(nil)
	for _, g := range groups {
		b := bucket(g.ServiceTime)
		b.Groups = append(b.Groups, g)

		for _, m := range g.Members {
			claimed.add(m.Unit, g.ID)
			b.GroupedUnits = append(b.GroupedUnits, groupedUnit(catalog, g, m))
		}
	}

	ungrouped := make(map[string][]*model.Unit)
	for _, u := range catalog.Units() {
		if _, ok := claimed.owner(u.Ref); ok {
			continue
		}
		ungrouped[u.ServiceTime] = append(ungrouped[u.ServiceTime], u)
	}

	for serviceTime, units := range ungrouped {
		if len(units) < model.MinGroupMembers {
			continue
		}
		b := bucket(serviceTime)
		b.Groupable = true
		for _, u := range units {
			eligible := *u
			b.EligibleUnits = append(b.EligibleUnits, &eligible)
		}
	}

	result := make([]*model.TimeBucket, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ServiceTime < result[j].ServiceTime
	})
	return result
}

// groupedUnit returns a copy of the member's unit tagged with its group. A
// member whose unit vanished from the feed is rebuilt from the stored row.
func groupedUnit(catalog *UnitCatalog, g *model.ServiceGroup, m *model.ServiceGroupMember) *model.Unit {
	groupID := g.ID

	if u, ok := catalog.Lookup(m.Unit); ok {
		grouped := *u
		grouped.GroupID = &groupID
		return &grouped
	}

	kind := m.Unit.Kind()
	return &model.Unit{
		Ref:           m.Unit,
		Kind:          kind,
		ActivityID:    m.ActivityID,
		ActivityTitle: m.ActivityTitle,
		ServiceDate:   g.ServiceDate,
		ServiceTime:   g.ServiceTime,
		SplitName:     m.SplitName,
		Pax:           m.Pax,
		GroupID:       &groupID,
	}
}
