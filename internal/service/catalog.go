package service

import (
	"sort"
	"strings"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

// UnitCatalog is the inventory of groupable units for one service date.
type UnitCatalog struct {
	ServiceDate string

	units  []*model.Unit
	lookup map[string]*model.Unit
	hidden map[string]bool
}

// BuildCatalog derives units and their pax from the booking feed.
//
// A bare availability is a unit only while it has no splits; once split, each
// split is a unit instead. Split pax is the sum of the non-cancelled bookings
// attached to it, so a split without bookings is a zero-pax unit that can
// still be grouped. Bare availabilities hidden by splits stay resolvable
// through Lookup so existing group members keep a pax value.
func BuildCatalog(inv *model.Inventory) *UnitCatalog {
	c := &UnitCatalog{
		ServiceDate: inv.ServiceDate,
		lookup:      make(map[string]*model.Unit),
		hidden:      make(map[string]bool),
	}

	splitsByAvailability := make(map[string][]*model.Split)
	for _, sp := range inv.Splits {
		splitsByAvailability[sp.AvailabilityID] = append(splitsByAvailability[sp.AvailabilityID], sp)
	}

	splitPax := make(map[string]int)
	for _, b := range inv.Allocations {
		if b.SplitID == nil || b.IsCancelled() || b.Quantity <= 0 {
			continue
		}
		splitPax[model.SplitUnit(b.AvailabilityID, *b.SplitID).Key()] += b.Quantity
	}

	for _, av := range inv.Availabilities {
		if inv.ServiceDate != "" && av.LocalDate != "" && av.LocalDate != inv.ServiceDate {
			continue
		}

		title := model.UnknownActivityTitle
		if a, ok := inv.Activities[av.ActivityID]; ok && strings.TrimSpace(a.Title) != "" {
			title = a.Title
		}
		serviceTime := av.LocalTime
		if t, err := model.NormalizeServiceTime(av.LocalTime); err == nil {
			serviceTime = t
		}

		bare := &model.Unit{
			Ref:           model.AvailabilityUnit(av.ID),
			Kind:          model.UnitKindAvailability,
			ActivityID:    av.ActivityID,
			ActivityTitle: title,
			ServiceDate:   av.LocalDate,
			ServiceTime:   serviceTime,
			Pax:           av.ConsumedCapacity,
		}
		c.lookup[bare.Ref.Key()] = bare

		splits := splitsByAvailability[av.ID]
		if len(splits) == 0 {
			c.units = append(c.units, bare)
			continue
		}
		c.hidden[bare.Ref.Key()] = true

		for _, sp := range splits {
			ref := model.SplitUnit(av.ID, sp.ID)
			u := &model.Unit{
				Ref:           ref,
				Kind:          model.UnitKindSplit,
				ActivityID:    av.ActivityID,
				ActivityTitle: title,
				ServiceDate:   av.LocalDate,
				ServiceTime:   serviceTime,
				SplitName:     sp.Name,
				GuideID:       sp.GuideID,
				Pax:           splitPax[ref.Key()],
			}
			c.lookup[ref.Key()] = u
			c.units = append(c.units, u)
		}
	}

	sort.SliceStable(c.units, func(i, j int) bool {
		a, b := c.units[i], c.units[j]
		if a.ServiceTime != b.ServiceTime {
			return a.ServiceTime < b.ServiceTime
		}
		if a.ActivityTitle != b.ActivityTitle {
			return a.ActivityTitle < b.ActivityTitle
		}
		if a.SplitName != b.SplitName {
			return a.SplitName < b.SplitName
		}
		return a.Ref.Key() < b.Ref.Key()
	})

	return c
}

// Units returns the groupable units ordered by time, activity and split name.
func (c *UnitCatalog) Units() []*model.Unit {
	return c.units
}

// Lookup resolves any unit of the date, including bare availabilities that
// are hidden by splits.
func (c *UnitCatalog) Lookup(ref model.UnitRef) (*model.Unit, bool) {
	u, ok := c.lookup[ref.Key()]
	return u, ok
}

// IsGroupable reports whether ref may be selected for a new group.
func (c *UnitCatalog) IsGroupable(ref model.UnitRef) bool {
	_, ok := c.lookup[ref.Key()]
	return ok && !c.hidden[ref.Key()]
}

// Len returns the number of groupable units.
func (c *UnitCatalog) Len() int {
	return len(c.units)
}
