package service

import (
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

// claimIndex answers which group already covers a unit's participants.
//
// A bare availability and its splits describe the same people, so a split
// is taken when its parent availability is a member of some group, and a
// bare availability is taken when any of its splits is. Sibling splits stay
// independent of each other.
type claimIndex struct {
	exact  map[string]string // unit key -> group id
	splits map[string]string // availability id -> group id of a claimed split
}

func newClaimIndex(claimed map[string]string) *claimIndex {
	ci := &claimIndex{
		exact:  make(map[string]string, len(claimed)),
		splits: make(map[string]string),
	}
	for key, groupID := range claimed {
		ref, err := model.ParseUnitKey(key)
		if err != nil {
			ci.exact[key] = groupID
			continue
		}
		ci.add(ref, groupID)
	}
	return ci
}

func (ci *claimIndex) add(ref model.UnitRef, groupID string) {
	ci.exact[ref.Key()] = groupID
	if ref.Kind() != model.UnitKindSplit {
		return
	}
	// Keep the result stable when several groups hold splits of one departure.
	if current, ok := ci.splits[ref.AvailabilityID()]; !ok || groupID < current {
		ci.splits[ref.AvailabilityID()] = groupID
	}
}

// owner returns the group covering ref, directly or through an overlapping unit.
func (ci *claimIndex) owner(ref model.UnitRef) (string, bool) {
	if groupID, ok := ci.exact[ref.Key()]; ok {
		return groupID, true
	}
	if ref.Kind() == model.UnitKindSplit {
		groupID, ok := ci.exact[model.AvailabilityUnit(ref.AvailabilityID()).Key()]
		return groupID, ok
	}
	groupID, ok := ci.splits[ref.AvailabilityID()]
	return groupID, ok
}

func firstConflict(refs []model.UnitRef, claimed map[string]string) *UnitConflictError {
	ci := newClaimIndex(claimed)
	for _, ref := range refs {
		if groupID, ok := ci.owner(ref); ok {
			return &UnitConflictError{UnitKey: ref.Key(), GroupID: groupID}
		}
	}
	return nil
}
