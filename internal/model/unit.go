package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Date and time layouts used for service buckets.
const (
	ServiceDateLayout = "2006-01-02"
	ServiceTimeLayout = "15:04"
)

// UnknownActivityTitle is shown when the activity metadata is missing.
const UnknownActivityTitle = "Unknown activity"

// ErrInvalidUnitKey is returned by ParseUnitKey for malformed keys.
var ErrInvalidUnitKey = errors.New("invalid unit key")

// UnitKind tells a bare Availability apart from a Split.
type UnitKind string

const (
	UnitKindAvailability UnitKind = "availability"
	UnitKindSplit        UnitKind = "split"
)

const (
	availabilityKeyPrefix = "availability:"
	splitKeySeparator     = "/split:"
)

// UnitRef identifies a groupable unit: either a whole Availability or one of
// its Splits. The fields are unexported so a ref can only be built through
// AvailabilityUnit or SplitUnit.
type UnitRef struct {
	availabilityID string
	splitID        string
}

// AvailabilityUnit references a bare Availability.
func AvailabilityUnit(availabilityID string) UnitRef {
	return UnitRef{availabilityID: availabilityID}
}

// SplitUnit references one Split of an Availability.
func SplitUnit(availabilityID, splitID string) UnitRef {
	return UnitRef{availabilityID: availabilityID, splitID: splitID}
}

// NewUnitRef builds a ref from the nullable column pair used by storage.
func NewUnitRef(availabilityID string, splitID *string) UnitRef {
	if splitID == nil || *splitID == "" {
		return AvailabilityUnit(availabilityID)
	}
	return SplitUnit(availabilityID, *splitID)
}

// Kind returns which variant the ref holds.
func (u UnitRef) Kind() UnitKind {
	if u.splitID != "" {
		return UnitKindSplit
	}
	return UnitKindAvailability
}

// AvailabilityID returns the availability the unit belongs to.
func (u UnitRef) AvailabilityID() string {
	return u.availabilityID
}

// SplitID returns the split id, if the ref is a split.
func (u UnitRef) SplitID() (string, bool) {
	return u.splitID, u.splitID != ""
}

// SplitIDPtr returns the split id or nil, for storage.
func (u UnitRef) SplitIDPtr() *string {
	if u.splitID == "" {
		return nil
	}
	s := u.splitID
	return &s
}

// IsZero reports whether the ref was never set.
func (u UnitRef) IsZero() bool {
	return u.availabilityID == ""
}

// Key is the canonical string identity of the unit. Membership exclusivity
// is enforced on this value.
func (u UnitRef) Key() string {
	if u.splitID == "" {
		return availabilityKeyPrefix + u.availabilityID
	}
	return availabilityKeyPrefix + u.availabilityID + splitKeySeparator + u.splitID
}

func (u UnitRef) String() string {
	return u.Key()
}

// ParseUnitKey reverses Key.
func ParseUnitKey(key string) (UnitRef, error) {
	rest, ok := strings.CutPrefix(key, availabilityKeyPrefix)
	if !ok || rest == "" {
		return UnitRef{}, fmt.Errorf("%w: %q", ErrInvalidUnitKey, key)
	}
	avID, splitID, hasSplit := strings.Cut(rest, splitKeySeparator)
	if avID == "" || (hasSplit && splitID == "") {
		return UnitRef{}, fmt.Errorf("%w: %q", ErrInvalidUnitKey, key)
	}
	if hasSplit {
		return SplitUnit(avID, splitID), nil
	}
	return AvailabilityUnit(avID), nil
}

type unitRefJSON struct {
	AvailabilityID string  `json:"availability_id"`
	SplitID        *string `json:"split_id,omitempty"`
}

// MarshalJSON renders the ref as {availability_id, split_id?}.
func (u UnitRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(unitRefJSON{AvailabilityID: u.availabilityID, SplitID: u.SplitIDPtr()})
}

// UnmarshalJSON accepts {availability_id, split_id?}.
func (u *UnitRef) UnmarshalJSON(data []byte) error {
	var raw unitRefJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = NewUnitRef(raw.AvailabilityID, raw.SplitID)
	return nil
}

// Unit is a groupable unit with its derived pax.
type Unit struct {
	Ref           UnitRef  `json:"unit"`
	Kind          UnitKind `json:"kind"`
	ActivityID    string   `json:"activity_id"`
	ActivityTitle string   `json:"activity_title"`
	ServiceDate   string   `json:"service_date"`
	ServiceTime   string   `json:"service_time"`
	SplitName     string   `json:"split_name,omitempty"`
	GuideID       *string  `json:"guide_id,omitempty"`
	Pax           int      `json:"pax"`
	GroupID       *string  `json:"group_id,omitempty"`
}

// Label is the human readable name of the unit.
func (u *Unit) Label() string {
	if u.SplitName == "" {
		return u.ActivityTitle
	}
	return u.ActivityTitle + " / " + u.SplitName
}

// TimeBucket holds every unit of one service time. EligibleUnits is only
// populated when at least MinGroupMembers units are still ungrouped.
type TimeBucket struct {
	ServiceTime   string          `json:"service_time"`
	Groups        []*ServiceGroup `json:"groups"`
	GroupedUnits  []*Unit         `json:"grouped_units"`
	EligibleUnits []*Unit         `json:"eligible_units"`
	Groupable     bool            `json:"groupable"`
}

// ValidServiceDate reports whether s is a YYYY-MM-DD date.
func ValidServiceDate(s string) bool {
	_, err := time.Parse(ServiceDateLayout, s)
	return err == nil
}

// NormalizeServiceTime accepts HH:MM or HH:MM:SS and returns HH:MM.
func NormalizeServiceTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{ServiceTimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ServiceTimeLayout), nil
		}
	}
	return "", fmt.Errorf("invalid service time %q", s)
}
