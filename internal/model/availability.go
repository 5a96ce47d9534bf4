package model

import "strings"

// BookingStatus values seen on the booking feed. Only cancelled bookings are
// excluded from pax; every other status counts.
const (
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusPending   = "PENDING"
	BookingStatusCancelled = "CANCELLED"
)

// Availability is one scheduled departure of an activity. Rows are owned by
// the booking pipeline; this service only reads them.
type Availability struct {
	ID               string `json:"id"`
	ActivityID       string `json:"activity_id"`
	LocalDate        string `json:"local_date"` // YYYY-MM-DD
	LocalTime        string `json:"local_time"` // HH:MM
	ConsumedCapacity int    `json:"consumed_capacity"`
}

// Split is a named partition of an Availability's participants with its own
// guide assignment.
type Split struct {
	ID             string  `json:"id"`
	AvailabilityID string  `json:"availability_id"`
	Name           string  `json:"name"`
	GuideID        *string `json:"guide_id,omitempty"`
}

// BookingAllocation attaches a booking's participants to an Availability and,
// optionally, to one of its Splits.
type BookingAllocation struct {
	BookingID      string  `json:"booking_id"`
	AvailabilityID string  `json:"availability_id"`
	SplitID        *string `json:"split_id,omitempty"`
	Quantity       int     `json:"quantity"`
	Status         string  `json:"status"`
}

// IsCancelled reports whether the allocation should be ignored for pax.
func (b *BookingAllocation) IsCancelled() bool {
	return strings.EqualFold(strings.TrimSpace(b.Status), BookingStatusCancelled)
}

// Inventory is everything the booking feed knows about one service date.
type Inventory struct {
	ServiceDate    string
	Activities     map[string]*Activity
	Availabilities []*Availability
	Splits         []*Split
	Allocations    []*BookingAllocation
}
