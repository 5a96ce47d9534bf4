// Package fixtures provides booking feed factories for tests.
//
// Factory methods insert activities, departures, splits, bookings, costs and
// guides with sensible defaults and return the stored models.
//
// Usage:
//
//	f := fixtures.New(tdb.Store)
//	colosseum := f.CreateActivity(t, "Colosseum")
//	av := f.CreateAvailability(t, colosseum, "10:00", fixtures.WithConsumed(10))
//	f.CreateGlobalCost(t, colosseum, "100")
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/repository/sqlite"
	"github.com/shopspring/decimal"
)

// ServiceDate is the default date for fixtures.
const ServiceDate = "2025-06-01"

// Factory creates test entities in the database
type Factory struct {
	store *sqlite.Store
}

// New creates a new fixture factory
func New(store *sqlite.Store) *Factory {
	return &Factory{store: store}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t testing.TB) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// Activity Fixtures
// ============================================================================

// CreateActivity creates an activity with the given title.
func (f *Factory) CreateActivity(t testing.TB, title string) *model.Activity {
	t.Helper()

	a := &model.Activity{ID: "act_" + randomID(), Title: title}
	if err := f.store.UpsertActivity(ctx(t), a); err != nil {
		t.Fatalf("fixtures: create activity: %v", err)
	}
	return a
}

// ============================================================================
// Availability Fixtures
// ============================================================================

// AvailabilityOpts customizes availability creation
type AvailabilityOpts struct {
	Date     string
	Consumed int
}

// WithDate sets the departure date.
func WithDate(date string) func(*AvailabilityOpts) {
	return func(o *AvailabilityOpts) { o.Date = date }
}

// WithConsumed sets consumed_capacity.
func WithConsumed(n int) func(*AvailabilityOpts) {
	return func(o *AvailabilityOpts) { o.Consumed = n }
}

// CreateAvailability creates a departure of the activity at localTime.
func (f *Factory) CreateAvailability(t testing.TB, activity *model.Activity, localTime string, opts ...func(*AvailabilityOpts)) *model.Availability {
	t.Helper()

	o := &AvailabilityOpts{Date: ServiceDate}
	for _, fn := range opts {
		fn(o)
	}

	av := &model.Availability{
		ID:               "av_" + randomID(),
		ActivityID:       activity.ID,
		LocalDate:        o.Date,
		LocalTime:        localTime,
		ConsumedCapacity: o.Consumed,
	}
	if err := f.store.InsertAvailability(ctx(t), av); err != nil {
		t.Fatalf("fixtures: create availability: %v", err)
	}
	return av
}

// CreateSplit creates a named split of the departure.
func (f *Factory) CreateSplit(t testing.TB, av *model.Availability, name string) *model.Split {
	t.Helper()

	sp := &model.Split{ID: "split_" + randomID(), AvailabilityID: av.ID, Name: name}
	if err := f.store.InsertSplit(ctx(t), sp); err != nil {
		t.Fatalf("fixtures: create split: %v", err)
	}
	return sp
}

// ============================================================================
// Booking Fixtures
// ============================================================================

// CreateBooking attaches a confirmed booking of qty participants to the
// departure, or to split when not nil.
func (f *Factory) CreateBooking(t testing.TB, av *model.Availability, split *model.Split, qty int) *model.BookingAllocation {
	t.Helper()
	return f.CreateBookingWithStatus(t, av, split, qty, model.BookingStatusConfirmed)
}

// CreateBookingWithStatus is CreateBooking with an explicit status.
func (f *Factory) CreateBookingWithStatus(t testing.TB, av *model.Availability, split *model.Split, qty int, status string) *model.BookingAllocation {
	t.Helper()

	b := &model.BookingAllocation{
		BookingID:      "bk_" + randomID(),
		AvailabilityID: av.ID,
		Quantity:       qty,
		Status:         status,
	}
	if split != nil {
		id := split.ID
		b.SplitID = &id
	}
	if err := f.store.InsertBooking(ctx(t), b); err != nil {
		t.Fatalf("fixtures: create booking: %v", err)
	}
	return b
}

// ============================================================================
// Cost and Guide Fixtures
// ============================================================================

// CreateGlobalCost sets the global cost of an activity.
func (f *Factory) CreateGlobalCost(t testing.TB, activity *model.Activity, amount string) {
	t.Helper()
	f.createCost(t, activity, nil, amount)
}

// CreateGuideCost adds a guide specific cost override.
func (f *Factory) CreateGuideCost(t testing.TB, activity *model.Activity, guide *model.Guide, amount string) {
	t.Helper()
	id := guide.ID
	f.createCost(t, activity, &id, amount)
}

func (f *Factory) createCost(t testing.TB, activity *model.Activity, guideID *string, amount string) {
	t.Helper()

	c := &model.ActivityCost{
		ActivityID: activity.ID,
		GuideID:    guideID,
		Amount:     decimal.RequireFromString(amount),
	}
	if err := f.store.InsertCost(ctx(t), c); err != nil {
		t.Fatalf("fixtures: create cost: %v", err)
	}
}

// CreateGuide creates a guide directory entry.
func (f *Factory) CreateGuide(t testing.TB, name string) *model.Guide {
	t.Helper()

	g := &model.Guide{ID: "guide_" + randomID(), Name: name}
	if err := f.store.UpsertGuide(ctx(t), g); err != nil {
		t.Fatalf("fixtures: create guide: %v", err)
	}
	return g
}

// ============================================================================
// Scenarios
// ============================================================================

// JointMorning is the Colosseum + Forum 10:00 scenario: Colosseum with 10
// pax at €100, Forum with 5 pax at €60.
type JointMorning struct {
	Colosseum     *model.Activity
	Forum         *model.Activity
	ColosseumSlot *model.Availability
	ForumSlot     *model.Availability
	ColosseumUnit model.UnitRef
	ForumUnit     model.UnitRef
	ServiceDate   string
	ServiceTime   string
}

// CreateJointMorning seeds the JointMorning scenario.
func (f *Factory) CreateJointMorning(t testing.TB) *JointMorning {
	t.Helper()

	colosseum := f.CreateActivity(t, "Colosseum")
	forum := f.CreateActivity(t, "Forum")
	f.CreateGlobalCost(t, colosseum, "100")
	f.CreateGlobalCost(t, forum, "60")

	colosseumSlot := f.CreateAvailability(t, colosseum, "10:00", WithConsumed(10))
	forumSlot := f.CreateAvailability(t, forum, "10:00", WithConsumed(5))

	return &JointMorning{
		Colosseum:     colosseum,
		Forum:         forum,
		ColosseumSlot: colosseumSlot,
		ForumSlot:     forumSlot,
		ColosseumUnit: model.AvailabilityUnit(colosseumSlot.ID),
		ForumUnit:     model.AvailabilityUnit(forumSlot.ID),
		ServiceDate:   ServiceDate,
		ServiceTime:   "10:00",
	}
}
