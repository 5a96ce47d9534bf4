package sqlite

import (
	"context"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/database"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

// The booking feed tables are owned by the ingestion pipeline. These writers
// exist for local development and tests.

// UpsertActivity inserts or renames an activity.
func (s *Store) UpsertActivity(ctx context.Context, a *model.Activity) error {
	if a.ID == "" {
		return errEmptyID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (id, title) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET title = excluded.title`, a.ID, a.Title)
	return database.SQLiteError(err)
}

// InsertAvailability adds a departure.
func (s *Store) InsertAvailability(ctx context.Context, av *model.Availability) error {
	if av.ID == "" {
		return errEmptyID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO availabilities (id, activity_id, local_date, local_time, consumed_capacity)
		 VALUES (?, ?, ?, ?, ?)`,
		av.ID, av.ActivityID, av.LocalDate, av.LocalTime, av.ConsumedCapacity)
	return database.SQLiteError(err)
}

// SetConsumedCapacity overwrites the capacity counter of a departure.
func (s *Store) SetConsumedCapacity(ctx context.Context, availabilityID string, consumed int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE availabilities SET consumed_capacity = ? WHERE id = ?`, consumed, availabilityID)
	if err != nil {
		return database.SQLiteError(err)
	}
	return requireAffected(res)
}

// InsertSplit adds a split to a departure.
func (s *Store) InsertSplit(ctx context.Context, sp *model.Split) error {
	if sp.ID == "" {
		return errEmptyID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO splits (id, availability_id, name, guide_id) VALUES (?, ?, ?, ?)`,
		sp.ID, sp.AvailabilityID, sp.Name, nullString(sp.GuideID))
	return database.SQLiteError(err)
}

// InsertBooking attaches booked participants to a departure or split.
func (s *Store) InsertBooking(ctx context.Context, b *model.BookingAllocation) error {
	status := b.Status
	if status == "" {
		status = model.BookingStatusConfirmed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO booking_allocations (booking_id, availability_id, split_id, quantity, status)
		 VALUES (?, ?, ?, ?, ?)`,
		b.BookingID, b.AvailabilityID, nullString(b.SplitID), b.Quantity, status)
	return database.SQLiteError(err)
}

// InsertCost adds a cost row. A nil GuideID makes it global.
func (s *Store) InsertCost(ctx context.Context, c *model.ActivityCost) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_costs (activity_id, guide_id, amount) VALUES (?, ?, ?)`,
		c.ActivityID, nullString(c.GuideID), c.Amount.String())
	return database.SQLiteError(err)
}

// UpsertGuide inserts or renames a guide.
func (s *Store) UpsertGuide(ctx context.Context, g *model.Guide) error {
	if g.ID == "" {
		return errEmptyID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guides (id, name) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name`, g.ID, g.Name)
	return database.SQLiteError(err)
}
