// Package sqlite is the embedded ledger backend. It implements the same
// inventory, cost, guide and service group repositories as the SurrealDB
// package on top of database/sql and modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/database"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schema string

// timeLayout keeps nine fractional digits so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements the repositories over a single SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the database file at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := database.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open connection. Call Migrate before use on a fresh file.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", database.SQLiteError(err))
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", database.ErrConnection, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the connection for tests and seeding tools.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ============================================================================
// Booking feed
// ============================================================================

// GetInventory loads everything the booking feed knows about a date.
func (s *Store) GetInventory(ctx context.Context, serviceDate string) (*model.Inventory, error) {
	inv := &model.Inventory{
		ServiceDate: serviceDate,
		Activities:  make(map[string]*model.Activity),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, activity_id, local_date, local_time, consumed_capacity
		FROM availabilities WHERE local_date = ? ORDER BY local_time, id`, serviceDate)
	if err != nil {
		return nil, database.SQLiteError(err)
	}
	err = scanRows(rows, func(rows *sql.Rows) error {
		av := &model.Availability{}
		if err := rows.Scan(&av.ID, &av.ActivityID, &av.LocalDate, &av.LocalTime, &av.ConsumedCapacity); err != nil {
			return err
		}
		inv.Availabilities = append(inv.Availabilities, av)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT s.id, s.availability_id, s.name, s.guide_id
		FROM splits s JOIN availabilities a ON a.id = s.availability_id
		WHERE a.local_date = ? ORDER BY s.name, s.id`, serviceDate)
	if err != nil {
		return nil, database.SQLiteError(err)
	}
	err = scanRows(rows, func(rows *sql.Rows) error {
		sp := &model.Split{}
		var guideID sql.NullString
		if err := rows.Scan(&sp.ID, &sp.AvailabilityID, &sp.Name, &guideID); err != nil {
			return err
		}
		sp.GuideID = nullStringPtr(guideID)
		inv.Splits = append(inv.Splits, sp)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT b.booking_id, b.availability_id, b.split_id, b.quantity, b.status
		FROM booking_allocations b JOIN availabilities a ON a.id = b.availability_id
		WHERE a.local_date = ?`, serviceDate)
	if err != nil {
		return nil, database.SQLiteError(err)
	}
	err = scanRows(rows, func(rows *sql.Rows) error {
		b := &model.BookingAllocation{}
		var splitID sql.NullString
		if err := rows.Scan(&b.BookingID, &b.AvailabilityID, &splitID, &b.Quantity, &b.Status); err != nil {
			return err
		}
		b.SplitID = nullStringPtr(splitID)
		inv.Allocations = append(inv.Allocations, b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT DISTINCT act.id, act.title
		FROM activities act JOIN availabilities a ON a.activity_id = act.id
		WHERE a.local_date = ?`, serviceDate)
	if err != nil {
		return nil, database.SQLiteError(err)
	}
	err = scanRows(rows, func(rows *sql.Rows) error {
		a := &model.Activity{}
		if err := rows.Scan(&a.ID, &a.Title); err != nil {
			return err
		}
		inv.Activities[a.ID] = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return inv, nil
}

// GetGlobalCosts returns the global cost of each activity that has one.
func (s *Store) GetGlobalCosts(ctx context.Context, activityIDs []string) (map[string]decimal.Decimal, error) {
	costs := make(map[string]decimal.Decimal, len(activityIDs))
	if len(activityIDs) == 0 {
		return costs, nil
	}

	query := `SELECT activity_id, amount FROM activity_costs
		WHERE guide_id IS NULL AND activity_id IN (` + placeholders(len(activityIDs)) + `)`
	rows, err := s.db.QueryContext(ctx, query, stringArgs(activityIDs)...)
	if err != nil {
		return nil, database.SQLiteError(err)
	}

	err = scanRows(rows, func(rows *sql.Rows) error {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return err
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("activity %s cost %q: %w", id, raw, err)
		}
		if current, ok := costs[id]; !ok || amount.GreaterThan(current) {
			costs[id] = amount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return costs, nil
}

// GetGuideNames maps guide ids to display names.
func (s *Store) GetGuideNames(ctx context.Context, guideIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(guideIDs))
	if len(guideIDs) == 0 {
		return names, nil
	}

	query := `SELECT id, name FROM guides WHERE id IN (` + placeholders(len(guideIDs)) + `)`
	rows, err := s.db.QueryContext(ctx, query, stringArgs(guideIDs)...)
	if err != nil {
		return nil, database.SQLiteError(err)
	}

	err = scanRows(rows, func(rows *sql.Rows) error {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		names[id] = name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

var errEmptyID = errors.New("id is required")

// ============================================================================
// Group ledger
// ============================================================================

// CreateGroup inserts the group and its members in one transaction. The
// UNIQUE constraint on unit_key, and the overlap trigger pairing a bare
// availability with its splits, make a concurrent claim fail with
// database.ErrDuplicate and nothing is written.
func (s *Store) CreateGroup(ctx context.Context, g *model.ServiceGroup) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO service_groups
				(id, service_date, service_time, group_name, guide_id, guide_updated_on,
				 total_pax, calculated_cost, created_on, updated_on)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.ServiceDate, g.ServiceTime, g.GroupName, nullString(g.GuideID), nullTime(g.GuideUpdatedOn),
			g.TotalPax, g.CalculatedCost.String(), g.CreatedOn.UTC().Format(timeLayout), g.UpdatedOn.UTC().Format(timeLayout))
		if err != nil {
			return database.SQLiteError(err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO service_group_members
				(id, group_id, service_date, unit_key, availability_id, split_id,
				 activity_id, activity_title, split_name, pax, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return database.SQLiteError(err)
		}
		defer stmt.Close()

		for i, m := range g.Members {
			_, err := stmt.ExecContext(ctx,
				m.ID, g.ID, g.ServiceDate, m.Unit.Key(), m.Unit.AvailabilityID(), nullString(m.Unit.SplitIDPtr()),
				m.ActivityID, m.ActivityTitle, m.SplitName, m.Pax, i)
			if err != nil {
				return fmt.Errorf("member %s: %w", m.Unit.Key(), database.SQLiteError(err))
			}
		}
		return nil
	})
}

// GetGroup returns the group with members, or nil when it does not exist.
func (s *Store) GetGroup(ctx context.Context, id string) (*model.ServiceGroup, error) {
	rows, err := s.db.QueryContext(ctx, selectGroups+` WHERE id = ?`, id)
	if err != nil {
		return nil, database.SQLiteError(err)
	}
	groups, err := scanGroups(rows)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, nil
	}

	rows, err = s.db.QueryContext(ctx, selectMembers+` WHERE group_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, database.SQLiteError(err)
	}
	if err := attachMembers(rows, groups); err != nil {
		return nil, err
	}
	return groups[0], nil
}

// GetGroupsByDate returns the date's groups ordered by time then creation.
func (s *Store) GetGroupsByDate(ctx context.Context, serviceDate string) ([]*model.ServiceGroup, error) {
	rows, err := s.db.QueryContext(ctx, selectGroups+` WHERE service_date = ? ORDER BY service_time, created_on, id`, serviceDate)
	if err != nil {
		return nil, database.SQLiteError(err)
	}
	groups, err := scanGroups(rows)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return groups, nil
	}

	rows, err = s.db.QueryContext(ctx, selectMembers+` WHERE service_date = ? ORDER BY group_id, position`, serviceDate)
	if err != nil {
		return nil, database.SQLiteError(err)
	}
	if err := attachMembers(rows, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// DeleteGroup removes the group; members go with it through ON DELETE CASCADE.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM service_group_members WHERE group_id = ?`, id); err != nil {
			return database.SQLiteError(err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM service_groups WHERE id = ?`, id)
		if err != nil {
			return database.SQLiteError(err)
		}
		return requireAffected(res)
	})
}

// UpdateGuide sets or clears the guide.
func (s *Store) UpdateGuide(ctx context.Context, id string, guideID *string, at time.Time) error {
	ts := at.UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE service_groups SET guide_id = ?, guide_updated_on = ?, updated_on = ? WHERE id = ?`,
		nullString(guideID), ts, ts, id)
	if err != nil {
		return database.SQLiteError(err)
	}
	return requireAffected(res)
}

// UpdateTotals stores freshly computed pax and cost.
func (s *Store) UpdateTotals(ctx context.Context, id string, totalPax int, cost decimal.Decimal, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE service_groups SET total_pax = ?, calculated_cost = ?, updated_on = ? WHERE id = ?`,
		totalPax, cost.String(), at.UTC().Format(timeLayout), id)
	if err != nil {
		return database.SQLiteError(err)
	}
	return requireAffected(res)
}

// GetClaimedUnits maps each grouped unit key of the date to its group id.
func (s *Store) GetClaimedUnits(ctx context.Context, serviceDate string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT unit_key, group_id FROM service_group_members WHERE service_date = ?`, serviceDate)
	if err != nil {
		return nil, database.SQLiteError(err)
	}

	claimed := make(map[string]string)
	err = scanRows(rows, func(rows *sql.Rows) error {
		var key, groupID string
		if err := rows.Scan(&key, &groupID); err != nil {
			return err
		}
		claimed[key] = groupID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// ============================================================================
// Helpers
// ============================================================================

const selectGroups = `
	SELECT id, service_date, service_time, group_name, guide_id, guide_updated_on,
	       total_pax, calculated_cost, created_on, updated_on
	FROM service_groups`

const selectMembers = `
	SELECT id, group_id, unit_key, availability_id, split_id,
	       activity_id, activity_title, split_name, pax
	FROM service_group_members`

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return database.SQLiteError(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return database.SQLiteError(err)
	}
	return nil
}

func scanRows(rows *sql.Rows, fn func(rows *sql.Rows) error) error {
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return database.SQLiteError(err)
	}
	return nil
}

func scanGroups(rows *sql.Rows) ([]*model.ServiceGroup, error) {
	groups := make([]*model.ServiceGroup, 0)
	err := scanRows(rows, func(rows *sql.Rows) error {
		g := &model.ServiceGroup{Members: make([]*model.ServiceGroupMember, 0)}
		var guideID, guideUpdatedOn sql.NullString
		var cost, createdOn, updatedOn string
		if err := rows.Scan(&g.ID, &g.ServiceDate, &g.ServiceTime, &g.GroupName, &guideID, &guideUpdatedOn,
			&g.TotalPax, &cost, &createdOn, &updatedOn); err != nil {
			return err
		}
		g.GuideID = nullStringPtr(guideID)
		g.GuideUpdatedOn = parseNullTime(guideUpdatedOn)
		g.CalculatedCost, _ = decimal.NewFromString(cost)
		g.CreatedOn, _ = time.Parse(time.RFC3339Nano, createdOn)
		g.UpdatedOn, _ = time.Parse(time.RFC3339Nano, updatedOn)
		groups = append(groups, g)
		return nil
	})
	return groups, err
}

func attachMembers(rows *sql.Rows, groups []*model.ServiceGroup) error {
	byID := make(map[string]*model.ServiceGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	return scanRows(rows, func(rows *sql.Rows) error {
		m := &model.ServiceGroupMember{}
		var key, availabilityID string
		var splitID sql.NullString
		if err := rows.Scan(&m.ID, &m.GroupID, &key, &availabilityID, &splitID,
			&m.ActivityID, &m.ActivityTitle, &m.SplitName, &m.Pax); err != nil {
			return err
		}
		unit, err := model.ParseUnitKey(key)
		if err != nil {
			unit = model.NewUnitRef(availabilityID, nullStringPtr(splitID))
		}
		m.Unit = unit
		if g, ok := byID[m.GroupID]; ok {
			g.Members = append(g.Members, m)
		}
		return nil
	})
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return database.SQLiteError(err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
