// Package testdb provides isolated group store databases for tests.
//
// Each TestDB is an on-disk SQLite file in the test's temp directory with the
// schema applied, so tests exercise the real UNIQUE and cascade constraints.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    groups, err := tdb.Store.GetGroupsByDate(ctx, "2025-06-01")
//	}
package testdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/repository/sqlite"
)

// TestDB provides an isolated database environment for testing.
type TestDB struct {
	Store *sqlite.Store
	Path  string
	t     testing.TB
}

// New opens a fresh database and closes it when the test ends.
func New(t testing.TB) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "service_groups.db")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("testdb: open %s: %v", path, err)
	}

	tdb := &TestDB{Store: store, Path: path, t: t}
	t.Cleanup(tdb.Close)
	return tdb
}

// Close releases the database. Safe to call more than once.
func (tdb *TestDB) Close() {
	if tdb.Store == nil {
		return
	}
	if err := tdb.Store.Close(); err != nil {
		tdb.t.Logf("testdb: close: %v", err)
	}
	tdb.Store = nil
}

// Count returns the number of rows in table.
func (tdb *TestDB) Count(table string) int {
	tdb.t.Helper()

	var n int
	if err := tdb.Store.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		tdb.t.Fatalf("testdb: count %s: %v", table, err)
	}
	return n
}
