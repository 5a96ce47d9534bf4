package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB implements the Database interface for SurrealDB
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates a new SurrealDB instance
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{
		config: cfg,
	}
}

// Connect establishes a connection to SurrealDB
func (s *SurrealDB) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	_, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	})
	if err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SurrealDB) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

// Ping checks the database connection
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query executes a query and returns one {status, result} map per statement.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, classifyError(err.Error())
	}

	if results == nil {
		return nil, nil
	}

	// Inside a failed transaction every statement reports an error, but only
	// one of them carries the cause.
	var stmtErr string
	failed := false
	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			failed = true
			if r.Error != nil && (stmtErr == "" || isCancelledStatement(stmtErr)) {
				stmtErr = r.Error.Message
			}
			continue
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}
	if failed {
		if stmtErr == "" {
			return nil, ErrQuery
		}
		return nil, classifyError(stmtErr)
	}

	return output, nil
}

// QueryOne executes a query and returns the first record of the first statement.
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, ErrNotFound
	}

	first := results[0]
	if resp, ok := first.(map[string]interface{}); ok {
		if status, ok := resp["status"].(string); ok && status == "OK" {
			if resultData, ok := resp["result"].([]interface{}); ok {
				if len(resultData) == 0 {
					return nil, ErrNotFound
				}
				return resultData[0], nil
			}
			return resp["result"], nil
		}
	}

	return first, nil
}

// Execute runs a query without returning results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// ApplySchema runs a SurrealQL definition script. DEFINE statements in the
// scripts are written with IF NOT EXISTS so this is safe on every boot.
func (s *SurrealDB) ApplySchema(ctx context.Context, script string) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}
	if err := s.Execute(ctx, script, nil); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// BeginTx starts a new batch transaction
func (s *SurrealDB) BeginTx(ctx context.Context) (Transaction, error) {
	if s.db == nil {
		return nil, ErrConnection
	}
	return &SurrealTransaction{db: s, ctx: ctx, builder: NewTxBuilder()}, nil
}

// SurrealTransaction implements Transaction for SurrealDB. Statements are
// collected and sent as a single transaction block on Commit.
type SurrealTransaction struct {
	db        *SurrealDB
	ctx       context.Context
	builder   *TxBuilder
	committed bool
}

func (t *SurrealTransaction) Execute(_ context.Context, query string, vars map[string]interface{}) error {
	if t.committed {
		return errors.New("transaction already committed")
	}
	t.builder.Add(query, vars)
	return nil
}

func (t *SurrealTransaction) Commit() error {
	if t.committed {
		return nil
	}
	if _, err := ExecuteTransaction(t.ctx, t.db, t.builder); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	t.committed = true
	return nil
}

func (t *SurrealTransaction) Rollback() error {
	t.builder = NewTxBuilder()
	return nil
}

func isCancelledStatement(msg string) bool {
	return strings.Contains(msg, "failed transaction")
}

// classifyError maps a SurrealDB error message onto the package errors.
// Unique index violations read "Database index `x` already contains ...";
// optimistic commits that lose to a concurrent writer report a read or write
// conflict.
func classifyError(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "read or write conflict"),
		strings.Contains(lower, "transaction conflict"),
		strings.Contains(lower, "can be retried"):
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case strings.Contains(lower, "already contains"),
		strings.Contains(lower, "already exists"):
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	case strings.Contains(lower, "connection"):
		return fmt.Errorf("%w: %s", ErrConnection, msg)
	}
	return fmt.Errorf("%w: %s", ErrQuery, msg)
}
