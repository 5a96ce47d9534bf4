package database

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// recordingDB captures the last query sent through Query.
type recordingDB struct {
	query string
	vars  map[string]interface{}
	err   error
}

func (r *recordingDB) Connect(ctx context.Context) error { return nil }
func (r *recordingDB) Close() error                      { return nil }
func (r *recordingDB) Ping(ctx context.Context) error    { return nil }

func (r *recordingDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	r.query = query
	r.vars = vars
	return nil, r.err
}

func (r *recordingDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	return nil, ErrNotFound
}

func (r *recordingDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := r.Query(ctx, query, vars)
	return err
}

func (r *recordingDB) BeginTx(ctx context.Context) (Transaction, error) {
	return nil, errors.New("not supported")
}

func TestTxBuilder_NamespacesVariables(t *testing.T) {
	t.Parallel()

	tb := NewTxBuilder()
	tb.Add("CREATE service_group_member CONTENT $member", map[string]interface{}{"member": "a"})
	tb.Add("CREATE service_group_member CONTENT $member", map[string]interface{}{"member": "b"})

	query, vars := tb.Build()

	if !strings.HasPrefix(query, "BEGIN TRANSACTION;") || !strings.HasSuffix(query, "COMMIT TRANSACTION;") {
		t.Errorf("query should be wrapped in a transaction block:\n%s", query)
	}
	if vars["v1_member"] != "a" || vars["v2_member"] != "b" {
		t.Errorf("unexpected vars %v", vars)
	}
	if !strings.Contains(query, "$v1_member") || !strings.Contains(query, "$v2_member") {
		t.Errorf("variables not rewritten:\n%s", query)
	}
}

func TestTxBuilder_PrefixVariablesDoNotCollide(t *testing.T) {
	t.Parallel()

	tb := NewTxBuilder()
	mapping := tb.Add("CREATE x SET a = $member, b = $member_key", map[string]interface{}{
		"member":     1,
		"member_key": 2,
	})

	query, vars := tb.Build()

	if !strings.Contains(query, "$"+mapping["member_key"]) {
		t.Errorf("member_key not rewritten as a whole:\n%s", query)
	}
	if !strings.Contains(query, "$"+mapping["member"]+",") {
		t.Errorf("member not rewritten:\n%s", query)
	}
	if vars[mapping["member_key"]] != 2 || vars[mapping["member"]] != 1 {
		t.Errorf("unexpected vars %v", vars)
	}
}

func TestTxBuilder_Empty(t *testing.T) {
	t.Parallel()

	query, vars := NewTxBuilder().Build()
	if query != "" || vars != nil {
		t.Errorf("empty builder should build nothing, got %q %v", query, vars)
	}
}

func TestAtomicBatch_ExecutesSingleBlock(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	batch := NewAtomicBatch().
		Add("CREATE service_group CONTENT $group", map[string]interface{}{"group": "g"}).
		Add("CREATE service_group_member CONTENT $member", map[string]interface{}{"member": "m"})

	if batch.Len() != 2 {
		t.Fatalf("expected 2 queries, got %d", batch.Len())
	}
	if err := batch.Execute(context.Background(), db); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.Count(db.query, "BEGIN TRANSACTION") != 1 {
		t.Errorf("expected one transaction block:\n%s", db.query)
	}
	if len(db.vars) != 2 {
		t.Errorf("expected 2 vars, got %v", db.vars)
	}
}

func TestAtomicBatch_PropagatesError(t *testing.T) {
	t.Parallel()

	db := &recordingDB{err: ErrDuplicate}
	err := NewAtomicBatch().Add("CREATE x", nil).Execute(context.Background(), db)

	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want error
	}{
		{"Database index `unit_key_idx` already contains 'availability:A1', with record `service_group_member:x`", ErrDuplicate},
		{"Database record `service_group:abc` already exists", ErrDuplicate},
		{"Failed to commit transaction due to a read or write conflict. This transaction can be retried", ErrConflict},
		{"Transaction conflict: Resource busy", ErrConflict},
		{"There was a problem with the underlying datastore: connection reset", ErrConnection},
		{"Parse error: unexpected token", ErrQuery},
	}

	for _, tt := range tests {
		if err := classifyError(tt.msg); !errors.Is(err, tt.want) {
			t.Errorf("classifyError(%q) = %v, want %v", tt.msg, err, tt.want)
		}
	}
}
