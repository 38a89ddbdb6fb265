package idxbench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// querier is the subset of pgx used while binding scenario parameters.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Scenario is one named, parameterized read-only query template. SQL
// renders the statement for a given variant table; Bind samples the
// statement's parameters, possibly from live data, before any timing
// starts.
type Scenario struct {
	Name string
	SQL  func(table string) string
	Bind func(ctx context.Context, q querier, table string) ([]any, error)
}

// neverToken is bound when a variant holds no rows, so a point lookup
// still executes and returns an empty result instead of failing.
const neverToken = "p-absent-000000000000"

// A fixed hot owner used by the equality scenarios; any value inside the
// hot range exercises the skewed part of the distribution.
const hotOwnerID = 42

// Battery returns the fixed scenario battery, reused across both
// pipelines. Each scenario stresses a different index-utilization
// pattern: point lookup, composite equality, one- and two-sided range
// scans, range-plus-flag, and a leading-wildcard pattern match that no
// btree index can serve.
func Battery() []Scenario {
	return []Scenario{
		{
			Name: "token_lookup",
			SQL: func(table string) string {
				return fmt.Sprintf("SELECT id, owner_id FROM %s WHERE primary_token = $1", table)
			},
			Bind: sampleToken,
		},
		{
			Name: "owner_active",
			SQL: func(table string) string {
				return fmt.Sprintf("SELECT id FROM %s WHERE owner_id = $1 AND is_active = true", table)
			},
			Bind: func(ctx context.Context, q querier, table string) ([]any, error) {
				return []any{hotOwnerID}, nil
			},
		},
		{
			Name: "expiring",
			SQL: func(table string) string {
				return fmt.Sprintf("SELECT id FROM %s WHERE primary_expiry < now()", table)
			},
		},
		{
			Name: "created_window",
			SQL: func(table string) string {
				return fmt.Sprintf("SELECT id FROM %s WHERE created_at BETWEEN $1 AND $2", table)
			},
			Bind: func(ctx context.Context, q querier, table string) ([]any, error) {
				now := time.Now()
				return []any{now.Add(-14 * 24 * time.Hour), now.Add(-7 * 24 * time.Hour)}, nil
			},
		},
		{
			Name: "expiry_window_active",
			SQL: func(table string) string {
				return fmt.Sprintf("SELECT id FROM %s WHERE primary_expiry BETWEEN $1 AND $2 AND is_active = true", table)
			},
			Bind: func(ctx context.Context, q querier, table string) ([]any, error) {
				now := time.Now()
				return []any{now, now.Add(7 * 24 * time.Hour)}, nil
			},
		},
		{
			Name: "token_pattern",
			SQL: func(table string) string {
				return fmt.Sprintf("SELECT id FROM %s WHERE primary_token LIKE $1", table)
			},
			Bind: func(ctx context.Context, q querier, table string) ([]any, error) {
				return []any{"%42%"}, nil
			},
		},
	}
}

// sampleToken picks an existing primary token from the variant. On an
// empty variant it falls back to a token that cannot exist, keeping the
// scenario executable.
func sampleToken(ctx context.Context, q querier, table string) ([]any, error) {
	var token string
	sql := fmt.Sprintf("SELECT primary_token FROM %s ORDER BY primary_token DESC LIMIT 1", table)
	// Bind queries share the measurement connection whose statement cache
	// is discarded between passes, so keep them off the cache entirely.
	err := q.QueryRow(ctx, sql, pgx.QueryExecModeSimpleProtocol).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return []any{neverToken}, nil
	}
	if err != nil {
		return nil, err
	}
	return []any{token}, nil
}
