package idxbench

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaVariant is one table in a variant set. All variants share the
// session columns; they differ only in the indexes declared over them.
type SchemaVariant struct {
	Name    string
	Indexes []string // CREATE INDEX statements, table-qualified
}

// VariantSet is one benchmark pipeline: a named list of parallel schema
// variants, optionally with a canonical good/bad pair for the
// degradation ratio.
type VariantSet struct {
	Name     string
	Variants []SchemaVariant
	Good     string
	Bad      string
}

// Names returns the variant table names in declaration order.
func (vs VariantSet) Names() []string {
	names := make([]string, len(vs.Variants))
	for i, v := range vs.Variants {
		names[i] = v.Name
	}
	return names
}

// sessionTableDDL is the column layout shared by every variant.
const sessionTableDDL = `(
	id VARCHAR(64) NOT NULL,
	owner_id INTEGER NOT NULL,
	primary_token TEXT NOT NULL,
	secondary_token TEXT NOT NULL,
	primary_expiry TIMESTAMPTZ NOT NULL,
	secondary_expiry TIMESTAMPTZ NOT NULL,
	is_active BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

// DefaultSets returns the two benchmark pipelines.
//
// The layout set steps from no indexes at all through a single-column
// owner index up to a composite index covering the owner/flag/expiry
// predicates. The tuned set pairs a deliberately good design against a
// deliberately bad one: the bad variant indexes only the low-cardinality
// flag and a column no scenario filters on.
func DefaultSets() []VariantSet {
	return []VariantSet{
		{
			Name: "layout",
			Variants: []SchemaVariant{
				{
					Name: "sessions_bare",
				},
				{
					Name: "sessions_single",
					Indexes: []string{
						"CREATE UNIQUE INDEX sessions_single_id_key ON sessions_single (id)",
						"CREATE UNIQUE INDEX sessions_single_ptoken_key ON sessions_single (primary_token)",
						"CREATE INDEX sessions_single_owner_idx ON sessions_single (owner_id)",
					},
				},
				{
					Name: "sessions_composite",
					Indexes: []string{
						"CREATE UNIQUE INDEX sessions_composite_id_key ON sessions_composite (id)",
						"CREATE UNIQUE INDEX sessions_composite_ptoken_key ON sessions_composite (primary_token)",
						"CREATE UNIQUE INDEX sessions_composite_stoken_key ON sessions_composite (secondary_token)",
						"CREATE INDEX sessions_composite_owner_idx ON sessions_composite (owner_id, is_active, primary_expiry)",
						"CREATE INDEX sessions_composite_created_idx ON sessions_composite (created_at)",
					},
				},
			},
		},
		{
			Name: "tuned",
			Good: "sessions_good",
			Bad:  "sessions_bad",
			Variants: []SchemaVariant{
				{
					Name: "sessions_good",
					Indexes: []string{
						"CREATE UNIQUE INDEX sessions_good_id_key ON sessions_good (id)",
						"CREATE UNIQUE INDEX sessions_good_ptoken_key ON sessions_good (primary_token)",
						"CREATE UNIQUE INDEX sessions_good_stoken_key ON sessions_good (secondary_token)",
						"CREATE INDEX sessions_good_owner_active_idx ON sessions_good (owner_id, is_active)",
						"CREATE INDEX sessions_good_pexpiry_idx ON sessions_good (primary_expiry)",
						"CREATE INDEX sessions_good_created_idx ON sessions_good (created_at)",
					},
				},
				{
					Name: "sessions_bad",
					Indexes: []string{
						"CREATE INDEX sessions_bad_active_idx ON sessions_bad (is_active)",
						"CREATE INDEX sessions_bad_sexpiry_idx ON sessions_bad (secondary_expiry)",
					},
				},
			},
		},
	}
}

// SchemaSet owns the lifecycle of one variant set's tables. The generator
// and harness only read and write rows inside tables this manager
// creates.
type SchemaSet struct {
	pool *pgxpool.Pool
	set  VariantSet
}

// NewSchemaSet creates a lifecycle manager for the given variant set.
func NewSchemaSet(pool *pgxpool.Pool, set VariantSet) *SchemaSet {
	return &SchemaSet{pool: pool, set: set}
}

// Set returns the managed variant set.
func (s *SchemaSet) Set() VariantSet {
	return s.set
}

// CreateAll drops any pre-existing variant tables and recreates them with
// their index definitions.
func (s *SchemaSet) CreateAll(ctx context.Context) error {
	if err := s.DropAll(ctx); err != nil {
		return err
	}
	for _, v := range s.set.Variants {
		ddl := fmt.Sprintf("CREATE TABLE %s %s", pgx.Identifier{v.Name}.Sanitize(), sessionTableDDL)
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return &ResourceError{
				BenchError: BenchError{
					Op:  "createAll",
					Err: fmt.Errorf("failed to create variant %s: %w", v.Name, err),
				},
				Resource: v.Name,
			}
		}
		for _, idx := range v.Indexes {
			if _, err := s.pool.Exec(ctx, idx); err != nil {
				return &ResourceError{
					BenchError: BenchError{
						Op:  "createAll",
						Err: fmt.Errorf("failed to create index on %s: %w", v.Name, err),
					},
					Resource: v.Name,
				}
			}
		}
	}
	return nil
}

// EnsureAll creates any variant tables that do not exist yet, without
// touching existing ones. Used when the caller wants re-runs against
// populated variants to surface uniqueness violations instead of
// silently starting fresh.
func (s *SchemaSet) EnsureAll(ctx context.Context) error {
	for _, v := range s.set.Variants {
		var exists bool
		err := s.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM pg_tables WHERE schemaname = current_schema() AND tablename = $1)",
			v.Name).Scan(&exists)
		if err != nil {
			return &ResourceError{
				BenchError: BenchError{
					Op:  "ensureAll",
					Err: fmt.Errorf("failed to check variant %s: %w", v.Name, err),
				},
				Resource: v.Name,
			}
		}
		if exists {
			continue
		}
		ddl := fmt.Sprintf("CREATE TABLE %s %s", pgx.Identifier{v.Name}.Sanitize(), sessionTableDDL)
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return &ResourceError{
				BenchError: BenchError{
					Op:  "ensureAll",
					Err: fmt.Errorf("failed to create variant %s: %w", v.Name, err),
				},
				Resource: v.Name,
			}
		}
		for _, idx := range v.Indexes {
			if _, err := s.pool.Exec(ctx, idx); err != nil {
				return &ResourceError{
					BenchError: BenchError{
						Op:  "ensureAll",
						Err: fmt.Errorf("failed to create index on %s: %w", v.Name, err),
					},
					Resource: v.Name,
				}
			}
		}
	}
	return nil
}

// TruncateAll empties every variant table, resetting the set for a fresh
// generation run.
func (s *SchemaSet) TruncateAll(ctx context.Context) error {
	for _, v := range s.set.Variants {
		sql := fmt.Sprintf("TRUNCATE TABLE %s", pgx.Identifier{v.Name}.Sanitize())
		if _, err := s.pool.Exec(ctx, sql); err != nil {
			return &ResourceError{
				BenchError: BenchError{
					Op:  "truncateAll",
					Err: fmt.Errorf("failed to truncate variant %s: %w", v.Name, err),
				},
				Resource: v.Name,
			}
		}
	}
	return nil
}

// DropAll removes every variant table.
func (s *SchemaSet) DropAll(ctx context.Context) error {
	for _, v := range s.set.Variants {
		sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{v.Name}.Sanitize())
		if _, err := s.pool.Exec(ctx, sql); err != nil {
			return &ResourceError{
				BenchError: BenchError{
					Op:  "dropAll",
					Err: fmt.Errorf("failed to drop variant %s: %w", v.Name, err),
				},
				Resource: v.Name,
			}
		}
	}
	return nil
}
