package idxbench

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Bench drives both benchmark pipelines over one connection pool. The
// pipelines are structurally identical; each is a variant set fed
// through the same generator and harness.
//
// The execution model is single-threaded and sequential: generation
// finishes for every variant before any measurement starts, and the
// harness never overlaps two timed queries. A second concurrent run
// against the same variant sets produces undefined results.
type Bench struct {
	pool      *pgxpool.Pool
	sets      []*SchemaSet
	generator *Generator
	harness   *Harness
	log       logrus.FieldLogger
}

// New creates a Bench over the default variant sets, verifying database
// connectivity first.
func New(ctx context.Context, pool *pgxpool.Pool, log logrus.FieldLogger) (*Bench, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return nil, &ResourceError{
			BenchError: BenchError{
				Op:  "new",
				Err: fmt.Errorf("unable to connect to database: %w", err),
			},
			Resource: "database",
		}
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	var sets []*SchemaSet
	for _, set := range DefaultSets() {
		sets = append(sets, NewSchemaSet(pool, set))
	}

	return &Bench{
		pool:      pool,
		sets:      sets,
		generator: NewGenerator(pool, log),
		harness:   NewHarness(pool, log),
		log:       log,
	}, nil
}

// Setup drops and recreates every variant in both sets.
func (b *Bench) Setup(ctx context.Context) error {
	for _, s := range b.sets {
		if err := s.CreateAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Reset leaves every variant present and empty, creating any that are
// missing and truncating the rest.
func (b *Bench) Reset(ctx context.Context) error {
	for _, s := range b.sets {
		if err := s.EnsureAll(ctx); err != nil {
			return err
		}
		if err := s.TruncateAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Teardown drops every variant table.
func (b *Bench) Teardown(ctx context.Context) error {
	for _, s := range b.sets {
		if err := s.DropAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Generate ensures the variants exist and loads n records into each
// variant of both sets. Loading appends to whatever is already there;
// reset first for a fresh dataset.
func (b *Bench) Generate(ctx context.Context, n int) error {
	for _, s := range b.sets {
		if err := s.EnsureAll(ctx); err != nil {
			return err
		}
		if err := b.generator.Generate(ctx, s.Set(), n); err != nil {
			return err
		}
	}
	return nil
}

// Measure runs the scenario battery against both sets and returns one
// report per set.
func (b *Bench) Measure(ctx context.Context) ([]Report, error) {
	var reports []Report
	for _, s := range b.sets {
		measurements, err := b.harness.Measure(ctx, s.Set())
		if err != nil {
			return nil, err
		}
		reports = append(reports, BuildReport(s.Set(), measurements))
	}
	return reports, nil
}

// RunAll recreates the variants, generates n records, and measures,
// composing the full pipeline in sequence.
func (b *Bench) RunAll(ctx context.Context, n int) ([]Report, error) {
	if err := b.Setup(ctx); err != nil {
		return nil, err
	}
	if err := b.Generate(ctx, n); err != nil {
		return nil, err
	}
	return b.Measure(ctx)
}
