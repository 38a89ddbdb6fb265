package idxbench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const defaultGenerateBatchSize = 5000

// Generator produces synthetic session records and loads an identical
// copy of each record into every variant of a set. It does not create or
// destroy variants; the caller is expected to reset schema state before
// re-running against non-empty tables.
type Generator struct {
	pool      *pgxpool.Pool
	sampler   *Sampler
	batchSize int
	log       logrus.FieldLogger
}

// NewGenerator creates a Generator with a time-seeded sampler.
func NewGenerator(pool *pgxpool.Pool, log logrus.FieldLogger) *Generator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Generator{
		pool:      pool,
		sampler:   NewSampler(nil),
		batchSize: defaultGenerateBatchSize,
		log:       log,
	}
}

// Generate produces exactly n records and writes each into every variant
// of the set, field-for-field identical across variants. A unique-key
// collision (typically from re-running into populated variants) is
// propagated as a UniquenessError, never retried.
func (g *Generator) Generate(ctx context.Context, set VariantSet, n int) error {
	if n < 0 {
		return &BenchError{
			Op:  "generate",
			Err: fmt.Errorf("record count must not be negative, got %d", n),
		}
	}

	g.log.WithFields(logrus.Fields{
		"set":      set.Name,
		"records":  n,
		"variants": len(set.Variants),
	}).Info("generating records")

	now := time.Now()
	for offset := 0; offset < n; offset += g.batchSize {
		count := g.batchSize
		if offset+count > n {
			count = n - offset
		}

		rows := make([][]any, count)
		for i := 0; i < count; i++ {
			rows[i] = g.sampler.Record(offset+i, now).copyRow()
		}

		for _, v := range set.Variants {
			_, err := g.pool.CopyFrom(ctx, pgx.Identifier{v.Name}, sessionColumns, pgx.CopyFromRows(rows))
			if err != nil {
				return mapCopyError(v.Name, err)
			}
		}
	}

	g.log.WithFields(logrus.Fields{
		"set":     set.Name,
		"records": n,
	}).Info("generation complete")
	return nil
}

// mapCopyError classifies a bulk-load failure. Postgres reports
// unique-constraint violations as SQLSTATE 23505.
func mapCopyError(variant string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &UniquenessError{
			BenchError: BenchError{
				Op:  "generate",
				Err: fmt.Errorf("duplicate unique value in variant %s: %w", variant, err),
			},
			Variant:    variant,
			Constraint: pgErr.ConstraintName,
		}
	}
	return &ResourceError{
		BenchError: BenchError{
			Op:  "generate",
			Err: fmt.Errorf("failed to load variant %s: %w", variant, err),
		},
		Resource: variant,
	}
}
