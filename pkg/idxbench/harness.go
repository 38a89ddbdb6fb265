package idxbench

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Harness executes the scenario battery against every variant of a set,
// one timed query at a time. The whole battery runs on a single
// dedicated connection so cache invalidation applies to the session that
// executes the measured statements.
type Harness struct {
	pool      *pgxpool.Pool
	scenarios []Scenario
	log       logrus.FieldLogger
}

// NewHarness creates a Harness over the default battery.
func NewHarness(pool *pgxpool.Pool, log logrus.FieldLogger) *Harness {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Harness{
		pool:      pool,
		scenarios: Battery(),
		log:       log,
	}
}

// Measure runs every scenario against every variant exactly once, in a
// fixed order, and returns one measurement per pair.
//
// Protocol, strictly ordered: discard session caches, refresh optimizer
// statistics for every variant, then time each (scenario, variant)
// execution. Measured statements run over the simple protocol so no
// prepared-statement or plan cache carries between executions. Repeated
// invocations produce directionally consistent rankings, not identical
// numbers; a single trial is the unit of measurement.
func (h *Harness) Measure(ctx context.Context, set VariantSet) ([]Measurement, error) {
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return nil, &ResourceError{
			BenchError: BenchError{
				Op:  "measure",
				Err: fmt.Errorf("failed to acquire connection: %w", err),
			},
			Resource: "database",
		}
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "DISCARD ALL"); err != nil {
		return nil, &ResourceError{
			BenchError: BenchError{
				Op:  "measure",
				Err: fmt.Errorf("failed to discard session caches: %w", err),
			},
			Resource: "database",
		}
	}

	// DISCARD ALL drops the server-side statements behind pgx's client
	// statement cache; resync the cache so a reused pooled connection
	// does not reference statements that no longer exist.
	if err := conn.Conn().DeallocateAll(ctx); err != nil {
		return nil, &ResourceError{
			BenchError: BenchError{
				Op:  "measure",
				Err: fmt.Errorf("failed to reset statement cache: %w", err),
			},
			Resource: "database",
		}
	}

	for _, v := range set.Variants {
		sql := fmt.Sprintf("ANALYZE %s", pgx.Identifier{v.Name}.Sanitize())
		if _, err := conn.Exec(ctx, sql); err != nil {
			return nil, &ResourceError{
				BenchError: BenchError{
					Op:  "measure",
					Err: fmt.Errorf("failed to refresh statistics for %s: %w", v.Name, err),
				},
				Resource: v.Name,
			}
		}
	}

	var measurements []Measurement
	for _, sc := range h.scenarios {
		for _, v := range set.Variants {
			m, err := h.measureOne(ctx, conn, sc, v.Name)
			if err != nil {
				return nil, &ScenarioError{
					BenchError: BenchError{
						Op:  "measure",
						Err: fmt.Errorf("scenario %s failed against variant %s: %w", sc.Name, v.Name, err),
					},
					Scenario: sc.Name,
					Variant:  v.Name,
				}
			}
			measurements = append(measurements, m)

			h.log.WithFields(logrus.Fields{
				"scenario": sc.Name,
				"variant":  v.Name,
				"elapsed":  fmt.Sprintf("%.3fms", m.ElapsedMillis()),
				"examined": m.RowsExamined,
			}).Debug("measured")
		}
	}

	return measurements, nil
}

// measureOne binds, times, and explains one scenario against one
// variant.
func (h *Harness) measureOne(ctx context.Context, conn *pgxpool.Conn, sc Scenario, variant string) (Measurement, error) {
	sql := sc.SQL(variant)

	var args []any
	if sc.Bind != nil {
		bound, err := sc.Bind(ctx, conn, variant)
		if err != nil {
			return Measurement{}, fmt.Errorf("failed to bind parameters: %w", err)
		}
		args = bound
	}

	var returned int64
	elapsed, err := timeOperation(func() error {
		queryArgs := append([]any{pgx.QueryExecModeSimpleProtocol}, args...)
		rows, err := conn.Query(ctx, sql, queryArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			returned++
		}
		return rows.Err()
	})
	if err != nil {
		return Measurement{}, err
	}

	examined, err := rowsExamined(ctx, conn, sql, args)
	if err != nil {
		return Measurement{}, err
	}

	return Measurement{
		Scenario:      sc.Name,
		Variant:       variant,
		ElapsedMicros: elapsedMicros(elapsed),
		RowsReturned:  returned,
		RowsExamined:  examined,
	}, nil
}
