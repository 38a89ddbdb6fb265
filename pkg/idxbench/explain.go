package idxbench

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// planNode mirrors the parts of a Postgres JSON explain plan needed to
// count examined rows.
type planNode struct {
	NodeType    string     `json:"Node Type"`
	ActualRows  float64    `json:"Actual Rows"`
	ActualLoops float64    `json:"Actual Loops"`
	RowsRemoved float64    `json:"Rows Removed by Filter"`
	Plans       []planNode `json:"Plans"`
}

// rowsExamined re-executes the statement under EXPLAIN ANALYZE and sums
// the rows produced by the plan's scan nodes. This pass runs outside the
// timed window; it reports how much data the executor touched, which is
// the quantity the index comparison is about.
func rowsExamined(ctx context.Context, conn *pgxpool.Conn, sql string, args []any) (int64, error) {
	explainSQL := "EXPLAIN (ANALYZE, FORMAT JSON) " + sql

	var doc string
	queryArgs := append([]any{pgx.QueryExecModeSimpleProtocol}, args...)
	if err := conn.QueryRow(ctx, explainSQL, queryArgs...).Scan(&doc); err != nil {
		return 0, fmt.Errorf("failed to explain statement: %w", err)
	}

	var parsed []struct {
		Plan planNode `json:"Plan"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse explain output: %w", err)
	}
	if len(parsed) == 0 {
		return 0, fmt.Errorf("explain output contained no plan")
	}

	return sumScanRows(parsed[0].Plan), nil
}

// sumScanRows walks the plan tree and totals the rows each scan node
// touched, scaled by loop count for nested executions. Actual Rows is
// the node's post-filter output, so rows discarded by a filter count
// separately.
func sumScanRows(node planNode) int64 {
	var total int64
	if strings.Contains(node.NodeType, "Scan") {
		loops := node.ActualLoops
		if loops < 1 {
			loops = 1
		}
		total += int64((node.ActualRows + node.RowsRemoved) * loops)
	}
	for _, child := range node.Plans {
		total += sumScanRows(child)
	}
	return total
}
