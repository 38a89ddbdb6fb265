package idxbench

import "time"

// SessionRecord is the synthetic row replicated into every schema variant.
// Field values are sampled once per record; the variants differ only in
// index structure, never in content.
type SessionRecord struct {
	ID              string
	OwnerID         int
	PrimaryToken    string
	SecondaryToken  string
	PrimaryExpiry   time.Time
	SecondaryExpiry time.Time
	IsActive        bool
	CreatedAt       time.Time
}

// sessionColumns is the column order used for bulk loading. It must match
// the column order in the variant DDL.
var sessionColumns = []string{
	"id",
	"owner_id",
	"primary_token",
	"secondary_token",
	"primary_expiry",
	"secondary_expiry",
	"is_active",
	"created_at",
}

// copyRow converts a record to the positional form CopyFrom expects.
func (r SessionRecord) copyRow() []any {
	return []any{
		r.ID,
		r.OwnerID,
		r.PrimaryToken,
		r.SecondaryToken,
		r.PrimaryExpiry,
		r.SecondaryExpiry,
		r.IsActive,
		r.CreatedAt,
	}
}

// Measurement captures one timed execution of a scenario against a
// schema variant. Created by the harness, immutable afterward.
type Measurement struct {
	Scenario      string
	Variant       string
	ElapsedMicros int64
	RowsReturned  int64
	RowsExamined  int64
}

// ElapsedMillis returns the elapsed time as decimal milliseconds.
func (m Measurement) ElapsedMillis() float64 {
	return float64(m.ElapsedMicros) / 1000.0
}
