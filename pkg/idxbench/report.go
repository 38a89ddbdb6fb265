package idxbench

import (
	"fmt"
	"sort"
	"strings"
)

// Ratio is a relative-performance comparison between two measurements.
// It is undefined when the faster side reported a zero-or-negative
// elapsed time; dividing by such a reading would manufacture a number
// the data does not support.
type Ratio struct {
	Value   float64
	Defined bool
}

// String renders the ratio, or "undefined" when no comparison exists.
func (r Ratio) String() string {
	if !r.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.2fx", r.Value)
}

// ratioOf divides slower by faster, guarding the denominator.
func ratioOf(slower, faster int64) Ratio {
	if faster <= 0 {
		return Ratio{}
	}
	return Ratio{Value: float64(slower) / float64(faster), Defined: true}
}

// RankedMeasurement is a measurement with its position's ratio against
// the next-faster variant. The fastest entry carries no ratio.
type RankedMeasurement struct {
	Measurement
	VsFaster Ratio
}

// ScenarioReport ranks one scenario's variants by ascending elapsed
// time.
type ScenarioReport struct {
	Scenario string
	Ranked   []RankedMeasurement

	// Degradation is the bad/good elapsed ratio when the set declares a
	// canonical pair.
	Degradation Ratio
	HasPair     bool
}

// Report is the ordered, read-only comparison for one variant set.
type Report struct {
	Set       string
	Scenarios []ScenarioReport
}

// BuildReport collates measurements from one harness invocation into a
// ranked comparison. Output depends only on the measurement values: the
// same records produce the same report regardless of input order.
func BuildReport(set VariantSet, measurements []Measurement) Report {
	byScenario := make(map[string][]Measurement)
	for _, m := range measurements {
		byScenario[m.Scenario] = append(byScenario[m.Scenario], m)
	}

	names := make([]string, 0, len(byScenario))
	for name := range byScenario {
		names = append(names, name)
	}
	sort.Strings(names)

	report := Report{Set: set.Name}
	for _, name := range names {
		group := byScenario[name]
		sort.Slice(group, func(i, j int) bool {
			if group[i].ElapsedMicros != group[j].ElapsedMicros {
				return group[i].ElapsedMicros < group[j].ElapsedMicros
			}
			return group[i].Variant < group[j].Variant
		})

		sr := ScenarioReport{Scenario: name}
		for i, m := range group {
			ranked := RankedMeasurement{Measurement: m}
			if i > 0 {
				ranked.VsFaster = ratioOf(m.ElapsedMicros, group[i-1].ElapsedMicros)
			}
			sr.Ranked = append(sr.Ranked, ranked)
		}

		if set.Good != "" && set.Bad != "" {
			good, okGood := findVariant(group, set.Good)
			bad, okBad := findVariant(group, set.Bad)
			if okGood && okBad {
				sr.HasPair = true
				sr.Degradation = ratioOf(bad.ElapsedMicros, good.ElapsedMicros)
			}
		}

		report.Scenarios = append(report.Scenarios, sr)
	}
	return report
}

func findVariant(group []Measurement, name string) (Measurement, bool) {
	for _, m := range group {
		if m.Variant == name {
			return m, true
		}
	}
	return Measurement{}, false
}

// Format renders the report as a plain-text table.
func (r Report) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", r.Set)
	for _, sr := range r.Scenarios {
		fmt.Fprintf(&b, "--- %s ---\n", sr.Scenario)
		fmt.Fprintf(&b, "  %-22s %12s %10s %10s %12s\n", "variant", "elapsed", "returned", "examined", "vs faster")
		for i, m := range sr.Ranked {
			vs := "-"
			if i > 0 {
				vs = m.VsFaster.String()
			}
			fmt.Fprintf(&b, "  %-22s %10.3fms %10d %10d %12s\n",
				m.Variant, m.ElapsedMillis(), m.RowsReturned, m.RowsExamined, vs)
		}
		if sr.HasPair {
			fmt.Fprintf(&b, "  degradation (bad/good): %s\n", sr.Degradation)
		}
	}
	return b.String()
}
