package idxbench_test

import (
	"github.com/YSawc/db-performance-test/pkg/idxbench"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// variantRow is the content-comparable projection of a session row.
// Timestamps are compared at epoch-second precision so the truncation is
// identical for every variant.
type variantRow struct {
	ID              string
	OwnerID         int
	PrimaryToken    string
	SecondaryToken  string
	PrimaryExpiry   int64
	SecondaryExpiry int64
	IsActive        bool
	CreatedAt       int64
}

func fetchRows(table string) []variantRow {
	sql := `SELECT id, owner_id, primary_token, secondary_token,
		extract(epoch FROM primary_expiry)::bigint,
		extract(epoch FROM secondary_expiry)::bigint,
		is_active,
		extract(epoch FROM created_at)::bigint
		FROM ` + table + ` ORDER BY primary_token`

	rows, err := pool.Query(ctx, sql)
	Expect(err).NotTo(HaveOccurred())
	defer rows.Close()

	var result []variantRow
	for rows.Next() {
		var r variantRow
		Expect(rows.Scan(&r.ID, &r.OwnerID, &r.PrimaryToken, &r.SecondaryToken,
			&r.PrimaryExpiry, &r.SecondaryExpiry, &r.IsActive, &r.CreatedAt)).To(Succeed())
		result = append(result, r)
	}
	Expect(rows.Err()).NotTo(HaveOccurred())
	return result
}

func findMeasurement(r idxbench.Report, scenario, variant string) (idxbench.Measurement, bool) {
	for _, sr := range r.Scenarios {
		if sr.Scenario != scenario {
			continue
		}
		for _, ranked := range sr.Ranked {
			if ranked.Variant == variant {
				return ranked.Measurement, true
			}
		}
	}
	return idxbench.Measurement{}, false
}

var _ = Describe("Bench", func() {
	var bench *idxbench.Bench

	BeforeEach(func() {
		var err error
		bench, err = idxbench.New(ctx, pool, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(bench.Setup(ctx)).To(Succeed())
	})

	Describe("Generate", func() {
		It("loads exactly n identical rows into every variant", func() {
			Expect(bench.Generate(ctx, 1000)).To(Succeed())

			for _, set := range idxbench.DefaultSets() {
				var reference []variantRow
				for i, name := range set.Names() {
					rows := fetchRows(name)
					Expect(rows).To(HaveLen(1000), "variant %s", name)
					if i == 0 {
						reference = rows
					} else {
						Expect(rows).To(Equal(reference), "variant %s diverged from %s", name, set.Names()[0])
					}
				}
			}
		})

		It("keeps generated tokens unique within a run", func() {
			Expect(bench.Generate(ctx, 500)).To(Succeed())

			var distinct int
			err := pool.QueryRow(ctx,
				"SELECT count(DISTINCT primary_token) + count(DISTINCT secondary_token) FROM sessions_bare").Scan(&distinct)
			Expect(err).NotTo(HaveOccurred())
			Expect(distinct).To(Equal(1000))
		})

		It("recovers after a reset", func() {
			Expect(bench.Generate(ctx, 50)).To(Succeed())
			Expect(bench.Reset(ctx)).To(Succeed())
			Expect(bench.Generate(ctx, 50)).To(Succeed())
		})

		It("resets cleanly even when the variants are missing", func() {
			Expect(bench.Teardown(ctx)).To(Succeed())
			Expect(bench.Reset(ctx)).To(Succeed())
			Expect(bench.Generate(ctx, 50)).To(Succeed())
		})

		It("surfaces a database uniqueness violation without retrying", func() {
			// owner_id repeats at this scale, so an extra unique index on
			// it forces a real duplicate-key rejection during the load.
			_, err := pool.Exec(ctx, "CREATE UNIQUE INDEX sessions_good_owner_uniq ON sessions_good (owner_id)")
			Expect(err).NotTo(HaveOccurred())

			err = bench.Generate(ctx, 1000)
			Expect(err).To(HaveOccurred())
			Expect(idxbench.IsUniquenessError(err)).To(BeTrue())

			uniq, ok := idxbench.GetUniquenessError(err)
			Expect(ok).To(BeTrue())
			Expect(uniq.Variant).To(Equal("sessions_good"))

			// The failed load must not leave partial data behind.
			var count int
			Expect(pool.QueryRow(ctx, "SELECT count(*) FROM sessions_good").Scan(&count)).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	Describe("Measure", func() {
		It("returns zero-row results over empty variants without error", func() {
			Expect(bench.Generate(ctx, 0)).To(Succeed())

			reports, err := bench.Measure(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(reports).To(HaveLen(2))

			for _, r := range reports {
				Expect(r.Scenarios).To(HaveLen(6))
				for _, sr := range r.Scenarios {
					for _, m := range sr.Ranked {
						Expect(m.RowsReturned).To(BeZero())
						Expect(m.ElapsedMicros).To(BeNumerically(">=", 0))
					}
				}
			}
		})

		It("measures repeatedly over reused pool connections", func() {
			// Each pass discards the session state of whatever pooled
			// connection it draws; later passes must not trip over
			// statements cached before the discard.
			Expect(bench.Generate(ctx, 100)).To(Succeed())

			for i := 0; i < 3; i++ {
				reports, err := bench.Measure(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(reports).To(HaveLen(2))
			}
		})

		It("produces one measurement per scenario and variant", func() {
			Expect(bench.Generate(ctx, 200)).To(Succeed())

			reports, err := bench.Measure(ctx)
			Expect(err).NotTo(HaveOccurred())

			sets := idxbench.DefaultSets()
			for i, r := range reports {
				Expect(r.Set).To(Equal(sets[i].Name))
				for _, sr := range r.Scenarios {
					Expect(sr.Ranked).To(HaveLen(len(sets[i].Variants)))
				}
			}
		})

		It("finds the point lookup via an index on the good variant", func() {
			Expect(bench.Generate(ctx, 1000)).To(Succeed())

			reports, err := bench.Measure(ctx)
			Expect(err).NotTo(HaveOccurred())

			var tuned idxbench.Report
			for _, r := range reports {
				if r.Set == "tuned" {
					tuned = r
				}
			}

			good, ok := findMeasurement(tuned, "token_lookup", "sessions_good")
			Expect(ok).To(BeTrue())
			bad, ok := findMeasurement(tuned, "token_lookup", "sessions_bad")
			Expect(ok).To(BeTrue())

			Expect(good.RowsReturned).To(Equal(int64(1)))
			Expect(bad.RowsReturned).To(Equal(int64(1)))
			// The unindexed lookup scans the whole table.
			Expect(bad.RowsExamined).To(BeNumerically(">", good.RowsExamined))
		})

		It("ranks the indexed variant ahead of the bare one for the equality filter in most trials", func() {
			Expect(bench.Generate(ctx, 1000)).To(Succeed())

			const trials = 10
			wins := 0
			for i := 0; i < trials; i++ {
				reports, err := bench.Measure(ctx)
				Expect(err).NotTo(HaveOccurred())

				var layout idxbench.Report
				for _, r := range reports {
					if r.Set == "layout" {
						layout = r
					}
				}

				indexed, ok := findMeasurement(layout, "owner_active", "sessions_single")
				Expect(ok).To(BeTrue())
				bare, ok := findMeasurement(layout, "owner_active", "sessions_bare")
				Expect(ok).To(BeTrue())

				if indexed.ElapsedMicros <= bare.ElapsedMicros {
					wins++
				}
			}

			// Statistical expectation over repeated trials, not an absolute.
			Expect(wins).To(BeNumerically(">=", trials*9/10))
		})
	})
})
