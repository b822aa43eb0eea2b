package results_test

import (
	"math"

	"github.com/investai/radar/internal/results"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func withSuccessRate(id string, rate int) results.Candidate {
	return results.Candidate{ID: id, Metrics: results.Metrics{SuccessRate: rate, MarketFit: 85, TechCredibility: 85, Competition: 50}}
}

var _ = Describe("Aggregates", func() {
	It("rounds the mean of each metric", func() {
		agg := results.Aggregates([]results.Candidate{withSuccessRate("a", 80), withSuccessRate("b", 90)})
		Expect(agg).To(Equal(results.Aggregate{SuccessRate: 85, MarketFit: 85, TechCredibility: 85, Competition: 50}))
	})

	It("rounds halves up", func() {
		agg := results.Aggregates([]results.Candidate{withSuccessRate("a", 80), withSuccessRate("b", 81)})
		Expect(agg.SuccessRate).To(Equal(81))
	})

	It("does not depend on input order", func() {
		cs := []results.Candidate{withSuccessRate("a", 13), withSuccessRate("b", 77), withSuccessRate("c", 40), withSuccessRate("d", 2)}
		reversed := []results.Candidate{cs[3], cs[2], cs[1], cs[0]}
		Expect(results.Aggregates(cs)).To(Equal(results.Aggregates(reversed)))
	})

	It("averages clamped scores without wrapping", func() {
		agg := results.Aggregates([]results.Candidate{withSuccessRate("a", math.MaxInt32), withSuccessRate("b", math.MaxInt32)})
		Expect(agg.SuccessRate).To(Equal(math.MaxInt32))
	})

	It("is zero for an empty set", func() {
		Expect(results.Aggregates(nil)).To(Equal(results.Aggregate{}))
	})
})

var _ = Describe("Summarize", func() {
	It("flags an empty result set as no matches", func() {
		report := results.Summarize(nil)
		Expect(report.NoMatches).To(BeTrue())
		Expect(report.Candidates).To(BeEmpty())
		Expect(report.Aggregate).To(Equal(results.Aggregate{}))
	})

	It("aggregates normalized candidates", func() {
		report := results.Summarize(decode(`[
			{"startup":{"id":"1","name":"Acme"},"due_diligence":{"success_rate":80}},
			{"startup":{"id":"2","name":"Beta"},"due_diligence":{"success_rate":90}}
		]`))
		Expect(report.NoMatches).To(BeFalse())
		Expect(report.Aggregate.SuccessRate).To(Equal(85))

		c, ok := report.Find("2")
		Expect(ok).To(BeTrue())
		Expect(c.Name).To(Equal("Beta"))
		_, ok = report.Find("9")
		Expect(ok).To(BeFalse())
	})
})
