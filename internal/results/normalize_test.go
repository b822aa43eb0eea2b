package results_test

import (
	"encoding/json"
	"math"

	api "github.com/investai/radar/api/v1alpha1"
	"github.com/investai/radar/internal/results"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func decode(payload string) []api.RawCandidateResult {
	var raw []api.RawCandidateResult
	Expect(json.Unmarshal([]byte(payload), &raw)).To(Succeed())
	return raw
}

var _ = Describe("Normalize", func() {
	It("applies due diligence and defaults", func() {
		candidates := results.Normalize(decode(`[{"startup":{"name":"Acme"},"due_diligence":{"success_rate":72}}]`))

		Expect(candidates).To(HaveLen(1))
		c := candidates[0]
		Expect(c.ID).To(Equal("0"))
		Expect(c.Name).To(Equal("Acme"))
		Expect(c.FitScore).To(Equal(72))
		Expect(c.Metrics).To(Equal(results.Metrics{
			SuccessRate:     72,
			MarketFit:       85,
			TechCredibility: 85,
			Competition:     50,
		}))
		Expect(c.DetailedAnalysis).To(BeEmpty())
	})

	It("fills descriptive defaults", func() {
		c := results.Normalize(decode(`[{}]`))[0]
		Expect(c.Name).To(Equal("Unknown"))
		Expect(c.Tagline).To(Equal("No summary available"))
		Expect(c.Sector).To(Equal("N/A"))
		Expect(c.Stage).To(Equal("N/A"))
		Expect(c.FitScore).To(Equal(0))
		Expect(c.Metrics.SuccessRate).To(Equal(0))
	})

	It("prefers due diligence over nested metrics", func() {
		c := results.Normalize(decode(`[{
			"startup": {"id": "s-1", "fitScore": 40, "metrics": {"successRate": 10, "marketFit": 61.5, "techCredibility": 70.4, "competition": 30}},
			"due_diligence": {"success_rate": 88.6, "competition_difficulty": 22.5, "detailed_analysis": "strong team"}
		}]`))[0]

		Expect(c.ID).To(Equal("s-1"))
		Expect(c.FitScore).To(Equal(89))
		Expect(c.Metrics).To(Equal(results.Metrics{
			SuccessRate:     89,
			MarketFit:       62,
			TechCredibility: 70,
			Competition:     23,
		}))
		Expect(c.DetailedAnalysis).To(Equal("strong team"))
	})

	It("falls back to the descriptor fit score and metrics without due diligence", func() {
		c := results.Normalize(decode(`[{"id": 12, "name": "Flat", "fitScore": 64, "metrics": {"success_rate": 51, "competition": 70}}]`))[0]
		Expect(c.ID).To(Equal("12"))
		Expect(c.FitScore).To(Equal(64))
		Expect(c.Metrics.SuccessRate).To(Equal(51))
		Expect(c.Metrics.Competition).To(Equal(70))
	})

	It("uses top level metrics when the nested startup has none", func() {
		c := results.Normalize(decode(`[{"startup": {"name": "Nested"}, "metrics": {"marketFit": 40}}]`))[0]
		Expect(c.Name).To(Equal("Nested"))
		Expect(c.Metrics.MarketFit).To(Equal(40))
	})

	It("keeps explicit zeros", func() {
		c := results.Normalize(decode(`[{"metrics": {"marketFit": 0, "techCredibility": 0}, "due_diligence": {"competition_difficulty": 0}}]`))[0]
		Expect(c.Metrics.MarketFit).To(Equal(0))
		Expect(c.Metrics.TechCredibility).To(Equal(0))
		Expect(c.Metrics.Competition).To(Equal(0))
	})

	It("lets out of range values pass through", func() {
		c := results.Normalize(decode(`[{"due_diligence": {"success_rate": 140, "competition_difficulty": -12}}]`))[0]
		Expect(c.Metrics.SuccessRate).To(Equal(140))
		Expect(c.Metrics.Competition).To(Equal(-12))
	})

	It("clamps values too large for a score", func() {
		c := results.Normalize(decode(`[{"due_diligence": {"success_rate": 1e300, "competition_difficulty": -1e300}}]`))[0]
		Expect(c.Metrics.SuccessRate).To(Equal(math.MaxInt32))
		Expect(c.FitScore).To(Equal(math.MaxInt32))
		Expect(c.Metrics.Competition).To(Equal(-math.MaxInt32))
	})

	It("preserves order and uses positional ids", func() {
		candidates := results.Normalize(decode(`[{"name":"b"},{"startup":{"name":"a","id":"x"}},{"name":"c"}]`))
		Expect(candidates).To(HaveLen(3))
		Expect([]string{candidates[0].Name, candidates[1].Name, candidates[2].Name}).To(Equal([]string{"b", "a", "c"}))
		Expect([]string{candidates[0].ID, candidates[1].ID, candidates[2].ID}).To(Equal([]string{"0", "x", "2"}))
	})

	It("returns an empty slice for empty input", func() {
		Expect(results.Normalize(nil)).To(BeEmpty())
		Expect(results.Normalize(nil)).NotTo(BeNil())
	})
})
