package results

import (
	"math"
	"strconv"

	api "github.com/investai/radar/api/v1alpha1"
)

const (
	defaultName     = "Unknown"
	defaultTagline  = "No summary available"
	defaultCategory = "N/A"

	defaultSuccessRate     = 0
	defaultMarketFit       = 85
	defaultTechCredibility = 85
	defaultCompetition     = 50
	defaultFitScore        = 0
)

// Metrics are the display scores of a candidate, nominally in [0, 100].
type Metrics struct {
	SuccessRate     int `json:"successRate"`
	MarketFit       int `json:"marketFit"`
	TechCredibility int `json:"techCredibility"`
	Competition     int `json:"competition"`
}

// Candidate is the normalized form of a raw result record.
type Candidate struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Tagline          string  `json:"tagline"`
	Sector           string  `json:"sector"`
	Stage            string  `json:"stage"`
	FitScore         int     `json:"fitScore"`
	Metrics          Metrics `json:"metrics"`
	DetailedAnalysis string  `json:"detailedAnalysis,omitempty"`
}

// Normalize converts raw result records into candidates, keeping their order.
// A value explicitly sent as 0 is kept; only absent values fall back to defaults.
func Normalize(raw []api.RawCandidateResult) []Candidate {
	candidates := make([]Candidate, 0, len(raw))
	for i := range raw {
		candidates = append(candidates, normalizeOne(&raw[i], i))
	}
	return candidates
}

func normalizeOne(r *api.RawCandidateResult, index int) Candidate {
	d := r.Descriptor()
	dd := r.DueDiligence
	if dd == nil {
		dd = &api.RawDueDiligence{}
	}

	metrics := []*api.RawMetrics{d.Metrics}
	if d != &r.RawStartup {
		metrics = append(metrics, r.RawStartup.Metrics)
	}
	pick := func(field func(*api.RawMetrics) *float64) []*float64 {
		values := make([]*float64, 0, len(metrics))
		for _, m := range metrics {
			if m != nil {
				values = append(values, field(m))
			}
		}
		return values
	}

	c := Candidate{
		ID:       candidateID(r, index),
		Name:     stringOr(d.Name, defaultName),
		Tagline:  stringOr(d.Summary, defaultTagline),
		Sector:   stringOr(d.Sector, defaultCategory),
		Stage:    stringOr(d.Stage, defaultCategory),
		FitScore: round(resolve(defaultFitScore, dd.SuccessRate, d.FitScore)),
		Metrics: Metrics{
			SuccessRate: round(resolve(defaultSuccessRate,
				append([]*float64{dd.SuccessRate}, pick(func(m *api.RawMetrics) *float64 { return m.SuccessRate })...)...)),
			MarketFit: round(resolve(defaultMarketFit,
				pick(func(m *api.RawMetrics) *float64 { return m.MarketFit })...)),
			TechCredibility: round(resolve(defaultTechCredibility,
				pick(func(m *api.RawMetrics) *float64 { return m.TechCredibility })...)),
			Competition: round(resolve(defaultCompetition,
				append([]*float64{dd.CompetitionDifficulty}, pick(func(m *api.RawMetrics) *float64 { return m.Competition })...)...)),
		},
	}
	if dd.DetailedAnalysis != nil {
		c.DetailedAnalysis = *dd.DetailedAnalysis
	}
	return c
}

func candidateID(r *api.RawCandidateResult, index int) string {
	if r.Startup != nil && r.Startup.ID != nil && *r.Startup.ID != "" {
		return string(*r.Startup.ID)
	}
	if r.ID != nil && *r.ID != "" {
		return string(*r.ID)
	}
	return strconv.Itoa(index)
}

// resolve returns the first present, finite value, or def.
func resolve(def float64, values ...*float64) float64 {
	for _, v := range values {
		if v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
			return *v
		}
	}
	return def
}

// maxScore bounds a rounded value. Scores outside 0..100 pass through, but values
// this large are clamped so the int conversion and the aggregate sums stay defined.
const maxScore = math.MaxInt32

// round rounds half up, so -2.5 becomes -2.
func round(v float64) int {
	r := math.Floor(v + 0.5)
	switch {
	case r > maxScore:
		return maxScore
	case r < -maxScore:
		return -maxScore
	}
	return int(r)
}

func stringOr(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
