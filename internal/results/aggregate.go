package results

import (
	api "github.com/investai/radar/api/v1alpha1"
)

// Aggregate holds the mean of each metric over a candidate set.
type Aggregate struct {
	SuccessRate     int `json:"avgSuccessRate"`
	MarketFit       int `json:"avgMarketFit"`
	TechCredibility int `json:"avgTechCredibility"`
	Competition     int `json:"avgCompetition"`
}

// Aggregates averages the candidate metrics, rounding each mean to the nearest integer.
// An empty set yields all zeros.
func Aggregates(candidates []Candidate) Aggregate {
	if len(candidates) == 0 {
		return Aggregate{}
	}
	// float64 sums cannot wrap
	var success, market, tech, competition float64
	for _, c := range candidates {
		success += float64(c.Metrics.SuccessRate)
		market += float64(c.Metrics.MarketFit)
		tech += float64(c.Metrics.TechCredibility)
		competition += float64(c.Metrics.Competition)
	}
	n := float64(len(candidates))
	return Aggregate{
		SuccessRate:     round(success / n),
		MarketFit:       round(market / n),
		TechCredibility: round(tech / n),
		Competition:     round(competition / n),
	}
}

// Report is the complete results view of a job.
type Report struct {
	JobID      string      `json:"jobId,omitempty"`
	Candidates []Candidate `json:"candidates"`
	Aggregate  Aggregate   `json:"aggregate"`
	// NoMatches is set when no candidate passed the filters.
	NoMatches bool `json:"noMatches"`
	// Err is set when the results could not be fetched.
	Err error `json:"-"`
}

// Summarize normalizes raw results and computes their aggregate.
func Summarize(raw []api.RawCandidateResult) Report {
	candidates := Normalize(raw)
	return Report{
		Candidates: candidates,
		Aggregate:  Aggregates(candidates),
		NoMatches:  len(candidates) == 0,
	}
}

// Find returns the candidate with the given id.
func (r Report) Find(id string) (Candidate, bool) {
	for _, c := range r.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}
