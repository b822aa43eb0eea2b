package v1alpha1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// JobStatus is the coarse lifecycle status reported by the screening service.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusParsing   JobStatus = "parsing"
	JobStatusFiltering JobStatus = "filtering"
	JobStatusDDRunning JobStatus = "dd_running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobProgress is the optional progress object of a job.
type JobProgress struct {
	Percent       *float64 `json:"percent,omitempty"`
	StatusMessage string   `json:"status_message,omitempty"`
}

// Job is the status resource returned by GET /api/jobs/{id}.
type Job struct {
	JobID    string       `json:"job_id,omitempty"`
	Status   JobStatus    `json:"status"`
	Progress *JobProgress `json:"progress,omitempty"`
	ErrorLog *string      `json:"error_log,omitempty"`
}

// Percent returns the reported percentage, if any.
func (j *Job) Percent() *float64 {
	if j == nil || j.Progress == nil {
		return nil
	}
	return j.Progress.Percent
}

// StatusMessage returns the reported status message or the empty string.
func (j *Job) StatusMessage() string {
	if j == nil || j.Progress == nil {
		return ""
	}
	return j.Progress.StatusMessage
}

// CreateJobResponse is the body returned by POST /api/jobs.
type CreateJobResponse struct {
	JobID   string    `json:"job_id"`
	Status  JobStatus `json:"status,omitempty"`
	Message string    `json:"message,omitempty"`
}

// ResultsResponse is the body returned by GET /api/jobs/{id}/results.
type ResultsResponse struct {
	JobID    string               `json:"job_id,omitempty"`
	Startups []RawCandidateResult `json:"startups"`
}

// CandidateID is an identifier the service sends either as a JSON string or a number.
type CandidateID string

func (c *CandidateID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = CandidateID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("candidate id must be a string or a number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*c = CandidateID(strconv.FormatInt(i, 10))
		return nil
	}
	*c = CandidateID(n.String())
	return nil
}

// RawMetrics is the loosely named metrics object of a candidate.
// success_rate and successRate are both accepted.
type RawMetrics struct {
	SuccessRate     *float64 `json:"successRate,omitempty"`
	MarketFit       *float64 `json:"marketFit,omitempty"`
	TechCredibility *float64 `json:"techCredibility,omitempty"`
	Competition     *float64 `json:"competition,omitempty"`
}

func (m *RawMetrics) UnmarshalJSON(data []byte) error {
	var aux struct {
		SuccessRate          *float64 `json:"successRate"`
		SuccessRateSnake     *float64 `json:"success_rate"`
		MarketFit            *float64 `json:"marketFit"`
		MarketFitSnake       *float64 `json:"market_fit"`
		TechCredibility      *float64 `json:"techCredibility"`
		TechCredibilitySnake *float64 `json:"tech_credibility"`
		Competition          *float64 `json:"competition"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = RawMetrics{
		SuccessRate:     firstNonNil(aux.SuccessRate, aux.SuccessRateSnake),
		MarketFit:       firstNonNil(aux.MarketFit, aux.MarketFitSnake),
		TechCredibility: firstNonNil(aux.TechCredibility, aux.TechCredibilitySnake),
		Competition:     aux.Competition,
	}
	return nil
}

// RawDueDiligence is the due_diligence object attached to a candidate by the risk stage.
type RawDueDiligence struct {
	SuccessRate           *float64 `json:"success_rate,omitempty"`
	CompetitionDifficulty *float64 `json:"competition_difficulty,omitempty"`
	DetailedAnalysis      *string  `json:"detailed_analysis,omitempty"`
}

func (d *RawDueDiligence) UnmarshalJSON(data []byte) error {
	var aux struct {
		SuccessRate                *float64 `json:"success_rate"`
		SuccessRateCamel           *float64 `json:"successRate"`
		CompetitionDifficulty      *float64 `json:"competition_difficulty"`
		CompetitionDifficultyCamel *float64 `json:"competitionDifficulty"`
		DetailedAnalysis           *string  `json:"detailed_analysis"`
		DetailedAnalysisCamel      *string  `json:"detailedAnalysis"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = RawDueDiligence{
		SuccessRate:           firstNonNil(aux.SuccessRate, aux.SuccessRateCamel),
		CompetitionDifficulty: firstNonNil(aux.CompetitionDifficulty, aux.CompetitionDifficultyCamel),
		DetailedAnalysis:      firstNonNil(aux.DetailedAnalysis, aux.DetailedAnalysisCamel),
	}
	return nil
}

// RawStartup holds the descriptive fields of a candidate. They appear either at the
// top level of a result record or nested under "startup".
type RawStartup struct {
	ID       *CandidateID `json:"id,omitempty"`
	Name     *string      `json:"name,omitempty"`
	Summary  *string      `json:"summary,omitempty"`
	Sector   *string      `json:"sector,omitempty"`
	Stage    *string      `json:"stage,omitempty"`
	FitScore *float64     `json:"fitScore,omitempty"`
	Metrics  *RawMetrics  `json:"metrics,omitempty"`
}

// RawCandidateResult is one record of the results collection as sent by the service.
type RawCandidateResult struct {
	RawStartup

	Startup      *RawStartup      `json:"startup,omitempty"`
	DueDiligence *RawDueDiligence `json:"due_diligence,omitempty"`
}

func (r *RawCandidateResult) UnmarshalJSON(data []byte) error {
	var top RawStartup
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}
	var aux struct {
		FitScoreSnake *float64         `json:"fit_score"`
		Startup       *RawStartup      `json:"startup"`
		DueDiligence  *RawDueDiligence `json:"due_diligence"`
		DueDiligenceC *RawDueDiligence `json:"dueDiligence"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	top.FitScore = firstNonNil(top.FitScore, aux.FitScoreSnake)
	*r = RawCandidateResult{
		RawStartup:   top,
		Startup:      aux.Startup,
		DueDiligence: firstNonNil(aux.DueDiligence, aux.DueDiligenceC),
	}
	return nil
}

// Descriptor returns the record holding the descriptive fields: the nested startup
// object when present, the top level otherwise.
func (r *RawCandidateResult) Descriptor() *RawStartup {
	if r.Startup != nil {
		return r.Startup
	}
	return &r.RawStartup
}

func firstNonNil[T any](values ...*T) *T {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
