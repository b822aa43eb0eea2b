package pipeline

import (
	"fmt"

	api "github.com/investai/radar/api/v1alpha1"
)

// Stage is one of the five displayable phases of the screening pipeline.
type Stage int

const (
	StageExtraction Stage = iota
	StageThesisFiltering
	StageTechValidation
	StageMarketAnalysis
	StageRiskAssessment
)

// StageCount is the number of pipeline stages.
const StageCount = 5

// defaultDDPercent is assumed when a dd_running job does not report a percentage.
const defaultDDPercent = 60

var stageInfo = [StageCount]struct {
	name string
	task string
}{
	{name: "extraction", task: "Parsing pitch decks"},
	{name: "thesis-filtering", task: "Filtering deals"},
	{name: "technical-validation", task: "Validating tech claims"},
	{name: "market-analysis", task: "Market analysis"},
	{name: "risk-assessment", task: "Risk assessment"},
}

func (s Stage) String() string {
	if s < 0 || int(s) >= StageCount {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageInfo[s].name
}

// Task is the human readable description of the work done in the stage.
func (s Stage) Task() string {
	if s < 0 || int(s) >= StageCount {
		return ""
	}
	return stageInfo[s].task
}

// Stages returns all the stages in pipeline order.
func Stages() []Stage {
	return []Stage{StageExtraction, StageThesisFiltering, StageTechValidation, StageMarketAnalysis, StageRiskAssessment}
}

// Progress is the pipeline representation of a job status.
// Completed holds the number of completed stages: stages 0..Completed-1 are done.
type Progress struct {
	Active    Stage `json:"active"`
	Completed int   `json:"completed"`
}

// CompletedStages lists the completed stage indexes in order.
func (p Progress) CompletedStages() []Stage {
	stages := make([]Stage, 0, p.Completed)
	for i := 0; i < p.Completed && i < StageCount; i++ {
		stages = append(stages, Stage(i))
	}
	return stages
}

// IsCompleted reports whether stage s is completed.
func (p Progress) IsCompleted(s Stage) bool {
	return s >= 0 && int(s) < p.Completed
}

// IsActive reports whether stage s is the active one.
// Once every stage is completed no stage is active.
func (p Progress) IsActive(s Stage) bool {
	return !p.Done() && p.Active == s
}

// Done reports whether all the stages are completed.
func (p Progress) Done() bool {
	return p.Completed == StageCount
}

// Validate checks the prefix invariant of the stage set.
func (p Progress) Validate() error {
	if p.Active < 0 || int(p.Active) >= StageCount {
		return fmt.Errorf("active stage %d out of range", p.Active)
	}
	if p.Completed < 0 || p.Completed > StageCount {
		return fmt.Errorf("completed stage count %d out of range", p.Completed)
	}
	if p.Completed > 0 && int(p.Active) < p.Completed-1 {
		return fmt.Errorf("active stage %s is behind completed stage %s", p.Active, Stage(p.Completed-1))
	}
	return nil
}

// Map translates a job status and its optional percentage into pipeline progress.
// The second return value is false when the status must not change the displayed
// progress, which is the case for failed jobs.
//
// dd_running covers three stages: the percentage is bucketed into 60-69, 70-79 and the rest.
// This is a display heuristic, not an exact subdivision of the remote work.
func Map(status api.JobStatus, percent *float64) (Progress, bool) {
	switch status {
	case api.JobStatusParsing:
		return Progress{Active: StageExtraction, Completed: 0}, true
	case api.JobStatusFiltering:
		return Progress{Active: StageThesisFiltering, Completed: 1}, true
	case api.JobStatusDDRunning:
		p := float64(defaultDDPercent)
		if percent != nil {
			p = *percent
		}
		switch {
		case p >= 60 && p < 70:
			return Progress{Active: StageTechValidation, Completed: 2}, true
		case p >= 70 && p < 80:
			return Progress{Active: StageMarketAnalysis, Completed: 3}, true
		default:
			return Progress{Active: StageRiskAssessment, Completed: 4}, true
		}
	case api.JobStatusCompleted:
		return Progress{Active: StageRiskAssessment, Completed: StageCount}, true
	case api.JobStatusFailed:
		return Progress{}, false
	default:
		return Progress{Active: StageExtraction, Completed: 0}, true
	}
}
