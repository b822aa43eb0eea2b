package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	radar = "radar"

	// Poller metrics
	statusPollsTotal = "status_polls_total"

	// Lifecycle metrics
	lifecycleTransitionsTotal = "lifecycle_transitions_total"
	pipelineActiveStage       = "pipeline_active_stage"

	// Report metrics
	reportDownloadsTotal = "report_downloads_total"

	// Labels
	pollOutcomeLabel         = "outcome"
	transitionFromLabel      = "from"
	transitionToLabel        = "to"
	jobLabel                 = "job"
	reportDownloadStateLabel = "state"
)

const (
	PollOutcomeOK        = "ok"
	PollOutcomeError     = "error"
	PollOutcomeDiscarded = "discarded"

	DownloadStateSuccess = "success"
	DownloadStateFailed  = "failed"
)

var statusPollsTotalLabels = []string{
	pollOutcomeLabel,
}

var lifecycleTransitionsTotalLabels = []string{
	transitionFromLabel,
	transitionToLabel,
}

var pipelineActiveStageLabels = []string{
	jobLabel,
}

var reportDownloadsTotalLabels = []string{
	reportDownloadStateLabel,
}

/**
* Metrics definition
**/
var statusPollsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: radar,
		Name:      statusPollsTotal,
		Help:      "number of job status polls by outcome",
	},
	statusPollsTotalLabels,
)

var lifecycleTransitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: radar,
		Name:      lifecycleTransitionsTotal,
		Help:      "number of job lifecycle transitions",
	},
	lifecycleTransitionsTotalLabels,
)

var pipelineActiveStageMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: radar,
		Name:      pipelineActiveStage,
		Help:      "index of the active pipeline stage of the watched job",
	},
	pipelineActiveStageLabels,
)

var reportDownloadsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: radar,
		Name:      reportDownloadsTotal,
		Help:      "number of report downloads by result",
	},
	reportDownloadsTotalLabels,
)

func IncreaseStatusPollsMetric(outcome string) {
	labels := prometheus.Labels{
		pollOutcomeLabel: outcome,
	}
	statusPollsTotalMetric.With(labels).Inc()
}

func IncreaseLifecycleTransitionsMetric(from, to string) {
	labels := prometheus.Labels{
		transitionFromLabel: from,
		transitionToLabel:   to,
	}
	lifecycleTransitionsTotalMetric.With(labels).Inc()
}

func UpdatePipelineActiveStageMetric(jobID string, stage int) {
	labels := prometheus.Labels{
		jobLabel: jobID,
	}
	pipelineActiveStageMetric.With(labels).Set(float64(stage))
}

func DeletePipelineActiveStageMetric(jobID string) {
	pipelineActiveStageMetric.Delete(prometheus.Labels{jobLabel: jobID})
}

func IncreaseReportDownloadsMetric(state string) {
	labels := prometheus.Labels{
		reportDownloadStateLabel: state,
	}
	reportDownloadsTotalMetric.With(labels).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(statusPollsTotalMetric)
	prometheus.MustRegister(lifecycleTransitionsTotalMetric)
	prometheus.MustRegister(pipelineActiveStageMetric)
	prometheus.MustRegister(reportDownloadsTotalMetric)
}
