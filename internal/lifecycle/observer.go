package lifecycle

import (
	api "github.com/investai/radar/api/v1alpha1"
	"github.com/investai/radar/internal/pipeline"
	"github.com/investai/radar/internal/results"
)

const defaultStatusMessage = "Processing..."

// Update is the progress view published after every handled status.
type Update struct {
	JobID    string
	Status   api.JobStatus
	Percent  *float64
	Message  string
	Progress pipeline.Progress
}

// Observer is notified of everything the user should see.
// Calls are serialized and made while the controller holds its lock, so an
// observer must not call back into the controller.
type Observer interface {
	OnTransition(from, to State)
	OnProgress(update Update)
	OnAlert(err error)
	OnReport(report results.Report)
}

// ObserverFuncs adapts optional functions to the Observer interface.
type ObserverFuncs struct {
	Transition func(from, to State)
	Progress   func(update Update)
	Alert      func(err error)
	Report     func(report results.Report)
}

func (o ObserverFuncs) OnTransition(from, to State) {
	if o.Transition != nil {
		o.Transition(from, to)
	}
}

func (o ObserverFuncs) OnProgress(update Update) {
	if o.Progress != nil {
		o.Progress(update)
	}
}

func (o ObserverFuncs) OnAlert(err error) {
	if o.Alert != nil {
		o.Alert(err)
	}
}

func (o ObserverFuncs) OnReport(report results.Report) {
	if o.Report != nil {
		o.Report(report)
	}
}
