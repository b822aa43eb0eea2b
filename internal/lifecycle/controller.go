package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	api "github.com/investai/radar/api/v1alpha1"
	"github.com/investai/radar/internal/client"
	"github.com/investai/radar/internal/pipeline"
	"github.com/investai/radar/internal/poller"
	"github.com/investai/radar/internal/results"
	"github.com/investai/radar/pkg/metrics"
	"go.uber.org/zap"
)

const DefaultGraceDelay = 2 * time.Second

// JobsAPI is the part of the screening service used by the controller.
type JobsAPI interface {
	poller.StatusFetcher
	CreateJob(ctx context.Context, req client.CreateJobRequest) (*api.CreateJobResponse, error)
	GetResults(ctx context.Context, jobID string) (*api.ResultsResponse, error)
}

// Submission is what the user provides to start a job.
type Submission struct {
	Files    []client.Upload
	SheetURL string
	Filters  api.Filters
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	State      State
	JobID      string
	Submission *Submission
	Progress   pipeline.Progress
	Message    string
	Report     *results.Report
	Err        error
}

type Option func(*Controller)

// WithGraceDelay sets the pause between the completed status and the results view.
func WithGraceDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.graceDelay = d
		}
	}
}

// WithPollerOptions configures the status poller.
func WithPollerOptions(opts ...poller.Option) Option {
	return func(c *Controller) {
		c.pollerOpts = append(c.pollerOpts, opts...)
	}
}

// Controller drives a job from submission to results.
// All state changes happen under mu; generation is bumped every time the
// watched job changes so that callbacks from older sessions are dropped.
type Controller struct {
	api        JobsAPI
	observer   Observer
	poller     *poller.Poller
	pollerOpts []poller.Option
	graceDelay time.Duration
	log        *zap.SugaredLogger

	mu         sync.Mutex
	state      State
	submitting bool
	generation uint64
	ctx        context.Context
	jobID      string
	submission *Submission
	progress   pipeline.Progress
	message    string
	report     *results.Report
	failure    error
	grace      *time.Timer
	done       chan struct{}
	settled    bool
}

func NewController(jobsAPI JobsAPI, observer Observer, opts ...Option) *Controller {
	if observer == nil {
		observer = ObserverFuncs{}
	}
	c := &Controller{
		api:        jobsAPI,
		observer:   observer,
		graceDelay: DefaultGraceDelay,
		log:        zap.S().Named("lifecycle"),
		state:      StateUploading,
		ctx:        context.Background(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.poller = poller.New(jobsAPI, c.pollerOpts...)
	return c
}

// Submit creates the job and starts watching it. On failure the controller stays
// in uploading and the returned error is also published as an alert.
func (c *Controller) Submit(ctx context.Context, sub Submission) (string, error) {
	c.mu.Lock()
	if c.state != StateUploading {
		err := NewErrInvalidTransition(c.state, StateProcessing)
		c.mu.Unlock()
		return "", err
	}
	if c.submitting {
		c.mu.Unlock()
		return "", errors.New("a submission is already in progress")
	}
	c.submitting = true
	c.submission = &sub
	gen := c.generation
	c.mu.Unlock()

	resp, err := c.api.CreateJob(ctx, client.CreateJobRequest(sub))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if gen != c.generation {
		// closed while the request was in flight
		return "", context.Canceled
	}
	if err != nil {
		alert := NewErrJobCreation(err)
		c.log.Errorw("job creation failed", "error", err)
		c.observer.OnAlert(alert)
		return "", alert
	}

	c.log.Infow("job created", "job", resp.JobID, "status", resp.Status)
	if err := c.beginLocked(ctx, resp.JobID); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// Watch attaches the controller to a job created earlier.
func (c *Controller) Watch(ctx context.Context, jobID string) error {
	if jobID == "" {
		return errors.New("empty job id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return errors.New("a submission is already in progress")
	}
	return c.beginLocked(ctx, jobID)
}

// Reset returns to uploading from results or failed, clearing the job and submission.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.IsSettled() {
		return NewErrInvalidTransition(c.state, StateUploading)
	}
	c.releaseLocked()
	if c.jobID != "" {
		metrics.DeletePipelineActiveStageMetric(c.jobID)
	}
	c.jobID = ""
	c.submission = nil
	c.progress = pipeline.Progress{}
	c.message = ""
	c.report = nil
	c.failure = nil
	c.done = make(chan struct{})
	c.settled = false
	return c.transitionLocked(StateUploading)
}

// Close stops polling and any pending results fetch without changing state.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
}

// Done is closed once the controller reaches results or failed.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		State:    c.state,
		JobID:    c.jobID,
		Progress: c.progress,
		Message:  c.message,
		Err:      c.failure,
	}
	if c.submission != nil {
		sub := *c.submission
		s.Submission = &sub
	}
	if c.report != nil {
		report := *c.report
		report.Candidates = append([]results.Candidate(nil), c.report.Candidates...)
		s.Report = &report
	}
	return s
}

func (c *Controller) beginLocked(ctx context.Context, jobID string) error {
	if err := c.transitionLocked(StateProcessing); err != nil {
		return err
	}
	c.generation++
	c.ctx = ctx
	c.jobID = jobID
	c.progress = pipeline.Progress{}
	c.message = defaultStatusMessage

	if err := c.poller.Start(ctx, jobID, c.handler(c.generation)); err != nil {
		return err
	}
	return nil
}

// handler processes the statuses of one session.
func (c *Controller) handler(gen uint64) poller.Handler {
	return func(ctx context.Context, jobID string, job *api.Job) poller.Decision {
		c.mu.Lock()
		defer c.mu.Unlock()

		// ctx is cancelled by the poller before a superseding Start or a Stop returns,
		// and both happen under mu, so this check cannot race with them.
		if ctx.Err() != nil || gen != c.generation || jobID != c.jobID || c.state != StateProcessing || c.grace != nil {
			c.log.Debugw("ignoring status of superseded job", "job", jobID)
			return poller.Stop
		}

		if job.Status == api.JobStatusFailed {
			c.failure = NewErrJobFailed(jobID, job.ErrorLog)
			c.log.Errorw("job failed", "job", jobID, "error", c.failure)
			if err := c.transitionLocked(StateFailed); err != nil {
				c.log.Errorw("unexpected transition", "error", err)
			}
			c.observer.OnAlert(c.failure)
			c.settleLocked()
			return poller.Stop
		}

		if progress, ok := pipeline.Map(job.Status, job.Percent()); ok {
			c.progress = progress
			metrics.UpdatePipelineActiveStageMetric(jobID, int(progress.Active))
		}
		c.message = job.StatusMessage()
		if c.message == "" {
			c.message = defaultStatusMessage
		}
		c.observer.OnProgress(Update{
			JobID:    jobID,
			Status:   job.Status,
			Percent:  job.Percent(),
			Message:  c.message,
			Progress: c.progress,
		})

		if !job.Status.IsTerminal() {
			return poller.Continue
		}

		c.log.Infow("job completed", "job", jobID, "grace", c.graceDelay)
		c.grace = time.AfterFunc(c.graceDelay, func() {
			c.showResults(gen, jobID)
		})
		return poller.Stop
	}
}

// showResults moves to results and fetches them. The fetch runs without the lock held.
func (c *Controller) showResults(gen uint64, jobID string) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateProcessing {
		c.mu.Unlock()
		return
	}
	c.grace = nil
	if err := c.transitionLocked(StateResults); err != nil {
		c.mu.Unlock()
		c.log.Errorw("unexpected transition", "error", err)
		return
	}
	ctx := c.ctx
	c.mu.Unlock()

	resp, err := c.api.GetResults(ctx, jobID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}

	var report results.Report
	if err != nil {
		alert := NewErrResultsFetch(jobID, err)
		c.log.Errorw("results fetch failed", "job", jobID, "error", err)
		report = results.Report{Candidates: []results.Candidate{}, Err: alert}
		c.failure = alert
		c.observer.OnAlert(alert)
	} else {
		report = results.Summarize(resp.Startups)
		c.log.Infow("results ready", "job", jobID, "candidates", len(report.Candidates))
	}
	report.JobID = jobID
	c.report = &report
	c.observer.OnReport(report)
	c.settleLocked()
}

// releaseLocked stops the poller and the grace timer and drops callbacks of the current session.
func (c *Controller) releaseLocked() {
	c.poller.Stop()
	if c.grace != nil {
		c.grace.Stop()
		c.grace = nil
	}
	c.generation++
}

func (c *Controller) transitionLocked(next State) error {
	if !c.state.CanTransitionTo(next) {
		return NewErrInvalidTransition(c.state, next)
	}
	prev := c.state
	c.state = next
	metrics.IncreaseLifecycleTransitionsMetric(prev.String(), next.String())
	c.log.Debugw("state changed", "from", prev, "to", next, "job", c.jobID)
	c.observer.OnTransition(prev, next)
	return nil
}

func (c *Controller) settleLocked() {
	if !c.settled {
		c.settled = true
		close(c.done)
	}
}
