package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	api "github.com/investai/radar/api/v1alpha1"
	"github.com/investai/radar/pkg/metrics"
	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

const DefaultInterval = 3 * time.Second

// StatusFetcher fetches the current status of a job.
type StatusFetcher interface {
	GetJob(ctx context.Context, jobID string) (*api.Job, error)
}

// Decision tells the poller whether to keep polling after a status was handled.
type Decision int

const (
	Continue Decision = iota
	Stop
)

// Handler receives each status successfully fetched for the job of the current session.
// A status fetched before a release can still be delivered while Start or Stop runs; the
// handler's ctx is cancelled before they return, so a handler serialized with its callers
// drops such a status by checking ctx.Err() under its own lock.
// It must not call back into the poller.
type Handler func(ctx context.Context, jobID string, job *api.Job) Decision

type Option func(*Poller)

// WithInterval sets the time between two polls.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithJitter adds a normally distributed jitter with the given standard deviation to every interval.
func WithJitter(stdev time.Duration) Option {
	return func(p *Poller) {
		if stdev > 0 {
			p.jitter = stdev
		}
	}
}

// Poller periodically fetches the status of one job at a time.
// Starting a new session releases the previous one, so at most one ticker is ever running.
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration
	jitter   time.Duration
	log      *zap.SugaredLogger

	mu         sync.Mutex
	session    *session
	generation uint64
}

type session struct {
	jobID      string
	generation uint64
	ticker     *jitterbug.Ticker
	cancel     context.CancelFunc
	once       sync.Once
	done       chan struct{}
}

func New(fetcher StatusFetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: DefaultInterval,
		log:      zap.S().Named("poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling jobID until the handler returns Stop, Stop is called, another
// session is started or ctx is cancelled. Any previous session is released first.
func (p *Poller) Start(ctx context.Context, jobID string, handler Handler) error {
	if jobID == "" {
		return errors.New("poller: empty job id")
	}
	if handler == nil {
		return errors.New("poller: nil handler")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		p.log.Debugw("superseding polling session", "job", p.session.jobID, "next", jobID)
		p.releaseLocked(p.session)
	}

	p.generation++
	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		jobID:      jobID,
		generation: p.generation,
		ticker:     jitterbug.New(p.interval, &jitterbug.Norm{Stdev: p.jitter, Mean: 0}),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	p.session = s

	go p.run(sctx, s, handler)

	p.log.Debugw("polling started", "job", jobID, "interval", p.interval)
	return nil
}

// Stop releases the current session, if any. It is safe to call any number of times.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil {
		p.releaseLocked(p.session)
	}
}

// ActiveJob returns the job owning the running ticker.
func (p *Poller) ActiveJob() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return "", false
	}
	return p.session.jobID, true
}

// Done returns a channel closed when the goroutine of the current session returns.
// The channel of a released session stays closed; with no session it is already closed.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return p.session.done
}

func (p *Poller) run(ctx context.Context, s *session, handler Handler) {
	defer close(s.done)
	defer p.release(s)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ticker.C:
		}

		job, err := p.fetcher.GetJob(ctx, s.jobID)
		if ctx.Err() != nil || !p.isCurrent(s) {
			metrics.IncreaseStatusPollsMetric(metrics.PollOutcomeDiscarded)
			p.log.Debugw("discarding status of released session", "job", s.jobID)
			return
		}
		if err != nil {
			metrics.IncreaseStatusPollsMetric(metrics.PollOutcomeError)
			p.log.Warnw("failed to fetch job status", "job", s.jobID, "error", err)
			continue
		}
		metrics.IncreaseStatusPollsMetric(metrics.PollOutcomeOK)

		if handler(ctx, s.jobID, job) == Stop {
			return
		}
	}
}

func (p *Poller) isCurrent(s *session) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session == s
}

func (p *Poller) release(s *session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked(s)
}

func (p *Poller) releaseLocked(s *session) {
	s.once.Do(func() {
		s.ticker.Stop()
		s.cancel()
		p.log.Debugw("polling stopped", "job", s.jobID)
	})
	if p.session == s {
		p.session = nil
	}
}
