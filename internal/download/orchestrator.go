// Package download runs transfer jobs with bounded concurrency and per-job
// retries. Jobs are plain values; identity and lifecycle live in the
// Outcome produced for each job, never in mutable state on a running
// worker.
package download

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vidra-cli/vidra/internal/fetch"
)

// Job is one requested transfer of a single locator+format to a
// destination. Immutable once submitted.
type Job struct {
	ID          string
	Locator     string
	FormatID    string
	DestDir     string
	MaxAttempts int
}

// NewJob builds a Job with a fresh identity. MaxAttempts below one is
// raised to one.
func NewJob(locator, formatID, destDir string, maxAttempts int) Job {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return Job{
		ID:          uuid.NewString(),
		Locator:     locator,
		FormatID:    formatID,
		DestDir:     destDir,
		MaxAttempts: maxAttempts,
	}
}

// Outcome is the terminal result of a job after all retry attempts.
// Exactly one Outcome exists per submitted job.
type Outcome struct {
	Job       Job
	Succeeded bool
	LastError error
	Attempts  int
}

// Reporter receives progress and completion lines from running jobs. It
// must be safe for concurrent use; the progress aggregator satisfies this.
type Reporter interface {
	Update(source, percent, speed string)
	Complete(source string, succeeded bool)
}

// Orchestrator admits jobs into a bounded worker pool and collects their
// outcomes.
type Orchestrator struct {
	fetcher  fetch.Service
	reporter Reporter
}

// New returns an Orchestrator transferring via fetcher and reporting
// through reporter.
func New(fetcher fetch.Service, reporter Reporter) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, reporter: reporter}
}

// Run executes jobs with at most maxParallel running concurrently and
// returns one Outcome per job. Outcome order is completion order, not
// submission order. Once submitted, jobs run to success or retry
// exhaustion; Run only returns after every job has a terminal outcome.
func (o *Orchestrator) Run(ctx context.Context, jobs []Job, maxParallel int) []Outcome {
	if maxParallel < 1 {
		maxParallel = 1
	}

	sem := make(chan struct{}, maxParallel)
	results := make(chan Outcome, len(jobs))
	var wg sync.WaitGroup

	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results <- o.runJob(ctx, job)
		}(job)
	}

	wg.Wait()
	close(results)

	outcomes := make([]Outcome, 0, len(jobs))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// runJob attempts the transfer up to MaxAttempts times with no backoff,
// keeping only the last error. A retried job's progress stream restarts
// from zero under the same source name.
func (o *Orchestrator) runJob(ctx context.Context, job Job) Outcome {
	source := job.Locator
	forward := func(ev fetch.ProgressEvent) {
		if ev.Source != "" {
			source = ev.Source
		}
		if ev.Finished {
			o.reporter.Complete(source, true)
			return
		}
		o.reporter.Update(source, ev.Percent, ev.Speed)
	}

	var lastErr error
	for attempt := 1; attempt <= job.MaxAttempts; attempt++ {
		err := o.fetcher.Transfer(ctx, job.Locator, job.FormatID, job.DestDir, forward)
		if err == nil {
			logrus.Debugf("job %s succeeded on attempt %d", job.ID, attempt)
			return Outcome{Job: job, Succeeded: true, Attempts: attempt}
		}
		lastErr = err
		logrus.Debugf("job %s attempt %d/%d failed: %v", job.ID, attempt, job.MaxAttempts, err)
	}

	o.reporter.Complete(source, false)
	return Outcome{
		Job:       job,
		Succeeded: false,
		LastError: lastErr,
		Attempts:  job.MaxAttempts,
	}
}
