package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Task is one run of a periodic job.
type Task func(ctx context.Context) error

// PeriodicConfig configures a Periodic job.
type PeriodicConfig struct {
	// JobType labels runs in Metrics and logs.
	JobType string
	// Interval between runs. Required.
	Interval time.Duration
	// Timeout bounds a single run. Zero means Interval.
	Timeout time.Duration
	Logger  *slog.Logger
	// Metrics may be nil.
	Metrics *Metrics
}

// Periodic runs a Task on a ticker until stopped. Runs never overlap.
type Periodic struct {
	config PeriodicConfig
	task   Task

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPeriodic creates a stopped periodic job.
func NewPeriodic(config PeriodicConfig, task Task) *Periodic {
	if config.Timeout <= 0 {
		config.Timeout = config.Interval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Periodic{config: config, task: task}
}

// Start begins the ticker loop in a new goroutine. Calling Start on a
// running job is a no-op.
func (p *Periodic) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || p.config.Interval <= 0 {
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	go p.loop(p.stopCh, p.doneCh)

	p.config.Logger.Info("background job started",
		"job_type", p.config.JobType,
		"interval", p.config.Interval)
}

// Stop signals the loop to exit and waits for an in-flight run to finish.
func (p *Periodic) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	<-done
	p.config.Logger.Info("background job stopped", "job_type", p.config.JobType)
}

// IsRunning reports whether the loop is active.
func (p *Periodic) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Periodic) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = p.RunOnce(context.Background())
		}
	}
}

// RunOnce executes the task immediately and records the outcome.
func (p *Periodic) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, p.config.Timeout)
	defer cancel()

	start := time.Now()
	err := p.task(ctx)
	duration := time.Since(start).Seconds()

	if p.config.Metrics != nil {
		p.config.Metrics.ObserveJobDuration(p.config.JobType, duration)
	}
	if err != nil {
		errorType := "task_error"
		if errors.Is(err, context.DeadlineExceeded) {
			errorType = "timeout"
		}
		p.config.Logger.Error("background job failed",
			"job_type", p.config.JobType,
			"error", err)
		if p.config.Metrics != nil {
			p.config.Metrics.IncJobErrors(p.config.JobType, errorType)
			p.config.Metrics.IncJobsTotal(p.config.JobType, StatusFailure)
		}
		return err
	}

	if p.config.Metrics != nil {
		p.config.Metrics.IncJobsTotal(p.config.JobType, StatusSuccess)
	}
	p.config.Logger.Debug("background job completed",
		"job_type", p.config.JobType,
		"duration_seconds", duration)
	return nil
}
