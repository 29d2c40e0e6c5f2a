package interest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/skillmatch/internal/jobs"
)

// jobType labels this job in the centralized job metrics.
const jobType = jobs.JobTypeHobbyUniverseRefresh

// RefreshJobConfig configures the hobby universe refresh job.
type RefreshJobConfig struct {
	// Interval is the duration between refresh checks.
	Interval time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// Metrics for refresh tracking.
	Metrics *Metrics
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
	// Timeout for each refresh.
	Timeout time.Duration
}

// JobMetrics provides centralized background job metrics tracking.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// DefaultRefreshInterval is the default interval between refresh checks.
const DefaultRefreshInterval = time.Minute

// DefaultRefreshTimeout is the default timeout for a single refresh.
const DefaultRefreshTimeout = 10 * time.Second

// RefreshJob periodically recomputes the hobby universe when it is stale,
// keeping the recount off the recommendation request path.
type RefreshJob struct {
	config   RefreshJobConfig
	universe *Universe

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefreshJob creates a new hobby universe refresh job.
func NewRefreshJob(config RefreshJobConfig, universe *Universe) *RefreshJob {
	if config.Interval == 0 {
		config.Interval = DefaultRefreshInterval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRefreshTimeout
	}

	return &RefreshJob{
		config:   config,
		universe: universe,
	}
}

// Start begins the periodic refresh job.
// Returns immediately; the job runs in a background goroutine.
func (j *RefreshJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the refresh job to stop and waits for it to finish.
func (j *RefreshJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (j *RefreshJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *RefreshJob) run(ctx context.Context) {
	defer close(j.doneCh)

	// Warm the cache so the first request doesn't pay for the count.
	j.refreshIfNeeded(ctx)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("hobby universe refresh job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("hobby universe refresh job stopping due to stop signal")
			return
		case <-ticker.C:
			j.refreshIfNeeded(ctx)
		}
	}
}

// refreshIfNeeded recomputes the universe when it is empty, dirty or expired.
func (j *RefreshJob) refreshIfNeeded(parentCtx context.Context) {
	if !j.universe.NeedsRefresh() {
		return
	}

	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	startTime := time.Now()
	size, err := j.universe.Refresh(ctx)
	duration := time.Since(startTime).Seconds()

	if j.config.Metrics != nil {
		j.config.Metrics.ObserveRefreshDuration(duration)
	}
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.ObserveJobDuration(jobType, duration)
	}

	if err != nil {
		errorType := "refresh_error"
		if ctx.Err() != nil {
			errorType = "timeout"
		}
		j.config.Logger.Error("hobby universe refresh failed",
			"error", err,
			"timeout", j.config.Timeout)
		if j.config.Metrics != nil {
			j.config.Metrics.IncRefreshErrors()
		}
		if j.config.JobMetrics != nil {
			j.config.JobMetrics.IncJobErrors(jobType, errorType)
			j.config.JobMetrics.IncJobsTotal(jobType, jobs.StatusFailure)
		}
		return
	}

	if j.config.Metrics != nil {
		j.config.Metrics.IncRefreshTotal()
		j.config.Metrics.SetLastRefreshTimestamp(float64(time.Now().Unix()))
		j.config.Metrics.SetUniverseSize(float64(size))
	}
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.IncJobsTotal(jobType, jobs.StatusSuccess)
	}

	j.config.Logger.Info("hobby universe refreshed",
		"duration_seconds", duration,
		"size", size)
}

// RefreshNow immediately refreshes the universe if needed without waiting
// for the ticker. Useful for testing or forcing an update.
func (j *RefreshJob) RefreshNow() {
	j.refreshIfNeeded(context.Background())
}
