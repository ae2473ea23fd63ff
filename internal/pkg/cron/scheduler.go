package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a periodic maintenance task. Jobs run on a fixed interval and also
// once at scheduler start, so a freshly deployed instance does not wait a full
// interval before its first purge.
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error
}

// Scheduler runs registered jobs until stopped. Jobs must be registered
// before Start is called.
type Scheduler struct {
	mu     sync.Mutex
	jobs   []Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers a job under the given name.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, Job{Name: name, Interval: interval, Fn: fn})
	slog.Info("Scheduled job registered", "name", name, "interval", interval)
}

// Start launches one goroutine per registered job.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			s.loop(job)
		}(job)
	}
	slog.Info("Scheduler started", "jobs", len(s.jobs))
}

// Stop cancels all jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) loop(job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.run(job)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.run(job)
		}
	}
}

func (s *Scheduler) run(job Job) {
	start := time.Now()
	if err := job.Fn(s.ctx); err != nil {
		slog.Error("Scheduled job failed", "name", job.Name, "error", err, "duration", time.Since(start))
		return
	}
	slog.Debug("Scheduled job completed", "name", job.Name, "duration", time.Since(start))
}

// RunOnce executes every registered job a single time with the given context.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if err := job.Fn(ctx); err != nil {
			slog.Error("Scheduled job failed", "name", job.Name, "error", err)
		}
	}
}
