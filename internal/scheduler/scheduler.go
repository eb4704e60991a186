// Package scheduler runs the leaderboard export on a cron schedule.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ultrafantasi/internal/logger"
)

// Job is one unit of scheduled work.
type Job interface {
	Run(ctx context.Context) error
}

type Scheduler struct {
	c        *cron.Cron
	cronSpec string
	job      Job
	timeout  time.Duration

	mu      sync.Mutex
	running bool
}

// New schedules job on the standard 5-field cronSpec, evaluated in UTC.
func New(cronSpec string, job Job) (*Scheduler, error) {
	s := &Scheduler{
		c:        cron.New(cron.WithLocation(time.UTC)),
		cronSpec: cronSpec,
		job:      job,
		timeout:  5 * time.Minute,
	}
	if _, err := s.c.AddFunc(cronSpec, s.tick); err != nil {
		return nil, err
	}
	return s, nil
}

// tick runs the job unless the previous run is still going.
func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Warn("[SCHEDULER] previous export still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	logger.Info("[SCHEDULER] tick: running export")
	if err := s.job.Run(ctx); err != nil {
		logger.Error("[SCHEDULER] export failed: %v", err)
		return
	}
	logger.Info("[SCHEDULER] export done in %s", time.Since(start).Round(time.Millisecond))
}

func (s *Scheduler) Start() {
	logger.Info("[SCHEDULER] starting (cron=%s)", s.cronSpec)
	s.c.Start()
}

// Stop stops scheduling and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Warn("[SCHEDULER] stop timed out waiting for running export")
	}
}
