package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
		}
	}
	return j.err
}

func TestNewRejectsBadSpec(t *testing.T) {
	if _, err := New("every now and then", &countingJob{}); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestTick(t *testing.T) {
	job := &countingJob{err: errors.New("sheets quota")}
	s, err := New("*/15 * * * *", job)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.tick()
	s.tick()
	if got := job.runs.Load(); got != 2 {
		t.Fatalf("job ran %d times, want 2", got)
	}
}

func TestTickSkipsOverlap(t *testing.T) {
	job := &countingJob{block: make(chan struct{})}
	s, err := New("*/15 * * * *", job)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	done := make(chan struct{})
	go func() {
		s.tick()
		close(done)
	}()
	deadline := time.Now().Add(5 * time.Second)
	for job.runs.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first tick never started")
		}
		time.Sleep(time.Millisecond)
	}
	s.tick()
	close(job.block)
	<-done
	if got := job.runs.Load(); got != 1 {
		t.Fatalf("job ran %d times, want 1", got)
	}
}

func TestStartStop(t *testing.T) {
	s, err := New("*/15 * * * *", &countingJob{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
