// Package scheduler runs the server's periodic background work — the
// EverySecond AOL fsync, AOL segment rotation/archival, and ledger
// snapshotting — as gocron jobs on a shared scheduler instance, mirroring
// the lifecycle shape of the teacher's task manager (§5).
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/cc-kvstore/kvstored/pkg/log"
)

// Scheduler wraps a gocron.Scheduler with Start/Shutdown semantics that
// match the rest of the server's background-task lifecycle: a
// context.Context cancellation or explicit Shutdown stops all jobs, and
// Shutdown blocks until they have drained.
type Scheduler struct {
	gs gocron.Scheduler
}

// New creates a Scheduler with no jobs registered yet.
func New() (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{gs: gs}, nil
}

// Every registers fn to run once per interval, starting after the first
// interval elapses. Errors from fn are logged as warnings; the job
// continues to fire on schedule (the AOL fsync task relies on this).
func (s *Scheduler) Every(interval time.Duration, name string, fn func() error) error {
	_, err := s.gs.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := fn(); err != nil {
				log.Warnf("scheduler: job %q failed: %s", name, err.Error())
			}
		}),
	)
	return err
}

// Start begins running registered jobs in the background.
func (s *Scheduler) Start() {
	s.gs.Start()
}

// Shutdown stops the scheduler, waiting for any in-flight job run to
// finish (§5 cooperative shutdown).
func (s *Scheduler) Shutdown() error {
	return s.gs.Shutdown()
}

// RunUntil starts the scheduler and blocks until ctx is cancelled, then
// shuts down. Convenient for wiring into a single background goroutine
// started from cmd/kvstored's main.
func (s *Scheduler) RunUntil(ctx context.Context) {
	s.Start()
	<-ctx.Done()
	if err := s.Shutdown(); err != nil {
		log.Warnf("scheduler: shutdown error: %s", err.Error())
	}
}
