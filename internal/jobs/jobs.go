// Package jobs runs the periodic maintenance tasks: sweeping expired cache
// entries and scanning for SLA breaches. Schedules come from configuration in
// cron syntax; the serve command owns the scheduler lifecycle.
package jobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is one periodic maintenance job.
type Task interface {
	// Name identifies the task in logs.
	Name() string

	// Spec is the cron schedule expression, descriptors included
	// ("@hourly", "@every 10m").
	Spec() string

	// Timeout bounds a single run.
	Timeout() time.Duration

	// Run executes the task once.
	Run(ctx context.Context) error
}

// Scheduler executes registered tasks on their cron schedules. Runs overlap
// only across tasks, never within one; cron serializes per-entry invocations.
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger
	wg     sync.WaitGroup
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: log.New(os.Stdout, "[jobs] ", log.LstdFlags),
	}
}

// Add schedules a task. A malformed spec fails here, before Start.
func (s *Scheduler) Add(task Task) error {
	_, err := s.cron.AddFunc(task.Spec(), func() {
		s.runTask(task)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", task.Name(), task.Spec(), err)
	}
	s.logger.Printf("scheduled %s at %s", task.Name(), task.Spec())
	return nil
}

// Start begins running the schedules in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedules and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	s.wg.Wait()
	<-ctx.Done()
	s.logger.Printf("stopped")
}

func (s *Scheduler) runTask(task Task) {
	s.wg.Add(1)
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), task.Timeout())
	defer cancel()

	start := time.Now()
	if err := task.Run(ctx); err != nil {
		s.logger.Printf("%s failed after %s: %v", task.Name(), time.Since(start).Round(time.Millisecond), err)
		return
	}
	s.logger.Printf("%s finished in %s", task.Name(), time.Since(start).Round(time.Millisecond))
}
