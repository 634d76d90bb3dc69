package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Revalidator is the work a SessionRevalidator runs on each tick.
type Revalidator interface {
	Revalidate(ctx context.Context) error
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// SessionRevalidator periodically checks that the saved Jelu session is still accepted.
type SessionRevalidator struct {
	target   Revalidator
	schedule string
	timeout  time.Duration
	log      logrus.FieldLogger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isChecking bool
	runs       int
}

// NewSessionRevalidator creates a revalidator for the given five-field cron schedule.
func NewSessionRevalidator(target Revalidator, schedule string, log logrus.FieldLogger) *SessionRevalidator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionRevalidator{
		target:   target,
		schedule: schedule,
		timeout:  time.Minute,
		log:      log.WithField("component", "session_revalidator"),
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the job. Cancelling ctx stops the scheduler.
func (s *SessionRevalidator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.RunNow)
	if err != nil {
		return fmt.Errorf("failed to schedule revalidation job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRun(s.schedule, time.Now())
	s.log.WithFields(logrus.Fields{
		"schedule": Describe(s.schedule),
		"next_run": next,
	}).Info("Session revalidation scheduled")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running check to finish and unschedules the job.
func (s *SessionRevalidator) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	entryID := s.entryID
	s.mu.Unlock()

	// The running job takes s.mu, so wait without holding it.
	done := s.cron.Stop()
	<-done.Done()

	s.cron.Remove(entryID)
	s.log.Info("Session revalidation stopped")
}

// IsRunning reports whether the job is scheduled.
func (s *SessionRevalidator) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Runs counts the checks that actually ran.
func (s *SessionRevalidator) Runs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs
}

// NextRunTime returns when the next check will run, or nil when stopped.
func (s *SessionRevalidator) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// RunNow performs one check synchronously. Overlapping calls are skipped.
func (s *SessionRevalidator) RunNow() {
	s.mu.Lock()
	if s.isChecking {
		s.mu.Unlock()
		s.log.Debug("Session revalidation skipped (already running)")
		return
	}
	s.isChecking = true
	s.runs++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isChecking = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.target.Revalidate(ctx); err != nil {
		s.log.WithError(err).Warn("Session revalidation failed")
		return
	}
	s.log.WithField("took", time.Since(start).Round(time.Millisecond)).Debug("Session still valid")
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRun returns the first activation of schedule after from.
func NextRun(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// Describe returns a human-readable description of a cron schedule.
func Describe(schedule string) string {
	switch schedule {
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}
