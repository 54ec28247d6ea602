package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/wordbook/pkg/models"
)

// Default notification window
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier delivers a reminder about due words
type Notifier interface {
	NotifyDue(ctx context.Context, stats models.Statistics) error
}

// StatsSource provides the counts a reminder is based on
type StatsSource interface {
	Statistics(ctx context.Context) models.Statistics
}

// Config controls how often and when reminders go out
type Config struct {
	Interval  time.Duration
	StartHour int // first hour of the day (local time) reminders may be sent
	EndHour   int // last hour of the day, inclusive
}

// Scheduler manages the periodic due-review check
type Scheduler struct {
	scheduler *gocron.Scheduler
	source    StatsSource
	notifiers []Notifier
	config    Config
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a new scheduler instance
func New(source StatsSource, config Config, logger *slog.Logger, notifiers ...Notifier) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		source:    source,
		notifiers: notifiers,
		config:    config,
		logger:    logger.With("component", "scheduler"),
		now:       time.Now,
	}
}

// Start begins running the reminder job in the background until ctx is done or Stop is called
func (s *Scheduler) Start(ctx context.Context) error {
	if s.config.Interval <= 0 {
		return fmt.Errorf("invalid reminder interval %s", s.config.Interval)
	}

	_, err := s.scheduler.Every(s.config.Interval).Do(func() {
		if _, err := s.check(ctx, true); err != nil {
			s.logger.Error("reminder check failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("reminder scheduler started",
		"interval", s.config.Interval,
		"start_hour", s.config.StartHour,
		"end_hour", s.config.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunManualCheck checks for due words right away, ignoring the notification window.
// It reports whether a reminder was sent.
func (s *Scheduler) RunManualCheck(ctx context.Context) (bool, error) {
	return s.check(ctx, false)
}

// check sends a reminder when words are due
func (s *Scheduler) check(ctx context.Context, respectWindow bool) (bool, error) {
	if respectWindow && !s.inWindow(s.now()) {
		s.logger.Debug("outside notification hours, skipping reminders",
			"hour", s.now().Hour(),
			"start_hour", s.config.StartHour,
			"end_hour", s.config.EndHour)
		return false, nil
	}

	stats := s.source.Statistics(ctx)
	if stats.Due == 0 {
		s.logger.Debug("no words due")
		return false, nil
	}

	var errs []error
	for _, n := range s.notifiers {
		if err := n.NotifyDue(ctx, stats); err != nil {
			errs = append(errs, err)
		}
	}
	return len(errs) < len(s.notifiers), errors.Join(errs...)
}

func (s *Scheduler) inWindow(t time.Time) bool {
	h := t.Hour()
	return h >= s.config.StartHour && h <= s.config.EndHour
}

// LogNotifier writes reminders to the log
type LogNotifier struct {
	Logger *slog.Logger
}

// NotifyDue implements Notifier
func (l LogNotifier) NotifyDue(_ context.Context, stats models.Statistics) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("words due for review",
		"due", stats.Due,
		"total", stats.Total,
		"mastered", stats.Mastered)
	return nil
}
