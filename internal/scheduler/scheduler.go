package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"academy-portal/internal/config"
	"academy-portal/internal/models"
	"academy-portal/internal/notify"
)

// CompetitionCloser deactivates competitions past their end date
type CompetitionCloser interface {
	CloseExpiredCompetitions(ctx context.Context) ([]models.Competition, error)
}

// PendingCounter counts applications awaiting review
type PendingCounter interface {
	CountPending(ctx context.Context) (int, error)
}

const taskTimeout = 2 * time.Minute

// Scheduler handles periodic tasks
type Scheduler struct {
	competitions CompetitionCloser
	applications PendingCounter
	notifier     notify.Notifier
	config       *config.SchedulerConfig
	stopChan     chan struct{}
}

// NewScheduler creates a new scheduler
func NewScheduler(
	competitions CompetitionCloser,
	applications PendingCounter,
	notifier notify.Notifier,
	cfg *config.SchedulerConfig,
) *Scheduler {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Scheduler{
		competitions: competitions,
		applications: applications,
		notifier:     notifier,
		config:       cfg,
		stopChan:     make(chan struct{}),
	}
}

// Start starts all scheduled tasks
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler",
		"competition_close_enabled", s.config.EnableCompetitionClose,
		"application_summary_enabled", s.config.EnableApplicationSummary)

	if s.config.EnableCompetitionClose {
		if err := s.startCronTask(s.config.CompetitionCloseCron, "competition_close", s.closeExpiredCompetitions); err != nil {
			slog.Error("Failed to start competition close task", "error", err)
		}
	}

	if s.config.EnableApplicationSummary {
		if err := s.startCronTask(s.config.ApplicationSummaryCron, "application_summary", s.sendApplicationSummary); err != nil {
			slog.Error("Failed to start application summary task", "error", err)
		}
	}

	slog.Info("Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	slog.Info("Stopping scheduler")
	close(s.stopChan)
}

// schedule describes when a cron task fires.
// Supported forms: "*/n * * * *", "m */n * * *", "m h * * *" and "m h * * d".
type schedule struct {
	every        time.Duration // minute interval, runs immediately on start
	hourInterval int
	minute       int
	hour         int
	weekday      *time.Weekday
}

func parseCron(cronExpr string) (schedule, error) {
	parts := strings.Fields(cronExpr)
	if len(parts) != 5 {
		return schedule{}, fmt.Errorf("invalid cron expression: %s (expected 5 fields)", cronExpr)
	}

	if strings.HasPrefix(parts[0], "*/") {
		interval, err := strconv.Atoi(parts[0][2:])
		if err != nil || interval < 1 || interval > 59 {
			return schedule{}, fmt.Errorf("invalid minute interval in cron: %s", parts[0])
		}
		return schedule{every: time.Duration(interval) * time.Minute}, nil
	}

	minute, err := strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return schedule{}, fmt.Errorf("invalid minute in cron: %s", parts[0])
	}

	if strings.HasPrefix(parts[1], "*/") {
		interval, err := strconv.Atoi(parts[1][2:])
		if err != nil || interval < 1 || interval > 23 {
			return schedule{}, fmt.Errorf("invalid hour interval in cron: %s", parts[1])
		}
		return schedule{hourInterval: interval, minute: minute}, nil
	}

	hour, err := strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return schedule{}, fmt.Errorf("invalid hour in cron: %s", parts[1])
	}

	sched := schedule{minute: minute, hour: hour}
	if parts[4] != "*" {
		weekday, err := strconv.Atoi(parts[4])
		if err != nil || weekday < 0 || weekday > 6 {
			return schedule{}, fmt.Errorf("invalid weekday in cron: %s (0-6, 0=Sunday)", parts[4])
		}
		wd := time.Weekday(weekday)
		sched.weekday = &wd
	}
	return sched, nil
}

// next returns the first run strictly after from. Interval schedules return from+every.
func (sc schedule) next(from time.Time) time.Time {
	switch {
	case sc.every > 0:
		return from.Add(sc.every)
	case sc.hourInterval > 0:
		return nextHourlyInterval(from, sc.hourInterval, sc.minute)
	case sc.weekday != nil:
		return nextWeekday(from, *sc.weekday, sc.hour, sc.minute)
	default:
		return nextDailyRun(from, sc.hour, sc.minute)
	}
}

func (s *Scheduler) startCronTask(cronExpr, taskName string, task func()) error {
	sched, err := parseCron(cronExpr)
	if err != nil {
		return err
	}
	go s.run(sched, taskName, task)
	return nil
}

func (s *Scheduler) run(sched schedule, taskName string, task func()) {
	if sched.every > 0 {
		slog.Info("Running interval task", "task", taskName)
		task()
	}

	for {
		now := time.Now()
		next := sched.next(now)
		slog.Debug("Next task scheduled", "task", taskName, "next_run", next.Format("2006-01-02 15:04:05"))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			slog.Info("Running scheduled task", "task", taskName)
			task()
		case <-s.stopChan:
			timer.Stop()
			return
		}
	}
}

func nextHourlyInterval(from time.Time, hourInterval, minute int) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), from.Hour(), minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.Add(time.Hour)
	}
	for next.Hour()%hourInterval != 0 {
		next = next.Add(time.Hour)
	}
	return next
}

func nextWeekday(from time.Time, weekday time.Weekday, hour, minute int) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())

	daysUntil := int(weekday - from.Weekday())
	if daysUntil < 0 {
		daysUntil += 7
	}
	next = next.AddDate(0, 0, daysUntil)

	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func nextDailyRun(from time.Time, hour, minute int) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) closeExpiredCompetitions() {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	closed, err := s.competitions.CloseExpiredCompetitions(ctx)
	if err != nil {
		slog.Error("Failed to close expired competitions", "error", err)
		return
	}
	slog.Info("Expired competitions closed", "count", len(closed))
}

func (s *Scheduler) sendApplicationSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	count, err := s.applications.CountPending(ctx)
	if err != nil {
		slog.Error("Failed to count pending applications", "error", err)
		return
	}
	if count == 0 {
		slog.Info("No pending applications, summary skipped")
		return
	}

	s.notifier.Notify(notify.PendingApplications(count))
	slog.Info("Application summary sent", "pending", count)
}
