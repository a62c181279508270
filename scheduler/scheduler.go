// Package scheduler runs the recurring due-reminder check and the
// per-reminder delivery pass.
package scheduler

import (
	"context"
	"log"
	"time"

	"main/model"
	"main/utils"

	"github.com/robfig/cron/v3"
)

// ReminderStore is the slice of the record store the scheduler needs.
type ReminderStore interface {
	DueReminders(ctx context.Context, now time.Time, maxAttempts int) ([]*model.Note, error)
	SaveReminderState(ctx context.Context, note *model.Note) error
}

// EmailResolver resolves a user's notification address. Lookup failure
// is non-fatal: delivery proceeds without an address.
type EmailResolver interface {
	LookupEmail(ctx context.Context, userID string) (string, error)
}

// Mailer delivers a rendered reminder e-mail. A nil Mailer means the
// transport is not configured and delivery short-circuits to a no-op.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// Scheduler scans for due reminders on a fixed cadence and attempts
// delivery once per reminder. Ticks never overlap: a slow scan is
// skipped rather than run concurrently, so two ticks can never read
// the same due set.
type Scheduler struct {
	store       ReminderStore
	resolver    EmailResolver
	mailer      Mailer
	cron        *cron.Cron
	spec        string
	maxAttempts int
	logger      *log.Logger
}

// New creates a scheduler. mailer may be nil when e-mail delivery is
// not configured.
func New(store ReminderStore, resolver EmailResolver, mailer Mailer, spec string, maxAttempts int, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		store:       store,
		resolver:    resolver,
		mailer:      mailer,
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:        spec,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Start registers the periodic check and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.CheckAndSendReminders(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Printf("reminder scheduler started (spec %q)", s.spec)
	return nil
}

// Stop stops the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// CheckAndSendReminders runs one tick: query the due set and attempt
// delivery for each record. A store error aborts this tick only; the
// next tick proceeds normally. A failure on one record never stops
// processing of the others.
func (s *Scheduler) CheckAndSendReminders(ctx context.Context) {
	utils.ReminderChecksTotal.Inc()

	due, err := s.store.DueReminders(ctx, time.Now(), s.maxAttempts)
	if err != nil {
		utils.TrackError("scheduler", "due_scan_failed")
		s.logger.Printf("error checking reminders: %v", err)
		return
	}

	for _, note := range due {
		if err := s.Deliver(ctx, note); err != nil {
			s.logger.Printf("error sending reminder for note %s: %v", note.ID, err)
		}
	}
}
