package scheduler

import (
	"context"
	"time"

	"main/model"
	"main/services"
	"main/utils"
)

// Deliver runs the delivery pass for a single reminder. It is called
// by the periodic tick for each due record, and by the manual trigger
// endpoint with the due-time predicate bypassed.
//
// The pass is one-shot: the reminder is marked triggered at the end
// regardless of delivery outcome, so the attempt ceiling only matters
// to a future policy that clears the flag. Attempt bookkeeping is
// persisted before any delivery work so a crash mid-pass cannot repeat
// the attempt.
func (s *Scheduler) Deliver(ctx context.Context, note *model.Note) error {
	err := s.deliver(ctx, note)
	if err != nil {
		utils.TrackReminderProcessed("failed")
		// Stop future selection once the ceiling is reached, even on a
		// failed pass.
		if note.Attempts >= s.maxAttempts && !note.Triggered {
			note.Triggered = true
			if saveErr := s.store.SaveReminderState(ctx, note); saveErr != nil {
				s.logger.Printf("failed to finalize reminder %s: %v", note.ID, saveErr)
			}
		}
		return err
	}

	if note.Sent {
		utils.TrackReminderProcessed("sent")
	} else {
		utils.TrackReminderProcessed("skipped")
	}
	return nil
}

func (s *Scheduler) deliver(ctx context.Context, note *model.Note) error {
	now := time.Now()
	note.Attempts++
	note.LastAttemptAt = &now
	if err := s.store.SaveReminderState(ctx, note); err != nil {
		return err
	}

	// Resolve the notification address, preferring the cached one.
	userEmail := note.NotifyEmail
	if userEmail == "" && note.EmailOptIn {
		email, err := s.resolver.LookupEmail(ctx, note.UserID)
		if err != nil {
			// Non-fatal: continue without an address.
			utils.TrackError("scheduler", "email_lookup_failed")
			s.logger.Printf("could not get user email for %s: %v", note.UserID, err)
		} else {
			userEmail = email
			note.NotifyEmail = email
			if err := s.store.SaveReminderState(ctx, note); err != nil {
				return err
			}
		}
	}

	if userEmail != "" && note.EmailOptIn {
		if err := s.sendEmail(note, userEmail); err != nil {
			// Delivery failure never blocks the triggered flag; it only
			// keeps Sent false.
			utils.TrackError("scheduler", "email_send_failed")
			s.logger.Printf("failed to send email to %s: %v", userEmail, err)
		} else {
			note.Sent = true
		}
	}

	note.Triggered = true
	return s.store.SaveReminderState(ctx, note)
}

// sendEmail renders and sends the reminder e-mail. When no mailer is
// configured the send is skipped silently.
func (s *Scheduler) sendEmail(note *model.Note, to string) error {
	if s.mailer == nil {
		return nil
	}
	subject, body, err := services.RenderReminderEmail(note)
	if err != nil {
		return err
	}
	return s.mailer.Send(to, subject, body)
}
