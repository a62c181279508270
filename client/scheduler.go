package client

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AlarmScheduler mirrors reminders locally: it arms one alarm per note
// and fires a browser notification when the alarm goes off, without
// involving the server.
//
// Per reminder the lifecycle is armed, fired, consumed. Firing shows
// the notification and immediately deletes both the alarm registration
// and the storage entry; nothing is left behind.
type AlarmScheduler struct {
	store    *Store
	alarms   *Alarms
	notifier Notifier
	router   *ClickRouter
	logger   *log.Logger
}

func NewAlarmScheduler(store *Store, notifier Notifier, router *ClickRouter, logger *log.Logger) *AlarmScheduler {
	if logger == nil {
		logger = log.Default()
	}
	s := &AlarmScheduler{
		store:    store,
		notifier: notifier,
		router:   router,
		logger:   logger,
	}
	s.alarms = NewAlarms(s.onAlarm)
	return s
}

// Arm schedules a local notification for a note. Any previous alarm
// for the same note id is cleared first, so at most one alarm exists
// per note. A due time that is not in the future is dropped silently;
// the server path stays authoritative for past-due reminders.
func (s *AlarmScheduler) Arm(noteID, noteText, url string, reminderAt time.Time) error {
	s.Disarm(noteID)

	if !reminderAt.After(time.Now()) {
		return nil
	}

	alarm := &LocalAlarm{
		NoteID:     noteID,
		Note:       noteText,
		URL:        url,
		ReminderAt: reminderAt,
	}
	if err := s.store.SaveAlarm(alarm); err != nil {
		return err
	}

	s.alarms.Create(reminderKey(noteID), reminderAt)
	return nil
}

// Disarm clears the alarm and storage entry for a note, if any.
func (s *AlarmScheduler) Disarm(noteID string) {
	s.alarms.Clear(reminderKey(noteID))
	if err := s.store.DeleteAlarm(noteID); err != nil {
		s.logger.Printf("failed to delete alarm entry for note %s: %v", noteID, err)
	}
}

// Restore re-arms alarms from stored entries, typically after a
// restart. Entries whose due time has passed are discarded.
func (s *AlarmScheduler) Restore() error {
	alarms, err := s.store.Alarms()
	if err != nil {
		return err
	}
	for _, alarm := range alarms {
		if !alarm.ReminderAt.After(time.Now()) {
			if err := s.store.DeleteAlarm(alarm.NoteID); err != nil {
				s.logger.Printf("failed to discard stale alarm for note %s: %v", alarm.NoteID, err)
			}
			continue
		}
		s.alarms.Create(reminderKey(alarm.NoteID), alarm.ReminderAt)
	}
	return nil
}

// Stop cancels all pending alarms without touching stored entries.
func (s *AlarmScheduler) Stop() {
	s.alarms.Stop()
}

func (s *AlarmScheduler) onAlarm(name string) {
	noteID := strings.TrimPrefix(name, reminderKeyPrefix)

	alarm, err := s.store.GetAlarm(noteID)
	if err != nil {
		// Entry already consumed or never stored; nothing to show.
		s.logger.Printf("alarm fired for note %s with no stored entry: %v", noteID, err)
		return
	}

	message := alarm.Note
	if message == "" {
		message = alarm.URL
	}

	notificationID := uuid.NewString()
	err = s.notifier.Notify(Notification{
		ID:      notificationID,
		Title:   "Instagram Note Reminder",
		Message: message,
		Button:  "View Post",
	})
	if err != nil {
		s.logger.Printf("failed to show notification for note %s: %v", noteID, err)
	} else {
		s.router.Register(notificationID, alarm.URL)
	}

	if err := s.store.DeleteAlarm(noteID); err != nil {
		s.logger.Printf("failed to consume alarm entry for note %s: %v", noteID, err)
	}
}
