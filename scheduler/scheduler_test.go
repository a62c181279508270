package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"main/model"
)

// fakeStore keeps notes in memory and applies the same due-set
// predicate as the Mongo repository.
type fakeStore struct {
	notes      map[string]*model.Note
	saves      int
	failSave   bool
	failSaveID string
	failScan   bool
}

func newFakeStore(notes ...*model.Note) *fakeStore {
	s := &fakeStore{notes: make(map[string]*model.Note)}
	for _, n := range notes {
		copied := *n
		s.notes[n.ID] = &copied
	}
	return s
}

func (s *fakeStore) DueReminders(ctx context.Context, now time.Time, maxAttempts int) ([]*model.Note, error) {
	if s.failScan {
		return nil, errors.New("store unavailable")
	}
	var due []*model.Note
	for _, n := range s.notes {
		if n.IsReminderSet && !n.Triggered && n.ReminderAt != nil &&
			!n.ReminderAt.After(now) && n.Attempts < maxAttempts {
			copied := *n
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (s *fakeStore) SaveReminderState(ctx context.Context, note *model.Note) error {
	if s.failSave || note.ID == s.failSaveID {
		return errors.New("store unavailable")
	}
	s.saves++
	stored, ok := s.notes[note.ID]
	if !ok {
		return errors.New("note not found")
	}
	stored.Attempts = note.Attempts
	stored.LastAttemptAt = note.LastAttemptAt
	stored.Triggered = note.Triggered
	stored.Sent = note.Sent
	stored.NotifyEmail = note.NotifyEmail
	return nil
}

type fakeResolver struct {
	email string
	err   error
	calls int
}

func (r *fakeResolver) LookupEmail(ctx context.Context, userID string) (string, error) {
	r.calls++
	return r.email, r.err
}

type sentMail struct {
	to      string
	subject string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

func timePtr(t time.Time) *time.Time { return &t }

func dueNote(id string) *model.Note {
	return &model.Note{
		ID:            id,
		UserID:        "user-1",
		Note:          "check this post",
		URL:           "https://www.instagram.com/p/abc/",
		IsReminderSet: true,
		ReminderAt:    timePtr(time.Now().Add(-time.Minute)),
		CreatedAt:     time.Now().Add(-time.Hour),
	}
}

func newTestScheduler(store ReminderStore, resolver EmailResolver, mailer Mailer) *Scheduler {
	return New(store, resolver, mailer, "* * * * *", 3, nil)
}

func TestDueSetSelection(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		note     *model.Note
		expected bool
	}{
		{
			name:     "due reminder is selected",
			note:     dueNote("n1"),
			expected: true,
		},
		{
			name: "reminder far in the past is still selected",
			note: func() *model.Note {
				n := dueNote("n2")
				n.ReminderAt = timePtr(now.Add(-time.Hour))
				return n
			}(),
			expected: true,
		},
		{
			name: "future reminder is not selected",
			note: func() *model.Note {
				n := dueNote("n3")
				n.ReminderAt = timePtr(now.Add(time.Hour))
				return n
			}(),
			expected: false,
		},
		{
			name: "disabled reminder is not selected",
			note: func() *model.Note {
				n := dueNote("n4")
				n.IsReminderSet = false
				return n
			}(),
			expected: false,
		},
		{
			name: "triggered reminder is not selected",
			note: func() *model.Note {
				n := dueNote("n5")
				n.Triggered = true
				return n
			}(),
			expected: false,
		},
		{
			name: "reminder at attempt ceiling is not selected",
			note: func() *model.Note {
				n := dueNote("n6")
				n.Attempts = 3
				return n
			}(),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(tt.note)
			due, err := store.DueReminders(context.Background(), now, 3)
			if err != nil {
				t.Fatal("due scan failed", err)
			}
			if got := len(due) == 1; got != tt.expected {
				t.Errorf("selected=%v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTickMarksTriggeredAfterOneAttempt(t *testing.T) {
	store := newFakeStore(dueNote("n1"))
	s := newTestScheduler(store, &fakeResolver{}, &fakeMailer{})

	s.CheckAndSendReminders(context.Background())

	got := store.notes["n1"]
	if got.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", got.Attempts)
	}
	if !got.Triggered {
		t.Error("triggered = false, want true")
	}
	if got.LastAttemptAt == nil {
		t.Error("last attempt time not recorded")
	}

	// Next tick must not select the record again.
	due, err := store.DueReminders(context.Background(), time.Now(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Errorf("record re-selected after processing, due set size %d", len(due))
	}
}

func TestNoAutomaticRetryAfterFirstTick(t *testing.T) {
	note := dueNote("n1")
	note.EmailOptIn = true
	note.NotifyEmail = "user@example.com"
	store := newFakeStore(note)
	mailer := &fakeMailer{err: errors.New("smtp unreachable")}
	s := newTestScheduler(store, &fakeResolver{}, mailer)

	s.CheckAndSendReminders(context.Background())
	s.CheckAndSendReminders(context.Background())
	s.CheckAndSendReminders(context.Background())

	got := store.notes["n1"]
	if got.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no automatic retry)", got.Attempts)
	}
	if !got.Triggered {
		t.Error("triggered = false after failed delivery, want true")
	}
	if got.Sent {
		t.Error("sent = true after failed delivery, want false")
	}
}

func TestEmailSentWhenOptedIn(t *testing.T) {
	note := dueNote("n1")
	note.EmailOptIn = true
	store := newFakeStore(note)
	resolver := &fakeResolver{email: "user@example.com"}
	mailer := &fakeMailer{}
	s := newTestScheduler(store, resolver, mailer)

	s.CheckAndSendReminders(context.Background())

	got := store.notes["n1"]
	if !got.Sent {
		t.Error("sent = false, want true")
	}
	if !got.Triggered {
		t.Error("triggered = false, want true")
	}
	if got.NotifyEmail != "user@example.com" {
		t.Errorf("resolved email not cached, got %q", got.NotifyEmail)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	if mailer.sent[0].to != "user@example.com" {
		t.Errorf("sent to %q", mailer.sent[0].to)
	}
}

func TestCachedEmailSkipsLookup(t *testing.T) {
	note := dueNote("n1")
	note.EmailOptIn = true
	note.NotifyEmail = "cached@example.com"
	store := newFakeStore(note)
	resolver := &fakeResolver{email: "fresh@example.com"}
	mailer := &fakeMailer{}
	s := newTestScheduler(store, resolver, mailer)

	s.CheckAndSendReminders(context.Background())

	if resolver.calls != 0 {
		t.Errorf("lookup called %d times with cached address, want 0", resolver.calls)
	}
	if mailer.sent[0].to != "cached@example.com" {
		t.Errorf("sent to %q, want cached address", mailer.sent[0].to)
	}
}

func TestLookupFailureIsNonFatal(t *testing.T) {
	note := dueNote("n1")
	note.EmailOptIn = true
	store := newFakeStore(note)
	resolver := &fakeResolver{err: errors.New("unknown user")}
	mailer := &fakeMailer{}
	s := newTestScheduler(store, resolver, mailer)

	s.CheckAndSendReminders(context.Background())

	got := store.notes["n1"]
	if !got.Triggered {
		t.Error("triggered = false after lookup failure, want true")
	}
	if got.Sent {
		t.Error("sent = true with no address, want false")
	}
	if got.NotifyEmail != "" {
		t.Errorf("notify email = %q, want empty", got.NotifyEmail)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("sent %d emails without an address", len(mailer.sent))
	}
}

func TestBrowserOnlyPath(t *testing.T) {
	note := dueNote("n1")
	note.EmailOptIn = false
	note.NotifyEmail = "user@example.com"
	store := newFakeStore(note)
	mailer := &fakeMailer{}
	s := newTestScheduler(store, &fakeResolver{}, mailer)

	s.CheckAndSendReminders(context.Background())

	got := store.notes["n1"]
	if got.Sent {
		t.Error("sent = true with email opt-out, want false")
	}
	if !got.Triggered {
		t.Error("triggered = false, want true")
	}
	if len(mailer.sent) != 0 {
		t.Errorf("sent %d emails with email opt-out", len(mailer.sent))
	}
}

func TestNilMailerShortCircuits(t *testing.T) {
	note := dueNote("n1")
	note.EmailOptIn = true
	note.NotifyEmail = "user@example.com"
	store := newFakeStore(note)
	s := newTestScheduler(store, &fakeResolver{}, nil)

	s.CheckAndSendReminders(context.Background())

	got := store.notes["n1"]
	if !got.Triggered {
		t.Error("triggered = false with no mailer, want true")
	}
	// Unconfigured transport is a no-op success, matching the behavior
	// of delivery with the dispatcher not wired.
	if !got.Sent {
		t.Error("sent = false with no mailer configured, want true (no-op success)")
	}
}

func TestScanErrorAbortsTickOnly(t *testing.T) {
	store := newFakeStore(dueNote("n1"))
	store.failScan = true
	s := newTestScheduler(store, &fakeResolver{}, &fakeMailer{})

	s.CheckAndSendReminders(context.Background())
	if store.notes["n1"].Attempts != 0 {
		t.Error("record processed despite scan failure")
	}

	// Store recovers; the next tick proceeds normally.
	store.failScan = false
	s.CheckAndSendReminders(context.Background())
	if store.notes["n1"].Attempts != 1 {
		t.Error("record not processed after store recovered")
	}
}

func TestOneFailingRecordDoesNotAbortBatch(t *testing.T) {
	good := dueNote("n1")
	bad := dueNote("n2")
	store := newFakeStore(good, bad)
	store.failSaveID = "n2"

	s := newTestScheduler(store, &fakeResolver{}, &fakeMailer{})
	s.CheckAndSendReminders(context.Background())

	if store.notes["n1"].Attempts != 1 {
		t.Error("healthy record not processed alongside failing one")
	}
}

func TestManualTriggerIdempotentOnTriggeredRecord(t *testing.T) {
	note := dueNote("n1")
	note.EmailOptIn = false
	store := newFakeStore(note)
	s := newTestScheduler(store, &fakeResolver{}, &fakeMailer{})

	// Manual trigger bypasses the due predicate but not the attempt
	// bookkeeping, so a second run re-attempts without error.
	if err := s.Deliver(context.Background(), store.notes["n1"]); err != nil {
		t.Fatal("first trigger failed", err)
	}
	if err := s.Deliver(context.Background(), store.notes["n1"]); err != nil {
		t.Fatal("second trigger failed", err)
	}

	got := store.notes["n1"]
	if got.Sent {
		t.Error("sent changed on re-trigger with email opt-out")
	}
	if !got.Triggered {
		t.Error("triggered = false, want true")
	}
	if got.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", got.Attempts)
	}
}

func TestCeilingForcedTriggeredOnFailure(t *testing.T) {
	note := dueNote("n1")
	note.Attempts = 2
	store := newFakeStore(note)
	s := newTestScheduler(store, &fakeResolver{}, &fakeMailer{})

	// Third attempt fails to persist its final state; the ceiling is
	// reached so the record must still be finalized to stop future
	// selection once the store recovers.
	target := store.notes["n1"]
	store.failSave = true
	if err := s.Deliver(context.Background(), target); err == nil {
		t.Fatal("expected delivery error")
	}
	store.failSave = false
	if err := s.store.SaveReminderState(context.Background(), target); err != nil {
		t.Fatal(err)
	}
	if !store.notes["n1"].Triggered {
		t.Error("record at attempt ceiling not finalized after failure")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	store := newFakeStore()
	s := newTestScheduler(store, &fakeResolver{}, &fakeMailer{})
	if err := s.Start(); err != nil {
		t.Fatal("scheduler start failed", err)
	}
	s.Stop()
}
