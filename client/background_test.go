package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestAgent(t *testing.T, apiURL string) (*Agent, *Store, *fakeNotifier, *fakeTabs) {
	t.Helper()
	store, err := OpenStore(StoreOptions{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	notifier := newFakeNotifier()
	tabs := &fakeTabs{}
	router := NewClickRouter(tabs, "https://www.instagram.com/")
	sched := NewAlarmScheduler(store, notifier, router, nil)
	t.Cleanup(sched.Stop)

	agent := NewAgent(AgentConfig{
		APIBaseURL:   apiURL,
		LoginURL:     "https://notes.example.com/login",
		DashboardURL: "https://notes.example.com/dashboard",
	}, store, sched, notifier, tabs, nil)
	return agent, store, notifier, tabs
}

func TestCheckAuthWithoutToken(t *testing.T) {
	agent, _, _, _ := newTestAgent(t, "http://127.0.0.1:0")

	resp, err := agent.Bus().Request(context.Background(), MsgCheckAuth, nil)
	if err != nil {
		t.Fatal(err)
	}
	status := resp.(*AuthStatus)
	if status.Authenticated {
		t.Error("authenticated without a stored token")
	}
}

func TestCheckAuthRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/profile" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer token-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"user_id": "user-1"},
		})
	}))
	defer srv.Close()

	agent, store, _, _ := newTestAgent(t, srv.URL)

	_, err := agent.Bus().Request(context.Background(), MsgLoginSuccess, &LoginPayload{
		Token:  "token-abc",
		UserID: "user-1",
		Email:  "user@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := agent.Bus().Request(context.Background(), MsgCheckAuth, nil)
	if err != nil {
		t.Fatal(err)
	}
	status := resp.(*AuthStatus)
	if !status.Authenticated {
		t.Fatal("not authenticated with a valid stored token")
	}
	if status.User == nil || status.User.Email != "user@example.com" {
		t.Error("cached user not returned")
	}

	if _, err := store.Token(); err != nil {
		t.Error("token not cached:", err)
	}
}

func TestCheckAuthClearsRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	agent, store, _, _ := newTestAgent(t, srv.URL)

	if err := store.SaveToken("expired-token"); err != nil {
		t.Fatal(err)
	}

	resp, err := agent.Bus().Request(context.Background(), MsgCheckAuth, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.(*AuthStatus).Authenticated {
		t.Error("authenticated with a rejected token")
	}
	if _, err := store.Token(); err == nil {
		t.Error("rejected token not cleared")
	}
}

func TestSaveNoteArmsLocalAlarm(t *testing.T) {
	reminder := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/notes" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id":       "note-1",
				"note":     "watch this",
				"url":      "https://www.instagram.com/p/abc/",
				"reminder": reminder.Format(time.RFC3339),
			},
		})
	}))
	defer srv.Close()

	agent, store, notifier, _ := newTestAgent(t, srv.URL)
	if err := store.SaveToken("token-abc"); err != nil {
		t.Fatal(err)
	}

	resp, err := agent.Bus().Request(context.Background(), MsgSaveNote, &SaveNotePayload{
		Note: "watch this",
		URL:  "https://www.instagram.com/p/abc/",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.(*savedNote).ID != "note-1" {
		t.Errorf("saved note id = %q", resp.(*savedNote).ID)
	}

	alarm, err := store.GetAlarm("note-1")
	if err != nil {
		t.Fatal("local alarm not mirrored:", err)
	}
	if !alarm.ReminderAt.Equal(reminder) {
		t.Errorf("mirrored due time = %v, want %v", alarm.ReminderAt, reminder)
	}

	select {
	case n := <-notifier.fired:
		if n.Message != "Note saved successfully" {
			t.Errorf("notification = %q", n.Message)
		}
	case <-time.After(time.Second):
		t.Error("no save confirmation shown")
	}
}

func TestSetReminderArmsWithoutServer(t *testing.T) {
	agent, store, _, _ := newTestAgent(t, "http://127.0.0.1:0")

	_, err := agent.Bus().Request(context.Background(), MsgSetReminder, &SetReminderPayload{
		NoteID:   "note-9",
		Note:     "later",
		URL:      "https://www.instagram.com/p/xyz/",
		Reminder: time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.GetAlarm("note-9"); err != nil {
		t.Error("reminder not armed:", err)
	}
}

func TestLogoutClearsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	agent, store, _, _ := newTestAgent(t, srv.URL)
	if err := store.SaveToken("token-abc"); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveUser(&CachedUser{UserID: "user-1"}); err != nil {
		t.Fatal(err)
	}

	if _, err := agent.Bus().Request(context.Background(), MsgLogout, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Token(); err == nil {
		t.Error("token survived logout")
	}
	if _, err := store.User(); err == nil {
		t.Error("cached user survived logout")
	}
}

func TestOpenLoginAndDashboard(t *testing.T) {
	agent, _, _, tabs := newTestAgent(t, "http://127.0.0.1:0")

	if _, err := agent.Bus().Request(context.Background(), MsgOpenLogin, nil); err != nil {
		t.Fatal(err)
	}
	if tabs.last() != "https://notes.example.com/login" {
		t.Errorf("opened %q", tabs.last())
	}

	if _, err := agent.Bus().Request(context.Background(), MsgOpenDashboard, nil); err != nil {
		t.Fatal(err)
	}
	if tabs.last() != "https://notes.example.com/dashboard" {
		t.Errorf("opened %q", tabs.last())
	}
}

func TestDispatchUnknownMessage(t *testing.T) {
	bus := NewBus()
	if _, err := bus.Dispatch(context.Background(), Message{Type: "NOT_A_KIND"}); err == nil {
		t.Error("unknown message type dispatched without error")
	}
}
