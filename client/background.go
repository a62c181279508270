package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// LoginPayload is the LOGIN_SUCCESS message body.
type LoginPayload struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// SaveNotePayload is the SAVE_NOTE message body, forwarded to the API.
type SaveNotePayload struct {
	Note              string          `json:"note"`
	URL               string          `json:"url"`
	Reminder          string          `json:"reminder,omitempty"`
	PostDetails       json.RawMessage `json:"post_details,omitempty"`
	EmailNotification bool            `json:"email_notification"`
}

// UpdateNotePayload is the UPDATE_NOTE message body.
type UpdateNotePayload struct {
	NoteID            string          `json:"note_id"`
	Note              *string         `json:"note,omitempty"`
	Reminder          string          `json:"reminder,omitempty"`
	PostDetails       json.RawMessage `json:"post_details,omitempty"`
	EmailNotification *bool           `json:"email_notification,omitempty"`
}

// SetReminderPayload arms a local alarm without touching the server.
type SetReminderPayload struct {
	NoteID   string `json:"note_id"`
	Note     string `json:"note"`
	URL      string `json:"url"`
	Reminder string `json:"reminder"`
}

// AuthStatus is the CHECK_AUTH response.
type AuthStatus struct {
	Authenticated bool        `json:"authenticated"`
	User          *CachedUser `json:"user,omitempty"`
}

// apiEnvelope matches the server's response wrapper.
type apiEnvelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// savedNote is the slice of the note entity the agent cares about.
type savedNote struct {
	ID         string     `json:"id"`
	Note       string     `json:"note"`
	URL        string     `json:"url"`
	ReminderAt *time.Time `json:"reminder"`
}

// AgentConfig points the background agent at its backend and frontend
// destinations.
type AgentConfig struct {
	APIBaseURL   string
	LoginURL     string
	DashboardURL string
	Timeout      time.Duration
}

// Agent is the background context of the extension: it bridges the
// message bus to the REST API, arms local alarms for saved reminders
// and maintains the cached credential.
type Agent struct {
	api      *resty.Client
	store    *Store
	sched    *AlarmScheduler
	notifier Notifier
	tabs     TabOpener
	bus      *Bus
	cfg      AgentConfig
	logger   *log.Logger
}

func NewAgent(cfg AgentConfig, store *Store, sched *AlarmScheduler, notifier Notifier, tabs TabOpener, logger *log.Logger) *Agent {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	api := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	a := &Agent{
		api:      api,
		store:    store,
		sched:    sched,
		notifier: notifier,
		tabs:     tabs,
		bus:      NewBus(),
		cfg:      cfg,
		logger:   logger,
	}
	a.registerHandlers()
	return a
}

// Bus exposes the message bus the UI contexts dispatch into.
func (a *Agent) Bus() *Bus {
	return a.bus
}

func (a *Agent) registerHandlers() {
	a.bus.Handle(MsgCheckAuth, a.handleCheckAuth)
	a.bus.Handle(MsgLoginSuccess, a.handleLoginSuccess)
	a.bus.Handle(MsgSaveNote, a.handleSaveNote)
	a.bus.Handle(MsgUpdateNote, a.handleUpdateNote)
	a.bus.Handle(MsgSetReminder, a.handleSetReminder)
	a.bus.Handle(MsgLogout, a.handleLogout)
	a.bus.Handle(MsgOpenLogin, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return nil, a.tabs.OpenTab(a.cfg.LoginURL)
	})
	a.bus.Handle(MsgOpenDashboard, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return nil, a.tabs.OpenTab(a.cfg.DashboardURL)
	})
}

func (a *Agent) handleCheckAuth(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	token, err := a.store.Token()
	if err != nil {
		return &AuthStatus{Authenticated: false}, nil
	}

	resp, err := a.api.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/api/user/profile")
	if err != nil {
		// Network failure: trust the cached identity rather than log the
		// user out while offline.
		if user, uerr := a.store.User(); uerr == nil {
			return &AuthStatus{Authenticated: true, User: user}, nil
		}
		return &AuthStatus{Authenticated: false}, nil
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		if err := a.store.ClearAuth(); err != nil {
			a.logger.Printf("failed to clear stale credentials: %v", err)
		}
		return &AuthStatus{Authenticated: false}, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return &AuthStatus{Authenticated: false}, nil
	}

	user, err := a.store.User()
	if err != nil {
		user = nil
	}
	return &AuthStatus{Authenticated: true, User: user}, nil
}

func (a *Agent) handleLoginSuccess(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var login LoginPayload
	if err := json.Unmarshal(payload, &login); err != nil {
		return nil, err
	}
	if login.Token == "" {
		return nil, fmt.Errorf("login payload missing token")
	}

	if err := a.store.SaveToken(login.Token); err != nil {
		return nil, err
	}
	if err := a.store.SaveUser(&CachedUser{UserID: login.UserID, Email: login.Email}); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (a *Agent) handleSaveNote(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var req SaveNotePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}

	token, err := a.store.Token()
	if err != nil {
		return nil, fmt.Errorf("not logged in")
	}

	var envelope apiEnvelope
	resp, err := a.api.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(&req).
		SetResult(&envelope).
		Post("/api/notes")
	if err != nil {
		a.notifyError("Could not save note: " + err.Error())
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		a.notifyError("Could not save note")
		return nil, fmt.Errorf("save note: status %d: %s", resp.StatusCode(), resp.String())
	}

	var note savedNote
	if err := json.Unmarshal(envelope.Data, &note); err != nil {
		return nil, err
	}

	// Mirror the reminder locally so the notification fires even when
	// the server path is unreachable at the due time.
	if note.ReminderAt != nil {
		if err := a.sched.Arm(note.ID, note.Note, note.URL, *note.ReminderAt); err != nil {
			a.logger.Printf("failed to arm local alarm for note %s: %v", note.ID, err)
		}
	}

	a.notifyInfo("Note saved successfully")
	return &note, nil
}

func (a *Agent) handleUpdateNote(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var req UpdateNotePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	if req.NoteID == "" {
		return nil, fmt.Errorf("update payload missing note_id")
	}

	token, err := a.store.Token()
	if err != nil {
		return nil, fmt.Errorf("not logged in")
	}

	var envelope apiEnvelope
	resp, err := a.api.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(&req).
		SetResult(&envelope).
		Put("/api/notes/" + req.NoteID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("update note: status %d: %s", resp.StatusCode(), resp.String())
	}

	var note savedNote
	if err := json.Unmarshal(envelope.Data, &note); err != nil {
		return nil, err
	}

	// Re-arm: Arm clears the previous alarm before creating the new
	// one, and a cleared reminder just disarms.
	if note.ReminderAt != nil {
		if err := a.sched.Arm(note.ID, note.Note, note.URL, *note.ReminderAt); err != nil {
			a.logger.Printf("failed to re-arm local alarm for note %s: %v", note.ID, err)
		}
	} else {
		a.sched.Disarm(note.ID)
	}

	return &note, nil
}

func (a *Agent) handleSetReminder(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var req SetReminderPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}

	reminderAt, err := time.Parse(time.RFC3339, req.Reminder)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder timestamp: %w", err)
	}

	if err := a.sched.Arm(req.NoteID, req.Note, req.URL, reminderAt); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (a *Agent) handleLogout(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	if token, err := a.store.Token(); err == nil {
		resp, err := a.api.R().
			SetContext(ctx).
			SetAuthToken(token).
			Post("/api/user/logout")
		if err != nil {
			a.logger.Printf("server logout failed: %v", err)
		} else if resp.StatusCode() != http.StatusOK {
			a.logger.Printf("server logout returned status %d", resp.StatusCode())
		}
	}

	if err := a.store.ClearAuth(); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

func (a *Agent) notifyInfo(message string) {
	err := a.notifier.Notify(Notification{
		Title:   "Insta Notes",
		Message: message,
	})
	if err != nil {
		a.logger.Printf("failed to show notification: %v", err)
	}
}

func (a *Agent) notifyError(message string) {
	err := a.notifier.Notify(Notification{
		Title:   "Insta Notes",
		Message: message,
	})
	if err != nil {
		a.logger.Printf("failed to show notification: %v", err)
	}
}
