package dto

import (
	"errors"
	"time"

	"main/model"
)

// ErrInvalidReminder is returned when the reminder timestamp cannot be
// parsed.
var ErrInvalidReminder = errors.New("invalid reminder date format")

// CreateNoteRequest is the body of POST /api/notes. Reminder is an
// RFC3339 timestamp; empty means no reminder.
type CreateNoteRequest struct {
	Note              string             `json:"note"`
	URL               string             `json:"url" binding:"required,url"`
	Reminder          string             `json:"reminder"`
	PostDetails       *model.PostDetails `json:"post_details"`
	EmailNotification bool               `json:"email_notification"`
	UserEmail         string             `json:"user_email"`
}

// UpdateNoteRequest is the body of PUT /api/notes/:id. Fields left nil
// keep the stored value; Reminder always replaces the schedule (empty
// clears it).
type UpdateNoteRequest struct {
	Note              *string            `json:"note"`
	Reminder          string             `json:"reminder"`
	PostDetails       *model.PostDetails `json:"post_details"`
	EmailNotification *bool              `json:"email_notification"`
	UserEmail         string             `json:"user_email"`
}

// ParseReminder converts an RFC3339 reminder string into a timestamp.
// Empty input yields nil without error.
func ParseReminder(reminder string) (*time.Time, error) {
	if reminder == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, reminder)
	if err != nil {
		return nil, ErrInvalidReminder
	}
	return &t, nil
}

// NormalizePostDetails fills in defaults for absent or unrecognized
// metadata.
func NormalizePostDetails(pd *model.PostDetails) model.PostDetails {
	if pd == nil {
		return model.PostDetails{Type: model.PostTypeUnknown}
	}
	out := *pd
	if !model.ValidPostType(out.Type) {
		out.Type = model.PostTypeUnknown
	}
	return out
}
