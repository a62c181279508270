package model

import (
	"time"
)

// Post type values stored in PostDetails.Type.
const (
	PostTypePost    = "post"
	PostTypeReel    = "reel"
	PostTypeIGTV    = "igtv"
	PostTypeUnknown = "unknown"
)

// PostDetails holds metadata captured from the Instagram post page.
type PostDetails struct {
	Type    string `bson:"type" json:"type"`
	Caption string `bson:"caption" json:"caption"`
	Author  string `bson:"author" json:"author"`
}

// Note is a saved Instagram post with an optional reminder schedule.
// The reminder_* fields are owned by the reminder scheduler: Attempts
// and LastAttemptAt are written before each delivery attempt, Triggered
// flips true once delivery has run to completion and never reverts.
type Note struct {
	ID          string      `bson:"_id,omitempty" json:"id"`
	UserID      string      `bson:"user_id" json:"user_id"`
	Note        string      `bson:"note" json:"note"`
	URL         string      `bson:"url" json:"url"`
	PostDetails PostDetails `bson:"post_details" json:"post_details"`

	ReminderAt    *time.Time `bson:"reminder,omitempty" json:"reminder,omitempty"`
	IsReminderSet bool       `bson:"is_reminder_set" json:"is_reminder_set"`
	Triggered     bool       `bson:"reminder_triggered" json:"reminder_triggered"`
	Sent          bool       `bson:"reminder_sent" json:"reminder_sent"`
	EmailOptIn    bool       `bson:"email_notification" json:"email_notification"`
	NotifyEmail   string     `bson:"user_email,omitempty" json:"user_email,omitempty"`
	Attempts      int        `bson:"reminder_attempts" json:"reminder_attempts"`
	LastAttemptAt *time.Time `bson:"last_reminder_attempt,omitempty" json:"last_reminder_attempt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidPostType reports whether t is one of the known post types.
func ValidPostType(t string) bool {
	switch t {
	case PostTypePost, PostTypeReel, PostTypeIGTV, PostTypeUnknown:
		return true
	}
	return false
}
