package services

import (
	"strings"
	"testing"
	"time"

	"main/config"
	"main/model"
)

func sampleNote() *model.Note {
	return &model.Note{
		ID:        "note-1",
		Note:      "watch this recipe",
		URL:       "https://www.instagram.com/p/abc/",
		CreatedAt: time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC),
	}
}

func TestRenderReminderEmail(t *testing.T) {
	subject, body, err := RenderReminderEmail(sampleNote())
	if err != nil {
		t.Fatal(err)
	}
	if subject != "Instagram Note Reminder" {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(body, "watch this recipe") {
		t.Error("note text missing from body")
	}
	if !strings.Contains(body, "https://www.instagram.com/p/abc/") {
		t.Error("post url missing from body")
	}
	if !strings.Contains(body, "3/9/2025") {
		t.Error("created date missing from body")
	}
}

func TestRenderReminderEmailDefaultsEmptyNote(t *testing.T) {
	note := sampleNote()
	note.Note = ""

	_, body, err := RenderReminderEmail(note)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "No note added") {
		t.Error("empty note not replaced with placeholder")
	}
}

func TestRenderReminderEmailTruncatesCaption(t *testing.T) {
	note := sampleNote()
	note.PostDetails.Caption = strings.Repeat("x", 300)

	_, body, err := RenderReminderEmail(note)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, strings.Repeat("x", 200)+"...") {
		t.Error("long caption not truncated at 200 characters")
	}
	if strings.Contains(body, strings.Repeat("x", 201)) {
		t.Error("caption exceeds the truncation limit")
	}
}

func TestRenderReminderEmailOmitsEmptyCaption(t *testing.T) {
	_, body, err := RenderReminderEmail(sampleNote())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(body, "Post Caption") {
		t.Error("caption block rendered with no caption")
	}
}

func TestNewMailerRequiresCredentials(t *testing.T) {
	m := NewMailer(config.MailerConfig{Host: "smtp.example.com", Port: 587})
	if m != nil {
		t.Error("mailer built without credentials")
	}
}
