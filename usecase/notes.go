package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"main/dto"
	"main/model"
	"main/services"
	"main/utils"
)

// NotesStore is the persistence contract the service depends on. The
// Mongo repository implements it; tests substitute an in-memory store.
type NotesStore interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, noteID, userID string) (*model.Note, error)
	GetUserNotes(ctx context.Context, userID string) ([]*model.Note, error)
	UpdateNote(ctx context.Context, noteID, userID string, updates *model.Note) error
	DeleteNote(ctx context.Context, noteID, userID string) error
	UpcomingReminders(ctx context.Context, userID string, now time.Time) ([]*model.Note, error)
}

type NotesService struct {
	Store NotesStore
	// Identity resolves notification addresses at save time; lookup
	// failure never blocks the save.
	Identity services.Verifier
}

// CreateNote builds and persists a note from a create request.
func (svc *NotesService) CreateNote(ctx context.Context, userID string, req *dto.CreateNoteRequest) (*model.Note, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, errors.New("url is required")
	}

	reminderAt, err := dto.ParseReminder(req.Reminder)
	if err != nil {
		return nil, err
	}

	note := &model.Note{
		UserID:        userID,
		Note:          req.Note,
		URL:           req.URL,
		PostDetails:   dto.NormalizePostDetails(req.PostDetails),
		ReminderAt:    reminderAt,
		IsReminderSet: reminderAt != nil,
		EmailOptIn:    req.EmailNotification,
		NotifyEmail:   req.UserEmail,
	}

	// Resolve the notification address opportunistically so the
	// scheduler does not need a provider lookup per attempt. Failure
	// here never blocks the save.
	if note.NotifyEmail == "" && svc.Identity != nil {
		if email, err := svc.Identity.LookupEmail(ctx, userID); err != nil {
			log.Printf("could not resolve email for user %s: %v", userID, err)
		} else {
			note.NotifyEmail = email
		}
	}

	if err := svc.Store.CreateNote(ctx, note); err != nil {
		return nil, err
	}

	utils.TrackNoteOperation("create")
	return note, nil
}

// UpdateNote applies an update request on top of the stored note.
// Re-arming a reminder deliberately leaves the attempt bookkeeping
// (attempts, triggered, sent) untouched.
func (svc *NotesService) UpdateNote(ctx context.Context, noteID, userID string, req *dto.UpdateNoteRequest) (*model.Note, error) {
	existing, err := svc.Store.GetNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}

	reminderAt, err := dto.ParseReminder(req.Reminder)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.Note != nil {
		updated.Note = *req.Note
	}
	if req.PostDetails != nil {
		updated.PostDetails = dto.NormalizePostDetails(req.PostDetails)
	}
	if req.EmailNotification != nil {
		updated.EmailOptIn = *req.EmailNotification
	}
	if req.UserEmail != "" {
		updated.NotifyEmail = req.UserEmail
	}
	updated.ReminderAt = reminderAt
	updated.IsReminderSet = reminderAt != nil

	if err := svc.Store.UpdateNote(ctx, noteID, userID, &updated); err != nil {
		return nil, err
	}

	utils.TrackNoteOperation("update")
	return &updated, nil
}

// GetNote retrieves a single owner-scoped note.
func (svc *NotesService) GetNote(ctx context.Context, noteID, userID string) (*model.Note, error) {
	return svc.Store.GetNote(ctx, noteID, userID)
}

// GetUserNotes lists a user's notes, most recent first.
func (svc *NotesService) GetUserNotes(ctx context.Context, userID string) ([]*model.Note, error) {
	return svc.Store.GetUserNotes(ctx, userID)
}

// DeleteNote removes a note permanently.
func (svc *NotesService) DeleteNote(ctx context.Context, noteID, userID string) error {
	if err := svc.Store.DeleteNote(ctx, noteID, userID); err != nil {
		return err
	}
	utils.TrackNoteOperation("delete")
	return nil
}

// UpcomingReminders lists a user's pending future reminders by
// ascending due time.
func (svc *NotesService) UpcomingReminders(ctx context.Context, userID string) ([]*model.Note, error) {
	return svc.Store.UpcomingReminders(ctx, userID, time.Now())
}
