package repository

import (
	"context"
	"errors"
	"os"
	"time"

	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoteNotFound is returned when a note does not exist or does not
// belong to the requesting user.
var ErrNoteNotFound = errors.New("note not found")

type NotesRepo struct {
	MongoCollection *mongo.Collection
}

func GetNotesRepo(client *mongo.Client) *NotesRepo {
	return &NotesRepo{
		MongoCollection: client.Database(os.Getenv("MONGO_DB")).Collection("notes"),
	}
}

// CreateNote inserts a new note. The ID and audit timestamps are
// assigned here.
func (r *NotesRepo) CreateNote(ctx context.Context, note *model.Note) error {
	timer := utils.TrackDBOperation("insert", "notes")
	defer timer.ObserveDuration()

	if note.UserID == "" {
		return errors.New("user ID is required")
	}
	if note.ID == "" {
		note.ID = utils.GenerateNoteID()
	}

	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt

	_, err := r.MongoCollection.InsertOne(ctx, note)
	if err != nil {
		utils.TrackError("database", "note_creation_failed")
	}
	return err
}

// GetUserNotes retrieves all notes for a user, most recent first.
func (r *NotesRepo) GetUserNotes(ctx context.Context, userID string) ([]*model.Note, error) {
	timer := utils.TrackDBOperation("find", "notes")
	defer timer.ObserveDuration()

	var notes []*model.Note
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.MongoCollection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// GetNote retrieves a specific note scoped to its owner.
func (r *NotesRepo) GetNote(ctx context.Context, noteID string, userID string) (*model.Note, error) {
	timer := utils.TrackDBOperation("find", "notes")
	defer timer.ObserveDuration()

	var note model.Note
	err := r.MongoCollection.FindOne(ctx,
		bson.M{"_id": noteID, "user_id": userID}).Decode(&note)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return &note, nil
}

// UpdateNote rewrites the editable fields of a note. The reminder
// bookkeeping fields (attempts, triggered, sent) are intentionally not
// touched here; re-arming a reminder does not reset them.
func (r *NotesRepo) UpdateNote(ctx context.Context, noteID string, userID string, updates *model.Note) error {
	timer := utils.TrackDBOperation("update", "notes")
	defer timer.ObserveDuration()

	filter := bson.M{
		"_id":     noteID,
		"user_id": userID,
	}

	update := bson.M{
		"$set": bson.M{
			"note":               updates.Note,
			"reminder":           updates.ReminderAt,
			"post_details":       updates.PostDetails,
			"is_reminder_set":    updates.IsReminderSet,
			"email_notification": updates.EmailOptIn,
			"user_email":         updates.NotifyEmail,
			"updated_at":         time.Now(),
		},
	}

	result, err := r.MongoCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DeleteNote removes a note permanently.
func (r *NotesRepo) DeleteNote(ctx context.Context, noteID string, userID string) error {
	timer := utils.TrackDBOperation("delete", "notes")
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{
		"_id":     noteID,
		"user_id": userID,
	})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DueReminders returns the due set: enabled, untriggered reminders
// whose time has passed and whose attempt count is below the ceiling.
// No ordering is applied; every due record is re-selected each tick
// until triggered.
func (r *NotesRepo) DueReminders(ctx context.Context, now time.Time, maxAttempts int) ([]*model.Note, error) {
	timer := utils.TrackDBOperation("find", "notes")
	defer timer.ObserveDuration()

	filter := bson.M{
		"is_reminder_set":    true,
		"reminder_triggered": false,
		"reminder":           bson.M{"$lte": now},
		"reminder_attempts":  bson.M{"$lt": maxAttempts},
	}

	cursor, err := r.MongoCollection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notes []*model.Note
	if err = cursor.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// UpcomingReminders returns a user's enabled, untriggered, future-dated
// reminders sorted by ascending due time.
func (r *NotesRepo) UpcomingReminders(ctx context.Context, userID string, now time.Time) ([]*model.Note, error) {
	timer := utils.TrackDBOperation("find", "notes")
	defer timer.ObserveDuration()

	filter := bson.M{
		"user_id":            userID,
		"is_reminder_set":    true,
		"reminder_triggered": false,
		"reminder":           bson.M{"$gt": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "reminder", Value: 1}})

	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notes []*model.Note
	if err = cursor.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// SaveReminderState persists the scheduler-owned fields of a note. It
// is called once before delivery work begins so a crash mid-delivery
// cannot repeat the attempt, and again after the pass completes.
func (r *NotesRepo) SaveReminderState(ctx context.Context, note *model.Note) error {
	timer := utils.TrackDBOperation("update", "notes")
	defer timer.ObserveDuration()

	update := bson.M{
		"$set": bson.M{
			"reminder_attempts":     note.Attempts,
			"last_reminder_attempt": note.LastAttemptAt,
			"reminder_triggered":    note.Triggered,
			"reminder_sent":         note.Sent,
			"user_email":            note.NotifyEmail,
			"updated_at":            time.Now(),
		},
	}

	result, err := r.MongoCollection.UpdateOne(ctx, bson.M{"_id": note.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}
