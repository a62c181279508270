package handler

import (
	"errors"

	"main/dto"
	"main/model"
	"main/repository"
	"main/scheduler"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

func CreateNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	note, err := notesService.CreateNote(c.Request.Context(), c.GetString("user_id"), &req)
	if err != nil {
		if errors.Is(err, dto.ErrInvalidReminder) {
			utils.BadRequest(c, "Invalid reminder date format")
			return
		}
		utils.InternalError(c, "Failed to save note")
		return
	}

	utils.Created(c, note)
}

func GetUserNotesHandler(c *gin.Context, notesService *usecase.NotesService) {
	notes, err := notesService.GetUserNotes(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		utils.InternalError(c, "Failed to fetch notes")
		return
	}
	if notes == nil {
		notes = []*model.Note{}
	}
	utils.Success(c, notes)
}

func GetNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	note, err := notesService.GetNote(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			utils.NotFound(c, "Note not found")
			return
		}
		utils.InternalError(c, "Failed to fetch note")
		return
	}
	utils.Success(c, note)
}

func UpdateNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	var req dto.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	note, err := notesService.UpdateNote(c.Request.Context(), c.Param("id"), c.GetString("user_id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoteNotFound):
			utils.NotFound(c, "Note not found")
		case errors.Is(err, dto.ErrInvalidReminder):
			utils.BadRequest(c, "Invalid reminder date format")
		default:
			utils.InternalError(c, "Failed to update note")
		}
		return
	}

	utils.Success(c, note)
}

func DeleteNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	err := notesService.DeleteNote(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			utils.NotFound(c, "Note not found")
			return
		}
		utils.InternalError(c, "Failed to delete note")
		return
	}
	utils.Success(c, gin.H{"message": "Note deleted successfully"})
}

// UpcomingRemindersHandler lists the caller's pending future reminders
// by ascending due time.
func UpcomingRemindersHandler(c *gin.Context, notesService *usecase.NotesService) {
	notes, err := notesService.UpcomingReminders(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		utils.InternalError(c, "Failed to fetch reminders")
		return
	}
	if notes == nil {
		notes = []*model.Note{}
	}
	utils.Success(c, notes)
}

// TriggerReminderHandler runs the delivery pass for one of the caller's
// notes immediately, bypassing the due-time check. Triggering an
// already-processed reminder just runs another pass; it does not error.
func TriggerReminderHandler(c *gin.Context, notesService *usecase.NotesService, sched *scheduler.Scheduler) {
	note, err := notesService.GetNote(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			utils.NotFound(c, "Note not found")
			return
		}
		utils.InternalError(c, "Failed to fetch note")
		return
	}

	if err := sched.Deliver(c.Request.Context(), note); err != nil {
		utils.InternalError(c, "Failed to process reminder")
		return
	}

	utils.Success(c, note)
}
