package handler

import (
	"errors"
	"time"

	"main/dto"
	"main/model"
	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

func RegistrationHandler(c *gin.Context, userRepo *repository.UserRepo) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("auth", "invalid_registration")
		utils.BadRequest(c, "Invalid request body")
		return
	}

	_, err := userRepo.FindUserByUsername(c.Request.Context(), req.Username)
	if err == nil {
		utils.Conflict(c, "Username already exists")
		return
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		utils.InternalError(c, "Failed to check username")
		return
	}

	hashed, err := services.HashPassword(req.Password)
	if err != nil {
		utils.TrackError("auth", "password_hashing")
		utils.InternalError(c, "Failed to register user")
		return
	}

	user := &model.User{
		UserID:    utils.GenerateUserID(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashed,
		CreatedAt: time.Now(),
	}

	if err := userRepo.AddUser(c.Request.Context(), user); err != nil {
		utils.InternalError(c, "Failed to register user")
		return
	}

	utils.TrackAuthAttempt("success", "registration")
	utils.Created(c, gin.H{
		"user_id":  user.UserID,
		"username": user.Username,
	})
}
