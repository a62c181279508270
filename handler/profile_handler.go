package handler

import (
	"errors"

	"main/repository"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// ProfileHandler returns the caller's account details. The client uses
// it to verify a stored token is still valid.
func ProfileHandler(c *gin.Context, userRepo *repository.UserRepo) {
	user, err := userRepo.FindUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.NotFound(c, "User not found")
			return
		}
		utils.InternalError(c, "Failed to load user")
		return
	}

	utils.Success(c, gin.H{
		"user_id":            user.UserID,
		"username":           user.Username,
		"email":              user.Email,
		"created_at":         user.CreatedAt,
		"two_factor_enabled": user.TwoFactorEnabled,
	})
}
