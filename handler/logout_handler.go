package handler

import (
	"strings"

	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// LogoutHandler ends the caller's sessions and blacklists the tokens
// presented with the request.
func LogoutHandler(c *gin.Context, sessionRepo *repository.SessionRepo) {
	accessToken := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	// The refresh token is optional; a bare logout still works.
	_ = c.ShouldBindJSON(&body)

	if err := services.BlacklistTokens(accessToken, body.RefreshToken); err != nil {
		utils.TrackError("auth", "token_blacklist_failed")
		utils.InternalError(c, "Failed to invalidate tokens")
		return
	}

	userID := c.GetString("user_id")
	if err := sessionRepo.EndUserSessions(c.Request.Context(), userID); err != nil {
		utils.TrackError("session", "logout_failed")
		utils.InternalError(c, "Failed to end sessions")
		return
	}

	utils.Success(c, gin.H{"message": "Logged out successfully"})
}
