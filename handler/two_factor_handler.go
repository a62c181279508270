package handler

import (
	"errors"

	"main/repository"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
)

// Enable2FAHandler generates a TOTP secret for the caller. The secret
// only becomes active once verified.
func Enable2FAHandler(c *gin.Context, userRepo *repository.UserRepo) {
	user, err := userRepo.FindUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		utils.InternalError(c, "Failed to load user")
		return
	}
	if user.TwoFactorEnabled {
		utils.Conflict(c, "2FA is already enabled")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "insta-notes",
		AccountName: user.Username,
	})
	if err != nil {
		utils.TrackError("auth", "totp_generation")
		utils.InternalError(c, "Failed to generate 2FA secret")
		return
	}

	utils.Success(c, gin.H{
		"secret":  key.Secret(),
		"qr_code": key.URL(),
	})
}

// Verify2FAHandler confirms a code against the provided secret and
// turns 2FA on for the caller.
func Verify2FAHandler(c *gin.Context, userRepo *repository.UserRepo) {
	var req struct {
		Secret string `json:"secret" binding:"required"`
		Code   string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if !totp.Validate(req.Code, req.Secret) {
		utils.TrackAuthAttempt("failure", "2fa_verification")
		utils.Unauthorized(c, "Invalid 2FA code")
		return
	}

	if err := userRepo.Enable2FA(c.Request.Context(), c.GetString("user_id"), req.Secret); err != nil {
		utils.InternalError(c, "Failed to enable 2FA")
		return
	}

	utils.TrackAuthAttempt("success", "2fa_enabled")
	utils.Success(c, gin.H{"message": "2FA enabled successfully"})
}

// Disable2FAHandler turns 2FA off after validating a current code.
func Disable2FAHandler(c *gin.Context, userRepo *repository.UserRepo) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	user, err := userRepo.FindUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.NotFound(c, "User not found")
			return
		}
		utils.InternalError(c, "Failed to load user")
		return
	}
	if !user.TwoFactorEnabled {
		utils.BadRequest(c, "2FA is not enabled")
		return
	}

	if !totp.Validate(req.Code, user.TwoFactorSecret) {
		utils.TrackAuthAttempt("failure", "2fa_disable")
		utils.Unauthorized(c, "Invalid 2FA code")
		return
	}

	if err := userRepo.Disable2FA(c.Request.Context(), user.UserID); err != nil {
		utils.InternalError(c, "Failed to disable 2FA")
		return
	}

	utils.Success(c, gin.H{"message": "2FA disabled successfully"})
}
