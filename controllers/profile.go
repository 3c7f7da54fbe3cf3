package controllers

import (
	"net/http"

	"salonica-backend/middleware"
	"salonica-backend/services"
	"salonica-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpdateProfileInput only touches the fields present in the body.
type UpdateProfileInput struct {
	FirstName   *string `json:"first_name" binding:"omitempty,max=100"`
	LastName    *string `json:"last_name" binding:"omitempty,max=100"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"`
}

type UpdateRoleInput struct {
	Role string `json:"role" binding:"required,oneof=customer salon_owner barber admin"`
}

type PasswordResetRequestInput struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmInput struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type ChangePasswordInput struct {
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ProfileController serves the account settings of the signed in user and
// the admin role switch.
type ProfileController struct {
	auth   *services.AuthService
	logger *zap.Logger
}

func NewProfileController(auth *services.AuthService, logger *zap.Logger) *ProfileController {
	return &ProfileController{auth: auth, logger: logger}
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	user, err := pc.auth.GetProfile(c.Request.Context(), middleware.MustIdentity(c).UserID)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": user})
}

func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, pc.logger, utils.BindingError(err))
		return
	}

	update := services.ProfileUpdate{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
	}
	if input.DateOfBirth != nil {
		d, err := utils.ParseDate(*input.DateOfBirth)
		if err != nil {
			respondError(c, pc.logger, utils.NewValidationError("Validation failed", err.Error()))
			return
		}
		update.DateOfBirth = &d
	}

	user, err := pc.auth.UpdateProfile(c.Request.Context(), middleware.MustIdentity(c).UserID, update)
	if err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"profile": user,
	})
}

// UpdateRole is mounted behind authoritative verification.
func (pc *ProfileController) UpdateRole(c *gin.Context) {
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	var input UpdateRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, pc.logger, utils.BindingError(err))
		return
	}

	if err := pc.auth.UpdateRole(c.Request.Context(), userID, input.Role); err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated successfully"})
}

// RequestPasswordReset answers identically whether or not the email exists.
func (pc *ProfileController) RequestPasswordReset(c *gin.Context) {
	var input PasswordResetRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Email is required")
		return
	}

	if err := pc.auth.RequestPasswordReset(c.Request.Context(), input.Email); err != nil {
		pc.logger.Warn("password reset request failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "If an account exists with this email, a password reset link has been sent.",
	})
}

func (pc *ProfileController) ConfirmPasswordReset(c *gin.Context) {
	var input PasswordResetConfirmInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, pc.logger, utils.BindingError(err))
		return
	}

	if err := pc.auth.ResetPassword(c.Request.Context(), input.Token, input.NewPassword); err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
}

func (pc *ProfileController) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, pc.logger, utils.BindingError(err))
		return
	}

	if err := pc.auth.ChangePassword(c.Request.Context(), middleware.MustIdentity(c).UserID, input.NewPassword); err != nil {
		respondError(c, pc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
