package controllers

import (
	"net/http"
	"strings"

	"salonica-backend/middleware"
	"salonica-backend/models"
	"salonica-backend/services"
	"salonica-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type SignUpInput struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	FirstName   string `json:"first_name" binding:"max=100"`
	LastName    string `json:"last_name" binding:"max=100"`
	Phone       string `json:"phone"`
	Role        string `json:"role" binding:"omitempty,oneof=customer salon_owner barber"`
	DateOfBirth string `json:"date_of_birth"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthController struct {
	auth   *services.AuthService
	logger *zap.Logger
}

func NewAuthController(auth *services.AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{auth: auth, logger: logger}
}

func (ac *AuthController) SignUp(c *gin.Context) {
	var input SignUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, ac.logger, utils.BindingError(err))
		return
	}

	var dob *datatypes.Date
	if input.DateOfBirth != "" {
		d, err := utils.ParseDate(input.DateOfBirth)
		if err != nil {
			respondError(c, ac.logger, utils.NewValidationError("Validation failed", err.Error()))
			return
		}
		dob = &d
	}

	user, session, err := ac.auth.SignUp(c.Request.Context(), services.SignUpParams{
		Email:       input.Email,
		Password:    input.Password,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Phone:       input.Phone,
		Role:        input.Role,
		DateOfBirth: dob,
	})
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
		"session": session,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, ac.logger, utils.BindingError(err))
		return
	}

	user, session, err := ac.auth.SignIn(c.Request.Context(), strings.TrimSpace(input.Email), input.Password)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"session": session,
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.auth.SignOut(c.Request.Context(), middleware.MustIdentity(c)); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (ac *AuthController) Refresh(c *gin.Context) {
	var input RefreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Refresh token is required")
		return
	}

	session, err := ac.auth.Refresh(c.Request.Context(), input.RefreshToken)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"session": session,
	})
}

// Me returns the caller's stored profile.
func (ac *AuthController) Me(c *gin.Context) {
	identity := middleware.MustIdentity(c)

	user, err := ac.auth.GetProfile(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"role":       user.Role,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"full_name":  user.FullName(),
			"phone":      user.Phone,
			"is_admin":   user.Role == models.RoleAdmin,
		},
	})
}
