package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salonica-backend/models"
	"salonica-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Session is the credential pair handed to a client after login or refresh.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SignUpParams struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	Role        string
	DateOfBirth *datatypes.Date
}

// ProfileUpdate carries only the fields the caller supplied.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	DateOfBirth *datatypes.Date
}

type AuthConfig struct {
	RecoveryTokenExpiry time.Duration
	PasswordResetURL    string
	// LogResetLinks writes undeliverable reset links to the log. Never set
	// it in production: the link carries a live recovery token.
	LogResetLinks bool
}

// AuthService is the identity provider: it owns credentials, sessions and
// user profiles.
type AuthService struct {
	db       *gorm.DB
	sessions *SessionStore
	tokens   *TokenService
	sms      Messenger
	cfg      AuthConfig
	logger   *zap.Logger
}

// NewAuthService builds the identity provider. sms may be nil.
func NewAuthService(db *gorm.DB, sessions *SessionStore, tokens *TokenService, sms Messenger, cfg AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		db:       db,
		sessions: sessions,
		tokens:   tokens,
		sms:      sms,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *AuthService) SignUp(ctx context.Context, p SignUpParams) (*models.User, *Session, error) {
	email := normalizeEmail(p.Email)
	role := p.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if role == models.RoleAdmin || !models.IsValidRole(role) {
		return nil, nil, utils.NewValidationError("Invalid role", "role must be one of: customer, salon_owner, barber")
	}
	if p.Phone != "" && !utils.ValidatePhone(p.Phone) {
		return nil, nil, utils.NewValidationError("Invalid phone number", "phone must be 10 digits")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, nil, utils.NewUpstreamError("Failed to create account", err)
	}
	if existing > 0 {
		return nil, nil, utils.NewValidationError("Email already registered")
	}

	hash, err := utils.HashPassword(p.Password)
	if err != nil {
		return nil, nil, utils.NewUpstreamError("Failed to create account", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		Phone:        utils.NormalizePhone(p.Phone),
		Role:         role,
		DateOfBirth:  p.DateOfBirth,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, nil, utils.NewUpstreamError("Failed to create account", err)
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))
	return user, session, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.User, *Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, utils.NewUnauthenticatedError("Invalid email or password")
	}
	if err != nil {
		return nil, nil, utils.NewUpstreamError("Login failed", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, nil, utils.NewUnauthenticatedError("Invalid email or password")
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_sign_in_at", now).Error; err != nil {
		s.logger.Warn("failed to record sign in", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	user.LastSignInAt = &now

	session, err := s.openSession(ctx, &user)
	if err != nil {
		return nil, nil, err
	}
	return &user, session, nil
}

// SignOut revokes the session the identity's token was issued for.
func (s *AuthService) SignOut(ctx context.Context, identity *Identity) error {
	if identity.Claims == nil || identity.Claims.SessionID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, identity.Claims.SessionID); err != nil {
		return utils.NewUpstreamError("Logout failed", err)
	}
	return nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	userID, sessionID, next, err := s.sessions.Rotate(ctx, refreshToken)
	if err != nil {
		if utils.KindOf(err) != 0 {
			return nil, err
		}
		return nil, utils.NewUpstreamError("Token refresh failed", err)
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	access, expiresAt, err := s.tokens.IssueAccessToken(user, sessionID)
	if err != nil {
		return nil, utils.NewUpstreamError("Token refresh failed", err)
	}
	return &Session{AccessToken: access, RefreshToken: next, TokenType: "bearer", ExpiresAt: expiresAt}, nil
}

// GetUser is the authoritative credential check: the token must be valid,
// its session alive and the profile present.
func (s *AuthService) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, utils.NewUnauthenticatedError("Invalid token")
	}
	if err := s.sessions.Validate(ctx, claims.SessionID, userID); err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		if utils.KindOf(err) == utils.KindNotFound {
			return nil, utils.NewUnauthenticatedError("User no longer exists")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to load user", err)
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*models.User, error) {
	changes := map[string]interface{}{}
	if update.FirstName != nil {
		changes["first_name"] = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		changes["last_name"] = strings.TrimSpace(*update.LastName)
	}
	if update.Phone != nil {
		if *update.Phone != "" && !utils.ValidatePhone(*update.Phone) {
			return nil, utils.NewValidationError("Invalid phone number", "phone must be 10 digits")
		}
		changes["phone"] = utils.NormalizePhone(*update.Phone)
	}
	if update.DateOfBirth != nil {
		changes["date_of_birth"] = *update.DateOfBirth
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to update profile", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *AuthService) UpdateRole(ctx context.Context, userID uuid.UUID, role string) error {
	if !models.IsValidRole(role) {
		return utils.NewValidationError("Invalid role", "role must be one of: "+strings.Join(models.Roles, ", "))
	}
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if result.Error != nil {
		return utils.NewUpstreamError("Failed to update role", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NewNotFoundError("User not found")
	}
	s.logger.Info("user role changed", zap.String("user_id", userID.String()), zap.String("role", role))
	return nil
}

// RequestPasswordReset issues a recovery link when the email is known. The
// caller must answer the same way whether or not it is.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.sessions.CreateRecoveryToken(ctx, user.ID, s.cfg.RecoveryTokenExpiry)
	if err != nil {
		return err
	}

	link := s.cfg.PasswordResetURL + "?token=" + token
	if s.sms != nil && user.Phone != "" {
		if err := s.sms.Send(ctx, user.Phone, "Reset your Salonica password: "+link); err != nil {
			return fmt.Errorf("send reset link: %w", err)
		}
		return nil
	}
	if s.cfg.LogResetLinks {
		s.logger.Info("password reset link issued", zap.String("user_id", user.ID.String()), zap.String("link", link))
		return nil
	}
	s.logger.Warn("password reset requested but no delivery channel is available", zap.String("user_id", user.ID.String()))
	return nil
}

// ResetPassword sets a new password using a single-use recovery token.
func (s *AuthService) ResetPassword(ctx context.Context, recoveryToken, newPassword string) error {
	userID, err := s.sessions.ConsumeRecoveryToken(ctx, recoveryToken)
	if err != nil {
		if utils.KindOf(err) != 0 {
			return err
		}
		return utils.NewUpstreamError("Failed to reset password", err)
	}
	if err := s.ChangePassword(ctx, userID, newPassword); err != nil {
		return err
	}
	// A reset means the old password may be compromised.
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return utils.NewUpstreamError("Failed to end existing sessions", err)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if len(newPassword) < 8 {
		return utils.NewValidationError("Password must be at least 8 characters")
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return utils.NewUpstreamError("Failed to update password", err)
	}
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash)
	if result.Error != nil {
		return utils.NewUpstreamError("Failed to update password", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NewNotFoundError("User not found")
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account when no admin exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	var admins int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &models.User{
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		FirstName:    "Platform",
		LastName:     "Admin",
		Role:         models.RoleAdmin,
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", zap.String("email", admin.Email))
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User) (*Session, error) {
	sessionID, refresh, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to start session", err)
	}
	access, expiresAt, err := s.tokens.IssueAccessToken(user, sessionID)
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to start session", err)
	}
	return &Session{AccessToken: access, RefreshToken: refresh, TokenType: "bearer", ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
