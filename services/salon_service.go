package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"salonica-backend/models"
	"salonica-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// appealFields are the salon columns an owner may change in an appeal.
var appealFields = map[string]bool{
	"name":        true,
	"description": true,
	"address":     true,
	"phone":       true,
	"license_url": true,
	"logo_url":    true,
}

type ApplyParams struct {
	Name        string
	Address     string
	City        string
	State       string
	ZipCode     string
	Phone       string
	Email       string
	Description string
	LicenseURL  string
	LogoURL     string
	License     *FileUpload
	Logo        *FileUpload
}

type AppealParams struct {
	Updates map[string]any
	License *FileUpload
	Logo    *FileUpload
}

// SalonService runs the salon verification lifecycle:
// pending -> verified | rejected, rejected -> pending by appeal.
type SalonService struct {
	db      *gorm.DB
	files   FileStore
	history HistoryReader
	logger  *zap.Logger
}

// HistoryReader is the read side of the notification dispatcher.
type HistoryReader interface {
	History(ctx context.Context, eventType string, relatedID uuid.UUID) ([]models.Notification, error)
}

func NewSalonService(db *gorm.DB, files FileStore, history HistoryReader, logger *zap.Logger) *SalonService {
	return &SalonService{db: db, files: files, history: history, logger: logger}
}

// Apply creates a salon in pending for owner. Attachments are uploaded after
// the row is committed; an upload failure leaves the row in place.
func (s *SalonService) Apply(ctx context.Context, owner *Identity, p ApplyParams) (*models.Salon, error) {
	if err := validateApply(p); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(p.Email)
	if email == "" {
		email = owner.Email
	}

	salon := &models.Salon{
		OwnerID:     owner.UserID,
		Name:        strings.TrimSpace(p.Name),
		Address:     strings.TrimSpace(p.Address),
		City:        strings.TrimSpace(p.City),
		State:       strings.ToUpper(strings.TrimSpace(p.State)),
		ZipCode:     strings.TrimSpace(p.ZipCode),
		Phone:       optional(utils.NormalizePhone(p.Phone)),
		Email:       optional(email),
		Description: strings.TrimSpace(p.Description),
		Status:      models.SalonStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(salon).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to register salon", err)
	}

	updates := map[string]interface{}{}
	if p.License != nil {
		signed, err := UploadSalonFile(ctx, s.files, salon.ID, FileTypeLicense, *p.License)
		if err != nil {
			s.logger.Error("license upload failed after salon insert", zap.String("salon_id", salon.ID.String()), zap.Error(err))
			return salon, err
		}
		updates["license_url"] = signed
	} else if p.LicenseURL != "" {
		updates["license_url"] = p.LicenseURL
	}
	if p.Logo != nil {
		signed, err := UploadSalonFile(ctx, s.files, salon.ID, FileTypeLogo, *p.Logo)
		if err != nil {
			s.logger.Error("logo upload failed after salon insert", zap.String("salon_id", salon.ID.String()), zap.Error(err))
			return salon, err
		}
		updates["logo_url"] = signed
	} else if p.LogoURL != "" {
		updates["logo_url"] = p.LogoURL
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(salon).Updates(updates).Error; err != nil {
			return salon, utils.NewUpstreamError("Failed to store salon attachments", err)
		}
	}

	s.logger.Info("salon application submitted",
		zap.String("salon_id", salon.ID.String()),
		zap.String("owner_id", owner.UserID.String()))
	return salon, nil
}

// Appeal moves a rejected salon back to pending, applying the allowed field
// updates. Only the owner may appeal.
func (s *SalonService) Appeal(ctx context.Context, salonID, callerID uuid.UUID, p AppealParams) (*models.Salon, error) {
	salon, err := s.Get(ctx, salonID)
	if err != nil {
		return nil, err
	}
	if salon.OwnerID != callerID {
		return nil, utils.NewForbiddenError("You are not authorized to appeal this salon.")
	}
	if salon.Status != models.SalonStatusRejected {
		return nil, utils.NewConflictError(fmt.Sprintf("Appeals are only allowed for rejected salons (current status: '%s').", salon.Status))
	}

	updates, err := appealUpdates(p.Updates)
	if err != nil {
		return nil, err
	}

	if p.License != nil {
		signed, err := UploadSalonFile(ctx, s.files, salon.ID, FileTypeLicense, *p.License)
		if err != nil {
			return nil, err
		}
		updates["license_url"] = signed
	}
	if p.Logo != nil {
		signed, err := UploadSalonFile(ctx, s.files, salon.ID, FileTypeLogo, *p.Logo)
		if err != nil {
			return nil, err
		}
		updates["logo_url"] = signed
	}
	updates["status"] = models.SalonStatusPending

	if err := s.transition(ctx, salon, models.SalonStatusRejected, updates); err != nil {
		return nil, err
	}
	s.logger.Info("salon appeal submitted", zap.String("salon_id", salon.ID.String()))
	return s.Get(ctx, salonID)
}

func (s *SalonService) Approve(ctx context.Context, salonID uuid.UUID) (*models.Salon, error) {
	return s.decide(ctx, salonID, models.SalonStatusVerified)
}

// Reject marks the salon rejected. The reason travels only in the owner's
// notification.
func (s *SalonService) Reject(ctx context.Context, salonID uuid.UUID) (*models.Salon, error) {
	return s.decide(ctx, salonID, models.SalonStatusRejected)
}

func (s *SalonService) decide(ctx context.Context, salonID uuid.UUID, target string) (*models.Salon, error) {
	salon, err := s.Get(ctx, salonID)
	if err != nil {
		return nil, err
	}
	if salon.Status == models.SalonStatusVerified {
		return nil, utils.NewConflictError(fmt.Sprintf("Salon can no longer be reviewed (current status: '%s').", salon.Status))
	}

	if err := s.transition(ctx, salon, salon.Status, map[string]interface{}{"status": target}); err != nil {
		return nil, err
	}
	s.logger.Info("salon reviewed", zap.String("salon_id", salon.ID.String()), zap.String("status", target))
	salon.Status = target
	return salon, nil
}

// transition applies updates only while the salon is still in from, so two
// racing reviews cannot both win.
func (s *SalonService) transition(ctx context.Context, salon *models.Salon, from string, updates map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.Salon{}).
		Where("id = ? AND status = ?", salon.ID, from).
		Updates(updates)
	if result.Error != nil {
		return utils.NewUpstreamError("Failed to update salon", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NewConflictError("Salon status changed concurrently, please retry")
	}
	return nil
}

func (s *SalonService) Get(ctx context.Context, salonID uuid.UUID) (*models.Salon, error) {
	var salon models.Salon
	err := s.db.WithContext(ctx).First(&salon, "id = ?", salonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("Salon not found")
	}
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to load salon", err)
	}
	return &salon, nil
}

func (s *SalonService) ListPending(ctx context.Context) ([]models.Salon, error) {
	return s.listWhere(ctx, "status = ?", models.SalonStatusPending)
}

func (s *SalonService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Salon, error) {
	return s.listWhere(ctx, "owner_id = ?", ownerID)
}

func (s *SalonService) listWhere(ctx context.Context, query string, args ...interface{}) ([]models.Salon, error) {
	salons := []models.Salon{}
	if err := s.db.WithContext(ctx).Where(query, args...).Order("created_at ASC").Find(&salons).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to load salons", err)
	}
	return salons, nil
}

// StatusHistory is the verification timeline of a salon, oldest first.
func (s *SalonService) StatusHistory(ctx context.Context, salonID uuid.UUID) ([]models.Notification, error) {
	if _, err := s.Get(ctx, salonID); err != nil {
		return nil, err
	}
	timeline, err := s.history.History(ctx, models.NotificationTypeSalonVerification, salonID)
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to fetch salon status history", err)
	}
	if timeline == nil {
		timeline = []models.Notification{}
	}
	return timeline, nil
}

// AddBarber attaches a user with the barber role to a salon. Only the salon
// owner or an admin may do so.
func (s *SalonService) AddBarber(ctx context.Context, caller *Identity, salonID, userID uuid.UUID) (*models.Barber, error) {
	salon, err := s.Get(ctx, salonID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && salon.OwnerID != caller.UserID {
		return nil, utils.NewForbiddenError("Only the salon owner can add barbers")
	}

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to load user", err)
	}
	if user.Role != models.RoleBarber {
		return nil, utils.NewValidationError("User does not have the barber role")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Barber{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to add barber", err)
	}
	if existing > 0 {
		return nil, utils.NewConflictError("User is already a barber at a salon")
	}

	barber := &models.Barber{UserID: userID, SalonID: salonID, IsActive: true}
	if err := s.db.WithContext(ctx).Create(barber).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to add barber", err)
	}
	return barber, nil
}

func (s *SalonService) ListBarbers(ctx context.Context, salonID uuid.UUID) ([]models.Barber, error) {
	if _, err := s.Get(ctx, salonID); err != nil {
		return nil, err
	}
	barbers := []models.Barber{}
	if err := s.db.WithContext(ctx).Preload("User").Where("salon_id = ?", salonID).Find(&barbers).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to load barbers", err)
	}
	return barbers, nil
}

func validateApply(p ApplyParams) error {
	var details []string
	if n := len(strings.TrimSpace(p.Name)); n < 2 || n > 100 {
		details = append(details, "name must be between 2 and 100 characters")
	}
	if strings.TrimSpace(p.Address) == "" {
		details = append(details, "address is required")
	}
	if !utils.ValidateState(p.State) {
		details = append(details, "state must be a 2-letter code")
	}
	if !utils.ValidateZip(p.ZipCode) {
		details = append(details, "zip_code must be 5 digits")
	}
	if p.Phone != "" && !utils.ValidatePhone(p.Phone) {
		details = append(details, "phone must be 10 digits")
	}
	if len(p.Description) > 255 {
		details = append(details, "description must be at most 255 characters")
	}
	if len(details) > 0 {
		return utils.NewValidationError("Validation failed", details...)
	}
	if strings.TrimSpace(p.Phone) == "" && strings.TrimSpace(p.Email) == "" {
		return utils.NewValidationError("At least one contact method (phone or email) is required.")
	}
	return nil
}

func appealUpdates(raw map[string]any) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	var details []string
	for key, value := range raw {
		if !appealFields[key] {
			continue
		}
		str, ok := value.(string)
		if !ok {
			details = append(details, key+" must be a string")
			continue
		}
		switch key {
		case "name":
			if n := len(strings.TrimSpace(str)); n < 2 || n > 100 {
				details = append(details, "name must be between 2 and 100 characters")
				continue
			}
			str = strings.TrimSpace(str)
		case "phone":
			if !utils.ValidatePhone(str) {
				details = append(details, "phone must be 10 digits")
				continue
			}
			str = utils.NormalizePhone(str)
		}
		updates[key] = str
	}
	if len(details) > 0 {
		return nil, utils.NewValidationError("Validation failed", details...)
	}
	return updates, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
