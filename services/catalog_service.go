package services

import (
	"context"
	"errors"
	"strings"

	"salonica-backend/models"
	"salonica-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParams struct {
	Name        string
	Description string
	Price       float64
	Duration    int
	Category    string
}

// ServicePatch carries only the fields the caller supplied.
type ServicePatch struct {
	Name        *string
	Description *string
	Price       *float64
	Duration    *int
	Category    *string
	IsActive    *bool
}

// CatalogService manages the menu of services each salon offers.
type CatalogService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewCatalogService(db *gorm.DB, logger *zap.Logger) *CatalogService {
	return &CatalogService{db: db, logger: logger}
}

func (s *CatalogService) List(ctx context.Context, salonID uuid.UUID, activeOnly bool) ([]models.Service, error) {
	items := []models.Service{}
	q := s.db.WithContext(ctx).Where("salon_id = ?", salonID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("name ASC").Find(&items).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to retrieve services", err)
	}
	return items, nil
}

func (s *CatalogService) Create(ctx context.Context, caller *Identity, salonID uuid.UUID, p ServiceParams) (*models.Service, error) {
	if err := s.authorize(ctx, caller, salonID); err != nil {
		return nil, err
	}
	item := &models.Service{
		SalonID:     salonID,
		Name:        strings.TrimSpace(p.Name),
		Description: p.Description,
		Price:       p.Price,
		Duration:    p.Duration,
		Category:    p.Category,
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to create service", err)
	}
	return item, nil
}

func (s *CatalogService) Update(ctx context.Context, caller *Identity, serviceID uuid.UUID, p ServicePatch) (*models.Service, error) {
	item, err := s.get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, caller, item.SalonID); err != nil {
		return nil, err
	}

	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Duration != nil {
		item.Duration = *p.Duration
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.IsActive != nil {
		item.IsActive = *p.IsActive
	}

	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to update service", err)
	}
	return item, nil
}

func (s *CatalogService) Delete(ctx context.Context, caller *Identity, serviceID uuid.UUID) error {
	item, err := s.get(ctx, serviceID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, caller, item.SalonID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(item).Error; err != nil {
		return utils.NewUpstreamError("Failed to delete service", err)
	}
	return nil
}

func (s *CatalogService) get(ctx context.Context, serviceID uuid.UUID) (*models.Service, error) {
	var item models.Service
	err := s.db.WithContext(ctx).First(&item, "id = ?", serviceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("Service not found")
	}
	if err != nil {
		return nil, utils.NewUpstreamError("Database error", err)
	}
	return &item, nil
}

func (s *CatalogService) authorize(ctx context.Context, caller *Identity, salonID uuid.UUID) error {
	var salon models.Salon
	err := s.db.WithContext(ctx).Select("id", "owner_id").First(&salon, "id = ?", salonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NewNotFoundError("Salon not found")
	}
	if err != nil {
		return utils.NewUpstreamError("Failed to load salon", err)
	}
	if !caller.IsAdmin() && salon.OwnerID != caller.UserID {
		return utils.NewForbiddenError("Only the salon owner can manage its services")
	}
	return nil
}
