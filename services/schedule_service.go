package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"salonica-backend/models"
	"salonica-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AvailabilitySlot struct {
	BarberID  *uuid.UUID
	DayOfWeek int
	StartTime datatypes.Time
	EndTime   datatypes.Time
	IsActive  *bool
}

// AvailabilityPatch carries only the fields the caller supplied.
type AvailabilityPatch struct {
	ID        uuid.UUID
	DayOfWeek *int
	StartTime *datatypes.Time
	EndTime   *datatypes.Time
	IsActive  *bool
}

type UnavailabilityParams struct {
	BarberID      *uuid.UUID
	StartDatetime time.Time
	EndDatetime   time.Time
	Reason        string
}

// ScheduleService manages barbers' recurring weekly availability and
// one-off blocked periods.
type ScheduleService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewScheduleService(db *gorm.DB, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{db: db, logger: logger}
}

func (s *ScheduleService) GetBarber(ctx context.Context, barberID uuid.UUID) (*models.Barber, error) {
	var barber models.Barber
	err := s.db.WithContext(ctx).First(&barber, "id = ?", barberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("Barber not found")
	}
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to load barber", err)
	}
	return &barber, nil
}

// BarberForUser returns the barber record of a user with the barber role.
func (s *ScheduleService) BarberForUser(ctx context.Context, userID uuid.UUID) (*models.Barber, error) {
	var barber models.Barber
	err := s.db.WithContext(ctx).First(&barber, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewValidationError("Current user is not associated with a barber")
	}
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to load barber", err)
	}
	return &barber, nil
}

func (s *ScheduleService) GetAvailability(ctx context.Context, barberID uuid.UUID) ([]models.BarberAvailability, error) {
	if _, err := s.GetBarber(ctx, barberID); err != nil {
		return nil, err
	}
	slots := []models.BarberAvailability{}
	err := s.db.WithContext(ctx).
		Where("barber_id = ?", barberID).
		Order("day_of_week ASC, start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to load availability", err)
	}
	return slots, nil
}

// CreateAvailability stores new weekly slots. Barbers write their own
// schedule; owners and admins name the barber on every slot.
func (s *ScheduleService) CreateAvailability(ctx context.Context, caller *Identity, slots []AvailabilitySlot) ([]models.BarberAvailability, error) {
	if len(slots) == 0 {
		return nil, utils.NewValidationError("Missing 'availability' in request body")
	}

	created := make([]models.BarberAvailability, 0, len(slots))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, slot := range slots {
			barberID, err := s.targetBarber(tx, caller, slot.BarberID)
			if err != nil {
				return err
			}
			if err := validateSlot(slot.DayOfWeek, slot.StartTime, slot.EndTime); err != nil {
				return withIndex(err, i)
			}
			active := true
			if slot.IsActive != nil {
				active = *slot.IsActive
			}
			row := models.BarberAvailability{
				BarberID:  barberID,
				DayOfWeek: slot.DayOfWeek,
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				IsActive:  active,
			}
			if err := tx.Create(&row).Error; err != nil {
				return utils.NewUpstreamError("Failed to save availability", err)
			}
			created = append(created, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *ScheduleService) UpdateAvailability(ctx context.Context, caller *Identity, patches []AvailabilityPatch) ([]models.BarberAvailability, error) {
	if len(patches) == 0 {
		return nil, utils.NewValidationError("Missing 'availability' in request body")
	}

	updated := make([]models.BarberAvailability, 0, len(patches))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, patch := range patches {
			var row models.BarberAvailability
			err := tx.First(&row, "id = ?", patch.ID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("Availability slot not found")
			}
			if err != nil {
				return utils.NewUpstreamError("Failed to load availability", err)
			}
			if _, err := s.targetBarber(tx, caller, &row.BarberID); err != nil {
				return err
			}

			changes := map[string]interface{}{}
			if patch.DayOfWeek != nil {
				changes["day_of_week"] = *patch.DayOfWeek
				row.DayOfWeek = *patch.DayOfWeek
			}
			if patch.StartTime != nil {
				changes["start_time"] = *patch.StartTime
				row.StartTime = *patch.StartTime
			}
			if patch.EndTime != nil {
				changes["end_time"] = *patch.EndTime
				row.EndTime = *patch.EndTime
			}
			if patch.IsActive != nil {
				changes["is_active"] = *patch.IsActive
				row.IsActive = *patch.IsActive
			}
			if len(changes) == 0 {
				updated = append(updated, row)
				continue
			}
			if err := validateSlot(row.DayOfWeek, row.StartTime, row.EndTime); err != nil {
				return withIndex(err, i)
			}
			if err := tx.Model(&models.BarberAvailability{}).Where("id = ?", row.ID).Updates(changes).Error; err != nil {
				return utils.NewUpstreamError("Failed to update availability", err)
			}
			updated = append(updated, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ScheduleService) ListUnavailability(ctx context.Context, barberID uuid.UUID) ([]models.BarberUnavailability, error) {
	if _, err := s.GetBarber(ctx, barberID); err != nil {
		return nil, err
	}
	periods := []models.BarberUnavailability{}
	err := s.db.WithContext(ctx).Where("barber_id = ?", barberID).Order("start_datetime ASC").Find(&periods).Error
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to load unavailability", err)
	}
	return periods, nil
}

func (s *ScheduleService) CreateUnavailability(ctx context.Context, caller *Identity, p UnavailabilityParams) (*models.BarberUnavailability, error) {
	if !p.EndDatetime.After(p.StartDatetime) {
		return nil, utils.NewValidationError("end_datetime must be after start_datetime")
	}
	barberID, err := s.targetBarber(s.db.WithContext(ctx), caller, p.BarberID)
	if err != nil {
		return nil, err
	}
	period := &models.BarberUnavailability{
		BarberID:      barberID,
		StartDatetime: p.StartDatetime.UTC(),
		EndDatetime:   p.EndDatetime.UTC(),
		Reason:        p.Reason,
	}
	if err := s.db.WithContext(ctx).Create(period).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to save unavailability", err)
	}
	return period, nil
}

func (s *ScheduleService) DeleteUnavailability(ctx context.Context, caller *Identity, id uuid.UUID) error {
	db := s.db.WithContext(ctx)
	var period models.BarberUnavailability
	err := db.First(&period, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NewNotFoundError("Unavailability not found")
	}
	if err != nil {
		return utils.NewUpstreamError("Failed to load unavailability", err)
	}
	if _, err := s.targetBarber(db, caller, &period.BarberID); err != nil {
		return err
	}
	if err := db.Delete(&period).Error; err != nil {
		return utils.NewUpstreamError("Failed to delete unavailability", err)
	}
	return nil
}

// targetBarber decides which barber a schedule write applies to and whether
// the caller may touch it.
func (s *ScheduleService) targetBarber(db *gorm.DB, caller *Identity, requested *uuid.UUID) (uuid.UUID, error) {
	switch caller.Role {
	case models.RoleBarber:
		var own models.Barber
		err := db.First(&own, "user_id = ?", caller.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, utils.NewValidationError("Current user is not associated with a barber")
		}
		if err != nil {
			return uuid.Nil, utils.NewUpstreamError("Failed to load barber", err)
		}
		if requested != nil && *requested != own.ID {
			return uuid.Nil, utils.NewForbiddenError("Barbers can only manage their own schedule")
		}
		return own.ID, nil

	case models.RoleSalonOwner, models.RoleAdmin:
		if requested == nil {
			return uuid.Nil, utils.NewValidationError("barber_id is required")
		}
		var barber models.Barber
		err := db.First(&barber, "id = ?", *requested).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, utils.NewNotFoundError("Barber not found")
		}
		if err != nil {
			return uuid.Nil, utils.NewUpstreamError("Failed to load barber", err)
		}
		if caller.Role == models.RoleSalonOwner {
			var owned int64
			if err := db.Model(&models.Salon{}).Where("id = ? AND owner_id = ?", barber.SalonID, caller.UserID).Count(&owned).Error; err != nil {
				return uuid.Nil, utils.NewUpstreamError("Failed to check salon ownership", err)
			}
			if owned == 0 {
				return uuid.Nil, utils.NewForbiddenError("Barber does not work at one of your salons")
			}
		}
		return barber.ID, nil
	}
	return uuid.Nil, utils.NewForbiddenError("Your role cannot manage schedules")
}

func validateSlot(day int, start, end datatypes.Time) error {
	if day < 0 || day > 6 {
		return utils.NewValidationError("day_of_week must be between 0 and 6")
	}
	if end <= start {
		return utils.NewValidationError("end_time must be after start_time")
	}
	return nil
}

func withIndex(err error, i int) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		appErr.Details = append(appErr.Details, "availability["+strconv.Itoa(i)+"]")
	}
	return err
}
