package services

import (
	"context"
	"errors"
	"fmt"

	"salonica-backend/models"
	"salonica-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateAppointmentParams struct {
	CustomerID      uuid.UUID
	BarberID        uuid.UUID
	SalonID         uuid.UUID
	ServiceID       *uuid.UUID
	AppointmentDate datatypes.Date
	StartTime       datatypes.Time
	EndTime         datatypes.Time
	Notes           string
}

// AppointmentUpdate carries only the fields the caller supplied.
type AppointmentUpdate struct {
	BarberID           *uuid.UUID
	ServiceID          *uuid.UUID
	AppointmentDate    *datatypes.Date
	StartTime          *datatypes.Time
	EndTime            *datatypes.Time
	Status             *string
	Notes              *string
	CancellationReason *string
}

type AppointmentService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAppointmentService(db *gorm.DB, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{db: db, logger: logger}
}

// Create books an appointment after checking the barber's slot is free.
// The check and the insert share a transaction; on Postgres an advisory
// lock on the slot serialises concurrent bookings.
func (s *AppointmentService) Create(ctx context.Context, p CreateAppointmentParams) (*models.Appointment, error) {
	if p.EndTime <= p.StartTime {
		return nil, utils.NewValidationError("end_time must be after start_time")
	}

	appointment := &models.Appointment{
		CustomerID:      p.CustomerID,
		BarberID:        p.BarberID,
		SalonID:         p.SalonID,
		ServiceID:       p.ServiceID,
		AppointmentDate: p.AppointmentDate,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		Status:          models.AppointmentScheduled,
		Notes:           p.Notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var barber models.Barber
		err := tx.First(&barber, "id = ?", p.BarberID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewNotFoundError("Barber not found")
		}
		if err != nil {
			return utils.NewUpstreamError("Failed to load barber", err)
		}
		if barber.SalonID != p.SalonID {
			return utils.NewValidationError("Barber does not work at this salon")
		}

		if err := lockSlot(tx, p.SalonID, p.BarberID, p.AppointmentDate); err != nil {
			return err
		}
		if err := checkOverlap(tx, p.SalonID, p.BarberID, p.AppointmentDate, p.StartTime, p.EndTime, nil); err != nil {
			return err
		}
		if err := tx.Create(appointment).Error; err != nil {
			return utils.NewUpstreamError("Failed to create appointment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appointment.ID.String()),
		zap.String("barber_id", appointment.BarberID.String()))
	return appointment, nil
}

// List returns the appointments visible to the caller's role.
func (s *AppointmentService) List(ctx context.Context, caller *Identity) ([]models.Appointment, error) {
	appointments := []models.Appointment{}
	q := s.db.WithContext(ctx).Order("appointment_date ASC, start_time ASC")

	switch caller.Role {
	case models.RoleCustomer:
		q = q.Where("customer_id = ?", caller.UserID)
	case models.RoleSalonOwner:
		q = q.Where("salon_id IN (?)", s.db.Model(&models.Salon{}).Select("id").Where("owner_id = ?", caller.UserID))
	case models.RoleBarber:
		q = q.Where("barber_id IN (?)", s.db.Model(&models.Barber{}).Select("id").Where("user_id = ?", caller.UserID))
	case models.RoleAdmin:
	default:
		return nil, utils.NewForbiddenError("Unauthorized role")
	}

	if err := q.Find(&appointments).Error; err != nil {
		return nil, utils.NewUpstreamError("Failed to load appointments", err)
	}
	return appointments, nil
}

func (s *AppointmentService) Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return getAppointment(s.db.WithContext(ctx), id)
}

// Update applies a partial update. Moving the appointment re-runs the
// overlap check against every other booking of the slot.
func (s *AppointmentService) Update(ctx context.Context, caller *Identity, id uuid.UUID, u AppointmentUpdate) (*models.Appointment, error) {
	var updated *models.Appointment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := getAppointment(tx, id)
		if err != nil {
			return err
		}
		if err := canAccessAppointment(tx, caller, current); err != nil {
			return err
		}

		changes := map[string]interface{}{}
		next := *current
		if u.BarberID != nil {
			changes["barber_id"] = *u.BarberID
			next.BarberID = *u.BarberID
		}
		if u.ServiceID != nil {
			changes["service_id"] = *u.ServiceID
		}
		if u.AppointmentDate != nil {
			changes["appointment_date"] = *u.AppointmentDate
			next.AppointmentDate = *u.AppointmentDate
		}
		if u.StartTime != nil {
			changes["start_time"] = *u.StartTime
			next.StartTime = *u.StartTime
		}
		if u.EndTime != nil {
			changes["end_time"] = *u.EndTime
			next.EndTime = *u.EndTime
		}
		if u.Status != nil {
			if !models.IsValidAppointmentStatus(*u.Status) {
				return utils.NewValidationError("Invalid status value")
			}
			if caller.Role == models.RoleCustomer && *u.Status != models.AppointmentCanceled && *u.Status != current.Status {
				return utils.NewForbiddenError("Customers can only cancel appointments.")
			}
			changes["status"] = *u.Status
			next.Status = *u.Status
		}
		if u.Notes != nil {
			changes["notes"] = *u.Notes
		}
		if u.CancellationReason != nil {
			changes["cancellation_reason"] = *u.CancellationReason
		}

		if len(changes) == 0 {
			updated = current
			return nil
		}

		if next.EndTime <= next.StartTime {
			return utils.NewValidationError("end_time must be after start_time")
		}

		moved := u.BarberID != nil || u.AppointmentDate != nil || u.StartTime != nil || u.EndTime != nil
		reopened := current.Status == models.AppointmentCanceled && next.Status != models.AppointmentCanceled
		if next.Status != models.AppointmentCanceled && (moved || reopened) {
			if u.BarberID != nil && *u.BarberID != current.BarberID {
				var barber models.Barber
				err := tx.First(&barber, "id = ?", *u.BarberID).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return utils.NewNotFoundError("Barber not found")
				}
				if err != nil {
					return utils.NewUpstreamError("Failed to load barber", err)
				}
				if barber.SalonID != current.SalonID {
					return utils.NewValidationError("Barber does not work at this salon")
				}
			}
			if err := lockSlot(tx, next.SalonID, next.BarberID, next.AppointmentDate); err != nil {
				return err
			}
			if err := checkOverlap(tx, next.SalonID, next.BarberID, next.AppointmentDate, next.StartTime, next.EndTime, &current.ID); err != nil {
				return err
			}
		}

		if err := tx.Model(current).Updates(changes).Error; err != nil {
			return utils.NewUpstreamError("Failed to update appointment", err)
		}
		updated, err = getAppointment(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangeStatus sets the status of an appointment. Customers may only cancel
// their own.
func (s *AppointmentService) ChangeStatus(ctx context.Context, caller *Identity, id uuid.UUID, status string) (*models.Appointment, error) {
	if !models.IsValidAppointmentStatus(status) {
		return nil, utils.NewValidationError("Invalid status value")
	}
	if caller.Role == models.RoleCustomer && status != models.AppointmentCanceled {
		return nil, utils.NewForbiddenError("Customers can only cancel appointments.")
	}
	return s.Update(ctx, caller, id, AppointmentUpdate{Status: &status})
}

// DueForReminder lists scheduled appointments on day that have not had a
// reminder yet.
func (s *AppointmentService) DueForReminder(ctx context.Context, day datatypes.Date) ([]models.Appointment, error) {
	appointments := []models.Appointment{}
	reminded := s.db.Model(&models.Notification{}).
		Select("related_id").
		Where("notification_type = ? AND related_id IS NOT NULL", models.NotificationTypeAppointmentReminder)

	err := s.db.WithContext(ctx).
		Where("appointment_date = ? AND status = ?", day, models.AppointmentScheduled).
		Where("id NOT IN (?)", reminded).
		Order("start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("load appointments due for reminder: %w", err)
	}
	return appointments, nil
}

func getAppointment(db *gorm.DB, id uuid.UUID) (*models.Appointment, error) {
	var appointment models.Appointment
	err := db.First(&appointment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("Appointment not found")
	}
	if err != nil {
		return nil, utils.NewUpstreamError("Failed to load appointment", err)
	}
	return &appointment, nil
}

func canAccessAppointment(db *gorm.DB, caller *Identity, a *models.Appointment) error {
	switch caller.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if a.CustomerID == caller.UserID {
			return nil
		}
	case models.RoleSalonOwner:
		var n int64
		if err := db.Model(&models.Salon{}).Where("id = ? AND owner_id = ?", a.SalonID, caller.UserID).Count(&n).Error; err != nil {
			return utils.NewUpstreamError("Failed to check salon ownership", err)
		}
		if n > 0 {
			return nil
		}
	case models.RoleBarber:
		var n int64
		if err := db.Model(&models.Barber{}).Where("id = ? AND user_id = ?", a.BarberID, caller.UserID).Count(&n).Error; err != nil {
			return utils.NewUpstreamError("Failed to check barber", err)
		}
		if n > 0 {
			return nil
		}
	}
	return utils.NewForbiddenError("You are not allowed to modify this appointment")
}

// checkOverlap rejects [start, end) when it intersects any non-canceled
// booking of the same salon, barber and date.
func checkOverlap(tx *gorm.DB, salonID, barberID uuid.UUID, date datatypes.Date, start, end datatypes.Time, exclude *uuid.UUID) error {
	var existing []models.Appointment
	q := tx.Select("id", "start_time", "end_time").
		Where("salon_id = ? AND barber_id = ? AND appointment_date = ? AND status <> ?",
			salonID, barberID, date, models.AppointmentCanceled)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	if err := q.Find(&existing).Error; err != nil {
		return utils.NewUpstreamError("Failed to check availability", err)
	}

	for _, e := range existing {
		if models.Overlaps(e.StartTime, e.EndTime, start, end) {
			return utils.NewConflictError("Time slot overlaps an existing appointment")
		}
	}
	return nil
}

func lockSlot(tx *gorm.DB, salonID, barberID uuid.UUID, date datatypes.Date) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	key := fmt.Sprintf("appointment:%s:%s:%s", salonID, barberID, utils.FormatDate(date))
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
		return utils.NewUpstreamError("Failed to lock time slot", err)
	}
	return nil
}
