package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCanceled  = "canceled"
	AppointmentNoShow    = "no_show"
)

var AppointmentStatuses = []string{AppointmentScheduled, AppointmentCompleted, AppointmentCanceled, AppointmentNoShow}

func IsValidAppointmentStatus(status string) bool {
	for _, s := range AppointmentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID         uuid.UUID      `gorm:"type:uuid;index;not null" json:"customer_id"`
	BarberID           uuid.UUID      `gorm:"type:uuid;index:idx_appointment_slot,priority:2;not null" json:"barber_id"`
	ServiceID          *uuid.UUID     `gorm:"type:uuid" json:"service_id"`
	SalonID            uuid.UUID      `gorm:"type:uuid;index:idx_appointment_slot,priority:1;not null" json:"salon_id"`
	AppointmentDate    datatypes.Date `gorm:"index:idx_appointment_slot,priority:3;not null" json:"appointment_date"`
	StartTime          datatypes.Time `gorm:"not null" json:"start_time"`
	EndTime            datatypes.Time `gorm:"not null" json:"end_time"`
	Status             string         `gorm:"type:varchar(20);not null" json:"status"`
	Notes              string         `gorm:"type:text" json:"notes"`
	CancellationReason string         `gorm:"type:text" json:"cancellation_reason"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AppointmentScheduled
	}
	return
}

// Overlaps reports whether two half-open [start, end) intervals intersect.
func Overlaps(aStart, aEnd, bStart, bEnd datatypes.Time) bool {
	return aStart < bEnd && aEnd > bStart
}
