package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationStatusPending = "pending"

	NotificationTypeSalonVerification   = "salon_verification"
	NotificationTypeAppointmentUpdate   = "appointment_update"
	NotificationTypeAppointmentReminder = "appointment_reminder"
	NotificationTypeSystemEvent         = "system_event"
)

// Notification rows are written once and never updated.
type Notification struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	NotificationType string     `gorm:"type:varchar(50);not null;index" json:"notification_type"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Message          string     `gorm:"type:text;not null" json:"message"`
	Status           string     `gorm:"type:varchar(20);not null" json:"status"`
	RelatedID        *uuid.UUID `gorm:"type:uuid;index" json:"related_id"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = NotificationStatusPending
	}
	return
}
