package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BarberAvailability is a recurring weekly working slot. DayOfWeek runs 0..6.
type BarberAvailability struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BarberID  uuid.UUID      `gorm:"type:uuid;index;not null" json:"barber_id"`
	DayOfWeek int            `gorm:"not null" json:"day_of_week"`
	StartTime datatypes.Time `gorm:"not null" json:"start_time"`
	EndTime   datatypes.Time `gorm:"not null" json:"end_time"`
	IsActive  bool           `gorm:"not null" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (BarberAvailability) TableName() string {
	return "barber_availability"
}

func (a *BarberAvailability) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// BarberUnavailability blocks a barber out for a one-off period.
type BarberUnavailability struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BarberID      uuid.UUID `gorm:"type:uuid;index;not null" json:"barber_id"`
	StartDatetime time.Time `gorm:"not null" json:"start_datetime"`
	EndDatetime   time.Time `gorm:"not null" json:"end_datetime"`
	Reason        string    `gorm:"size:255" json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

func (BarberUnavailability) TableName() string {
	return "barber_unavailability"
}

func (u *BarberUnavailability) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
