package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SalonStatusPending  = "pending"
	SalonStatusVerified = "verified"
	SalonStatusRejected = "rejected"
)

type Salon struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Address     string    `gorm:"size:255;not null" json:"address"`
	City        string    `gorm:"size:100" json:"city"`
	State       string    `gorm:"size:2;not null" json:"state"`
	ZipCode     string    `gorm:"size:5;not null" json:"zip_code"`
	Phone       *string   `gorm:"size:10" json:"phone"`
	Email       *string   `gorm:"size:255" json:"email"`
	Description string    `gorm:"size:255" json:"description"`
	LicenseURL  string    `json:"license_url"`
	LogoURL     string    `json:"logo_url"`
	Status      string    `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Owner   *User    `gorm:"foreignKey:OwnerID" json:"-"`
	Barbers []Barber `gorm:"foreignKey:SalonID" json:"-"`
}

func (s *Salon) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SalonStatusPending
	}
	return
}
