package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleCustomer   = "customer"
	RoleSalonOwner = "salon_owner"
	RoleBarber     = "barber"
	RoleAdmin      = "admin"
)

// Roles lists every role an identity may hold.
var Roles = []string{RoleCustomer, RoleSalonOwner, RoleBarber, RoleAdmin}

// IsValidRole reports whether role is one of Roles.
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string          `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string          `gorm:"not null" json:"-"`
	FirstName    string          `gorm:"size:100" json:"first_name"`
	LastName     string          `gorm:"size:100" json:"last_name"`
	Phone        string          `gorm:"size:20" json:"phone,omitempty"`
	Role         string          `gorm:"type:varchar(20);not null;index" json:"role"`
	DateOfBirth  *datatypes.Date `json:"date_of_birth,omitempty"`
	LastSignInAt *time.Time      `json:"last_sign_in_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// FullName joins first and last name, falling back to the email.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}
