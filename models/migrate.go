package models

import "gorm.io/gorm"

// AutoMigrate creates every table from the gorm models. Production schemas
// come from the SQL migrations; this is used for throwaway databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Salon{},
		&Barber{},
		&Service{},
		&Notification{},
		&Appointment{},
		&BarberAvailability{},
		&BarberUnavailability{},
	)
}
