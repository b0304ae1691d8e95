package models

import (
	"bitbucket.org/mmdatafocus/studio_backend/config"
	"bitbucket.org/mmdatafocus/studio_backend/utils"
)

// MigrateTable Migrate tables
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Organization{},
		&Client{},
		&CrewMember{},
		&BookingType{},
		&PackageType{},
		&Booking{},
		&BookingParticipant{},
		&Shoot{},
		&Deliverable{},
		&Task{},
		&Expense{},
		&ShootAssignment{},
		&DeliverableAssignment{},
		&TaskAssignment{},
		&ExpenseAssignment{},
		&ReceivedPayment{},
		&ScheduledPayment{},
		&History{},
	)
	utils.ErrorPanic(err)
}
