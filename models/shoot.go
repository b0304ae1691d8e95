package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/config"
	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"gorm.io/gorm"
)

type Shoot struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;size:36;not null" json:"organization_id"`
	BookingId      int       `gorm:"index;not null" json:"booking_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Location       string    `gorm:"size:255" json:"location"`
	ScheduledOn    time.Time `json:"scheduled_on"`
	Note           string    `gorm:"type:text" json:"note"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Assignments []*ShootAssignment `gorm:"foreignKey:ShootId" json:"assignments"`
}

type NewShoot struct {
	BookingId     int       `json:"booking_id"`
	Name          string    `json:"name" binding:"required"`
	Location      string    `json:"location"`
	ScheduledOn   time.Time `json:"scheduled_on"`
	Note          string    `json:"note"`
	CrewMemberIds []int     `json:"crew_member_ids"`
}

// CreateShoot adds a shoot to an existing booking, together with its crew
// assignments, in one transaction.
func CreateShoot(ctx context.Context, input *NewShoot) (*Shoot, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New("shoot name is required")
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	// cross-tenant booking ids must look absent
	booking, err := lockBooking(tx, ctx, organizationId, input.BookingId)
	if err != nil {
		return nil, err
	}

	shoot := Shoot{
		OrganizationId: organizationId,
		BookingId:      booking.ID,
		Name:           strings.TrimSpace(input.Name),
		Location:       input.Location,
		ScheduledOn:    input.ScheduledOn,
		Note:           input.Note,
	}
	if err := tx.WithContext(ctx).Create(&shoot).Error; err != nil {
		return nil, err
	}

	if _, err := reconcileShootCrew(tx, ctx, organizationId, shoot.ID, input.CrewMemberIds); err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("shoot_id = ?", shoot.ID).Find(&shoot.Assignments).Error; err != nil {
		return nil, err
	}

	if err := touchBooking(tx, ctx, organizationId, booking.ID); err != nil {
		return nil, err
	}
	if err := createHistory(tx, ctx, "Create", shoot.ID, "shoots", nil, &shoot,
		"Shoot "+shoot.Name+" added to booking "+booking.Name+"."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}
	return &shoot, nil
}

type UpdateShootInput struct {
	Name          *string    `json:"name"`
	Location      *string    `json:"location"`
	ScheduledOn   *time.Time `json:"scheduled_on"`
	Note          *string    `json:"note"`
	CrewMemberIds *[]int     `json:"crew_member_ids"`
}

// UpdateShoot applies a partial field update and, when CrewMemberIds is
// present, reconciles the assignment rows to that exact set.
func UpdateShoot(ctx context.Context, id int, input *UpdateShootInput) (*Shoot, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	var shoot Shoot
	err := tx.WithContext(ctx).Where("organization_id = ?", organizationId).First(&shoot, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	before := shoot

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New("shoot name is required")
		}
		updates["name"] = name
		shoot.Name = name
	}
	if input.Location != nil {
		updates["location"] = *input.Location
		shoot.Location = *input.Location
	}
	if input.ScheduledOn != nil {
		updates["scheduled_on"] = *input.ScheduledOn
		shoot.ScheduledOn = *input.ScheduledOn
	}
	if input.Note != nil {
		updates["note"] = *input.Note
		shoot.Note = *input.Note
	}

	if len(updates) > 0 {
		err = tx.WithContext(ctx).Model(&Shoot{}).
			Where("organization_id = ? AND id = ?", organizationId, id).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}

	if input.CrewMemberIds != nil {
		if _, err := reconcileShootCrew(tx, ctx, organizationId, shoot.ID, *input.CrewMemberIds); err != nil {
			return nil, err
		}
	}
	if err := tx.WithContext(ctx).Where("shoot_id = ?", shoot.ID).Find(&shoot.Assignments).Error; err != nil {
		return nil, err
	}

	if err := touchBooking(tx, ctx, organizationId, shoot.BookingId); err != nil {
		return nil, err
	}
	if err := createHistory(tx, ctx, "Update", shoot.ID, "shoots", &before, &shoot,
		"Shoot "+shoot.Name+" updated."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}
	return &shoot, nil
}

func GetShoot(ctx context.Context, id int) (*Shoot, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	return utils.FetchModel[Shoot](ctx, organizationId, id, "Assignments")
}
