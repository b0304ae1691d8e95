package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/config"
	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Deliverable struct {
	ID                int             `gorm:"primary_key" json:"id"`
	OrganizationId    string          `gorm:"index;size:36;not null" json:"organization_id"`
	BookingId         int             `gorm:"index;not null" json:"booking_id"`
	Name              string          `gorm:"size:255;not null" json:"name"`
	IsPackageIncluded *bool           `gorm:"not null;default:true" json:"is_package_included"`
	Cost              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost"`
	Quantity          int             `gorm:"default:1" json:"quantity"`
	DueDate           time.Time       `json:"due_date"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Assignments []*DeliverableAssignment `gorm:"foreignKey:DeliverableId" json:"assignments"`
}

type NewDeliverable struct {
	BookingId         int          `json:"booking_id"`
	Name              string       `json:"name" binding:"required"`
	IsPackageIncluded *bool        `json:"is_package_included"`
	Cost              utils.Amount `json:"cost"`
	Quantity          int          `json:"quantity"`
	DueDate           time.Time    `json:"due_date"`
	CrewMemberIds     []int        `json:"crew_member_ids"`
}

// CreateDeliverable adds a deliverable to an existing booking with its crew
// assignments in one transaction.
func CreateDeliverable(ctx context.Context, input *NewDeliverable) (*Deliverable, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New("deliverable name is required")
	}
	if input.Cost.IsNegative() {
		return nil, errors.New("deliverable cost must not be negative")
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

	booking, err := lockBooking(tx, ctx, organizationId, input.BookingId)
	if err != nil {
		return nil, err
	}

	deliverable := Deliverable{
		OrganizationId:    organizationId,
		BookingId:         booking.ID,
		Name:              strings.TrimSpace(input.Name),
		IsPackageIncluded: input.IsPackageIncluded,
		Cost:              input.Cost.Decimal,
		Quantity:          input.Quantity,
		DueDate:           input.DueDate,
	}
	if deliverable.IsPackageIncluded == nil {
		deliverable.IsPackageIncluded = utils.NewTrue()
	}
	if deliverable.Quantity <= 0 {
		deliverable.Quantity = 1
	}
	if err := tx.WithContext(ctx).Create(&deliverable).Error; err != nil {
		return nil, err
	}

	if _, err := reconcileDeliverableCrew(tx, ctx, organizationId, deliverable.ID, input.CrewMemberIds); err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("deliverable_id = ?", deliverable.ID).Find(&deliverable.Assignments).Error; err != nil {
		return nil, err
	}

	if err := touchBooking(tx, ctx, organizationId, booking.ID); err != nil {
		return nil, err
	}
	if err := createHistory(tx, ctx, "Create", deliverable.ID, "deliverables", nil, &deliverable,
		"Deliverable "+deliverable.Name+" added to booking "+booking.Name+"."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}
	return &deliverable, nil
}

type UpdateDeliverableInput struct {
	Name              *string       `json:"name"`
	IsPackageIncluded *bool         `json:"is_package_included"`
	Cost              *utils.Amount `json:"cost"`
	Quantity          *int          `json:"quantity"`
	DueDate           *time.Time    `json:"due_date"`
	CrewMemberIds     *[]int        `json:"crew_member_ids"`
}

func UpdateDeliverable(ctx context.Context, id int, input *UpdateDeliverableInput) (*Deliverable, error) {

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

	var deliverable Deliverable
	err := tx.WithContext(ctx).Where("organization_id = ?", organizationId).First(&deliverable, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	before := deliverable

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New("deliverable name is required")
		}
		updates["name"] = name
		deliverable.Name = name
	}
	if input.IsPackageIncluded != nil {
		updates["is_package_included"] = *input.IsPackageIncluded
		deliverable.IsPackageIncluded = input.IsPackageIncluded
	}
	if input.Cost != nil {
		if input.Cost.IsNegative() {
			return nil, errors.New("deliverable cost must not be negative")
		}
		updates["cost"] = input.Cost.Decimal
		deliverable.Cost = input.Cost.Decimal
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, errors.New("deliverable quantity must be positive")
		}
		updates["quantity"] = *input.Quantity
		deliverable.Quantity = *input.Quantity
	}
	if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
		deliverable.DueDate = *input.DueDate
	}

	if len(updates) > 0 {
		err = tx.WithContext(ctx).Model(&Deliverable{}).
			Where("organization_id = ? AND id = ?", organizationId, id).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}

	if input.CrewMemberIds != nil {
		if _, err := reconcileDeliverableCrew(tx, ctx, organizationId, deliverable.ID, *input.CrewMemberIds); err != nil {
			return nil, err
		}
	}
	if err := tx.WithContext(ctx).Where("deliverable_id = ?", deliverable.ID).Find(&deliverable.Assignments).Error; err != nil {
		return nil, err
	}

	if err := touchBooking(tx, ctx, organizationId, deliverable.BookingId); err != nil {
		return nil, err
	}
	if err := createHistory(tx, ctx, "Update", deliverable.ID, "deliverables", &before, &deliverable,
		"Deliverable "+deliverable.Name+" updated."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}
	return &deliverable, nil
}

func GetDeliverable(ctx context.Context, id int) (*Deliverable, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	return utils.FetchModel[Deliverable](ctx, organizationId, id, "Assignments")
}
