package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/config"
	"bitbucket.org/mmdatafocus/studio_backend/utils"
)

// BookingType is a configuration registry row (Wedding, Portrait, Event...).
// Lists are cached in redis and invalidated on every write.

type BookingType struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;size:36;not null" json:"organization_id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	IsActive       *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBookingType struct {
	Name     string `json:"name" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

func CreateBookingType(ctx context.Context, input *NewBookingType) (*BookingType, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("booking type name is required")
	}
	if err := utils.ValidateUnique[BookingType](ctx, organizationId, "name", name, 0); err != nil {
		return nil, err
	}

	bookingType := BookingType{
		OrganizationId: organizationId,
		Name:           name,
		IsActive:       input.IsActive,
	}
	if bookingType.IsActive == nil {
		bookingType.IsActive = utils.NewTrue()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&bookingType).Error; err != nil {
		return nil, err
	}
	_ = utils.ClearRedisList[BookingType](organizationId)
	return &bookingType, nil
}

func UpdateBookingType(ctx context.Context, id int, input *NewBookingType) (*BookingType, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("booking type name is required")
	}
	if err := utils.ValidateUnique[BookingType](ctx, organizationId, "name", name, id); err != nil {
		return nil, err
	}

	bookingType, err := utils.FetchModel[BookingType](ctx, organizationId, id)
	if err != nil {
		return nil, err
	}
	bookingType.Name = name
	if input.IsActive != nil {
		bookingType.IsActive = input.IsActive
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&BookingType{}).
		Where("organization_id = ? AND id = ?", organizationId, id).
		Updates(map[string]interface{}{"name": bookingType.Name, "is_active": bookingType.IsActive}).Error
	if err != nil {
		return nil, err
	}
	_ = utils.ClearRedisList[BookingType](organizationId)
	return bookingType, nil
}

func ListBookingTypes(ctx context.Context) ([]*BookingType, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}

	if cached, err := utils.RetrieveRedisList[BookingType](organizationId); err == nil && cached != nil {
		return cached, nil
	}

	results, err := utils.FetchAllModels[BookingType](ctx, organizationId)
	if err != nil {
		return nil, err
	}
	_ = utils.StoreRedisList[BookingType](results, organizationId)
	return results, nil
}
