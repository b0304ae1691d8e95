package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/config"
	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"github.com/shopspring/decimal"
)

// PackageType is the price-list registry: a named package with a default cost
// that seeds Booking.PackageCost on the client side.

type PackageType struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"index;size:36;not null" json:"organization_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Category       string          `gorm:"size:100" json:"category"`
	DefaultCost    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"default_cost"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPackageType struct {
	Name        string       `json:"name" binding:"required"`
	Category    string       `json:"category"`
	DefaultCost utils.Amount `json:"default_cost"`
	IsActive    *bool        `json:"is_active"`
}

func (input *NewPackageType) validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("package type name is required")
	}
	if input.DefaultCost.IsNegative() {
		return errors.New("package type default cost must not be negative")
	}
	return nil
}

func CreatePackageType(ctx context.Context, input *NewPackageType) (*PackageType, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if err := utils.ValidateUnique[PackageType](ctx, organizationId, "name", name, 0); err != nil {
		return nil, err
	}

	packageType := PackageType{
		OrganizationId: organizationId,
		Name:           name,
		Category:       input.Category,
		DefaultCost:    input.DefaultCost.Decimal,
		IsActive:       input.IsActive,
	}
	if packageType.IsActive == nil {
		packageType.IsActive = utils.NewTrue()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&packageType).Error; err != nil {
		return nil, err
	}
	_ = utils.ClearRedisList[PackageType](organizationId)
	return &packageType, nil
}

func UpdatePackageType(ctx context.Context, id int, input *NewPackageType) (*PackageType, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if err := utils.ValidateUnique[PackageType](ctx, organizationId, "name", name, id); err != nil {
		return nil, err
	}

	packageType, err := utils.FetchModel[PackageType](ctx, organizationId, id)
	if err != nil {
		return nil, err
	}
	packageType.Name = name
	packageType.Category = input.Category
	packageType.DefaultCost = input.DefaultCost.Decimal
	if input.IsActive != nil {
		packageType.IsActive = input.IsActive
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&PackageType{}).
		Where("organization_id = ? AND id = ?", organizationId, id).
		Updates(map[string]interface{}{
			"name":         packageType.Name,
			"category":     packageType.Category,
			"default_cost": packageType.DefaultCost,
			"is_active":    packageType.IsActive,
		}).Error
	if err != nil {
		return nil, err
	}
	_ = utils.ClearRedisList[PackageType](organizationId)
	return packageType, nil
}

func ListPackageTypes(ctx context.Context) ([]*PackageType, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}

	if cached, err := utils.RetrieveRedisList[PackageType](organizationId); err == nil && cached != nil {
		return cached, nil
	}

	results, err := utils.FetchAllModels[PackageType](ctx, organizationId)
	if err != nil {
		return nil, err
	}
	_ = utils.StoreRedisList[PackageType](results, organizationId)
	return results, nil
}
