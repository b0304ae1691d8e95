package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/config"
	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"github.com/google/uuid"
)

type Organization struct {
	ID        string    `gorm:"primary_key;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:64" json:"phone"`
	Address   string    `gorm:"size:500" json:"address"`
	Timezone  string    `gorm:"size:64;default:'Asia/Yangon'" json:"timezone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOrganization struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
}

// CreateOrganization provisions a tenant. Not tenant-scoped itself.
func CreateOrganization(ctx context.Context, input *NewOrganization) (*Organization, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New("organization name is required")
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, errors.New("organization email is invalid")
	}

	organization := Organization{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(input.Name),
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		Timezone: input.Timezone,
		IsActive: utils.NewTrue(),
	}
	if organization.Timezone == "" {
		organization.Timezone = "Asia/Yangon"
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&organization).Error; err != nil {
		return nil, err
	}
	return &organization, nil
}

// GetOrganization returns the caller's own organization record.
func GetOrganization(ctx context.Context) (*Organization, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}

	db := config.GetDB()
	var organization Organization
	err := db.WithContext(ctx).Where("id = ?", organizationId).First(&organization).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &organization, nil
}
