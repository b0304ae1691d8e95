package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/config"
	"bitbucket.org/mmdatafocus/studio_backend/utils"
)

type CrewMember struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;size:36;not null" json:"organization_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          string    `gorm:"size:255" json:"email"`
	Phone          string    `gorm:"size:64" json:"phone"`
	Designation    string    `gorm:"size:100" json:"designation"`
	IsActive       *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCrewMember struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Designation string `json:"designation"`
	IsActive    *bool  `json:"is_active"`
}

func (input *NewCrewMember) validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("crew member name is required")
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("crew member email is invalid")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, ""); err != nil {
			return errors.New("crew member phone number is invalid")
		}
	}
	return nil
}

func CreateCrewMember(ctx context.Context, input *NewCrewMember) (*CrewMember, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	member := CrewMember{
		OrganizationId: organizationId,
		Name:           strings.TrimSpace(input.Name),
		Email:          input.Email,
		Phone:          input.Phone,
		Designation:    input.Designation,
		IsActive:       input.IsActive,
	}
	if member.IsActive == nil {
		member.IsActive = utils.NewTrue()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func UpdateCrewMember(ctx context.Context, id int, input *NewCrewMember) (*CrewMember, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	member, err := utils.FetchModel[CrewMember](ctx, organizationId, id)
	if err != nil {
		return nil, err
	}

	member.Name = strings.TrimSpace(input.Name)
	member.Email = input.Email
	member.Phone = input.Phone
	member.Designation = input.Designation
	if input.IsActive != nil {
		member.IsActive = input.IsActive
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&CrewMember{}).
		Where("organization_id = ? AND id = ?", organizationId, id).
		Updates(map[string]interface{}{
			"name":        member.Name,
			"email":       member.Email,
			"phone":       member.Phone,
			"designation": member.Designation,
			"is_active":   member.IsActive,
		}).Error
	if err != nil {
		return nil, err
	}
	return member, nil
}

func GetCrewMember(ctx context.Context, id int) (*CrewMember, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	return utils.FetchModel[CrewMember](ctx, organizationId, id)
}

func ListCrewMembers(ctx context.Context) ([]*CrewMember, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	return utils.FetchAllModels[CrewMember](ctx, organizationId)
}
