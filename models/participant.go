package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"gorm.io/gorm"
)

// Client is the person identity; BookingParticipant ties a client to one
// booking with a role. Clients are shared across bookings of the same
// organization, matched by phone.

type Client struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;size:36;not null" json:"organization_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Email          string    `gorm:"size:255" json:"email"`
	Phone          string    `gorm:"size:64;index" json:"phone"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type BookingParticipant struct {
	ID             int    `gorm:"primary_key" json:"id"`
	OrganizationId string `gorm:"index;size:36;not null" json:"organization_id"`
	BookingId      int    `gorm:"not null;uniqueIndex:uniq_booking_client" json:"booking_id"`
	ClientId       int    `gorm:"not null;uniqueIndex:uniq_booking_client" json:"client_id"`
	Role           string `gorm:"size:100" json:"role"`

	Client *Client `gorm:"foreignKey:ClientId" json:"client,omitempty"`
}

type NewParticipant struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (input *NewParticipant) validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.New("participant name is required")
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("participant email is invalid")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, ""); err != nil {
			return errors.New("participant phone number is invalid")
		}
	}
	return nil
}

// createParticipants inserts the client + participant rows of one booking on
// the caller's transaction. An existing client of the organization with the
// same phone is reused instead of duplicated.
func createParticipants(tx *gorm.DB, ctx context.Context, organizationId string, bookingId int,
	inputs []*NewParticipant) ([]*BookingParticipant, error) {

	var participants []*BookingParticipant
	for _, input := range inputs {
		client, err := findOrCreateClient(tx, ctx, organizationId, input)
		if err != nil {
			return nil, err
		}
		participant := BookingParticipant{
			OrganizationId: organizationId,
			BookingId:      bookingId,
			ClientId:       client.ID,
			Role:           input.Role,
			Client:         client,
		}
		if err := tx.WithContext(ctx).Create(&participant).Error; err != nil {
			return nil, err
		}
		participants = append(participants, &participant)
	}
	return participants, nil
}

func findOrCreateClient(tx *gorm.DB, ctx context.Context, organizationId string, input *NewParticipant) (*Client, error) {
	if input.Phone != "" {
		var existing Client
		err := tx.WithContext(ctx).
			Where("organization_id = ? AND phone = ?", organizationId, input.Phone).
			First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	client := Client{
		OrganizationId: organizationId,
		Name:           strings.TrimSpace(input.Name),
		Email:          input.Email,
		Phone:          input.Phone,
	}
	if err := tx.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}
