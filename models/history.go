package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"gorm.io/gorm"
)

// History is the audit trail. Rows are written inside the same transaction as
// the change they describe, so a rolled-back change leaves no audit row.

type History struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;size:36;not null" json:"organization_id"`
	Action         string    `gorm:"size:50;not null" json:"action"`
	TableName      string    `gorm:"size:100;not null" json:"table_name"`
	ResourceId     int       `gorm:"index;not null" json:"resource_id"`
	UserId         int       `json:"user_id"`
	UserName       string    `gorm:"size:255" json:"user_name"`
	Description    string    `gorm:"size:500" json:"description"`
	Before         string    `gorm:"type:json" json:"before"`
	After          string    `gorm:"type:json" json:"after"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func createHistory(tx *gorm.DB, ctx context.Context, action string, resourceId int, tableName string,
	before, after interface{}, description string) error {

	organizationId, _ := utils.GetOrganizationIdFromContext(ctx)
	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)

	history := History{
		OrganizationId: organizationId,
		Action:         action,
		TableName:      tableName,
		ResourceId:     resourceId,
		UserId:         userId,
		UserName:       userName,
		Description:    description,
		Before:         marshalSnapshot(before),
		After:          marshalSnapshot(after),
	}
	return tx.WithContext(ctx).Create(&history).Error
}

func marshalSnapshot(v interface{}) string {
	if v == nil {
		return "null"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}
