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

type Task struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;size:36;not null" json:"organization_id"`
	BookingId      int       `gorm:"index;not null" json:"booking_id"`
	DeliverableId  *int      `gorm:"index" json:"deliverable_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	DueDate        time.Time `json:"due_date"`
	IsDone         *bool     `gorm:"not null;default:false" json:"is_done"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Assignments []*TaskAssignment `gorm:"foreignKey:TaskId" json:"assignments"`
}

type NewTask struct {
	BookingId     int       `json:"booking_id"`
	DeliverableId *int      `json:"deliverable_id"`
	Name          string    `json:"name" binding:"required"`
	Description   string    `json:"description"`
	DueDate       time.Time `json:"due_date"`
	CrewMemberIds []int     `json:"crew_member_ids"`
}

// a task's deliverable, when set, must belong to the same booking
func validateTaskDeliverable(tx *gorm.DB, ctx context.Context, organizationId string, bookingId int, deliverableId *int) error {
	if deliverableId == nil {
		return nil
	}
	var count int64
	err := tx.WithContext(ctx).Model(&Deliverable{}).
		Where("organization_id = ? AND booking_id = ? AND id = ?", organizationId, bookingId, *deliverableId).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// CreateTask adds a task to an existing booking with its crew assignments in
// one transaction.
func CreateTask(ctx context.Context, input *NewTask) (*Task, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New("task name is required")
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
	if err := validateTaskDeliverable(tx, ctx, organizationId, booking.ID, input.DeliverableId); err != nil {
		return nil, err
	}

	task := Task{
		OrganizationId: organizationId,
		BookingId:      booking.ID,
		DeliverableId:  input.DeliverableId,
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		DueDate:        input.DueDate,
		IsDone:         utils.NewFalse(),
	}
	if err := tx.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, err
	}

	if _, err := reconcileTaskCrew(tx, ctx, organizationId, task.ID, input.CrewMemberIds); err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("task_id = ?", task.ID).Find(&task.Assignments).Error; err != nil {
		return nil, err
	}

	if err := touchBooking(tx, ctx, organizationId, booking.ID); err != nil {
		return nil, err
	}
	if err := createHistory(tx, ctx, "Create", task.ID, "tasks", nil, &task,
		"Task "+task.Name+" added to booking "+booking.Name+"."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}
	return &task, nil
}

type UpdateTaskInput struct {
	Name          *string    `json:"name"`
	Description   *string    `json:"description"`
	DeliverableId *int       `json:"deliverable_id"`
	DueDate       *time.Time `json:"due_date"`
	IsDone        *bool      `json:"is_done"`
	CrewMemberIds *[]int     `json:"crew_member_ids"`
}

func UpdateTask(ctx context.Context, id int, input *UpdateTaskInput) (*Task, error) {

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

	var task Task
	err := tx.WithContext(ctx).Where("organization_id = ?", organizationId).First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	before := task

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New("task name is required")
		}
		updates["name"] = name
		task.Name = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
		task.Description = *input.Description
	}
	if input.DeliverableId != nil {
		if err := validateTaskDeliverable(tx, ctx, organizationId, task.BookingId, input.DeliverableId); err != nil {
			return nil, err
		}
		updates["deliverable_id"] = *input.DeliverableId
		task.DeliverableId = input.DeliverableId
	}
	if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
		task.DueDate = *input.DueDate
	}
	if input.IsDone != nil {
		updates["is_done"] = *input.IsDone
		task.IsDone = input.IsDone
	}

	if len(updates) > 0 {
		err = tx.WithContext(ctx).Model(&Task{}).
			Where("organization_id = ? AND id = ?", organizationId, id).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}

	if input.CrewMemberIds != nil {
		if _, err := reconcileTaskCrew(tx, ctx, organizationId, task.ID, *input.CrewMemberIds); err != nil {
			return nil, err
		}
	}
	if err := tx.WithContext(ctx).Where("task_id = ?", task.ID).Find(&task.Assignments).Error; err != nil {
		return nil, err
	}

	if err := touchBooking(tx, ctx, organizationId, task.BookingId); err != nil {
		return nil, err
	}
	if err := createHistory(tx, ctx, "Update", task.ID, "tasks", &before, &task,
		"Task "+task.Name+" updated."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}
	return &task, nil
}

func GetTask(ctx context.Context, id int) (*Task, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	return utils.FetchModel[Task](ctx, organizationId, id, "Assignments")
}
