package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"gorm.io/gorm"
)

// One join table per assignable entity, all with the same shape. Rows are
// unique on (entity id, crew member id); AssignedAt and IsLead are history
// that must survive reconciliation when a crew member stays assigned.

type ShootAssignment struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;size:36;not null" json:"organization_id"`
	ShootId        int       `gorm:"not null;uniqueIndex:uniq_shoot_crew" json:"shoot_id"`
	CrewMemberId   int       `gorm:"not null;uniqueIndex:uniq_shoot_crew" json:"crew_member_id"`
	IsLead         *bool     `gorm:"not null;default:false" json:"is_lead"`
	AssignedAt     time.Time `gorm:"not null" json:"assigned_at"`
}

func (a ShootAssignment) GetID() int           { return a.ID }
func (a ShootAssignment) GetCrewMemberId() int { return a.CrewMemberId }

type DeliverableAssignment struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;size:36;not null" json:"organization_id"`
	DeliverableId  int       `gorm:"not null;uniqueIndex:uniq_deliverable_crew" json:"deliverable_id"`
	CrewMemberId   int       `gorm:"not null;uniqueIndex:uniq_deliverable_crew" json:"crew_member_id"`
	IsLead         *bool     `gorm:"not null;default:false" json:"is_lead"`
	AssignedAt     time.Time `gorm:"not null" json:"assigned_at"`
}

func (a DeliverableAssignment) GetID() int           { return a.ID }
func (a DeliverableAssignment) GetCrewMemberId() int { return a.CrewMemberId }

type TaskAssignment struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;size:36;not null" json:"organization_id"`
	TaskId         int       `gorm:"not null;uniqueIndex:uniq_task_crew" json:"task_id"`
	CrewMemberId   int       `gorm:"not null;uniqueIndex:uniq_task_crew" json:"crew_member_id"`
	IsLead         *bool     `gorm:"not null;default:false" json:"is_lead"`
	AssignedAt     time.Time `gorm:"not null" json:"assigned_at"`
}

func (a TaskAssignment) GetID() int           { return a.ID }
func (a TaskAssignment) GetCrewMemberId() int { return a.CrewMemberId }

type ExpenseAssignment struct {
	ID             int       `gorm:"primary_key" json:"id"`
	OrganizationId string    `gorm:"index;size:36;not null" json:"organization_id"`
	ExpenseId      int       `gorm:"not null;uniqueIndex:uniq_expense_crew" json:"expense_id"`
	CrewMemberId   int       `gorm:"not null;uniqueIndex:uniq_expense_crew" json:"crew_member_id"`
	IsLead         *bool     `gorm:"not null;default:false" json:"is_lead"`
	AssignedAt     time.Time `gorm:"not null" json:"assigned_at"`
}

func (a ExpenseAssignment) GetID() int           { return a.ID }
func (a ExpenseAssignment) GetCrewMemberId() int { return a.CrewMemberId }

type crewAssignment interface {
	GetID() int
	GetCrewMemberId() int
}

// assignmentDiff computes the minimal change set that turns existing into
// target. Ids present in both sets are not returned: their rows keep their
// assigned_at / is_lead history. Inputs may contain duplicates; outputs don't.
func assignmentDiff(existing, target []int) (toAdd, toDelete []int) {
	existingSet := make(map[int]bool, len(existing))
	for _, id := range existing {
		existingSet[id] = true
	}
	targetSet := make(map[int]bool, len(target))
	for _, id := range target {
		targetSet[id] = true
	}
	for _, id := range utils.UniqueSlice(target) {
		if !existingSet[id] {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range utils.UniqueSlice(existing) {
		if !targetSet[id] {
			toDelete = append(toDelete, id)
		}
	}
	return toAdd, toDelete
}

// missingCrewMemberIds returns the subset of crewIds that do not exist as crew
// members of the given organization. Runs on the caller's transaction handle
// so the check and the writes it guards share one isolation scope.
func missingCrewMemberIds(dbh *gorm.DB, ctx context.Context, organizationId string, crewIds []int) ([]int, error) {
	if len(crewIds) == 0 {
		return nil, nil
	}
	var found []int
	err := dbh.WithContext(ctx).Model(&CrewMember{}).
		Where("organization_id = ? AND id IN ?", organizationId, crewIds).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	foundSet := make(map[int]bool, len(found))
	for _, id := range found {
		foundSet[id] = true
	}
	var missing []int
	for _, id := range crewIds {
		if !foundSet[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// ReconcileCrewAssignments makes the persisted assignment rows of one entity
// equal targetCrewIds exactly: rows for dropped crew are deleted, rows for new
// crew are inserted (timestamped via build), rows for unchanged crew are left
// untouched. Calling it again with the same target writes nothing.
//
// Every target id must be a crew member of organizationId, otherwise nothing
// is applied and InvalidCrewReferencesError lists the offenders.
//
// Returns the ids of the newly inserted assignment rows.
func ReconcileCrewAssignments[T crewAssignment](tx *gorm.DB, ctx context.Context, organizationId string,
	entityColumn string, entityId int, targetCrewIds []int, build func(crewId int) T) ([]int, error) {

	target := utils.UniqueSlice(targetCrewIds)

	missing, err := missingCrewMemberIds(tx, ctx, organizationId, target)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &utils.InvalidCrewReferencesError{Ids: missing}
	}

	var existingRows []T
	err = tx.WithContext(ctx).
		Where("organization_id = ? AND "+entityColumn+" = ?", organizationId, entityId).
		Find(&existingRows).Error
	if err != nil {
		return nil, err
	}
	existing := make([]int, 0, len(existingRows))
	for _, row := range existingRows {
		existing = append(existing, row.GetCrewMemberId())
	}

	toAdd, toDelete := assignmentDiff(existing, target)

	if len(toDelete) > 0 {
		var model T
		err = tx.WithContext(ctx).
			Where("organization_id = ? AND "+entityColumn+" = ? AND crew_member_id IN ?", organizationId, entityId, toDelete).
			Delete(&model).Error
		if err != nil {
			return nil, err
		}
	}

	var newIds []int
	if len(toAdd) > 0 {
		rows := make([]T, 0, len(toAdd))
		for _, crewId := range toAdd {
			rows = append(rows, build(crewId))
		}
		if err := tx.WithContext(ctx).Create(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			newIds = append(newIds, row.GetID())
		}
	}
	return newIds, nil
}

/* thin per-entity adapters */

func reconcileShootCrew(tx *gorm.DB, ctx context.Context, organizationId string, shootId int, crewIds []int) ([]int, error) {
	return ReconcileCrewAssignments(tx, ctx, organizationId, "shoot_id", shootId, crewIds, func(crewId int) ShootAssignment {
		return ShootAssignment{
			OrganizationId: organizationId,
			ShootId:        shootId,
			CrewMemberId:   crewId,
			IsLead:         utils.NewFalse(),
			AssignedAt:     time.Now(),
		}
	})
}

func reconcileDeliverableCrew(tx *gorm.DB, ctx context.Context, organizationId string, deliverableId int, crewIds []int) ([]int, error) {
	return ReconcileCrewAssignments(tx, ctx, organizationId, "deliverable_id", deliverableId, crewIds, func(crewId int) DeliverableAssignment {
		return DeliverableAssignment{
			OrganizationId: organizationId,
			DeliverableId:  deliverableId,
			CrewMemberId:   crewId,
			IsLead:         utils.NewFalse(),
			AssignedAt:     time.Now(),
		}
	})
}

func reconcileTaskCrew(tx *gorm.DB, ctx context.Context, organizationId string, taskId int, crewIds []int) ([]int, error) {
	return ReconcileCrewAssignments(tx, ctx, organizationId, "task_id", taskId, crewIds, func(crewId int) TaskAssignment {
		return TaskAssignment{
			OrganizationId: organizationId,
			TaskId:         taskId,
			CrewMemberId:   crewId,
			IsLead:         utils.NewFalse(),
			AssignedAt:     time.Now(),
		}
	})
}

func reconcileExpenseCrew(tx *gorm.DB, ctx context.Context, organizationId string, expenseId int, crewIds []int) ([]int, error) {
	return ReconcileCrewAssignments(tx, ctx, organizationId, "expense_id", expenseId, crewIds, func(crewId int) ExpenseAssignment {
		return ExpenseAssignment{
			OrganizationId: organizationId,
			ExpenseId:      expenseId,
			CrewMemberId:   crewId,
			IsLead:         utils.NewFalse(),
			AssignedAt:     time.Now(),
		}
	})
}
