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

type Expense struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"index;size:36;not null" json:"organization_id"`
	BookingId      int             `gorm:"index;not null" json:"booking_id"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	Category       string          `gorm:"size:100" json:"category"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	SpentOn        time.Time       `json:"spent_on"`
	Note           string          `gorm:"type:text" json:"note"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Assignments []*ExpenseAssignment `gorm:"foreignKey:ExpenseId" json:"assignments"`
}

type NewExpense struct {
	BookingId     int          `json:"booking_id"`
	Name          string       `json:"name" binding:"required"`
	Category      string       `json:"category"`
	Amount        utils.Amount `json:"amount" binding:"required"`
	SpentOn       time.Time    `json:"spent_on"`
	Note          string       `json:"note"`
	CrewMemberIds []int        `json:"crew_member_ids"`
}

// CreateExpense records a production cost against a booking, with the crew it
// concerns, in one transaction. Expenses are money going out, so they do not
// take part in the package payment totals.
func CreateExpense(ctx context.Context, input *NewExpense) (*Expense, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New("expense name is required")
	}
	if !input.Amount.IsPositive() {
		return nil, errors.New("expense amount must be positive")
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

	expense := Expense{
		OrganizationId: organizationId,
		BookingId:      booking.ID,
		Name:           strings.TrimSpace(input.Name),
		Category:       input.Category,
		Amount:         input.Amount.Decimal,
		SpentOn:        input.SpentOn,
		Note:           input.Note,
	}
	if expense.SpentOn.IsZero() {
		expense.SpentOn = time.Now()
	}
	if err := tx.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, err
	}

	if _, err := reconcileExpenseCrew(tx, ctx, organizationId, expense.ID, input.CrewMemberIds); err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("expense_id = ?", expense.ID).Find(&expense.Assignments).Error; err != nil {
		return nil, err
	}

	if err := touchBooking(tx, ctx, organizationId, booking.ID); err != nil {
		return nil, err
	}
	if err := createHistory(tx, ctx, "Create", expense.ID, "expenses", nil, &expense,
		"Expense "+expense.Name+" added to booking "+booking.Name+"."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}
	return &expense, nil
}

type UpdateExpenseInput struct {
	Name          *string       `json:"name"`
	Category      *string       `json:"category"`
	Amount        *utils.Amount `json:"amount"`
	SpentOn       *time.Time    `json:"spent_on"`
	Note          *string       `json:"note"`
	CrewMemberIds *[]int        `json:"crew_member_ids"`
}

func UpdateExpense(ctx context.Context, id int, input *UpdateExpenseInput) (*Expense, error) {

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

	var expense Expense
	err := tx.WithContext(ctx).Where("organization_id = ?", organizationId).First(&expense, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	before := expense

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New("expense name is required")
		}
		updates["name"] = name
		expense.Name = name
	}
	if input.Category != nil {
		updates["category"] = *input.Category
		expense.Category = *input.Category
	}
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, errors.New("expense amount must be positive")
		}
		updates["amount"] = input.Amount.Decimal
		expense.Amount = input.Amount.Decimal
	}
	if input.SpentOn != nil {
		updates["spent_on"] = *input.SpentOn
		expense.SpentOn = *input.SpentOn
	}
	if input.Note != nil {
		updates["note"] = *input.Note
		expense.Note = *input.Note
	}

	if len(updates) > 0 {
		err = tx.WithContext(ctx).Model(&Expense{}).
			Where("organization_id = ? AND id = ?", organizationId, id).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}

	if input.CrewMemberIds != nil {
		if _, err := reconcileExpenseCrew(tx, ctx, organizationId, expense.ID, *input.CrewMemberIds); err != nil {
			return nil, err
		}
	}
	if err := tx.WithContext(ctx).Where("expense_id = ?", expense.ID).Find(&expense.Assignments).Error; err != nil {
		return nil, err
	}

	if err := touchBooking(tx, ctx, organizationId, expense.BookingId); err != nil {
		return nil, err
	}
	if err := createHistory(tx, ctx, "Update", expense.ID, "expenses", &before, &expense,
		"Expense "+expense.Name+" updated."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}
	return &expense, nil
}

func GetExpense(ctx context.Context, id int) (*Expense, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	return utils.FetchModel[Expense](ctx, organizationId, id, "Assignments")
}
