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

type ReceivedPayment struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"index;size:36;not null" json:"organization_id"`
	BookingId      int             `gorm:"index;not null" json:"booking_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Description    string          `gorm:"size:255" json:"description"`
	PaidOn         time.Time       `json:"paid_on"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type ScheduledPayment struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"index;size:36;not null" json:"organization_id"`
	BookingId      int             `gorm:"index;not null" json:"booking_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Description    string          `gorm:"size:255;not null" json:"description"`
	DueDate        time.Time       `json:"due_date"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewReceivedPayment struct {
	Amount      utils.Amount `json:"amount" binding:"required"`
	Description string       `json:"description"`
	PaidOn      time.Time    `json:"paid_on"`
}

type NewScheduledPayment struct {
	Amount      utils.Amount `json:"amount" binding:"required"`
	Description string       `json:"description" binding:"required"`
	DueDate     time.Time    `json:"due_date"`
}

// AddReceivedPayment records money collected against a booking after
// creation. The booking row is locked before the totals check so a concurrent
// cost reduction cannot slip under this payment.
func AddReceivedPayment(ctx context.Context, bookingId int, input *NewReceivedPayment) (*ReceivedPayment, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	if !input.Amount.IsPositive() {
		return nil, errors.New("received payment amount must be positive")
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

	booking, err := lockBooking(tx, ctx, organizationId, bookingId)
	if err != nil {
		return nil, err
	}

	committed, err := committedPaymentTotal(tx, ctx, organizationId, bookingId)
	if err != nil {
		return nil, err
	}
	if err := validatePaymentTotals(booking.PackageCost, []decimal.Decimal{committed, input.Amount.Decimal}, nil); err != nil {
		return nil, err
	}

	payment := ReceivedPayment{
		OrganizationId: organizationId,
		BookingId:      bookingId,
		Amount:         input.Amount.Decimal,
		Description:    input.Description,
		PaidOn:         input.PaidOn,
	}
	if payment.PaidOn.IsZero() {
		payment.PaidOn = time.Now()
	}
	if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}

	if err := touchBooking(tx, ctx, organizationId, bookingId); err != nil {
		return nil, err
	}
	if err := createHistory(tx, ctx, "Create", payment.ID, "received_payments", nil, &payment,
		"Payment of "+payment.Amount.String()+" received for booking "+booking.Name+"."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}
	return &payment, nil
}

// AddScheduledPayment records a promised installment. Same locking discipline
// as AddReceivedPayment.
func AddScheduledPayment(ctx context.Context, bookingId int, input *NewScheduledPayment) (*ScheduledPayment, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}
	if !input.Amount.IsPositive() {
		return nil, errors.New("scheduled payment amount must be positive")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, errors.New("scheduled payment description is required")
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

	booking, err := lockBooking(tx, ctx, organizationId, bookingId)
	if err != nil {
		return nil, err
	}

	committed, err := committedPaymentTotal(tx, ctx, organizationId, bookingId)
	if err != nil {
		return nil, err
	}
	if err := validatePaymentTotals(booking.PackageCost, nil, []decimal.Decimal{committed, input.Amount.Decimal}); err != nil {
		return nil, err
	}

	payment := ScheduledPayment{
		OrganizationId: organizationId,
		BookingId:      bookingId,
		Amount:         input.Amount.Decimal,
		Description:    input.Description,
		DueDate:        input.DueDate,
	}
	if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}

	if err := touchBooking(tx, ctx, organizationId, bookingId); err != nil {
		return nil, err
	}
	if err := createHistory(tx, ctx, "Create", payment.ID, "scheduled_payments", nil, &payment,
		"Installment of "+payment.Amount.String()+" scheduled for booking "+booking.Name+"."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}
	return &payment, nil
}
