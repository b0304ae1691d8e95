package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/config"
	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Booking struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrganizationId string          `gorm:"size:36;not null;uniqueIndex:uniq_org_booking_name" json:"organization_id"`
	Name           string          `gorm:"size:255;not null;uniqueIndex:uniq_org_booking_name" json:"name" binding:"required"`
	BookingTypeId  int             `gorm:"index" json:"booking_type_id"`
	PackageTypeId  int             `gorm:"index" json:"package_type_id"`
	PackageCost    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"package_cost"`
	Status         BookingStatus   `gorm:"type:enum('new','preparation','shooting','delivery','completed','cancelled');not null;default:'new'" json:"status"`
	Note           string          `gorm:"type:text" json:"note"`

	Participants      []*BookingParticipant `gorm:"foreignKey:BookingId" json:"participants"`
	Shoots            []*Shoot              `gorm:"foreignKey:BookingId" json:"shoots"`
	Deliverables      []*Deliverable        `gorm:"foreignKey:BookingId" json:"deliverables"`
	Tasks             []*Task               `gorm:"foreignKey:BookingId" json:"tasks"`
	Expenses          []*Expense            `gorm:"foreignKey:BookingId" json:"expenses"`
	ReceivedPayments  []*ReceivedPayment    `gorm:"foreignKey:BookingId" json:"received_payments"`
	ScheduledPayments []*ScheduledPayment   `gorm:"foreignKey:BookingId" json:"scheduled_payments"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBooking struct {
	Name          string       `json:"name" binding:"required"`
	BookingTypeId int          `json:"booking_type_id"`
	PackageTypeId int          `json:"package_type_id"`
	PackageCost   utils.Amount `json:"package_cost"`
	Note          string       `json:"note"`

	Participants      []*NewParticipant      `json:"participants"`
	Shoots            []*NewShoot            `json:"shoots"`
	Deliverables      []*NewDeliverable      `json:"deliverables"`
	ReceivedPayments  []*NewReceivedPayment  `json:"received_payments"`
	ScheduledPayments []*NewScheduledPayment `json:"scheduled_payments"`
}

type UpdateBookingInput struct {
	Name        *string        `json:"name"`
	PackageCost *utils.Amount  `json:"package_cost"`
	Status      *BookingStatus `json:"status"`
	Note        *string        `json:"note"`
}

// validate input for create. (id = 0 for create)
func (input *NewBooking) validate(ctx context.Context, organizationId string, id int) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return errors.New("booking name is required")
	}
	if input.PackageCost.IsNegative() {
		return errors.New("package cost must not be negative")
	}

	// name must be unique within the organization; the DB unique index on
	// (organization_id, name) is the authoritative backstop, this check only
	// produces the friendly error.
	if err := utils.ValidateUnique[Booking](ctx, organizationId, "name", name, id); err != nil {
		if errors.Is(err, utils.ErrorDuplicateName) {
			return utils.ErrorDuplicateBookingName
		}
		return err
	}

	if input.BookingTypeId > 0 {
		if err := utils.ValidateResourceId[BookingType](ctx, organizationId, input.BookingTypeId); err != nil {
			return errors.New("booking type not found")
		}
	}
	if input.PackageTypeId > 0 {
		if err := utils.ValidateResourceId[PackageType](ctx, organizationId, input.PackageTypeId); err != nil {
			return errors.New("package type not found")
		}
	}

	for _, p := range input.Participants {
		if err := p.validate(); err != nil {
			return err
		}
	}
	for _, s := range input.Shoots {
		if strings.TrimSpace(s.Name) == "" {
			return errors.New("shoot name is required")
		}
	}
	for _, d := range input.Deliverables {
		if strings.TrimSpace(d.Name) == "" {
			return errors.New("deliverable name is required")
		}
	}
	for _, rp := range input.ReceivedPayments {
		if !rp.Amount.IsPositive() {
			return errors.New("received payment amount must be positive")
		}
	}
	for _, sp := range input.ScheduledPayments {
		if !sp.Amount.IsPositive() {
			return errors.New("scheduled payment amount must be positive")
		}
		if strings.TrimSpace(sp.Description) == "" {
			return errors.New("scheduled payment description is required")
		}
	}
	return nil
}

/* financial invariants */

// validatePaymentTotals checks sum(received) + sum(scheduled) <= packageCost.
// Equality passes. Pure function of its arguments.
func validatePaymentTotals(packageCost decimal.Decimal, received, scheduled []decimal.Decimal) error {
	total := decimal.Zero
	for _, amount := range received {
		total = total.Add(amount)
	}
	for _, amount := range scheduled {
		total = total.Add(amount)
	}
	if total.GreaterThan(packageCost) {
		return utils.ErrorPaymentsExceedPackageCost
	}
	return nil
}

// validateCostReduction rejects a package cost below money already collected
// or promised. Callers pass the committed total read inside the same locked
// transaction that applies the new cost.
func validateCostReduction(newPackageCost, committedTotal decimal.Decimal) error {
	if committedTotal.GreaterThan(newPackageCost) {
		return utils.ErrorCostBelowCommittedPayments
	}
	return nil
}

// committedPaymentTotal sums persisted received + scheduled payment amounts of
// one booking on the caller's transaction handle.
func committedPaymentTotal(tx *gorm.DB, ctx context.Context, organizationId string, bookingId int) (decimal.Decimal, error) {
	var received, scheduled decimal.Decimal

	row := tx.WithContext(ctx).Model(&ReceivedPayment{}).
		Where("organization_id = ? AND booking_id = ?", organizationId, bookingId).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&received); err != nil {
		return decimal.Zero, err
	}

	row = tx.WithContext(ctx).Model(&ScheduledPayment{}).
		Where("organization_id = ? AND booking_id = ?", organizationId, bookingId).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&scheduled); err != nil {
		return decimal.Zero, err
	}

	return received.Add(scheduled), nil
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// touchBooking stamps the parent booking's updated_at; every child mutation
// must do this inside its own transaction.
func touchBooking(tx *gorm.DB, ctx context.Context, organizationId string, bookingId int) error {
	return tx.WithContext(ctx).Model(&Booking{}).
		Where("organization_id = ? AND id = ?", organizationId, bookingId).
		UpdateColumn("updated_at", time.Now()).Error
}

// lockBooking loads the booking row FOR UPDATE. Concurrent writers to the
// same booking (payment additions, cost changes, child mutations) serialize on
// this lock, which is what makes the check-then-act validations below safe.
func lockBooking(tx *gorm.DB, ctx context.Context, organizationId string, bookingId int) (*Booking, error) {
	var booking Booking
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ?", organizationId).
		First(&booking, bookingId).Error
	if err != nil {
		// a cross-tenant id must look absent, but a storage failure must not
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// CreateBooking creates a booking together with its participants, shoots
// (including crew assignments), deliverables and payments as one atomic unit.
// Any failure leaves no partial rows behind.
func CreateBooking(ctx context.Context, input *NewBooking) (*Booking, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}

	if err := input.validate(ctx, organizationId, 0); err != nil {
		return nil, err
	}

	// creation check: the full proposed payment set must fit the proposed cost
	received := make([]decimal.Decimal, 0, len(input.ReceivedPayments))
	for _, p := range input.ReceivedPayments {
		received = append(received, p.Amount.Decimal)
	}
	scheduled := make([]decimal.Decimal, 0, len(input.ScheduledPayments))
	for _, p := range input.ScheduledPayments {
		scheduled = append(scheduled, p.Amount.Decimal)
	}
	if err := validatePaymentTotals(input.PackageCost.Decimal, received, scheduled); err != nil {
		return nil, err
	}

	booking := Booking{
		OrganizationId: organizationId,
		Name:           strings.TrimSpace(input.Name),
		BookingTypeId:  input.BookingTypeId,
		PackageTypeId:  input.PackageTypeId,
		PackageCost:    input.PackageCost.Decimal,
		Status:         BookingStatusNew,
		Note:           input.Note,
	}

	db := config.GetDB()
	tx := db.Begin()
	// IMPORTANT: always rollback on early-return or panic to avoid leaking DB
	// locks (leaked transactions are a common cause of MySQL 1205 lock wait
	// timeouts). Rollback after a successful Commit is a no-op.
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	// all crew ids referenced by any shoot must resolve before any insert, so
	// an invalid reference never leaves a partial booking behind
	var allCrewIds []int
	for _, s := range input.Shoots {
		allCrewIds = append(allCrewIds, s.CrewMemberIds...)
	}
	missing, err := missingCrewMemberIds(tx, ctx, organizationId, utils.UniqueSlice(allCrewIds))
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &utils.InvalidCrewReferencesError{Ids: missing}
	}

	if err := tx.WithContext(ctx).Create(&booking).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, utils.ErrorDuplicateBookingName
		}
		return nil, err
	}

	booking.Participants, err = createParticipants(tx, ctx, organizationId, booking.ID, input.Participants)
	if err != nil {
		return nil, err
	}

	for _, s := range input.Shoots {
		shoot := Shoot{
			OrganizationId: organizationId,
			BookingId:      booking.ID,
			Name:           strings.TrimSpace(s.Name),
			Location:       s.Location,
			ScheduledOn:    s.ScheduledOn,
			Note:           s.Note,
		}
		if err := tx.WithContext(ctx).Create(&shoot).Error; err != nil {
			return nil, err
		}
		// pure insert case: existing set is empty for a new shoot
		if _, err := reconcileShootCrew(tx, ctx, organizationId, shoot.ID, s.CrewMemberIds); err != nil {
			return nil, err
		}
		if err := tx.WithContext(ctx).Where("shoot_id = ?", shoot.ID).Find(&shoot.Assignments).Error; err != nil {
			return nil, err
		}
		booking.Shoots = append(booking.Shoots, &shoot)
	}

	for _, d := range input.Deliverables {
		deliverable := Deliverable{
			OrganizationId:    organizationId,
			BookingId:         booking.ID,
			Name:              strings.TrimSpace(d.Name),
			IsPackageIncluded: d.IsPackageIncluded,
			Cost:              d.Cost.Decimal,
			Quantity:          d.Quantity,
			DueDate:           d.DueDate,
		}
		if deliverable.IsPackageIncluded == nil {
			deliverable.IsPackageIncluded = utils.NewTrue()
		}
		if err := tx.WithContext(ctx).Create(&deliverable).Error; err != nil {
			return nil, err
		}
		booking.Deliverables = append(booking.Deliverables, &deliverable)
	}

	for _, p := range input.ReceivedPayments {
		payment := ReceivedPayment{
			OrganizationId: organizationId,
			BookingId:      booking.ID,
			Amount:         p.Amount.Decimal,
			Description:    p.Description,
			PaidOn:         p.PaidOn,
		}
		if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
			return nil, err
		}
		booking.ReceivedPayments = append(booking.ReceivedPayments, &payment)
	}

	for _, p := range input.ScheduledPayments {
		payment := ScheduledPayment{
			OrganizationId: organizationId,
			BookingId:      booking.ID,
			Amount:         p.Amount.Decimal,
			Description:    p.Description,
			DueDate:        p.DueDate,
		}
		if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
			return nil, err
		}
		booking.ScheduledPayments = append(booking.ScheduledPayments, &payment)
	}

	if err := createHistory(tx, ctx, "Create", booking.ID, "bookings", nil, &booking,
		"Booking "+booking.Name+" created."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}

	return &booking, nil
}

// UpdateBooking applies a partial update of name / package cost / status /
// note inside one transaction. The booking row is locked before the financial
// and state checks so concurrent payment additions serialize with a cost
// reduction instead of interleaving.
func UpdateBooking(ctx context.Context, id int, input *UpdateBookingInput) (*Booking, error) {

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

	booking, err := lockBooking(tx, ctx, organizationId, id)
	if err != nil {
		return nil, err
	}
	before := *booking

	updates := map[string]interface{}{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New("booking name is required")
		}
		if name != booking.Name {
			if err := utils.ValidateUnique[Booking](ctx, organizationId, "name", name, id); err != nil {
				if errors.Is(err, utils.ErrorDuplicateName) {
					return nil, utils.ErrorDuplicateBookingName
				}
				return nil, err
			}
			updates["name"] = name
			booking.Name = name
		}
	}

	if input.PackageCost != nil {
		newCost := input.PackageCost.Decimal
		if newCost.IsNegative() {
			return nil, errors.New("package cost must not be negative")
		}
		// cost-reduction check runs only when the cost shrinks, against the
		// committed totals as of this locked transaction
		if newCost.LessThan(booking.PackageCost) {
			committed, err := committedPaymentTotal(tx, ctx, organizationId, id)
			if err != nil {
				return nil, err
			}
			if err := validateCostReduction(newCost, committed); err != nil {
				return nil, err
			}
		}
		if !newCost.Equal(booking.PackageCost) {
			updates["package_cost"] = newCost
			booking.PackageCost = newCost
		}
	}

	if input.Status != nil && *input.Status != booking.Status {
		if !booking.Status.CanTransitionTo(*input.Status) {
			return nil, &utils.InvalidTransitionError{From: string(booking.Status), To: string(*input.Status)}
		}
		updates["status"] = *input.Status
		booking.Status = *input.Status
	}

	if input.Note != nil && *input.Note != booking.Note {
		updates["note"] = *input.Note
		booking.Note = *input.Note
	}

	if len(updates) == 0 {
		// no-op update is allowed; nothing to write
		if err := tx.Commit().Error; err != nil {
			return nil, utils.ErrorTransactionAborted
		}
		return booking, nil
	}

	err = tx.WithContext(ctx).Model(&Booking{}).
		Where("organization_id = ? AND id = ?", organizationId, id).
		Updates(updates).Error
	if err != nil {
		if isDuplicateKey(err) {
			return nil, utils.ErrorDuplicateBookingName
		}
		return nil, err
	}

	if err := createHistory(tx, ctx, "Update", booking.ID, "bookings", &before, booking,
		"Booking "+booking.Name+" updated."); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorTransactionAborted
	}

	return booking, nil
}

// GetBooking returns one booking with its child collections.
func GetBooking(ctx context.Context, id int) (*Booking, error) {

	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, utils.ErrorUnscoped
	}

	return utils.FetchModel[Booking](ctx, organizationId, id,
		"Participants", "Participants.Client", "Shoots", "Shoots.Assignments",
		"Deliverables", "Deliverables.Assignments", "Tasks", "Tasks.Assignments",
		"Expenses", "Expenses.Assignments", "ReceivedPayments", "ScheduledPayments")
}
