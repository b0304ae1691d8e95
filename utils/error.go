package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorUnscoped is returned when an operation cannot resolve an organization
// for the caller. Nothing may touch storage after this.
var ErrorUnscoped = errors.New("organization id is required")

var (
	ErrorDuplicateName              = errors.New("duplicate name")
	ErrorDuplicateBookingName       = errors.New("duplicate booking name")
	ErrorPaymentsExceedPackageCost  = errors.New("payments exceed package cost")
	ErrorCostBelowCommittedPayments = errors.New("package cost is below committed payments")
	ErrorTransactionAborted         = errors.New("transaction aborted")
)

// InvalidTransitionError reports a booking status change outside the
// transition table.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// InvalidCrewReferencesError carries the crew ids that do not exist in the
// caller's organization, so the request can be corrected and resubmitted.
type InvalidCrewReferencesError struct {
	Ids []int
}

func (e *InvalidCrewReferencesError) Error() string {
	parts := make([]string, 0, len(e.Ids))
	for _, id := range e.Ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return "invalid crew references: " + strings.Join(parts, ", ")
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
