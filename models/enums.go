package models

// BookingStatus is the booking lifecycle state. A booking is always created as
// BookingStatusNew; later changes must follow bookingStatusTransitions.
type BookingStatus string

const (
	BookingStatusNew         BookingStatus = "new"
	BookingStatusPreparation BookingStatus = "preparation"
	BookingStatusShooting    BookingStatus = "shooting"
	BookingStatusDelivery    BookingStatus = "delivery"
	BookingStatusCompleted   BookingStatus = "completed"
	BookingStatusCancelled   BookingStatus = "cancelled"
)

// directed edges; completed and cancelled are terminal
var bookingStatusTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusNew:         {BookingStatusPreparation, BookingStatusCancelled},
	BookingStatusPreparation: {BookingStatusShooting, BookingStatusCancelled},
	BookingStatusShooting:    {BookingStatusDelivery, BookingStatusCancelled},
	BookingStatusDelivery:    {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted:   {},
	BookingStatusCancelled:   {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingStatusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the edge s -> to exists. Same-status updates
// are treated as no-ops by callers and never reach this check.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	for _, next := range bookingStatusTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// AssignableKind names the four entity types that take crew assignments.
type AssignableKind string

const (
	AssignableKindShoot       AssignableKind = "shoot"
	AssignableKindDeliverable AssignableKind = "deliverable"
	AssignableKindTask        AssignableKind = "task"
	AssignableKindExpense     AssignableKind = "expense"
)

func (k AssignableKind) IsValid() bool {
	switch k {
	case AssignableKindShoot, AssignableKindDeliverable, AssignableKindTask, AssignableKindExpense:
		return true
	}
	return false
}
