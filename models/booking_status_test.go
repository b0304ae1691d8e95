package models

import "testing"

func TestBookingStatus_TransitionTable(t *testing.T) {
	allowed := map[BookingStatus][]BookingStatus{
		BookingStatusNew:         {BookingStatusPreparation, BookingStatusCancelled},
		BookingStatusPreparation: {BookingStatusShooting, BookingStatusCancelled},
		BookingStatusShooting:    {BookingStatusDelivery, BookingStatusCancelled},
		BookingStatusDelivery:    {BookingStatusCompleted, BookingStatusCancelled},
		BookingStatusCompleted:   {},
		BookingStatusCancelled:   {},
	}
	all := []BookingStatus{
		BookingStatusNew, BookingStatusPreparation, BookingStatusShooting,
		BookingStatusDelivery, BookingStatusCompleted, BookingStatusCancelled,
	}

	for from, targets := range allowed {
		allowedSet := map[BookingStatus]bool{}
		for _, to := range targets {
			allowedSet[to] = true
		}
		for _, to := range all {
			got := from.CanTransitionTo(to)
			if got != allowedSet[to] {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, allowedSet[to])
			}
		}
	}
}

func TestBookingStatus_SameStatusIsNotATransition(t *testing.T) {
	for _, s := range []BookingStatus{
		BookingStatusNew, BookingStatusPreparation, BookingStatusShooting,
		BookingStatusDelivery, BookingStatusCompleted, BookingStatusCancelled,
	} {
		if s.CanTransitionTo(s) {
			t.Errorf("CanTransitionTo(%s -> %s) should be false", s, s)
		}
	}
}

func TestBookingStatus_TerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []BookingStatus{BookingStatusCompleted, BookingStatusCancelled} {
		for _, to := range []BookingStatus{
			BookingStatusNew, BookingStatusPreparation, BookingStatusShooting,
			BookingStatusDelivery, BookingStatusCompleted, BookingStatusCancelled,
		} {
			if terminal.CanTransitionTo(to) {
				t.Errorf("terminal status %s must not transition to %s", terminal, to)
			}
		}
	}
}

func TestBookingStatus_IsValid(t *testing.T) {
	for _, s := range []BookingStatus{
		BookingStatusNew, BookingStatusPreparation, BookingStatusShooting,
		BookingStatusDelivery, BookingStatusCompleted, BookingStatusCancelled,
	} {
		if !s.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", s)
		}
	}
	if BookingStatus("archived").IsValid() {
		t.Error("IsValid(archived) = true, want false")
	}
}

func TestAssignableKind_IsValid(t *testing.T) {
	for _, k := range []AssignableKind{
		AssignableKindShoot, AssignableKindDeliverable, AssignableKindTask, AssignableKindExpense,
	} {
		if !k.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", k)
		}
	}
	if AssignableKind("booking").IsValid() {
		t.Error("IsValid(booking) = true, want false")
	}
}
