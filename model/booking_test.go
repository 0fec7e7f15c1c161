package model

import "testing"

func TestCanTransition_LegalPaths(t *testing.T) {
	legal := [][2]BookingStatus{
		{BookingPending, BookingConfirmed},
		{BookingPending, BookingCancelled},
		{BookingConfirmed, BookingActive},
		{BookingConfirmed, BookingCancelled},
		{BookingActive, BookingCompleted},
		{BookingActive, BookingCancelled},
	}
	for _, p := range legal {
		if !CanTransition(p[0], p[1]) {
			t.Errorf("expected %s -> %s to be legal", p[0], p[1])
		}
	}
}

func TestCanTransition_IllegalPaths(t *testing.T) {
	illegal := [][2]BookingStatus{
		{BookingConfirmed, BookingCompleted}, // must pass through ACTIVE
		{BookingCompleted, BookingActive},
		{BookingCompleted, BookingCancelled},
		{BookingCancelled, BookingActive},
		{BookingCancelled, BookingConfirmed},
		{BookingActive, BookingConfirmed},
		{BookingConfirmed, BookingConfirmed},
	}
	for _, p := range illegal {
		if CanTransition(p[0], p[1]) {
			t.Errorf("expected %s -> %s to be rejected", p[0], p[1])
		}
	}
}

func TestTerminalStates(t *testing.T) {
	if !BookingCompleted.Terminal() || !BookingCancelled.Terminal() {
		t.Fatal("completed and cancelled must be terminal")
	}
	if BookingPending.Terminal() || BookingConfirmed.Terminal() || BookingActive.Terminal() {
		t.Fatal("pending/confirmed/active must not be terminal")
	}
}
