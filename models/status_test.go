package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    ReservationStatus
		to      ReservationStatus
		allowed bool
	}{
		{"draft to awaiting confirmation", StatusDraft, StatusAwaitingConfirmation, true},
		{"draft to confirmed", StatusDraft, StatusConfirmed, true},
		{"draft to expired", StatusDraft, StatusExpired, true},
		{"draft cannot complete", StatusDraft, StatusCompleted, false},
		{"pending approval to confirmed", StatusPendingApproval, StatusConfirmed, true},
		{"pending approval to awaiting payment", StatusPendingApproval, StatusAwaitingPayment, true},
		{"pending approval to rejected", StatusPendingApproval, StatusRejected, true},
		{"pending approval cannot skip to in progress", StatusPendingApproval, StatusInProgress, false},
		{"awaiting confirmation to confirmed", StatusAwaitingConfirmation, StatusConfirmed, true},
		{"awaiting confirmation to awaiting payment", StatusAwaitingConfirmation, StatusAwaitingPayment, true},
		{"awaiting confirmation to expired", StatusAwaitingConfirmation, StatusExpired, true},
		{"awaiting payment to confirmed", StatusAwaitingPayment, StatusConfirmed, true},
		{"awaiting payment to expired", StatusAwaitingPayment, StatusExpired, true},
		{"awaiting payment cannot be rejected", StatusAwaitingPayment, StatusRejected, false},
		{"confirmed to in progress", StatusConfirmed, StatusInProgress, true},
		{"confirmed to no show", StatusConfirmed, StatusNoShow, true},
		{"confirmed to canceled", StatusConfirmed, StatusCanceled, true},
		{"confirmed cannot expire", StatusConfirmed, StatusExpired, false},
		{"in progress to completed", StatusInProgress, StatusCompleted, true},
		{"in progress cannot no-show", StatusInProgress, StatusNoShow, false},
		{"completed is terminal", StatusCompleted, StatusCanceled, false},
		{"canceled is terminal", StatusCanceled, StatusConfirmed, false},
		{"rejected is terminal", StatusRejected, StatusPendingApproval, false},
		{"expired is terminal", StatusExpired, StatusConfirmed, false},
		{"no show is terminal", StatusNoShow, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestReservationStatusTerminality(t *testing.T) {
	terminal := []ReservationStatus{StatusCompleted, StatusRejected, StatusCanceled, StatusExpired, StatusNoShow}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "expected %s to be terminal", s)
		for _, target := range []ReservationStatus{
			StatusDraft, StatusPendingApproval, StatusAwaitingConfirmation, StatusAwaitingPayment,
			StatusConfirmed, StatusInProgress, StatusCompleted, StatusRejected, StatusCanceled,
			StatusExpired, StatusNoShow,
		} {
			assert.False(t, s.CanTransitionTo(target), "terminal %s should not reach %s", s, target)
		}
	}

	live := []ReservationStatus{StatusDraft, StatusPendingApproval, StatusAwaitingConfirmation, StatusAwaitingPayment, StatusConfirmed, StatusInProgress}
	for _, s := range live {
		assert.False(t, s.IsTerminal(), "expected %s to be live", s)
	}
}

func TestHoldsAsset(t *testing.T) {
	holding := []ReservationStatus{StatusPendingApproval, StatusAwaitingConfirmation, StatusAwaitingPayment, StatusConfirmed, StatusInProgress}
	for _, s := range holding {
		assert.True(t, s.HoldsAsset(), "%s should hold the asset", s)
	}

	released := []ReservationStatus{StatusDraft, StatusCompleted, StatusRejected, StatusCanceled, StatusExpired, StatusNoShow}
	for _, s := range released {
		assert.False(t, s.HoldsAsset(), "%s should not hold the asset", s)
	}
}

func TestParseReservationStatus(t *testing.T) {
	s, err := ParseReservationStatus("awaiting_payment")
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingPayment, s)

	_, err = ParseReservationStatus("teleported")
	assert.Error(t, err)
}

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{"not required to pending", PaymentNotRequired, PaymentPending, true},
		{"not required cannot jump to paid", PaymentNotRequired, PaymentPaid, false},
		{"pending to processing", PaymentPending, PaymentProcessing, true},
		{"pending to paid", PaymentPending, PaymentPaid, true},
		{"pending to failed", PaymentPending, PaymentFailed, true},
		{"processing to paid", PaymentProcessing, PaymentPaid, true},
		{"failed can retry", PaymentFailed, PaymentPending, true},
		{"failed to canceled", PaymentFailed, PaymentCanceled, true},
		{"paid to refunded", PaymentPaid, PaymentRefunded, true},
		{"paid to partially refunded", PaymentPaid, PaymentPartiallyRefunded, true},
		{"paid cannot fail", PaymentPaid, PaymentFailed, false},
		{"partially refunded to refunded", PaymentPartiallyRefunded, PaymentRefunded, true},
		{"refunded is terminal", PaymentRefunded, PaymentPending, false},
		{"canceled is terminal", PaymentCanceled, PaymentPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestValidStatusPair(t *testing.T) {
	assert.True(t, ValidStatusPair(StatusAwaitingPayment, PaymentPending))
	assert.True(t, ValidStatusPair(StatusAwaitingPayment, PaymentFailed))
	assert.True(t, ValidStatusPair(StatusConfirmed, PaymentPaid))
	assert.True(t, ValidStatusPair(StatusExpired, PaymentCanceled))
	assert.True(t, ValidStatusPair(StatusCanceled, PaymentRefunded))

	// paid never accompanies a state that has not confirmed yet
	assert.False(t, ValidStatusPair(StatusAwaitingPayment, PaymentPaid))
	assert.False(t, ValidStatusPair(StatusPendingApproval, PaymentPaid))
	// an in-progress stay cannot still be mid-payment
	assert.False(t, ValidStatusPair(StatusInProgress, PaymentPending))

	// not_required rides along with every status
	for s := range validStatusTransitions {
		assert.True(t, ValidStatusPair(s, PaymentNotRequired), "not_required should pair with %s", s)
	}
}
