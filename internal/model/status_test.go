package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    AppointmentStatus
		to      AppointmentStatus
		role    Role
		allowed bool
	}{
		{"provider confirms", StatusPending, StatusConfirmed, RoleProvider, true},
		{"provider completes", StatusConfirmed, StatusCompleted, RoleProvider, true},
		{"provider no show", StatusConfirmed, StatusNoShow, RoleProvider, true},
		{"client cancels pending", StatusPending, StatusCancelled, RoleClient, true},
		{"client cancels confirmed", StatusConfirmed, StatusCancelled, RoleClient, true},
		{"client cannot confirm", StatusPending, StatusConfirmed, RoleClient, false},
		{"client cannot complete", StatusConfirmed, StatusCompleted, RoleClient, false},
		{"no skipping confirm", StatusPending, StatusCompleted, RoleProvider, false},
		{"completed is terminal", StatusCompleted, StatusCancelled, RoleAdmin, false},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, RoleAdmin, false},
		{"admin cancels", StatusConfirmed, StatusCancelled, RoleAdmin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.role)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrBadTransition)
			}
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, StatusPending.Busy())
	assert.True(t, StatusConfirmed.Busy())
	assert.True(t, StatusCompleted.Busy())
	assert.True(t, StatusNoShow.Busy())
	assert.False(t, StatusCancelled.Busy())

	assert.True(t, StatusPending.Payable())
	assert.True(t, StatusConfirmed.Payable())
	assert.False(t, StatusCompleted.Payable())
	assert.False(t, StatusCancelled.Payable())

	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusPending.Terminal())

	assert.True(t, StatusNoShow.Valid())
	assert.False(t, AppointmentStatus("done").Valid())
}

func TestPaymentAdvances(t *testing.T) {
	assert.True(t, PaymentPending.Advances(PaymentPaid))
	assert.True(t, PaymentFailed.Advances(PaymentPaid))
	assert.True(t, PaymentPaid.Advances(PaymentRefunded))
	assert.False(t, PaymentPaid.Advances(PaymentPending))
	assert.False(t, PaymentPaid.Advances(PaymentFailed))
	assert.False(t, PaymentPaid.Advances(PaymentPaid))
	assert.False(t, PaymentRefunded.Advances(PaymentPaid))
}

func TestCanTransitionWithdrawal(t *testing.T) {
	assert.NoError(t, CanTransitionWithdrawal(WithdrawalPending, WithdrawalProcessing))
	assert.NoError(t, CanTransitionWithdrawal(WithdrawalPending, WithdrawalRejected))
	assert.NoError(t, CanTransitionWithdrawal(WithdrawalProcessing, WithdrawalPaid))
	assert.ErrorIs(t, CanTransitionWithdrawal(WithdrawalPending, WithdrawalPaid), ErrBadTransition)
	assert.ErrorIs(t, CanTransitionWithdrawal(WithdrawalPaid, WithdrawalRejected), ErrBadTransition)
}

func TestNetEarning(t *testing.T) {
	assert.Equal(t, int64(9000), NetEarning(10000, 10))
	assert.Equal(t, int64(904), NetEarning(1005, 10))
	assert.Equal(t, int64(10000), NetEarning(10000, 0))
	assert.Equal(t, int64(0), NetEarning(0, 10))
	assert.Equal(t, int64(0), NetEarning(-5, 10))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleProvider.Valid())
	assert.False(t, Role("support").Valid())
}
