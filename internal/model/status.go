package model

import "errors"

var ErrBadTransition = errors.New("status transition not allowed")

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

var appointmentFlow = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s AppointmentStatus) Terminal() bool {
	return len(appointmentFlow[s]) == 0
}

// Busy reports whether an appointment in this status still holds its slot.
// Only cancellation frees it; a completed or no-show visit keeps its time.
func (s AppointmentStatus) Busy() bool {
	return s.Valid() && s != StatusCancelled
}

// Payable reports whether a charge may still be opened for the appointment.
func (s AppointmentStatus) Payable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransition checks both the state graph and who is asking.
// Clients may only cancel; providers and admins may drive the whole flow.
func CanTransition(from, to AppointmentStatus, role Role) error {
	ok := false
	for _, next := range appointmentFlow[from] {
		if next == to {
			ok = true
			break
		}
	}
	if !ok {
		return ErrBadTransition
	}
	if role == RoleClient && to != StatusCancelled {
		return ErrBadTransition
	}
	return nil
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Advances reports whether moving from s to next is forward progress.
// Webhooks are redelivered and arrive out of order, so a paid charge must not
// fall back to pending or failed.
func (s PaymentStatus) Advances(next PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentFailed, "":
		return next != s && next != ""
	case PaymentPaid:
		return next == PaymentRefunded
	}
	return false
}

type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalPaid       WithdrawalStatus = "paid"
	WithdrawalRejected   WithdrawalStatus = "rejected"
)

func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalPending, WithdrawalProcessing, WithdrawalPaid, WithdrawalRejected:
		return true
	}
	return false
}

var withdrawalFlow = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:    {WithdrawalProcessing, WithdrawalRejected},
	WithdrawalProcessing: {WithdrawalPaid, WithdrawalRejected},
}

func CanTransitionWithdrawal(from, to WithdrawalStatus) error {
	for _, next := range withdrawalFlow[from] {
		if next == to {
			return nil
		}
	}
	return ErrBadTransition
}

// NetEarning is what the provider keeps after the platform fee, rounded
// half up to the cent in the platform's favour.
func NetEarning(priceCents int64, feePercent int) int64 {
	if priceCents <= 0 {
		return 0
	}
	fee := (priceCents*int64(feePercent) + 50) / 100
	return priceCents - fee
}
