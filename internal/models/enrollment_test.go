package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrollmentCanTransition(t *testing.T) {
	deactivated := CancelReasonDeactivated
	rejected := CancelReasonPaymentRejected

	cases := []struct {
		name   string
		from   Enrollment
		to     EnrollmentStatus
		expect bool
	}{
		{"pending to active", Enrollment{Status: EnrollmentStatusPending}, EnrollmentStatusActive, true},
		{"pending to cancelled", Enrollment{Status: EnrollmentStatusPending}, EnrollmentStatusCancelled, true},
		{"active to cancelled", Enrollment{Status: EnrollmentStatusActive}, EnrollmentStatusCancelled, true},
		{"active to pending", Enrollment{Status: EnrollmentStatusActive}, EnrollmentStatusPending, false},
		{"reactivate after deactivation", Enrollment{Status: EnrollmentStatusCancelled, CancelReason: &deactivated}, EnrollmentStatusActive, true},
		{"reactivate after rejection", Enrollment{Status: EnrollmentStatusCancelled, CancelReason: &rejected}, EnrollmentStatusActive, false},
		{"reactivate without reason", Enrollment{Status: EnrollmentStatusCancelled}, EnrollmentStatusActive, false},
		{"cancelled to pending", Enrollment{Status: EnrollmentStatusCancelled, CancelReason: &deactivated}, EnrollmentStatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.from.CanTransition(tc.to))
		})
	}
}

func TestScheduleSlotAcceptsBirthYear(t *testing.T) {
	min, max := 2008, 2012
	slot := ScheduleSlot{MinBirthYear: &min, MaxBirthYear: &max}

	assert.True(t, slot.AcceptsBirthYear(2010))
	assert.True(t, slot.AcceptsBirthYear(2008))
	assert.True(t, slot.AcceptsBirthYear(2012))
	assert.False(t, slot.AcceptsBirthYear(2020))
	assert.False(t, slot.AcceptsBirthYear(2007))

	open := ScheduleSlot{MinBirthYear: &min}
	assert.True(t, open.AcceptsBirthYear(2030))
}
