package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// CancelReason records why an enrollment was cancelled. Only deactivation can be undone.
type CancelReason string

const (
	CancelReasonDeactivated     CancelReason = "deactivated"
	CancelReasonPaymentRejected CancelReason = "payment_rejected"
)

// Enrollment links a student to a sport with a plan and monthly price.
type Enrollment struct {
	ID            string           `db:"id" json:"id"`
	OperationCode string           `db:"operation_code" json:"operation_code"`
	StudentID     string           `db:"student_id" json:"student_id"`
	SportID       string           `db:"sport_id" json:"sport_id"`
	Plan          string           `db:"plan" json:"plan"`
	MonthlyPrice  float64          `db:"monthly_price" json:"monthly_price"`
	FeePaid       bool             `db:"fee_paid" json:"fee_paid"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	CancelReason  *CancelReason    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// Open reports whether the enrollment blocks another one for the same sport.
func (e Enrollment) Open() bool {
	return e.Status == EnrollmentStatusPending || e.Status == EnrollmentStatusActive
}

// CanTransition reports whether the enrollment may move to next.
// pending -> active; pending|active -> cancelled; cancelled -> active only after a deactivation.
func (e Enrollment) CanTransition(next EnrollmentStatus) bool {
	switch e.Status {
	case EnrollmentStatusPending:
		return next == EnrollmentStatusActive || next == EnrollmentStatusCancelled
	case EnrollmentStatusActive:
		return next == EnrollmentStatusCancelled
	case EnrollmentStatusCancelled:
		return next == EnrollmentStatusActive && e.CancelReason != nil && *e.CancelReason == CancelReasonDeactivated
	default:
		return false
	}
}

// EnrollmentSlotLink joins an enrollment to one of its weekly slots.
type EnrollmentSlotLink struct {
	ID           string `db:"id" json:"id"`
	EnrollmentID string `db:"enrollment_id" json:"enrollment_id"`
	SlotID       string `db:"slot_id" json:"slot_id"`
}

// EnrollmentDetail enriches Enrollment with its sport name.
type EnrollmentDetail struct {
	Enrollment
	SportName string `db:"sport_name" json:"sport"`
}

// EnrollmentSlotDetail is one row of the flattened enrollment/slot view used by consultations.
// Slot columns are nil when the enrollment has no links.
type EnrollmentSlotDetail struct {
	EnrollmentID string           `db:"enrollment_id"`
	SportName    string           `db:"sport_name"`
	Plan         string           `db:"plan"`
	MonthlyPrice float64          `db:"monthly_price"`
	Status       EnrollmentStatus `db:"status"`
	SlotID       *string          `db:"slot_id"`
	DayOfWeek    *string          `db:"day_of_week"`
	StartTime    *string          `db:"start_time"`
	EndTime      *string          `db:"end_time"`
	Category     *string          `db:"category"`
	Level        *string          `db:"level"`
}

// RosterRow is one (student, enrollment, slot) row of the admin roster.
type RosterRow struct {
	NationalID      string        `db:"national_id"`
	FirstName       string        `db:"first_name"`
	PaternalSurname string        `db:"paternal_surname"`
	MaternalSurname string        `db:"maternal_surname"`
	BirthDate       time.Time     `db:"birth_date"`
	Sex             string        `db:"sex"`
	Phone           *string       `db:"phone"`
	Email           *string       `db:"email"`
	GuardianName    *string       `db:"guardian_name"`
	GuardianPhone   *string       `db:"guardian_phone"`
	PaymentStatus   PaymentStatus `db:"payment_status"`
	SportName       string        `db:"sport_name"`
	Plan            string        `db:"plan"`
	DayOfWeek       string        `db:"day_of_week"`
	StartTime       string        `db:"start_time"`
	EndTime         string        `db:"end_time"`
	Category        *string       `db:"category"`
}

// RosterFilter narrows the roster by weekday and sport name substring.
type RosterFilter struct {
	DayOfWeek string
	Sport     string
}
