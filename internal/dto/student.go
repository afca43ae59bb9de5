package dto

import "time"

// SlotToBeDefined labels consultation rows of enrollments that have no slot yet.
const SlotToBeDefined = "to be defined"

// EnrollmentItem is an enrollment as shown to students.
type EnrollmentItem struct {
	ID            string     `json:"id,omitempty"`
	OperationCode string     `json:"operation_code,omitempty"`
	Sport         string     `json:"sport"`
	Plan          string     `json:"plan"`
	MonthlyPrice  float64    `json:"monthly_price"`
	Status        string     `json:"status"`
	EnrolledAt    *time.Time `json:"enrolled_at,omitempty"`
}

// EnrollmentListResponse is the body of GET /students/:nationalId/enrollments.
type EnrollmentListResponse struct {
	NationalID  string           `json:"national_id"`
	Enrollments []EnrollmentItem `json:"enrollments"`
	Total       int              `json:"total"`
	Source      string           `json:"source"`
}

// ConsultationStudent is the student block of a consultation.
type ConsultationStudent struct {
	NationalID       string  `json:"national_id"`
	FirstName        string  `json:"first_name"`
	PaternalSurname  string  `json:"paternal_surname"`
	MaternalSurname  string  `json:"maternal_surname,omitempty"`
	BirthDate        string  `json:"birth_date,omitempty"`
	Sex              string  `json:"sex,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Email            *string `json:"email,omitempty"`
	Address          *string `json:"address,omitempty"`
	InsuranceType    *string `json:"insurance_type,omitempty"`
	MedicalCondition *string `json:"medical_condition,omitempty"`
	GuardianName     *string `json:"guardian_name,omitempty"`
	GuardianPhone    *string `json:"guardian_phone,omitempty"`
	IDFrontURL       *string `json:"id_front_url,omitempty"`
	IDBackURL        *string `json:"id_back_url,omitempty"`
	PhotoURL         *string `json:"photo_url,omitempty"`
	Status           string  `json:"status"`
}

// PaymentSummary is the payment block of a consultation.
type PaymentSummary struct {
	Status          string     `json:"status"`
	TotalMonthly    float64    `json:"total_monthly"`
	AmountPaid      *float64   `json:"amount_paid,omitempty"`
	OperationNumber *string    `json:"operation_number,omitempty"`
	PaymentDate     *time.Time `json:"payment_date,omitempty"`
	ReceiptURL      *string    `json:"receipt_url,omitempty"`
}

// ConsultationSlot is one flattened (enrollment, slot) row.
type ConsultationSlot struct {
	EnrollmentID string  `json:"enrollment_id,omitempty"`
	SlotID       *string `json:"slot_id,omitempty"`
	Sport        string  `json:"sport"`
	Plan         string  `json:"plan"`
	DayOfWeek    string  `json:"day_of_week"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Category     *string `json:"category,omitempty"`
	Level        *string `json:"level,omitempty"`
}

// ConsultationResponse is the consolidated profile of GET /students/:nationalId/consultation.
type ConsultationResponse struct {
	Student     ConsultationStudent `json:"student"`
	Payment     PaymentSummary      `json:"payment"`
	Enrollments []EnrollmentItem    `json:"enrollments"`
	Slots       []ConsultationSlot  `json:"slots"`
	Source      string              `json:"source"`
}
