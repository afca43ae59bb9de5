package models

import "time"

// StudentStatus flags soft-deleted accounts.
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "active"
	StudentStatusInactive StudentStatus = "inactive"
)

// PaymentStatus tracks the enrollment fee confirmation of a student.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
)

// Student represents a person registered in the academy, keyed by national ID.
type Student struct {
	ID               string        `db:"id" json:"id"`
	NationalID       string        `db:"national_id" json:"national_id"`
	FirstName        string        `db:"first_name" json:"first_name"`
	PaternalSurname  string        `db:"paternal_surname" json:"paternal_surname"`
	MaternalSurname  string        `db:"maternal_surname" json:"maternal_surname"`
	BirthDate        time.Time     `db:"birth_date" json:"birth_date"`
	Sex              string        `db:"sex" json:"sex"`
	Phone            *string       `db:"phone" json:"phone,omitempty"`
	Email            *string       `db:"email" json:"email,omitempty"`
	Address          *string       `db:"address" json:"address,omitempty"`
	InsuranceType    *string       `db:"insurance_type" json:"insurance_type,omitempty"`
	MedicalCondition *string       `db:"medical_condition" json:"medical_condition,omitempty"`
	GuardianName     *string       `db:"guardian_name" json:"guardian_name,omitempty"`
	GuardianPhone    *string       `db:"guardian_phone" json:"guardian_phone,omitempty"`
	IDFrontURL       *string       `db:"id_front_url" json:"id_front_url,omitempty"`
	IDBackURL        *string       `db:"id_back_url" json:"id_back_url,omitempty"`
	PhotoURL         *string       `db:"photo_url" json:"photo_url,omitempty"`
	ReceiptURL       *string       `db:"receipt_url" json:"receipt_url,omitempty"`
	Status           StudentStatus `db:"status" json:"status"`
	PaymentStatus    PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentAmount    *float64      `db:"payment_amount" json:"payment_amount,omitempty"`
	PaymentOperation *string       `db:"payment_operation" json:"payment_operation,omitempty"`
	PaymentDate      *time.Time    `db:"payment_date" json:"payment_date,omitempty"`
	PaymentNotes     *string       `db:"payment_notes" json:"payment_notes,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// LastName joins both surnames.
func (s Student) LastName() string {
	if s.MaternalSurname == "" {
		return s.PaternalSurname
	}
	return s.PaternalSurname + " " + s.MaternalSurname
}

// Active reports whether the account has not been deactivated.
func (s Student) Active() bool {
	return s.Status != StudentStatusInactive
}

// StudentDocuments are the file URLs returned by the ledger after an enrollment.
type StudentDocuments struct {
	IDFrontURL *string
	IDBackURL  *string
	PhotoURL   *string
	ReceiptURL *string
}

// Empty reports whether no URL is set.
func (d StudentDocuments) Empty() bool {
	return d.IDFrontURL == nil && d.IDBackURL == nil && d.PhotoURL == nil && d.ReceiptURL == nil
}

// PaymentConfirmation captures an admin confirming a transfer.
type PaymentConfirmation struct {
	Amount          float64
	OperationNumber string
	Notes           string
	ConfirmedAt     time.Time
}
