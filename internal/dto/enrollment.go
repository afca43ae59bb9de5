package dto

// EnrollRequest is the body of POST /enrollments.
type EnrollRequest struct {
	Student *StudentInput   `json:"student" validate:"required"`
	Slots   []SlotSelection `json:"slots"`
}

// StudentInput carries the registration form. Image fields are base64 data URIs forwarded to the ledger.
type StudentInput struct {
	NationalID       string `json:"national_id" validate:"required,len=8,numeric"`
	FirstName        string `json:"first_name" validate:"required,max=100"`
	PaternalSurname  string `json:"paternal_surname" validate:"required,max=100"`
	MaternalSurname  string `json:"maternal_surname" validate:"omitempty,max=100"`
	BirthDate        string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Sex              string `json:"sex" validate:"omitempty,max=20"`
	Phone            string `json:"phone" validate:"omitempty,max=30"`
	Email            string `json:"email" validate:"omitempty,email"`
	Address          string `json:"address" validate:"omitempty,max=255"`
	InsuranceType    string `json:"insurance_type" validate:"omitempty,max=60"`
	MedicalCondition string `json:"medical_condition" validate:"omitempty,max=500"`
	GuardianName     string `json:"guardian_name" validate:"omitempty,max=150"`
	GuardianPhone    string `json:"guardian_phone" validate:"omitempty,max=30"`
	IDFrontImage     string `json:"id_front_image,omitempty"`
	IDBackImage      string `json:"id_back_image,omitempty"`
	PhotoImage       string `json:"photo_image,omitempty"`
	ReceiptImage     string `json:"receipt_image,omitempty"`
}

// SlotSelection is one chosen weekly slot. Sport and plan are informative; the sport is resolved
// from the slot itself.
type SlotSelection struct {
	SlotID string `json:"slot_id"`
	Sport  string `json:"sport,omitempty"`
	Plan   string `json:"plan,omitempty"`
}

// EnrollResponse is returned after a committed enrollment.
type EnrollResponse struct {
	OperationCode string              `json:"operation_code"`
	Student       StudentSummary      `json:"student"`
	Enrollments   []EnrollmentCreated `json:"enrollments"`
}

// StudentSummary identifies a student in responses.
type StudentSummary struct {
	ID         string `json:"id"`
	NationalID string `json:"national_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// EnrollmentCreated describes one enrollment row produced by a request.
type EnrollmentCreated struct {
	ID           string   `json:"id"`
	SportID      string   `json:"sport_id"`
	Sport        string   `json:"sport"`
	Plan         string   `json:"plan"`
	MonthlyPrice float64  `json:"monthly_price"`
	SlotIDs      []string `json:"slot_ids"`
}

// DuplicateEnrollmentDetails is attached to DUPLICATE_ENROLLMENT errors.
type DuplicateEnrollmentDetails struct {
	Sport              string             `json:"sport"`
	ExistingEnrollment ExistingEnrollment `json:"existing_enrollment"`
}

// ExistingEnrollment identifies the open enrollment blocking a new one.
type ExistingEnrollment struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	Plan         string  `json:"plan"`
	MonthlyPrice float64 `json:"monthly_price"`
}

// InvalidSlotsDetails is attached to INVALID_SLOTS errors.
type InvalidSlotsDetails struct {
	InvalidSlots int      `json:"invalid_slots"`
	SlotIDs      []string `json:"slot_ids,omitempty"`
}

// OperationLookupResponse lists the enrollments created under one operation code.
type OperationLookupResponse struct {
	OperationCode string           `json:"operation_code"`
	Enrollments   []EnrollmentItem `json:"enrollments"`
}
