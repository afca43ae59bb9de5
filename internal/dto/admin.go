package dto

// ConfirmPaymentRequest is sent by an admin after checking a bank transfer.
type ConfirmPaymentRequest struct {
	Amount          float64 `json:"amount" validate:"gte=0"`
	OperationNumber string  `json:"operation_number" validate:"omitempty,max=60"`
	Notes           string  `json:"notes" validate:"omitempty,max=500"`
}

// RejectPaymentRequest carries the reason shown to the student.
type RejectPaymentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// StudentStatusResponse reports the result of an admin action on a student.
type StudentStatusResponse struct {
	NationalID          string `json:"national_id"`
	Status              string `json:"status"`
	PaymentStatus       string `json:"payment_status"`
	AffectedEnrollments int    `json:"affected_enrollments"`
}

// ReceiptUploadRequest is the body of POST /students/:nationalId/receipt.
type ReceiptUploadRequest struct {
	OperationCode string `json:"operation_code" validate:"required,max=40"`
	FileName      string `json:"file_name" validate:"omitempty,max=120"`
	Image         string `json:"image" validate:"required"`
}

// ReceiptUploadResponse returns the stored receipt location.
type ReceiptUploadResponse struct {
	NationalID string `json:"national_id"`
	ReceiptURL string `json:"receipt_url"`
}

// RosterStudent is one student of the admin roster with their first sport and slot.
type RosterStudent struct {
	NationalID    string   `json:"national_id"`
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	BirthDate     string   `json:"birth_date,omitempty"`
	Sex           string   `json:"sex,omitempty"`
	Phone         *string  `json:"phone,omitempty"`
	Email         *string  `json:"email,omitempty"`
	GuardianName  *string  `json:"guardian_name,omitempty"`
	GuardianPhone *string  `json:"guardian_phone,omitempty"`
	PaymentStatus string   `json:"payment_status,omitempty"`
	Sport         string   `json:"sport"`
	Plan          string   `json:"plan,omitempty"`
	DayOfWeek     string   `json:"day_of_week"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	Category      *string  `json:"category,omitempty"`
	Sports        []string `json:"sports"`
}

// RosterFilters echoes the applied roster filters.
type RosterFilters struct {
	Day   string `json:"day,omitempty"`
	Sport string `json:"sport,omitempty"`
}

// RosterResponse is the body of GET /admin/rosters.
type RosterResponse struct {
	Students []RosterStudent `json:"students"`
	Total    int             `json:"total"`
	Filters  RosterFilters   `json:"filters"`
	Source   string          `json:"source"`
}

// CacheClearResponse reports a full cache flush.
type CacheClearResponse struct {
	Cleared bool `json:"cleared"`
}
