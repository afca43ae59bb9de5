package models

// Sport is a catalog entry owned by the admin console.
type Sport struct {
	ID            string  `db:"id" json:"id"`
	Name          string  `db:"name" json:"name"`
	Icon          *string `db:"icon" json:"icon,omitempty"`
	EnrollmentFee float64 `db:"enrollment_fee" json:"enrollment_fee"`
	Active        bool    `db:"active" json:"active"`
}
