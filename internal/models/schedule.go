package models

// ScheduleSlot is a weekly time block of one sport.
type ScheduleSlot struct {
	ID           string   `db:"id" json:"id"`
	SportID      string   `db:"sport_id" json:"sport_id"`
	DayOfWeek    string   `db:"day_of_week" json:"day_of_week"`
	StartTime    string   `db:"start_time" json:"start_time"`
	EndTime      string   `db:"end_time" json:"end_time"`
	Capacity     int      `db:"capacity" json:"capacity"`
	Occupied     int      `db:"occupied" json:"occupied"`
	Category     *string  `db:"category" json:"category,omitempty"`
	Level        *string  `db:"level" json:"level,omitempty"`
	Gender       *string  `db:"gender" json:"gender,omitempty"`
	Price        *float64 `db:"price" json:"price,omitempty"`
	Plan         *string  `db:"plan" json:"plan,omitempty"`
	MinBirthYear *int     `db:"min_birth_year" json:"min_birth_year,omitempty"`
	MaxBirthYear *int     `db:"max_birth_year" json:"max_birth_year,omitempty"`
	Active       bool     `db:"active" json:"active"`
}

// ScheduleSlotDetail enriches a slot with its sport.
type ScheduleSlotDetail struct {
	ScheduleSlot
	SportName string  `db:"sport_name" json:"sport"`
	SportIcon *string `db:"sport_icon" json:"sport_icon,omitempty"`
}

// AcceptsBirthYear reports whether year lies in the inclusive eligibility window.
// An open bound accepts any year on that side.
func (s ScheduleSlot) AcceptsBirthYear(year int) bool {
	if s.MinBirthYear != nil && year < *s.MinBirthYear {
		return false
	}
	if s.MaxBirthYear != nil && year > *s.MaxBirthYear {
		return false
	}
	return true
}
