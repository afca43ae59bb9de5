package dto

// Data sources reported by read endpoints.
const (
	SourceDatabase = "database"
	SourceFallback = "fallback"
)

// ScheduleItem is one slot of the public schedule listing.
type ScheduleItem struct {
	ID           string   `json:"id"`
	SportID      string   `json:"sport_id,omitempty"`
	Sport        string   `json:"sport"`
	SportIcon    *string  `json:"sport_icon,omitempty"`
	DayOfWeek    string   `json:"day_of_week"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	Capacity     int      `json:"capacity"`
	Occupied     int      `json:"occupied"`
	Available    int      `json:"available"`
	Category     *string  `json:"category,omitempty"`
	Level        *string  `json:"level,omitempty"`
	Gender       *string  `json:"gender,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Plan         *string  `json:"plan,omitempty"`
	MinBirthYear *int     `json:"min_birth_year,omitempty"`
	MaxBirthYear *int     `json:"max_birth_year,omitempty"`
}

// ScheduleListResponse is the body of GET /schedules.
type ScheduleListResponse struct {
	Schedules     []ScheduleItem `json:"schedules"`
	Total         int            `json:"total"`
	FilteredByAge bool           `json:"filtered_by_age"`
	BirthYear     *int           `json:"birth_year"`
	Source        string         `json:"source"`
}
