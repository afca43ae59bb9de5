package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academy-api/internal/models"
)

// occupied counts the links of pending and active enrollments.
const slotDetailColumns = `h.id, h.sport_id, h.day_of_week, h.start_time, h.end_time, h.capacity,
        (SELECT COUNT(*) FROM enrollment_slot_links l JOIN enrollments e ON e.id = l.enrollment_id
            WHERE l.slot_id = h.id AND e.status IN ('pending', 'active')) AS occupied, h.category,
        h.level, h.gender, h.price, h.plan, h.min_birth_year, h.max_birth_year, h.active,
        s.name AS sport_name, s.icon AS sport_icon`

// ScheduleRepository reads weekly schedule slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListActive returns active slots of active sports. A birth year narrows to slots whose
// inclusive [min_birth_year, max_birth_year] window contains it.
func (r *ScheduleRepository) ListActive(ctx context.Context, birthYear *int) ([]models.ScheduleSlotDetail, error) {
	query := `SELECT ` + slotDetailColumns + `
        FROM schedule_slots h
        JOIN sports s ON s.id = h.sport_id
        WHERE h.active = TRUE AND s.active = TRUE`
	var args []interface{}
	if birthYear != nil {
		query += ` AND (h.min_birth_year IS NULL OR h.min_birth_year <= $1) AND (h.max_birth_year IS NULL OR h.max_birth_year >= $1)`
		args = append(args, *birthYear)
	}
	query += ` ORDER BY s.name, h.day_of_week, h.start_time`

	var slots []models.ScheduleSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}
	return slots, nil
}

// FindByIDs returns the active slots among ids. Unknown or inactive ids are simply absent.
func (r *ScheduleRepository) FindByIDs(ctx context.Context, ids []string) ([]models.ScheduleSlotDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + slotDetailColumns + `
        FROM schedule_slots h
        JOIN sports s ON s.id = h.sport_id
        WHERE h.id = ANY($1) AND h.active = TRUE AND s.active = TRUE`
	var slots []models.ScheduleSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find schedule slots: %w", err)
	}
	return slots, nil
}
