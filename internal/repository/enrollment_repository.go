package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academy-api/internal/models"
)

const enrollmentColumns = `id, operation_code, student_id, sport_id, plan, monthly_price, fee_paid, status, cancel_reason, created_at, updated_at`

// EnrollmentRepository handles persistence of enrollments and their slot links.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindOpen returns the pending or active enrollment of a student in a sport, or nil when none exists.
func (r *EnrollmentRepository) FindOpen(ctx context.Context, exec sqlx.ExtContext, studentID, sportID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments
        WHERE student_id = $1 AND sport_id = $2 AND status IN ($3, $4)
        ORDER BY created_at DESC LIMIT 1`
	var enrollment models.Enrollment
	err := sqlx.GetContext(ctx, pick(r.db, exec), &enrollment, query, studentID, sportID,
		models.EnrollmentStatusPending, models.EnrollmentStatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open enrollment: %w", err)
	}
	return &enrollment, nil
}

// Create inserts an enrollment. Defaults to pending with the fee unpaid.
func (r *EnrollmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusPending
	}

	const query = `INSERT INTO enrollments (id, operation_code, student_id, sport_id, plan, monthly_price, fee_paid, status,
        cancel_reason, created_at, updated_at)
        VALUES (:id, :operation_code, :student_id, :sport_id, :plan, :monthly_price, :fee_paid, :status, :cancel_reason,
        :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// CreateSlotLinks inserts the enrollment/slot join rows.
func (r *EnrollmentRepository) CreateSlotLinks(ctx context.Context, exec sqlx.ExtContext, links []models.EnrollmentSlotLink) error {
	const query = `INSERT INTO enrollment_slot_links (id, enrollment_id, slot_id) VALUES (:id, :enrollment_id, :slot_id)`
	target := pick(r.db, exec)
	for i := range links {
		if links[i].ID == "" {
			links[i].ID = uuid.NewString()
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, &links[i]); err != nil {
			return fmt.Errorf("create enrollment slot link: %w", err)
		}
	}
	return nil
}

// DeleteByIDs removes enrollments and their links in one transaction.
func (r *EnrollmentRepository) DeleteByIDs(ctx context.Context, ids []string) (err error) {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete enrollments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM enrollment_slot_links WHERE enrollment_id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete enrollment slot links: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM enrollments WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete enrollments: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete enrollments: %w", err)
	}
	return nil
}

// ListByStudent returns the enrollments of a student in the given statuses, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string, statuses ...models.EnrollmentStatus) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1`
	args := []interface{}{studentID}
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, status := range statuses {
			values[i] = string(status)
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(values))
	}
	query += ` ORDER BY created_at DESC`

	var enrollments []models.Enrollment
	if err := sqlx.SelectContext(ctx, pick(r.db, exec), &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// UpdateStatus moves one enrollment to status with the given cancel reason (nil clears it).
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.EnrollmentStatus, reason *models.CancelReason) error {
	const query = `UPDATE enrollments SET status = $2, cancel_reason = $3, updated_at = $4 WHERE id = $1`
	if _, err := pick(r.db, exec).ExecContext(ctx, query, id, status, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// ListDetailsByNationalID returns the enrollments of a student joined with the sport name.
func (r *EnrollmentRepository) ListDetailsByNationalID(ctx context.Context, nationalID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.operation_code, e.student_id, e.sport_id, e.plan, e.monthly_price, e.fee_paid, e.status,
        e.cancel_reason, e.created_at, e.updated_at, sp.name AS sport_name
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        JOIN sports sp ON sp.id = e.sport_id
        WHERE st.national_id = $1 AND e.status = $2
        ORDER BY e.created_at DESC`
	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, nationalID, status); err != nil {
		return nil, fmt.Errorf("list enrollment details: %w", err)
	}
	return details, nil
}

// ListByOperationCode returns every enrollment created by one operation.
func (r *EnrollmentRepository) ListByOperationCode(ctx context.Context, code string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.operation_code, e.student_id, e.sport_id, e.plan, e.monthly_price, e.fee_paid, e.status,
        e.cancel_reason, e.created_at, e.updated_at, sp.name AS sport_name
        FROM enrollments e
        JOIN sports sp ON sp.id = e.sport_id
        WHERE e.operation_code = $1
        ORDER BY sp.name`
	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, code); err != nil {
		return nil, fmt.Errorf("list enrollments by operation code: %w", err)
	}
	return details, nil
}

// ListSlotDetails flattens the active enrollments of a student with their slots.
// Enrollments without links yield one row with nil slot columns.
func (r *EnrollmentRepository) ListSlotDetails(ctx context.Context, studentID string) ([]models.EnrollmentSlotDetail, error) {
	const query = `SELECT e.id AS enrollment_id, sp.name AS sport_name, e.plan, e.monthly_price, e.status,
        h.id AS slot_id, h.day_of_week, h.start_time, h.end_time, h.category, h.level
        FROM enrollments e
        JOIN sports sp ON sp.id = e.sport_id
        LEFT JOIN enrollment_slot_links l ON l.enrollment_id = e.id
        LEFT JOIN schedule_slots h ON h.id = l.slot_id
        WHERE e.student_id = $1 AND e.status = $2
        ORDER BY sp.name, h.day_of_week, h.start_time`
	var rows []models.EnrollmentSlotDetail
	if err := r.db.SelectContext(ctx, &rows, query, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list enrollment slot details: %w", err)
	}
	return rows, nil
}

// ListRoster returns one row per (active student, open enrollment, slot) matching the filter.
func (r *EnrollmentRepository) ListRoster(ctx context.Context, filter models.RosterFilter) ([]models.RosterRow, error) {
	base := `SELECT st.national_id, st.first_name, st.paternal_surname, st.maternal_surname, st.birth_date, st.sex,
        st.phone, st.email, st.guardian_name, st.guardian_phone, st.payment_status,
        sp.name AS sport_name, e.plan, h.day_of_week, h.start_time, h.end_time, h.category
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        JOIN sports sp ON sp.id = e.sport_id
        JOIN enrollment_slot_links l ON l.enrollment_id = e.id
        JOIN schedule_slots h ON h.id = l.slot_id`
	conditions := []string{"st.status = $1", "e.status IN ($2, $3)"}
	args := []interface{}{models.StudentStatusActive, models.EnrollmentStatusPending, models.EnrollmentStatusActive}
	if filter.DayOfWeek != "" {
		args = append(args, filter.DayOfWeek)
		conditions = append(conditions, fmt.Sprintf("LOWER(h.day_of_week) = LOWER($%d)", len(args)))
	}
	if filter.Sport != "" {
		args = append(args, "%"+filter.Sport+"%")
		conditions = append(conditions, fmt.Sprintf("sp.name ILIKE $%d", len(args)))
	}
	query := base + " WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY st.paternal_surname, st.first_name, sp.name, h.day_of_week, h.start_time"

	var rows []models.RosterRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return rows, nil
}
