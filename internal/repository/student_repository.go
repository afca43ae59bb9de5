package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-api/internal/models"
)

const studentColumns = `id, national_id, first_name, paternal_surname, maternal_surname, birth_date, sex, phone, email,
        address, insurance_type, medical_condition, guardian_name, guardian_phone, id_front_url, id_back_url, photo_url,
        receipt_url, status, payment_status, payment_amount, payment_operation, payment_date, payment_notes, created_at, updated_at`

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByNationalID returns the student owning the national ID. sql.ErrNoRows is returned unwrapped.
func (r *StudentRepository) FindByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE national_id = $1`
	var student models.Student
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &student, query, nationalID); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student with pending payment and active status.
func (r *StudentRepository) Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	if student.PaymentStatus == "" {
		student.PaymentStatus = models.PaymentStatusPending
	}

	const query = `INSERT INTO students (id, national_id, first_name, paternal_surname, maternal_surname, birth_date, sex,
        phone, email, address, insurance_type, medical_condition, guardian_name, guardian_phone, status, payment_status,
        created_at, updated_at)
        VALUES (:id, :national_id, :first_name, :paternal_surname, :maternal_surname, :birth_date, :sex, :phone, :email,
        :address, :insurance_type, :medical_condition, :guardian_name, :guardian_phone, :status, :payment_status,
        :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Delete removes a student row that no enrollment references. Only used to compensate a student
// created by a failed enrollment; it reports false when another request already enrolled them.
func (r *StudentRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM students WHERE id = $1
        AND NOT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1)`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	return n > 0, nil
}

// UpdateDocuments stores the file URLs returned by the ledger. Nil fields keep their value.
func (r *StudentRepository) UpdateDocuments(ctx context.Context, id string, docs models.StudentDocuments) error {
	const query = `UPDATE students SET
        id_front_url = COALESCE($2, id_front_url),
        id_back_url = COALESCE($3, id_back_url),
        photo_url = COALESCE($4, photo_url),
        receipt_url = COALESCE($5, receipt_url),
        updated_at = $6
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, docs.IDFrontURL, docs.IDBackURL, docs.PhotoURL, docs.ReceiptURL, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student documents: %w", err)
	}
	return nil
}

// SetStatus flips the soft-delete flag.
func (r *StudentRepository) SetStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.StudentStatus) error {
	const query = `UPDATE students SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := pick(r.db, exec).ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	return nil
}

// ConfirmPayment marks the enrollment fee as paid.
func (r *StudentRepository) ConfirmPayment(ctx context.Context, exec sqlx.ExtContext, id string, confirmation models.PaymentConfirmation) error {
	const query = `UPDATE students SET
        payment_status = $2,
        payment_date = $3,
        payment_amount = $4,
        payment_operation = $5,
        payment_notes = $6,
        updated_at = $3
        WHERE id = $1`
	_, err := pick(r.db, exec).ExecContext(ctx, query, id, models.PaymentStatusConfirmed, confirmation.ConfirmedAt,
		nullableFloat(confirmation.Amount), nullableString(confirmation.OperationNumber), nullableString(confirmation.Notes))
	if err != nil {
		return fmt.Errorf("confirm student payment: %w", err)
	}
	return nil
}

// RejectPayment reverts the payment to pending and records why.
func (r *StudentRepository) RejectPayment(ctx context.Context, exec sqlx.ExtContext, id, notes string) error {
	const query = `UPDATE students SET payment_status = $2, payment_notes = $3, updated_at = $4 WHERE id = $1`
	if _, err := pick(r.db, exec).ExecContext(ctx, query, id, models.PaymentStatusPending, notes, time.Now().UTC()); err != nil {
		return fmt.Errorf("reject student payment: %w", err)
	}
	return nil
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func nullableFloat(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
