package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var enrollmentColumnNames = []string{"id", "operation_code", "student_id", "sport_id", "plan", "monthly_price", "fee_paid",
	"status", "cancel_reason", "created_at", "updated_at"}

func TestEnrollmentRepositoryFindOpen(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows(enrollmentColumnNames).
		AddRow("enr-1", "ACAD-20240101-ABCDE", "stu-1", "sport-1", "Economic", 60.0, false, "pending", nil, time.Now(), time.Now())
	mock.ExpectQuery("FROM enrollments\\s+WHERE student_id = \\$1 AND sport_id = \\$2 AND status IN \\(\\$3, \\$4\\)").
		WithArgs("stu-1", "sport-1", models.EnrollmentStatusPending, models.EnrollmentStatusActive).
		WillReturnRows(rows)

	enrollment, err := repo.FindOpen(context.Background(), nil, "stu-1", "sport-1")
	require.NoError(t, err)
	require.NotNil(t, enrollment)
	assert.Equal(t, "enr-1", enrollment.ID)
	assert.True(t, enrollment.Open())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindOpenNone(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("FROM enrollments").
		WillReturnRows(sqlmock.NewRows(enrollmentColumnNames))

	enrollment, err := repo.FindOpen(context.Background(), nil, "stu-1", "sport-1")
	require.NoError(t, err)
	assert.Nil(t, enrollment)
}

func TestEnrollmentRepositoryCreateWithinTransaction(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	txm := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO enrollment_slot_links").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO enrollment_slot_links").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{OperationCode: "ACAD-20240101-ABCDE", StudentID: "stu-1", SportID: "sport-1", Plan: "Standard", MonthlyPrice: 80}
	err := txm.WithinTx(context.Background(), func(exec sqlx.ExtContext) error {
		if err := repo.Create(context.Background(), exec, enrollment); err != nil {
			return err
		}
		return repo.CreateSlotLinks(context.Background(), exec, []models.EnrollmentSlotLink{
			{EnrollmentID: enrollment.ID, SlotID: "slot-1"},
			{EnrollmentID: enrollment.ID, SlotID: "slot-2"},
		})
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	assert.NotEmpty(t, enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryRollsBackOnLinkFailure(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	txm := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO enrollment_slot_links").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := txm.WithinTx(context.Background(), func(exec sqlx.ExtContext) error {
		enrollment := &models.Enrollment{StudentID: "stu-1", SportID: "sport-1"}
		if err := repo.Create(context.Background(), exec, enrollment); err != nil {
			return err
		}
		return repo.CreateSlotLinks(context.Background(), exec, []models.EnrollmentSlotLink{{EnrollmentID: enrollment.ID, SlotID: "missing"}})
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDeleteByIDs(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	ids := []string{"enr-1", "enr-2"}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollment_slot_links WHERE enrollment_id = ANY($1)")).
		WithArgs(pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE id = ANY($1)")).
		WithArgs(pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByIDs(context.Background(), ids))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListRosterFilters(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	columns := []string{"national_id", "first_name", "paternal_surname", "maternal_surname", "birth_date", "sex", "phone",
		"email", "guardian_name", "guardian_phone", "payment_status", "sport_name", "plan", "day_of_week", "start_time",
		"end_time", "category"}
	rows := sqlmock.NewRows(columns).
		AddRow("12345678", "Ana", "Diaz", "Rojas", time.Now(), "F", nil, nil, nil, nil, "pending", "Soccer", "Economic",
			"Monday", "08:00", "09:00", nil)
	mock.ExpectQuery("LOWER\\(h.day_of_week\\) = LOWER\\(\\$4\\) AND sp.name ILIKE \\$5").
		WithArgs(models.StudentStatusActive, models.EnrollmentStatusPending, models.EnrollmentStatusActive, "Monday", "%socc%").
		WillReturnRows(rows)

	result, err := repo.ListRoster(context.Background(), models.RosterFilter{DayOfWeek: "Monday", Sport: "socc"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Soccer", result[0].SportName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
