package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/ledger"
	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/pkg/cache"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

const nationalIDLength = 8

type studentFinder interface {
	FindByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string) (*models.Student, error)
}

type studentEnrollmentReader interface {
	ListDetailsByNationalID(ctx context.Context, nationalID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
	ListSlotDetails(ctx context.Context, studentID string) ([]models.EnrollmentSlotDetail, error)
}

// StudentQueryService serves the per-student read endpoints.
type StudentQueryService struct {
	students    studentFinder
	enrollments studentEnrollmentReader
	ledger      ledgerQuerier
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	group       singleflight.Group
}

// StudentQueryServiceParams groups the dependencies of StudentQueryService.
type StudentQueryServiceParams struct {
	Students    studentFinder
	Enrollments studentEnrollmentReader
	Ledger      ledgerQuerier
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger
}

// NewStudentQueryService constructs the service.
func NewStudentQueryService(p StudentQueryServiceParams) *StudentQueryService {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentQueryService{
		students:    p.Students,
		enrollments: p.Enrollments,
		ledger:      p.Ledger,
		cache:       p.Cache,
		metrics:     p.Metrics,
		logger:      logger,
	}
}

// Enrollments lists the active enrollments of a student.
func (s *StudentQueryService) Enrollments(ctx context.Context, nationalID string, forceRefresh bool) (*dto.EnrollmentListResponse, bool, error) {
	nationalID, err := normalizeNationalID(nationalID)
	if err != nil {
		return nil, false, err
	}
	key := cache.Key(cache.ResourceEnrollments, nationalID)

	return readThrough(ctx, s.cache, &s.group, cache.ResourceEnrollments, key, forceRefresh, func(ctx context.Context) (*dto.EnrollmentListResponse, error) {
		return localOrFallback(ctx, s.metrics, cache.ResourceEnrollments, s.ledger != nil,
			func(ctx context.Context) (*dto.EnrollmentListResponse, error) {
				rows, err := s.enrollments.ListDetailsByNationalID(ctx, nationalID, models.EnrollmentStatusActive)
				if err != nil {
					return nil, err
				}
				items := make([]dto.EnrollmentItem, 0, len(rows))
				for _, row := range rows {
					items = append(items, enrollmentItem(row))
				}
				return enrollmentList(nationalID, items, dto.SourceDatabase), nil
			},
			func(ctx context.Context) (*dto.EnrollmentListResponse, error) {
				s.logger.Warn("database unavailable, serving enrollments from ledger", zap.String("key", key))
				resp, err := s.ledger.Query(ctx, ledger.ActionMyEnrollments, url.Values{ledger.ParamNationalID: {nationalID}})
				if err != nil {
					return nil, err
				}
				var list ledger.EnrollmentList
				if err := resp.Decode(&list); err != nil {
					return nil, err
				}
				items := make([]dto.EnrollmentItem, 0, len(list.Enrollments))
				for _, record := range list.Enrollments {
					items = append(items, ledgerEnrollmentItem(record))
				}
				return enrollmentList(nationalID, items, dto.SourceFallback), nil
			})
	})
}

// Consultation returns the consolidated profile of a student: personal data, payment state,
// active enrollments and their slots.
func (s *StudentQueryService) Consultation(ctx context.Context, nationalID string, forceRefresh bool) (*dto.ConsultationResponse, bool, error) {
	nationalID, err := normalizeNationalID(nationalID)
	if err != nil {
		return nil, false, err
	}
	key := cache.Key(cache.ResourceConsultations, nationalID)

	return readThrough(ctx, s.cache, &s.group, cache.ResourceConsultations, key, forceRefresh, func(ctx context.Context) (*dto.ConsultationResponse, error) {
		return localOrFallback(ctx, s.metrics, cache.ResourceConsultations, s.ledger != nil,
			func(ctx context.Context) (*dto.ConsultationResponse, error) {
				return s.consultLocal(ctx, nationalID)
			},
			func(ctx context.Context) (*dto.ConsultationResponse, error) {
				s.logger.Warn("database unavailable, serving consultation from ledger", zap.String("key", key))
				return s.consultLedger(ctx, nationalID)
			})
	})
}

func (s *StudentQueryService) consultLocal(ctx context.Context, nationalID string) (*dto.ConsultationResponse, error) {
	student, err := s.students.FindByNationalID(ctx, nil, nationalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, err
	}
	if !student.Active() {
		return nil, appErrors.ErrAccountInactive
	}

	rows, err := s.enrollments.ListDetailsByNationalID(ctx, nationalID, models.EnrollmentStatusActive)
	if err != nil {
		return nil, err
	}
	slotRows, err := s.enrollments.ListSlotDetails(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	out := &dto.ConsultationResponse{
		Student:     consultationStudent(student),
		Enrollments: make([]dto.EnrollmentItem, 0, len(rows)),
		Slots:       make([]dto.ConsultationSlot, 0, len(slotRows)),
		Source:      dto.SourceDatabase,
	}
	total := 0.0
	for _, row := range rows {
		out.Enrollments = append(out.Enrollments, enrollmentItem(row))
		total += row.MonthlyPrice
	}
	for _, row := range slotRows {
		out.Slots = append(out.Slots, consultationSlot(row))
	}
	out.Payment = dto.PaymentSummary{
		Status:          string(student.PaymentStatus),
		TotalMonthly:    total,
		AmountPaid:      student.PaymentAmount,
		OperationNumber: student.PaymentOperation,
		PaymentDate:     student.PaymentDate,
		ReceiptURL:      student.ReceiptURL,
	}
	return out, nil
}

func (s *StudentQueryService) consultLedger(ctx context.Context, nationalID string) (*dto.ConsultationResponse, error) {
	resp, err := s.ledger.Query(ctx, ledger.ActionConsultation, url.Values{ledger.ParamNationalID: {nationalID}})
	if err != nil {
		return nil, err
	}
	var body ledger.Consultation
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if body.Student.NationalID == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if strings.EqualFold(body.Student.Status, string(models.StudentStatusInactive)) {
		return nil, appErrors.ErrAccountInactive
	}

	record := body.Student
	out := &dto.ConsultationResponse{
		Student: dto.ConsultationStudent{
			NationalID:       record.NationalID,
			FirstName:        record.FirstName,
			PaternalSurname:  record.PaternalSurname,
			MaternalSurname:  record.MaternalSurname,
			BirthDate:        record.BirthDate,
			Sex:              record.Sex,
			Phone:            optional(record.Phone),
			Email:            optional(record.Email),
			Address:          optional(record.Address),
			InsuranceType:    optional(record.InsuranceType),
			MedicalCondition: optional(record.MedicalCondition),
			GuardianName:     optional(record.GuardianName),
			GuardianPhone:    optional(record.GuardianPhone),
			Status:           string(models.StudentStatusActive),
		},
		Enrollments: make([]dto.EnrollmentItem, 0, len(body.Enrollments)),
		Slots:       make([]dto.ConsultationSlot, 0, len(body.Slots)),
		Source:      dto.SourceFallback,
	}
	total := 0.0
	for _, e := range body.Enrollments {
		out.Enrollments = append(out.Enrollments, ledgerEnrollmentItem(e))
		total += e.MonthlyPrice
	}
	for _, slot := range body.Slots {
		out.Slots = append(out.Slots, dto.ConsultationSlot{
			SlotID:    optional(slot.SlotID),
			Sport:     slot.Sport,
			Plan:      slot.Plan,
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Category:  optional(slot.Category),
			Level:     optional(slot.Level),
		})
	}
	out.Payment = dto.PaymentSummary{Status: string(models.PaymentStatusPending), TotalMonthly: total}
	if body.Payment != nil {
		if body.Payment.Status != "" {
			out.Payment.Status = body.Payment.Status
		}
		if body.Payment.Amount > 0 {
			amount := body.Payment.Amount
			out.Payment.AmountPaid = &amount
		}
		out.Payment.ReceiptURL = optional(body.Payment.ReceiptURL)
	}
	return out, nil
}

func normalizeNationalID(nationalID string) (string, error) {
	nationalID = strings.TrimSpace(nationalID)
	if len(nationalID) < nationalIDLength {
		return "", appErrors.ErrInvalidNationalID
	}
	return nationalID, nil
}

func enrollmentList(nationalID string, items []dto.EnrollmentItem, source string) *dto.EnrollmentListResponse {
	return &dto.EnrollmentListResponse{
		NationalID:  nationalID,
		Enrollments: items,
		Total:       len(items),
		Source:      source,
	}
}

func enrollmentItem(row models.EnrollmentDetail) dto.EnrollmentItem {
	item := dto.EnrollmentItem{
		ID:            row.ID,
		OperationCode: row.OperationCode,
		Sport:         row.SportName,
		Plan:          row.Plan,
		MonthlyPrice:  row.MonthlyPrice,
		Status:        string(row.Status),
	}
	if !row.CreatedAt.IsZero() {
		created := row.CreatedAt
		item.EnrolledAt = &created
	}
	return item
}

func ledgerEnrollmentItem(record ledger.EnrollmentRecord) dto.EnrollmentItem {
	item := dto.EnrollmentItem{
		OperationCode: record.OperationCode,
		Sport:         record.Sport,
		Plan:          record.Plan,
		MonthlyPrice:  record.MonthlyPrice,
		Status:        record.Status,
	}
	if item.Status == "" {
		item.Status = string(models.EnrollmentStatusActive)
	}
	if at, ok := parseLedgerTime(record.EnrolledAt); ok {
		item.EnrolledAt = &at
	}
	return item
}

// parseLedgerTime accepts the timestamp layouts the ledger writes.
func parseLedgerTime(v string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func consultationStudent(student *models.Student) dto.ConsultationStudent {
	out := dto.ConsultationStudent{
		NationalID:       student.NationalID,
		FirstName:        student.FirstName,
		PaternalSurname:  student.PaternalSurname,
		MaternalSurname:  student.MaternalSurname,
		Sex:              student.Sex,
		Phone:            student.Phone,
		Email:            student.Email,
		Address:          student.Address,
		InsuranceType:    student.InsuranceType,
		MedicalCondition: student.MedicalCondition,
		GuardianName:     student.GuardianName,
		GuardianPhone:    student.GuardianPhone,
		IDFrontURL:       student.IDFrontURL,
		IDBackURL:        student.IDBackURL,
		PhotoURL:         student.PhotoURL,
		Status:           string(student.Status),
	}
	if !student.BirthDate.IsZero() {
		out.BirthDate = student.BirthDate.Format("2006-01-02")
	}
	return out
}

func consultationSlot(row models.EnrollmentSlotDetail) dto.ConsultationSlot {
	slot := dto.ConsultationSlot{
		EnrollmentID: row.EnrollmentID,
		SlotID:       row.SlotID,
		Sport:        row.SportName,
		Plan:         row.Plan,
		Category:     row.Category,
		Level:        row.Level,
	}
	if row.SlotID == nil {
		slot.DayOfWeek = dto.SlotToBeDefined
		slot.StartTime = dto.SlotToBeDefined
		slot.EndTime = dto.SlotToBeDefined
		return slot
	}
	slot.DayOfWeek = deref(row.DayOfWeek)
	slot.StartTime = deref(row.StartTime)
	slot.EndTime = deref(row.EndTime)
	return slot
}
