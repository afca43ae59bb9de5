package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/ledger"
	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/events"
	"github.com/noah-isme/academy-api/pkg/logger"
	"github.com/noah-isme/academy-api/pkg/middleware/requestid"
)

const (
	defaultRejectReason = "Payment rejected by administrator"
	receiptImagePrefix  = "data:image/"
	defaultReceiptName  = "receipt"
)

type adminStudentRepository interface {
	FindByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string) (*models.Student, error)
	SetStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.StudentStatus) error
	ConfirmPayment(ctx context.Context, exec sqlx.ExtContext, id string, confirmation models.PaymentConfirmation) error
	RejectPayment(ctx context.Context, exec sqlx.ExtContext, id, notes string) error
	UpdateDocuments(ctx context.Context, id string, docs models.StudentDocuments) error
}

type adminEnrollmentRepository interface {
	ListByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string, statuses ...models.EnrollmentStatus) ([]models.Enrollment, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.EnrollmentStatus, reason *models.CancelReason) error
}

// AdminServiceParams groups the dependencies of AdminService.
type AdminServiceParams struct {
	Tx            txRunner
	Students      adminStudentRepository
	Enrollments   adminEnrollmentRepository
	Ledger        ledgerSender
	Mirror        *LedgerMirror
	Cache         *CacheService
	Events        events.Publisher
	Validator     *validator.Validate
	Logger        *zap.Logger
	RemoteTimeout time.Duration
}

// AdminService applies administrator decisions on students: payments, account status and receipts.
// Local state is the source of truth; the ledger is updated through the mirror except for receipt
// uploads, which need the stored file URL back.
type AdminService struct {
	tx            txRunner
	students      adminStudentRepository
	enrollments   adminEnrollmentRepository
	ledger        ledgerSender
	mirror        *LedgerMirror
	cache         *CacheService
	events        events.Publisher
	validator     *validator.Validate
	logger        *zap.Logger
	remoteTimeout time.Duration
	now           func() time.Time
}

// NewAdminService constructs the service.
func NewAdminService(p AdminServiceParams) *AdminService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Events == nil {
		p.Events = events.Nop{}
	}
	if p.RemoteTimeout <= 0 {
		p.RemoteTimeout = defaultRemoteTimeout
	}
	return &AdminService{
		tx:            p.Tx,
		students:      p.Students,
		enrollments:   p.Enrollments,
		ledger:        p.Ledger,
		mirror:        p.Mirror,
		cache:         p.Cache,
		events:        p.Events,
		validator:     p.Validator,
		logger:        p.Logger,
		remoteTimeout: p.RemoteTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ConfirmPayment marks the enrollment fee as paid and activates pending enrollments.
func (s *AdminService) ConfirmPayment(ctx context.Context, nationalID string, req dto.ConfirmPaymentRequest) (*dto.StudentStatusResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	student, err := s.findStudent(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	if student.PaymentStatus == models.PaymentStatusConfirmed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment is already confirmed")
	}

	confirmation := models.PaymentConfirmation{
		Amount:          req.Amount,
		OperationNumber: strings.TrimSpace(req.OperationNumber),
		Notes:           strings.TrimSpace(req.Notes),
		ConfirmedAt:     s.now(),
	}
	affected := 0
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.students.ConfirmPayment(ctx, exec, student.ID, confirmation); err != nil {
			return err
		}
		n, err := s.transition(ctx, exec, student.ID, models.EnrollmentStatusActive, nil, models.EnrollmentStatusPending)
		affected = n
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm payment")
	}

	s.afterChange(ctx, student, events.TypePaymentConfirmed, map[string]interface{}{
		"amount":           confirmation.Amount,
		"operation_number": confirmation.OperationNumber,
		"activated":        affected,
	})
	s.mirror.Mirror(ctx, ledger.ActionConfirmPayment, student.NationalID, ledger.PaymentConfirmationPayload{
		NationalID:      student.NationalID,
		Amount:          &confirmation.Amount,
		OperationNumber: optional(confirmation.OperationNumber),
		Notes:           optional(confirmation.Notes),
		ConfirmedAt:     confirmation.ConfirmedAt.Format(time.RFC3339),
	})

	return statusResponse(student.NationalID, student.Status, models.PaymentStatusConfirmed, affected), nil
}

// RejectPayment keeps the fee pending and cancels every open enrollment of the student.
func (s *AdminService) RejectPayment(ctx context.Context, nationalID string, req dto.RejectPaymentRequest) (*dto.StudentStatusResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	student, err := s.findStudent(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultRejectReason
	}

	cancelReason := models.CancelReasonPaymentRejected
	affected := 0
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.students.RejectPayment(ctx, exec, student.ID, reason); err != nil {
			return err
		}
		n, err := s.transition(ctx, exec, student.ID, models.EnrollmentStatusCancelled, &cancelReason,
			models.EnrollmentStatusPending, models.EnrollmentStatusActive)
		affected = n
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject payment")
	}

	s.afterChange(ctx, student, events.TypePaymentRejected, map[string]interface{}{
		"reason":    reason,
		"cancelled": affected,
	})
	return statusResponse(student.NationalID, student.Status, models.PaymentStatusPending, affected), nil
}

// Deactivate soft-deletes a student and cancels their open enrollments.
func (s *AdminService) Deactivate(ctx context.Context, nationalID string) (*dto.StudentStatusResponse, error) {
	student, err := s.findStudent(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	if !student.Active() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student is already inactive")
	}

	reason := models.CancelReasonDeactivated
	affected := 0
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.students.SetStatus(ctx, exec, student.ID, models.StudentStatusInactive); err != nil {
			return err
		}
		n, err := s.transition(ctx, exec, student.ID, models.EnrollmentStatusCancelled, &reason,
			models.EnrollmentStatusPending, models.EnrollmentStatusActive)
		affected = n
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}

	s.afterChange(ctx, student, events.TypeStudentDeactivated, map[string]interface{}{"cancelled": affected})
	s.mirror.Mirror(ctx, ledger.ActionDeactivateUser, student.NationalID, ledger.AccountPayload{NationalID: student.NationalID})
	return statusResponse(student.NationalID, models.StudentStatusInactive, student.PaymentStatus, affected), nil
}

// Reactivate restores a deactivated student. Only enrollments cancelled by the deactivation come back.
func (s *AdminService) Reactivate(ctx context.Context, nationalID string) (*dto.StudentStatusResponse, error) {
	student, err := s.findStudent(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	if student.Active() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student is already active")
	}

	affected := 0
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.students.SetStatus(ctx, exec, student.ID, models.StudentStatusActive); err != nil {
			return err
		}
		n, err := s.transition(ctx, exec, student.ID, models.EnrollmentStatusActive, nil, models.EnrollmentStatusCancelled)
		affected = n
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate student")
	}

	s.afterChange(ctx, student, events.TypeStudentReactivated, map[string]interface{}{"restored": affected})
	s.mirror.Mirror(ctx, ledger.ActionReactivateUser, student.NationalID, ledger.AccountPayload{NationalID: student.NationalID})
	return statusResponse(student.NationalID, models.StudentStatusActive, student.PaymentStatus, affected), nil
}

// UploadReceipt forwards a payment receipt image to the ledger and stores the returned URL.
func (s *AdminService) UploadReceipt(ctx context.Context, nationalID string, req dto.ReceiptUploadRequest) (*dto.ReceiptUploadResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !strings.HasPrefix(req.Image, receiptImagePrefix) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "image must be a base64 data URI of an image")
	}
	student, err := s.findStudent(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	if s.ledger == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "ledger is not configured")
	}

	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		fileName = defaultReceiptName
	}
	callCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	resp, err := s.ledger.Send(callCtx, ledger.ActionUploadReceipt, ledger.ReceiptPayload{
		OperationCode: strings.ToUpper(strings.TrimSpace(req.OperationCode)),
		NationalID:    student.NationalID,
		Student:       &ledger.StudentNames{FirstName: student.FirstName, LastName: student.LastName()},
		Image:         req.Image,
		FileName:      fileName,
	})
	if err != nil {
		logger.WithContext(ctx, s.logger).Error("receipt upload failed", zap.String("national_id", student.NationalID), zap.Error(err))
		return nil, remoteSyncError(err)
	}
	receiptURL := resp.Receipt()
	if receiptURL == "" {
		return nil, appErrors.Clone(appErrors.ErrRemoteSync, "ledger did not return the receipt location")
	}

	if err := s.students.UpdateDocuments(ctx, student.ID, models.StudentDocuments{ReceiptURL: &receiptURL}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrLocalPersistence.Code, appErrors.ErrLocalPersistence.Status, "failed to store receipt url")
	}
	s.cache.InvalidateStudent(ctx, student.NationalID)
	return &dto.ReceiptUploadResponse{NationalID: student.NationalID, ReceiptURL: receiptURL}, nil
}

func (s *AdminService) findStudent(ctx context.Context, nationalID string) (*models.Student, error) {
	nationalID, err := normalizeNationalID(nationalID)
	if err != nil {
		return nil, err
	}
	student, err := s.students.FindByNationalID(ctx, nil, nationalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// transition moves every enrollment in one of the from statuses to next, skipping those the
// state machine does not allow. It returns the number of rows changed.
func (s *AdminService) transition(ctx context.Context, exec sqlx.ExtContext, studentID string, next models.EnrollmentStatus, reason *models.CancelReason, from ...models.EnrollmentStatus) (int, error) {
	rows, err := s.enrollments.ListByStudent(ctx, exec, studentID, from...)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, e := range rows {
		if !e.CanTransition(next) {
			continue
		}
		if err := s.enrollments.UpdateStatus(ctx, exec, e.ID, next, reason); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// afterChange also drops schedule listings because occupancy counts open enrollments.
func (s *AdminService) afterChange(ctx context.Context, student *models.Student, eventType string, payload map[string]interface{}) {
	s.cache.InvalidateEnrollment(ctx, student.NationalID)
	payload["national_id"] = student.NationalID
	err := s.events.Publish(ctx, events.Event{
		Type:       eventType,
		Key:        student.NationalID,
		OccurredAt: s.now(),
		RequestID:  requestid.FromContext(ctx),
		Payload:    payload,
	})
	if err != nil {
		logger.WithContext(ctx, s.logger).Warn("failed to publish admin event", zap.String("type", eventType), zap.Error(err))
	}
}

func statusResponse(nationalID string, status models.StudentStatus, payment models.PaymentStatus, affected int) *dto.StudentStatusResponse {
	return &dto.StudentStatusResponse{
		NationalID:          nationalID,
		Status:              string(status),
		PaymentStatus:       string(payment),
		AffectedEnrollments: affected,
	}
}
