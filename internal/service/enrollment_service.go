package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/ledger"
	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/internal/repository"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/events"
	"github.com/noah-isme/academy-api/pkg/logger"
)

const (
	defaultCodePrefix      = "ACAD"
	defaultMaxSlots        = 10
	defaultRemoteTimeout   = 30 * time.Second
	compensationTimeout    = 15 * time.Second
	defaultBirthDate       = "2010-01-01"
	defaultSex             = "unspecified"
	operationCodeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	operationCodeRandomLen = 5
	duplicateRemoteDetails = "DUPLICATE"
)

// errStudentRaced marks a student insert that lost to a concurrent request for the same national ID.
var errStudentRaced = errors.New("student created concurrently")

type txRunner interface {
	WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

type enrollmentStudentRepository interface {
	FindByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string) (*models.Student, error)
	Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error
	Delete(ctx context.Context, id string) (bool, error)
	UpdateDocuments(ctx context.Context, id string, docs models.StudentDocuments) error
}

type enrollmentSlotRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.ScheduleSlotDetail, error)
}

type enrollmentRepository interface {
	FindOpen(ctx context.Context, exec sqlx.ExtContext, studentID, sportID string) (*models.Enrollment, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	CreateSlotLinks(ctx context.Context, exec sqlx.ExtContext, links []models.EnrollmentSlotLink) error
	DeleteByIDs(ctx context.Context, ids []string) error
	ListByOperationCode(ctx context.Context, code string) ([]models.EnrollmentDetail, error)
}

type ledgerSender interface {
	Send(ctx context.Context, action string, payload interface{}) (*ledger.Response, error)
}

// EnrollmentServiceConfig tunes the enrollment workflow.
type EnrollmentServiceConfig struct {
	CodePrefix    string
	MaxSlots      int
	RemoteTimeout time.Duration
	FlatRateSport string
	FlatRatePrice float64
}

// EnrollmentServiceParams groups constructor dependencies.
type EnrollmentServiceParams struct {
	Tx          txRunner
	Students    enrollmentStudentRepository
	Slots       enrollmentSlotRepository
	Enrollments enrollmentRepository
	Ledger      ledgerSender
	Cache       *CacheService
	Events      events.Publisher
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Config      EnrollmentServiceConfig
}

// EnrollmentService registers students into schedule slots. The local write runs in one
// transaction and the ledger sync is compensated by deleting the local rows when it fails.
type EnrollmentService struct {
	tx          txRunner
	students    enrollmentStudentRepository
	slots       enrollmentSlotRepository
	enrollments enrollmentRepository
	ledger      ledgerSender
	cache       *CacheService
	events      events.Publisher
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	pricer      Pricer
	cfg         EnrollmentServiceConfig
	now         func() time.Time
	random      io.Reader
}

// NewEnrollmentService constructs the coordinator.
func NewEnrollmentService(p EnrollmentServiceParams) *EnrollmentService {
	cfg := p.Config
	if cfg.CodePrefix == "" {
		cfg.CodePrefix = defaultCodePrefix
	}
	if cfg.MaxSlots <= 0 {
		cfg.MaxSlots = defaultMaxSlots
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = defaultRemoteTimeout
	}
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Events == nil {
		p.Events = events.Nop{}
	}
	return &EnrollmentService{
		tx:          p.Tx,
		students:    p.Students,
		slots:       p.Slots,
		enrollments: p.Enrollments,
		ledger:      p.Ledger,
		cache:       p.Cache,
		events:      p.Events,
		metrics:     p.Metrics,
		validator:   p.Validator,
		logger:      p.Logger,
		pricer:      NewPricer(cfg.FlatRateSport, cfg.FlatRatePrice),
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
		random:      rand.Reader,
	}
}

type sportGroup struct {
	sportID      string
	sportName    string
	plan         string
	monthlyPrice float64
	slots        []models.ScheduleSlotDetail
	enrollment   *models.Enrollment
}

// enrollmentState tracks what the local phase wrote so compensation knows what to undo.
type enrollmentState struct {
	operationCode  string
	student        *models.Student
	wasJustCreated bool
	groups         []*sportGroup
}

func (st *enrollmentState) enrollmentIDs() []string {
	ids := make([]string, 0, len(st.groups))
	for _, g := range st.groups {
		if g.enrollment != nil {
			ids = append(ids, g.enrollment.ID)
		}
	}
	return ids
}

// Enroll validates, persists and syncs one enrollment request. Either every row is committed
// locally and remotely, or nothing is left behind.
func (s *EnrollmentService) Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.EnrollResponse, error) {
	log := logger.WithContext(ctx, s.logger)

	birthDate, err := s.validate(req)
	if err != nil {
		s.metrics.RecordEnrollment(OutcomeInvalid)
		return nil, err
	}
	log = log.With(zap.String("national_id", req.Student.NationalID))

	slotIDs := uniqueSlotIDs(req.Slots)
	slots, err := s.slots.FindByIDs(ctx, slotIDs)
	if err != nil {
		s.metrics.RecordEnrollment(OutcomeLocalError)
		log.Error("enrollment failed", zap.String("phase", "load_slots"), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrLocalPersistence.Code, appErrors.ErrLocalPersistence.Status, appErrors.ErrLocalPersistence.Message)
	}
	if missing := missingSlotIDs(slotIDs, slots); len(missing) > 0 {
		s.metrics.RecordEnrollment(OutcomeInvalid)
		return nil, appErrors.WithDetails(appErrors.ErrInvalidSlots,
			"some schedule slots do not exist or are no longer available, please pick them from the list again",
			dto.InvalidSlotsDetails{InvalidSlots: len(missing), SlotIDs: missing})
	}

	state := &enrollmentState{
		operationCode: s.operationCode(),
		groups:        s.groupBySport(req.Slots, slots),
	}
	log = log.With(zap.String("operation_code", state.operationCode))

	if err := s.persist(ctx, req.Student, birthDate, state); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Status < 500 {
			if errors.Is(appErr, appErrors.ErrDuplicateEnroll) {
				s.metrics.RecordEnrollment(OutcomeConflict)
				log.Warn("duplicate enrollment rejected", zap.Any("details", appErr.Details))
			} else {
				s.metrics.RecordEnrollment(OutcomeInvalid)
			}
			return nil, appErr
		}
		s.metrics.RecordEnrollment(OutcomeLocalError)
		log.Error("enrollment failed", zap.String("phase", "persist"), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrLocalPersistence.Code, appErrors.ErrLocalPersistence.Status, appErrors.ErrLocalPersistence.Message)
	}

	// Rows are committed; from here the remote timeout is the only cancellation boundary.
	ctx = context.WithoutCancel(ctx)

	resp, err := s.sync(ctx, req.Student, state)
	if err != nil {
		log.Error("enrollment failed", zap.String("phase", "remote_sync"), zap.Error(err))
		s.compensate(ctx, log, state)
		s.metrics.RecordEnrollment(OutcomeCompensated)
		s.publish(ctx, log, events.TypeEnrollmentCompensated, state, err.Error())
		return nil, remoteSyncError(err)
	}

	s.storeDocuments(ctx, log, state.student, resp)
	s.cache.InvalidateEnrollment(ctx, state.student.NationalID)
	s.publish(ctx, log, events.TypeEnrollmentCommitted, state, "")
	s.metrics.RecordEnrollment(OutcomeCommitted)
	log.Info("enrollment committed", zap.Int("enrollments", len(state.groups)), zap.Int("slots", len(slotIDs)))

	return buildEnrollResponse(state), nil
}

// Operation lists the enrollments created under one operation code.
func (s *EnrollmentService) Operation(ctx context.Context, code string) (*dto.OperationLookupResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "operation code is required")
	}
	rows, err := s.enrollments.ListByOperationCode(ctx, code)
	if err != nil {
		if repository.IsUnavailable(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, appErrors.ErrUnavailable.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no enrollment matches this operation code")
	}
	items := make([]dto.EnrollmentItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, enrollmentItem(row))
	}
	return &dto.OperationLookupResponse{OperationCode: code, Enrollments: items}, nil
}

func (s *EnrollmentService) validate(req dto.EnrollRequest) (time.Time, error) {
	if req.Student == nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "student data is required")
	}
	if len(req.Slots) == 0 {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "select at least one schedule slot")
	}
	if len(req.Slots) > s.cfg.MaxSlots {
		return time.Time{}, appErrors.Clone(appErrors.ErrTooManySlots,
			fmt.Sprintf("select at most %d schedule slots per enrollment; contact the administrator if you need more", s.cfg.MaxSlots))
	}
	invalid := 0
	for _, slot := range req.Slots {
		if strings.TrimSpace(slot.SlotID) == "" {
			invalid++
		}
	}
	if invalid > 0 {
		return time.Time{}, appErrors.WithDetails(appErrors.ErrInvalidSlots,
			"every schedule slot must have a valid id, please pick them from the list",
			dto.InvalidSlotsDetails{InvalidSlots: invalid})
	}

	student := req.Student
	student.NationalID = strings.TrimSpace(student.NationalID)
	if err := s.validator.Struct(student); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "NationalID" {
					return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidNationalID.Code, appErrors.ErrInvalidNationalID.Status, appErrors.ErrInvalidNationalID.Message)
				}
			}
		}
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student data")
	}

	raw := strings.TrimSpace(student.BirthDate)
	if raw == "" {
		raw = defaultBirthDate
	}
	birthDate, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "birth_date must use YYYY-MM-DD")
	}
	return birthDate, nil
}

// groupBySport groups the selections by the sport of their slot, keeping request order.
func (s *EnrollmentService) groupBySport(selections []dto.SlotSelection, slots []models.ScheduleSlotDetail) []*sportGroup {
	byID := make(map[string]models.ScheduleSlotDetail, len(slots))
	for _, slot := range slots {
		byID[slot.ID] = slot
	}

	var groups []*sportGroup
	index := map[string]*sportGroup{}
	seen := map[string]bool{}
	for _, sel := range selections {
		id := strings.TrimSpace(sel.SlotID)
		if seen[id] {
			continue
		}
		seen[id] = true
		slot := byID[id]

		group, ok := index[slot.SportID]
		if !ok {
			group = &sportGroup{sportID: slot.SportID, sportName: slot.SportName}
			index[slot.SportID] = group
			groups = append(groups, group)
		}
		if group.plan == "" && strings.TrimSpace(sel.Plan) != "" {
			group.plan = NormalizePlan(sel.Plan)
		}
		group.slots = append(group.slots, slot)
	}

	for _, group := range groups {
		if group.plan == "" {
			for _, slot := range group.slots {
				if slot.Plan != nil && strings.TrimSpace(*slot.Plan) != "" {
					group.plan = NormalizePlan(*slot.Plan)
					break
				}
			}
		}
		if group.plan == "" {
			group.plan = PlanEconomic
		}
		group.monthlyPrice = s.pricer.MonthlyPrice(len(group.slots), group.plan, group.sportName)
	}
	return groups
}

func (s *EnrollmentService) persist(ctx context.Context, input *dto.StudentInput, birthDate time.Time, state *enrollmentState) error {
	err := s.persistOnce(ctx, input, birthDate, state)
	if errors.Is(err, errStudentRaced) {
		// The winning request has committed the student, so the second pass resolves it.
		err = s.persistOnce(ctx, input, birthDate, state)
	}
	return err
}

func (s *EnrollmentService) persistOnce(ctx context.Context, input *dto.StudentInput, birthDate time.Time, state *enrollmentState) error {
	var current *sportGroup
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		student, err := s.students.FindByNationalID(ctx, exec, input.NationalID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			student = newStudent(input, birthDate)
			if err := s.students.Create(ctx, exec, student); err != nil {
				if repository.IsUniqueViolation(err) {
					return fmt.Errorf("%w: %v", errStudentRaced, err)
				}
				return err
			}
			state.wasJustCreated = true
		case err != nil:
			return fmt.Errorf("resolve student: %w", err)
		case !student.Active():
			return appErrors.ErrAccountInactive
		}
		state.student = student

		for _, group := range state.groups {
			current = group
			existing, err := s.enrollments.FindOpen(ctx, exec, student.ID, group.sportID)
			if err != nil {
				return err
			}
			if existing != nil {
				return duplicateError(group.sportName, existing)
			}
		}

		now := s.now()
		for _, group := range state.groups {
			current = group
			enrollment := &models.Enrollment{
				OperationCode: state.operationCode,
				StudentID:     student.ID,
				SportID:       group.sportID,
				Plan:          group.plan,
				MonthlyPrice:  group.monthlyPrice,
				FeePaid:       false,
				Status:        models.EnrollmentStatusPending,
				CreatedAt:     now,
			}
			if err := s.enrollments.Create(ctx, exec, enrollment); err != nil {
				return err
			}
			links := make([]models.EnrollmentSlotLink, 0, len(group.slots))
			for _, slot := range group.slots {
				links = append(links, models.EnrollmentSlotLink{EnrollmentID: enrollment.ID, SlotID: slot.ID})
			}
			if err := s.enrollments.CreateSlotLinks(ctx, exec, links); err != nil {
				return err
			}
			group.enrollment = enrollment
		}
		return nil
	})
	if err != nil {
		for _, group := range state.groups {
			group.enrollment = nil
		}
		state.wasJustCreated = false
		if repository.IsUniqueViolation(err) && current != nil {
			return appErrors.WithDetails(appErrors.ErrDuplicateEnroll,
				fmt.Sprintf("there is already an open enrollment for %s", current.sportName),
				dto.DuplicateEnrollmentDetails{Sport: current.sportName})
		}
		return err
	}
	return nil
}

func (s *EnrollmentService) sync(ctx context.Context, input *dto.StudentInput, state *enrollmentState) (*ledger.Response, error) {
	if s.ledger == nil {
		return nil, ledger.ErrTransport
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RemoteTimeout)
	defer cancel()
	return s.ledger.Send(ctx, ledger.ActionEnrollMultiple, enrollPayload(input, state))
}

// compensate deletes the rows written by the local phase. Failures are logged only and never
// replace the error returned to the caller.
func (s *EnrollmentService) compensate(ctx context.Context, log *zap.Logger, state *enrollmentState) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	ids := state.enrollmentIDs()
	if err := s.enrollments.DeleteByIDs(ctx, ids); err != nil {
		s.metrics.RecordCompensationFailure()
		log.Error("compensation failed", zap.String("phase", "delete_enrollments"), zap.Strings("enrollment_ids", ids), zap.Error(err))
	}
	studentDeleted := false
	if state.wasJustCreated && state.student != nil {
		deleted, err := s.students.Delete(ctx, state.student.ID)
		switch {
		case err != nil:
			s.metrics.RecordCompensationFailure()
			log.Error("compensation failed", zap.String("phase", "delete_student"), zap.String("student_id", state.student.ID), zap.Error(err))
		case !deleted:
			log.Warn("compensation skipped", zap.String("phase", "delete_student"), zap.String("student_id", state.student.ID),
				zap.String("reason", "student has enrollments from another request"))
		}
		studentDeleted = deleted
	}
	log.Info("enrollment compensated", zap.Int("enrollments", len(ids)), zap.Bool("student_deleted", studentDeleted))
}

func (s *EnrollmentService) storeDocuments(ctx context.Context, log *zap.Logger, student *models.Student, resp *ledger.Response) {
	docs := documentsFrom(resp)
	if docs.Empty() {
		return
	}
	if err := s.students.UpdateDocuments(ctx, student.ID, docs); err != nil {
		log.Warn("failed to store document urls", zap.String("student_id", student.ID), zap.Error(err))
	}
}

func (s *EnrollmentService) publish(ctx context.Context, log *zap.Logger, eventType string, state *enrollmentState, reason string) {
	payload := map[string]interface{}{
		"operation_code": state.operationCode,
		"enrollment_ids": state.enrollmentIDs(),
	}
	key := ""
	if state.student != nil {
		key = state.student.NationalID
		payload["national_id"] = state.student.NationalID
	}
	if reason != "" {
		payload["reason"] = reason
	}
	err := s.events.Publish(ctx, events.Event{Type: eventType, Key: key, OccurredAt: s.now(), Payload: payload})
	if err != nil {
		log.Warn("failed to publish enrollment event", zap.String("type", eventType), zap.Error(err))
	}
}

// operationCode returns PREFIX-YYYYMMDD-XXXXX. Collisions are not checked.
func (s *EnrollmentService) operationCode() string {
	var b strings.Builder
	base := big.NewInt(int64(len(operationCodeAlphabet)))
	for i := 0; i < operationCodeRandomLen; i++ {
		n, err := rand.Int(s.random, base)
		if err != nil {
			b.WriteByte(operationCodeAlphabet[s.now().UnixNano()%int64(len(operationCodeAlphabet))])
			continue
		}
		b.WriteByte(operationCodeAlphabet[n.Int64()])
	}
	return fmt.Sprintf("%s-%s-%s", s.cfg.CodePrefix, s.now().Format("20060102"), b.String())
}

func remoteSyncError(err error) error {
	if ledger.IsTimeout(err) {
		return appErrors.Wrap(err, appErrors.ErrRemoteTimeout.Code, appErrors.ErrRemoteTimeout.Status, appErrors.ErrRemoteTimeout.Message)
	}
	wrapped := appErrors.Wrap(err, appErrors.ErrRemoteSync.Code, appErrors.ErrRemoteSync.Status, appErrors.ErrRemoteSync.Message)
	if remote, ok := ledger.AsRemoteError(err); ok && remote.AlreadyEnrolled() {
		wrapped.Details = duplicateRemoteDetails
	}
	return wrapped
}

func duplicateError(sport string, existing *models.Enrollment) error {
	return appErrors.WithDetails(appErrors.ErrDuplicateEnroll,
		fmt.Sprintf("there is already a %s enrollment for %s, a student cannot enroll twice in the same sport", existing.Status, sport),
		dto.DuplicateEnrollmentDetails{
			Sport: sport,
			ExistingEnrollment: dto.ExistingEnrollment{
				ID:           existing.ID,
				Status:       string(existing.Status),
				Plan:         existing.Plan,
				MonthlyPrice: existing.MonthlyPrice,
			},
		})
}

func newStudent(input *dto.StudentInput, birthDate time.Time) *models.Student {
	sex := strings.TrimSpace(input.Sex)
	if sex == "" {
		sex = defaultSex
	}
	return &models.Student{
		NationalID:       input.NationalID,
		FirstName:        strings.TrimSpace(input.FirstName),
		PaternalSurname:  strings.TrimSpace(input.PaternalSurname),
		MaternalSurname:  strings.TrimSpace(input.MaternalSurname),
		BirthDate:        birthDate,
		Sex:              sex,
		Phone:            optional(input.Phone),
		Email:            optional(input.Email),
		Address:          optional(input.Address),
		InsuranceType:    optional(input.InsuranceType),
		MedicalCondition: optional(input.MedicalCondition),
		GuardianName:     optional(input.GuardianName),
		GuardianPhone:    optional(input.GuardianPhone),
		Status:           models.StudentStatusActive,
		PaymentStatus:    models.PaymentStatusPending,
	}
}

func enrollPayload(input *dto.StudentInput, state *enrollmentState) ledger.EnrollPayload {
	payload := ledger.EnrollPayload{
		OperationCode: state.operationCode,
		Student: ledger.StudentRecord{
			NationalID:       input.NationalID,
			FirstName:        input.FirstName,
			PaternalSurname:  input.PaternalSurname,
			MaternalSurname:  input.MaternalSurname,
			BirthDate:        input.BirthDate,
			Sex:              input.Sex,
			Phone:            input.Phone,
			Email:            input.Email,
			Address:          input.Address,
			InsuranceType:    input.InsuranceType,
			MedicalCondition: input.MedicalCondition,
			GuardianName:     input.GuardianName,
			GuardianPhone:    input.GuardianPhone,
			IDFrontImage:     input.IDFrontImage,
			IDBackImage:      input.IDBackImage,
			PhotoImage:       input.PhotoImage,
			ReceiptImage:     input.ReceiptImage,
		},
	}
	for _, group := range state.groups {
		for _, slot := range group.slots {
			payload.Slots = append(payload.Slots, ledger.SlotRecord{
				SlotID:    slot.ID,
				Sport:     group.sportName,
				DayOfWeek: slot.DayOfWeek,
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				Category:  deref(slot.Category),
				Level:     deref(slot.Level),
				Plan:      group.plan,
				Price:     group.monthlyPrice,
			})
		}
	}
	return payload
}

func documentsFrom(resp *ledger.Response) models.StudentDocuments {
	var docs models.StudentDocuments
	if resp == nil {
		return docs
	}
	if resp.Documents != nil {
		docs.IDFrontURL = optional(resp.Documents.IDFront)
		docs.IDBackURL = optional(resp.Documents.IDBack)
		docs.PhotoURL = optional(resp.Documents.Photo)
	}
	docs.ReceiptURL = optional(resp.Receipt())
	return docs
}

func buildEnrollResponse(state *enrollmentState) *dto.EnrollResponse {
	out := &dto.EnrollResponse{
		OperationCode: state.operationCode,
		Student: dto.StudentSummary{
			ID:         state.student.ID,
			NationalID: state.student.NationalID,
			FirstName:  state.student.FirstName,
			LastName:   state.student.LastName(),
		},
		Enrollments: make([]dto.EnrollmentCreated, 0, len(state.groups)),
	}
	for _, group := range state.groups {
		slotIDs := make([]string, 0, len(group.slots))
		for _, slot := range group.slots {
			slotIDs = append(slotIDs, slot.ID)
		}
		out.Enrollments = append(out.Enrollments, dto.EnrollmentCreated{
			ID:           group.enrollment.ID,
			SportID:      group.sportID,
			Sport:        group.sportName,
			Plan:         group.plan,
			MonthlyPrice: group.monthlyPrice,
			SlotIDs:      slotIDs,
		})
	}
	return out
}

func uniqueSlotIDs(selections []dto.SlotSelection) []string {
	ids := make([]string, 0, len(selections))
	seen := make(map[string]bool, len(selections))
	for _, sel := range selections {
		id := strings.TrimSpace(sel.SlotID)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func missingSlotIDs(requested []string, found []models.ScheduleSlotDetail) []string {
	present := make(map[string]bool, len(found))
	for _, slot := range found {
		present[slot.ID] = true
	}
	var missing []string
	for _, id := range requested {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
