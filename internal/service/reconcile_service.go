package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/ledger"
	"github.com/noah-isme/academy-api/internal/models"
)

// Reconciliation target kinds.
const (
	ReconcileSchedules   = "schedules"
	ReconcileEnrollments = "enrollments"
)

// ReconcileTarget names one dataset to compare between the local store and the ledger.
type ReconcileTarget struct {
	Kind       string `json:"kind"`
	NationalID string `json:"national_id,omitempty"`
	Critical   bool   `json:"critical"`
}

// ReconcileResult reports the differences found for one target. Keys are slot ids for
// schedules and "operation_code/sport" for enrollments.
type ReconcileResult struct {
	Target         ReconcileTarget
	LocalCount     int
	LedgerCount    int
	OnlyLocal      []string
	OnlyLedger     []string
	Mismatched     []string
	Err            error
	LocalDuration  time.Duration
	LedgerDuration time.Duration
}

// Match reports whether both sides hold the same data.
func (r ReconcileResult) Match() bool {
	return r.Err == nil && len(r.OnlyLocal) == 0 && len(r.OnlyLedger) == 0 && len(r.Mismatched) == 0
}

type reconcileScheduleReader interface {
	ListActive(ctx context.Context, birthYear *int) ([]models.ScheduleSlotDetail, error)
}

type reconcileEnrollmentReader interface {
	ListDetailsByNationalID(ctx context.Context, nationalID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
}

// ReconcileService compares what the API would serve locally with what the ledger holds. It
// bypasses the cache and never writes.
type ReconcileService struct {
	schedules   reconcileScheduleReader
	enrollments reconcileEnrollmentReader
	ledger      ledgerQuerier
	logger      *zap.Logger
	now         func() time.Time
}

// NewReconcileService constructs the service.
func NewReconcileService(schedules reconcileScheduleReader, enrollments reconcileEnrollmentReader, ledgerClient ledgerQuerier, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{
		schedules:   schedules,
		enrollments: enrollments,
		ledger:      ledgerClient,
		logger:      logger,
		now:         time.Now,
	}
}

// Run compares every target in order.
func (s *ReconcileService) Run(ctx context.Context, targets []ReconcileTarget) []ReconcileResult {
	results := make([]ReconcileResult, 0, len(targets))
	for _, target := range targets {
		result := s.compare(ctx, target)
		if result.Err != nil {
			s.logger.Warn("reconciliation failed",
				zap.String("kind", target.Kind), zap.String("national_id", target.NationalID), zap.Error(result.Err))
		}
		results = append(results, result)
	}
	return results
}

func (s *ReconcileService) compare(ctx context.Context, target ReconcileTarget) ReconcileResult {
	result := ReconcileResult{Target: target}

	var local, remote map[string]string
	switch target.Kind {
	case ReconcileSchedules:
		start := s.now()
		local, result.Err = s.localSchedules(ctx)
		result.LocalDuration = s.now().Sub(start)
		if result.Err != nil {
			return result
		}
		start = s.now()
		remote, result.Err = s.ledgerSchedules(ctx)
		result.LedgerDuration = s.now().Sub(start)
	case ReconcileEnrollments:
		nationalID, err := normalizeNationalID(target.NationalID)
		if err != nil {
			result.Err = err
			return result
		}
		start := s.now()
		local, result.Err = s.localEnrollments(ctx, nationalID)
		result.LocalDuration = s.now().Sub(start)
		if result.Err != nil {
			return result
		}
		start = s.now()
		remote, result.Err = s.ledgerEnrollments(ctx, nationalID)
		result.LedgerDuration = s.now().Sub(start)
	default:
		result.Err = fmt.Errorf("unknown reconciliation kind %q", target.Kind)
	}
	if result.Err != nil {
		return result
	}

	result.LocalCount = len(local)
	result.LedgerCount = len(remote)
	for key, fingerprint := range local {
		other, ok := remote[key]
		switch {
		case !ok:
			result.OnlyLocal = append(result.OnlyLocal, key)
		case other != fingerprint:
			result.Mismatched = append(result.Mismatched, fmt.Sprintf("%s: local %s, ledger %s", key, fingerprint, other))
		}
	}
	for key := range remote {
		if _, ok := local[key]; !ok {
			result.OnlyLedger = append(result.OnlyLedger, key)
		}
	}
	sort.Strings(result.OnlyLocal)
	sort.Strings(result.OnlyLedger)
	sort.Strings(result.Mismatched)
	return result
}

func (s *ReconcileService) localSchedules(ctx context.Context) (map[string]string, error) {
	slots, err := s.schedules.ListActive(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(slots))
	for _, slot := range slots {
		item := scheduleItem(slot)
		out[item.ID] = scheduleFingerprint(item)
	}
	return out, nil
}

func (s *ReconcileService) ledgerSchedules(ctx context.Context) (map[string]string, error) {
	resp, err := s.ledger.Query(ctx, ledger.ActionListSchedules, url.Values{})
	if err != nil {
		return nil, err
	}
	var list ledger.ScheduleList
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(list.Slots))
	for _, record := range list.Slots {
		item := ledgerScheduleItem(record)
		out[item.ID] = scheduleFingerprint(item)
	}
	return out, nil
}

func (s *ReconcileService) localEnrollments(ctx context.Context, nationalID string) (map[string]string, error) {
	rows, err := s.enrollments.ListDetailsByNationalID(ctx, nationalID, models.EnrollmentStatusActive)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		item := enrollmentItem(row)
		out[enrollmentKey(item)] = enrollmentFingerprint(item)
	}
	return out, nil
}

func (s *ReconcileService) ledgerEnrollments(ctx context.Context, nationalID string) (map[string]string, error) {
	resp, err := s.ledger.Query(ctx, ledger.ActionMyEnrollments, url.Values{ledger.ParamNationalID: {nationalID}})
	if err != nil {
		return nil, err
	}
	var list ledger.EnrollmentList
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(list.Enrollments))
	for _, record := range list.Enrollments {
		item := ledgerEnrollmentItem(record)
		if item.Status != string(models.EnrollmentStatusActive) {
			continue
		}
		out[enrollmentKey(item)] = enrollmentFingerprint(item)
	}
	return out, nil
}

func scheduleFingerprint(item dto.ScheduleItem) string {
	return fmt.Sprintf("%s %s %s-%s capacity=%d occupied=%d",
		item.Sport, item.DayOfWeek, item.StartTime, item.EndTime, item.Capacity, item.Occupied)
}

func enrollmentKey(item dto.EnrollmentItem) string {
	return item.OperationCode + "/" + item.Sport
}

func enrollmentFingerprint(item dto.EnrollmentItem) string {
	return fmt.Sprintf("%s %.2f", item.Plan, item.MonthlyPrice)
}
