package service

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/ledger"
	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/pkg/cache"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

const (
	minBirthYear = 1900
	maxBirthYear = 2100
)

type scheduleRepository interface {
	ListActive(ctx context.Context, birthYear *int) ([]models.ScheduleSlotDetail, error)
}

// ScheduleService lists the public schedule behind the response cache.
type ScheduleService struct {
	repo    scheduleRepository
	ledger  ledgerQuerier
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	group   singleflight.Group
}

// NewScheduleService constructs the service. A nil ledger disables the fallback.
func NewScheduleService(repo scheduleRepository, ledgerClient ledgerQuerier, cacheSvc *CacheService, metrics *MetricsService, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, ledger: ledgerClient, cache: cacheSvc, metrics: metrics, logger: logger}
}

// List returns active slots, optionally restricted to those accepting birthYear. The bool reports a cache hit.
func (s *ScheduleService) List(ctx context.Context, birthYear *int, forceRefresh bool) (*dto.ScheduleListResponse, bool, error) {
	identifier := cache.AllIdentifier
	if birthYear != nil {
		if *birthYear < minBirthYear || *birthYear > maxBirthYear {
			return nil, false, appErrors.Clone(appErrors.ErrValidation, "birth year is out of range")
		}
		identifier = strconv.Itoa(*birthYear)
	}
	key := cache.Key(cache.ResourceSchedules, identifier)

	return readThrough(ctx, s.cache, &s.group, cache.ResourceSchedules, key, forceRefresh, func(ctx context.Context) (*dto.ScheduleListResponse, error) {
		return localOrFallback(ctx, s.metrics, cache.ResourceSchedules, s.ledger != nil,
			func(ctx context.Context) (*dto.ScheduleListResponse, error) {
				slots, err := s.repo.ListActive(ctx, birthYear)
				if err != nil {
					return nil, err
				}
				items := make([]dto.ScheduleItem, 0, len(slots))
				for _, slot := range slots {
					items = append(items, scheduleItem(slot))
				}
				return scheduleList(items, birthYear, dto.SourceDatabase), nil
			},
			func(ctx context.Context) (*dto.ScheduleListResponse, error) {
				s.logger.Warn("database unavailable, serving schedules from ledger", zap.String("key", key))
				return s.fromLedger(ctx, birthYear)
			})
	})
}

func (s *ScheduleService) fromLedger(ctx context.Context, birthYear *int) (*dto.ScheduleListResponse, error) {
	params := url.Values{}
	if birthYear != nil {
		params.Set(ledger.ParamBirthYear, strconv.Itoa(*birthYear))
	}
	resp, err := s.ledger.Query(ctx, ledger.ActionListSchedules, params)
	if err != nil {
		return nil, err
	}
	var list ledger.ScheduleList
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}
	items := make([]dto.ScheduleItem, 0, len(list.Slots))
	for _, record := range list.Slots {
		slot := models.ScheduleSlot{MinBirthYear: record.MinBirthYear, MaxBirthYear: record.MaxBirthYear}
		if birthYear != nil && !slot.AcceptsBirthYear(*birthYear) {
			continue
		}
		items = append(items, ledgerScheduleItem(record))
	}
	return scheduleList(items, birthYear, dto.SourceFallback), nil
}

func scheduleList(items []dto.ScheduleItem, birthYear *int, source string) *dto.ScheduleListResponse {
	return &dto.ScheduleListResponse{
		Schedules:     items,
		Total:         len(items),
		FilteredByAge: birthYear != nil,
		BirthYear:     birthYear,
		Source:        source,
	}
}

func scheduleItem(slot models.ScheduleSlotDetail) dto.ScheduleItem {
	return dto.ScheduleItem{
		ID:           slot.ID,
		SportID:      slot.SportID,
		Sport:        slot.SportName,
		SportIcon:    slot.SportIcon,
		DayOfWeek:    slot.DayOfWeek,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
		Capacity:     slot.Capacity,
		Occupied:     slot.Occupied,
		Available:    available(slot.Capacity, slot.Occupied),
		Category:     slot.Category,
		Level:        slot.Level,
		Gender:       slot.Gender,
		Price:        slot.Price,
		Plan:         slot.Plan,
		MinBirthYear: slot.MinBirthYear,
		MaxBirthYear: slot.MaxBirthYear,
	}
}

func ledgerScheduleItem(record ledger.SlotRecord) dto.ScheduleItem {
	item := dto.ScheduleItem{
		ID:           record.SlotID,
		Sport:        record.Sport,
		DayOfWeek:    record.DayOfWeek,
		StartTime:    record.StartTime,
		EndTime:      record.EndTime,
		Capacity:     record.Capacity,
		Occupied:     record.Occupied,
		Available:    available(record.Capacity, record.Occupied),
		Category:     optional(record.Category),
		Level:        optional(record.Level),
		Plan:         optional(record.Plan),
		MinBirthYear: record.MinBirthYear,
		MaxBirthYear: record.MaxBirthYear,
	}
	if record.Price > 0 {
		price := record.Price
		item.Price = &price
	}
	return item
}

func available(capacity, occupied int) int {
	if occupied >= capacity {
		return 0
	}
	return capacity - occupied
}
