package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/ledger"
	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/pkg/cache"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/export"
)

type rosterRepository interface {
	ListRoster(ctx context.Context, filter models.RosterFilter) ([]models.RosterRow, error)
}

// RosterExport is a rendered roster ready to be streamed.
type RosterExport struct {
	FileName    string
	ContentType string
	Body        []byte
}

// RosterService builds the admin roster of enrolled students.
type RosterService struct {
	repo    rosterRepository
	ledger  ledgerQuerier
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	group   singleflight.Group
}

// NewRosterService constructs the roster service.
func NewRosterService(repo rosterRepository, ledgerClient ledgerQuerier, cacheSvc *CacheService, metrics *MetricsService, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		repo:    repo,
		ledger:  ledgerClient,
		cache:   cacheSvc,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns one entry per student, keeping the first matching sport and slot and listing
// every sport the student is enrolled in.
func (s *RosterService) List(ctx context.Context, day, sport string, forceRefresh bool) (*dto.RosterResponse, bool, error) {
	day = strings.TrimSpace(day)
	sport = strings.TrimSpace(sport)
	key := cache.Key(cache.ResourceRosters, rosterIdentifier(day)+cache.Separator+rosterIdentifier(sport))

	return readThrough(ctx, s.cache, &s.group, cache.ResourceRosters, key, forceRefresh, func(ctx context.Context) (*dto.RosterResponse, error) {
		return localOrFallback(ctx, s.metrics, cache.ResourceRosters, s.ledger != nil,
			func(ctx context.Context) (*dto.RosterResponse, error) {
				rows, err := s.repo.ListRoster(ctx, models.RosterFilter{DayOfWeek: day, Sport: sport})
				if err != nil {
					return nil, err
				}
				entries := make([]dto.RosterStudent, 0, len(rows))
				for _, row := range rows {
					entries = append(entries, rosterStudent(row))
				}
				return rosterResponse(groupRoster(entries), day, sport, dto.SourceDatabase), nil
			},
			func(ctx context.Context) (*dto.RosterResponse, error) {
				s.logger.Warn("database unavailable, serving roster from ledger", zap.String("key", key))
				return s.fromLedger(ctx, day, sport)
			})
	})
}

// Export renders the roster in format (csv or pdf). It always reads fresh data.
func (s *RosterService) Export(ctx context.Context, day, sport, format string) (*RosterExport, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	roster, _, err := s.List(ctx, day, sport, true)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(rosterDataset(roster, day, sport))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	name := "roster_" + s.now().Format("20060102")
	if day != "" {
		name += "_" + strings.ToLower(day)
	}
	return &RosterExport{
		FileName:    export.FileName(name, renderer),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *RosterService) fromLedger(ctx context.Context, day, sport string) (*dto.RosterResponse, error) {
	params := url.Values{}
	if day != "" {
		params.Set(ledger.ParamDay, day)
	}
	if sport != "" {
		params.Set(ledger.ParamSport, sport)
	}
	resp, err := s.ledger.Query(ctx, ledger.ActionListEnrolled, params)
	if err != nil {
		return nil, err
	}
	var roster ledger.Roster
	if err := resp.Decode(&roster); err != nil {
		return nil, err
	}
	entries := make([]dto.RosterStudent, 0, len(roster.Entries))
	for _, entry := range roster.Entries {
		student := entry.Student
		sportName := entry.Sport
		if sportName == "" {
			sportName = entry.Slot.Sport
		}
		lastName := strings.TrimSpace(student.PaternalSurname + " " + student.MaternalSurname)
		entries = append(entries, dto.RosterStudent{
			NationalID:    student.NationalID,
			FirstName:     student.FirstName,
			LastName:      lastName,
			BirthDate:     student.BirthDate,
			Sex:           student.Sex,
			Phone:         optional(student.Phone),
			Email:         optional(student.Email),
			GuardianName:  optional(student.GuardianName),
			GuardianPhone: optional(student.GuardianPhone),
			PaymentStatus: student.PaymentStatus,
			Sport:         sportName,
			Plan:          entry.Slot.Plan,
			DayOfWeek:     entry.Slot.DayOfWeek,
			StartTime:     entry.Slot.StartTime,
			EndTime:       entry.Slot.EndTime,
			Category:      optional(entry.Slot.Category),
		})
	}
	return rosterResponse(groupRoster(entries), day, sport, dto.SourceFallback), nil
}

func rosterIdentifier(v string) string {
	if v == "" {
		return cache.AllIdentifier
	}
	return strings.ReplaceAll(strings.ToLower(v), " ", "-")
}

func rosterResponse(students []dto.RosterStudent, day, sport, source string) *dto.RosterResponse {
	return &dto.RosterResponse{
		Students: students,
		Total:    len(students),
		Filters:  dto.RosterFilters{Day: day, Sport: sport},
		Source:   source,
	}
}

func rosterStudent(row models.RosterRow) dto.RosterStudent {
	out := dto.RosterStudent{
		NationalID:    row.NationalID,
		FirstName:     row.FirstName,
		LastName:      strings.TrimSpace(row.PaternalSurname + " " + row.MaternalSurname),
		Sex:           row.Sex,
		Phone:         row.Phone,
		Email:         row.Email,
		GuardianName:  row.GuardianName,
		GuardianPhone: row.GuardianPhone,
		PaymentStatus: string(row.PaymentStatus),
		Sport:         row.SportName,
		Plan:          row.Plan,
		DayOfWeek:     row.DayOfWeek,
		StartTime:     row.StartTime,
		EndTime:       row.EndTime,
		Category:      row.Category,
	}
	if !row.BirthDate.IsZero() {
		out.BirthDate = row.BirthDate.Format("2006-01-02")
	}
	return out
}

// groupRoster collapses rows of the same student, preserving first-seen order.
func groupRoster(rows []dto.RosterStudent) []dto.RosterStudent {
	index := make(map[string]int, len(rows))
	out := make([]dto.RosterStudent, 0, len(rows))
	for _, row := range rows {
		i, seen := index[row.NationalID]
		if !seen {
			row.Sports = []string{row.Sport}
			index[row.NationalID] = len(out)
			out = append(out, row)
			continue
		}
		if !containsString(out[i].Sports, row.Sport) {
			out[i].Sports = append(out[i].Sports, row.Sport)
		}
	}
	return out
}

func containsString(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

var rosterColumns = []export.Column{
	{Key: "national_id", Title: "National ID", Width: 22},
	{Key: "name", Title: "Name", Width: 55},
	{Key: "birth_date", Title: "Birth date", Width: 22},
	{Key: "guardian", Title: "Guardian"},
	{Key: "phone", Title: "Phone", Width: 25},
	{Key: "sports", Title: "Sports"},
	{Key: "slot", Title: "Slot", Width: 40},
	{Key: "payment", Title: "Payment", Width: 20},
}

func rosterDataset(roster *dto.RosterResponse, day, sport string) export.Dataset {
	title := "Enrolled students"
	if day != "" {
		title += " - " + day
	}
	if sport != "" {
		title += " - " + sport
	}
	rows := make([]map[string]string, 0, len(roster.Students))
	for _, st := range roster.Students {
		phone := deref(st.Phone)
		if phone == "" {
			phone = deref(st.GuardianPhone)
		}
		rows = append(rows, map[string]string{
			"national_id": st.NationalID,
			"name":        strings.TrimSpace(st.LastName + ", " + st.FirstName),
			"birth_date":  st.BirthDate,
			"guardian":    deref(st.GuardianName),
			"phone":       phone,
			"sports":      strings.Join(st.Sports, ", "),
			"slot":        strings.TrimSpace(st.DayOfWeek + " " + st.StartTime + "-" + st.EndTime),
			"payment":     st.PaymentStatus,
		})
	}
	return export.Dataset{Title: title, Columns: rosterColumns, Rows: rows}
}
