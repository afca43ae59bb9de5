package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"

	"github.com/noah-isme/academy-api/internal/ledger"
	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/pkg/cache"
	"github.com/noah-isme/academy-api/pkg/events"
)

// memoryDB is an in-memory stand-in for the repositories and the transaction manager.
// WithinTx restores a snapshot when fn fails.
type memoryDB struct {
	mu          sync.Mutex
	sports      map[string]models.Sport
	slots       map[string]models.ScheduleSlotDetail
	students    map[string]*models.Student
	enrollments map[string]*models.Enrollment
	links       []models.EnrollmentSlotLink

	failEnrollmentCreate error
	failDeleteEnrollment error
	failRead             error
	// missStudentLookups makes the next FindByNationalID calls miss, like a row committed
	// by a concurrent transaction after the lookup.
	missStudentLookups int
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		sports:      map[string]models.Sport{},
		slots:       map[string]models.ScheduleSlotDetail{},
		students:    map[string]*models.Student{},
		enrollments: map[string]*models.Enrollment{},
	}
}

func (db *memoryDB) addSport(name string) models.Sport {
	sport := models.Sport{ID: uuid.NewString(), Name: name, Active: true}
	db.sports[sport.ID] = sport
	return sport
}

func (db *memoryDB) addSlot(sport models.Sport, day, start string, mutate ...func(*models.ScheduleSlotDetail)) models.ScheduleSlotDetail {
	slot := models.ScheduleSlotDetail{
		ScheduleSlot: models.ScheduleSlot{
			ID:        uuid.NewString(),
			SportID:   sport.ID,
			DayOfWeek: day,
			StartTime: start,
			EndTime:   "10:00",
			Capacity:  20,
			Active:    true,
		},
		SportName: sport.Name,
	}
	for _, fn := range mutate {
		fn(&slot)
	}
	db.slots[slot.ID] = slot
	return slot
}

func (db *memoryDB) addStudent(nationalID string, mutate ...func(*models.Student)) *models.Student {
	student := &models.Student{
		ID:              uuid.NewString(),
		NationalID:      nationalID,
		FirstName:       "Lucia",
		PaternalSurname: "Quispe",
		MaternalSurname: "Rojas",
		BirthDate:       time.Date(2012, 5, 4, 0, 0, 0, 0, time.UTC),
		Sex:             "F",
		Status:          models.StudentStatusActive,
		PaymentStatus:   models.PaymentStatusPending,
	}
	for _, fn := range mutate {
		fn(student)
	}
	db.students[student.ID] = student
	return student
}

func (db *memoryDB) addEnrollment(student *models.Student, sport models.Sport, status models.EnrollmentStatus, slotIDs ...string) *models.Enrollment {
	enrollment := &models.Enrollment{
		ID:            uuid.NewString(),
		OperationCode: "ACAD-20240101-AAAAA",
		StudentID:     student.ID,
		SportID:       sport.ID,
		Plan:          PlanEconomic,
		MonthlyPrice:  60,
		Status:        status,
		CreatedAt:     time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	db.enrollments[enrollment.ID] = enrollment
	for _, id := range slotIDs {
		db.links = append(db.links, models.EnrollmentSlotLink{ID: uuid.NewString(), EnrollmentID: enrollment.ID, SlotID: id})
	}
	return enrollment
}

func (db *memoryDB) counts() (students, enrollments, links int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.students), len(db.enrollments), len(db.links)
}

func (db *memoryDB) studentByNationalID(nationalID string) *models.Student {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, s := range db.students {
		if s.NationalID == nationalID {
			return s
		}
	}
	return nil
}

// WithinTx implements txRunner.
func (db *memoryDB) WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	db.mu.Lock()
	students := make(map[string]*models.Student, len(db.students))
	for k, v := range db.students {
		copied := *v
		students[k] = &copied
	}
	enrollments := make(map[string]*models.Enrollment, len(db.enrollments))
	for k, v := range db.enrollments {
		copied := *v
		enrollments[k] = &copied
	}
	links := append([]models.EnrollmentSlotLink(nil), db.links...)
	db.mu.Unlock()

	if err := fn(nil); err != nil {
		db.mu.Lock()
		db.students, db.enrollments, db.links = students, enrollments, links
		db.mu.Unlock()
		return err
	}
	return nil
}

// students

func (db *memoryDB) FindByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID string) (*models.Student, error) {
	if db.failRead != nil {
		return nil, db.failRead
	}
	db.mu.Lock()
	miss := db.missStudentLookups > 0
	if miss {
		db.missStudentLookups--
	}
	db.mu.Unlock()
	if miss {
		return nil, sql.ErrNoRows
	}
	if s := db.studentByNationalID(nationalID); s != nil {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (db *memoryDB) Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, existing := range db.students {
		if existing.NationalID == student.NationalID {
			return fmt.Errorf("create student: %w", &pq.Error{Code: "23505"})
		}
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	copied := *student
	db.students[student.ID] = &copied
	return nil
}

func (db *memoryDB) Delete(ctx context.Context, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, e := range db.enrollments {
		if e.StudentID == id {
			return false, nil
		}
	}
	_, ok := db.students[id]
	delete(db.students, id)
	return ok, nil
}

func (db *memoryDB) UpdateDocuments(ctx context.Context, id string, docs models.StudentDocuments) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	if docs.IDFrontURL != nil {
		s.IDFrontURL = docs.IDFrontURL
	}
	if docs.IDBackURL != nil {
		s.IDBackURL = docs.IDBackURL
	}
	if docs.PhotoURL != nil {
		s.PhotoURL = docs.PhotoURL
	}
	if docs.ReceiptURL != nil {
		s.ReceiptURL = docs.ReceiptURL
	}
	return nil
}

func (db *memoryDB) SetStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.StudentStatus) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.students[id].Status = status
	return nil
}

func (db *memoryDB) ConfirmPayment(ctx context.Context, exec sqlx.ExtContext, id string, conf models.PaymentConfirmation) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := db.students[id]
	s.PaymentStatus = models.PaymentStatusConfirmed
	amount := conf.Amount
	s.PaymentAmount = &amount
	op := conf.OperationNumber
	s.PaymentOperation = &op
	notes := conf.Notes
	s.PaymentNotes = &notes
	at := conf.ConfirmedAt
	s.PaymentDate = &at
	return nil
}

func (db *memoryDB) RejectPayment(ctx context.Context, exec sqlx.ExtContext, id, notes string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := db.students[id]
	s.PaymentStatus = models.PaymentStatusPending
	s.PaymentNotes = &notes
	return nil
}

// slots

func (db *memoryDB) FindByIDs(ctx context.Context, ids []string) ([]models.ScheduleSlotDetail, error) {
	if db.failRead != nil {
		return nil, db.failRead
	}
	var out []models.ScheduleSlotDetail
	for _, id := range ids {
		if slot, ok := db.slots[id]; ok && slot.Active {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (db *memoryDB) ListActive(ctx context.Context, birthYear *int) ([]models.ScheduleSlotDetail, error) {
	if db.failRead != nil {
		return nil, db.failRead
	}
	var out []models.ScheduleSlotDetail
	for _, slot := range db.slots {
		if !slot.Active {
			continue
		}
		if birthYear != nil && !slot.AcceptsBirthYear(*birthYear) {
			continue
		}
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// enrollments

func (db *memoryDB) FindOpen(ctx context.Context, exec sqlx.ExtContext, studentID, sportID string) (*models.Enrollment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, e := range db.enrollments {
		if e.StudentID == studentID && e.SportID == sportID && e.Open() {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (db *memoryDB) createEnrollment(enrollment *models.Enrollment) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.failEnrollmentCreate != nil {
		return db.failEnrollmentCreate
	}
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	copied := *enrollment
	db.enrollments[enrollment.ID] = &copied
	return nil
}

func (db *memoryDB) CreateSlotLinks(ctx context.Context, exec sqlx.ExtContext, links []models.EnrollmentSlotLink) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, link := range links {
		link.ID = uuid.NewString()
		db.links = append(db.links, link)
	}
	return nil
}

func (db *memoryDB) DeleteByIDs(ctx context.Context, ids []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.failDeleteEnrollment != nil {
		return db.failDeleteEnrollment
	}
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
		delete(db.enrollments, id)
	}
	kept := db.links[:0]
	for _, link := range db.links {
		if !drop[link.EnrollmentID] {
			kept = append(kept, link)
		}
	}
	db.links = kept
	return nil
}

func (db *memoryDB) ListByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string, statuses ...models.EnrollmentStatus) ([]models.Enrollment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	allowed := map[models.EnrollmentStatus]bool{}
	for _, st := range statuses {
		allowed[st] = true
	}
	var out []models.Enrollment
	for _, e := range db.enrollments {
		if e.StudentID == studentID && (len(allowed) == 0 || allowed[e.Status]) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (db *memoryDB) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.EnrollmentStatus, reason *models.CancelReason) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	e, ok := db.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Status = status
	e.CancelReason = reason
	return nil
}

func (db *memoryDB) ListByOperationCode(ctx context.Context, code string) ([]models.EnrollmentDetail, error) {
	if db.failRead != nil {
		return nil, db.failRead
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.EnrollmentDetail
	for _, e := range db.enrollments {
		if e.OperationCode == code {
			out = append(out, models.EnrollmentDetail{Enrollment: *e, SportName: db.sports[e.SportID].Name})
		}
	}
	return out, nil
}

func (db *memoryDB) ListDetailsByNationalID(ctx context.Context, nationalID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	if db.failRead != nil {
		return nil, db.failRead
	}
	student := db.studentByNationalID(nationalID)
	if student == nil {
		return nil, nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.EnrollmentDetail
	for _, e := range db.enrollments {
		if e.StudentID == student.ID && e.Status == status {
			out = append(out, models.EnrollmentDetail{Enrollment: *e, SportName: db.sports[e.SportID].Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SportName < out[j].SportName })
	return out, nil
}

func (db *memoryDB) ListSlotDetails(ctx context.Context, studentID string) ([]models.EnrollmentSlotDetail, error) {
	if db.failRead != nil {
		return nil, db.failRead
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.EnrollmentSlotDetail
	for _, e := range db.enrollments {
		if e.StudentID != studentID || e.Status != models.EnrollmentStatusActive {
			continue
		}
		row := models.EnrollmentSlotDetail{
			EnrollmentID: e.ID,
			SportName:    db.sports[e.SportID].Name,
			Plan:         e.Plan,
			MonthlyPrice: e.MonthlyPrice,
			Status:       e.Status,
		}
		linked := false
		for _, link := range db.links {
			if link.EnrollmentID != e.ID {
				continue
			}
			slot := db.slots[link.SlotID]
			withSlot := row
			id, day, start, end := slot.ID, slot.DayOfWeek, slot.StartTime, slot.EndTime
			withSlot.SlotID, withSlot.DayOfWeek, withSlot.StartTime, withSlot.EndTime = &id, &day, &start, &end
			out = append(out, withSlot)
			linked = true
		}
		if !linked {
			out = append(out, row)
		}
	}
	return out, nil
}

func (db *memoryDB) ListRoster(ctx context.Context, filter models.RosterFilter) ([]models.RosterRow, error) {
	if db.failRead != nil {
		return nil, db.failRead
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.RosterRow
	for _, link := range db.links {
		e := db.enrollments[link.EnrollmentID]
		if e == nil || !e.Open() {
			continue
		}
		st := db.students[e.StudentID]
		if st == nil || !st.Active() {
			continue
		}
		slot := db.slots[link.SlotID]
		sport := db.sports[e.SportID]
		if filter.DayOfWeek != "" && !strings.EqualFold(slot.DayOfWeek, filter.DayOfWeek) {
			continue
		}
		if filter.Sport != "" && !strings.Contains(strings.ToLower(sport.Name), strings.ToLower(filter.Sport)) {
			continue
		}
		out = append(out, models.RosterRow{
			NationalID:      st.NationalID,
			FirstName:       st.FirstName,
			PaternalSurname: st.PaternalSurname,
			MaternalSurname: st.MaternalSurname,
			BirthDate:       st.BirthDate,
			Sex:             st.Sex,
			GuardianName:    st.GuardianName,
			PaymentStatus:   st.PaymentStatus,
			SportName:       sport.Name,
			Plan:            e.Plan,
			DayOfWeek:       slot.DayOfWeek,
			StartTime:       slot.StartTime,
			EndTime:         slot.EndTime,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NationalID != out[j].NationalID {
			return out[i].NationalID < out[j].NationalID
		}
		return out[i].SportName < out[j].SportName
	})
	return out, nil
}

type enrollmentCreator struct{ *memoryDB }

func (c enrollmentCreator) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	return c.createEnrollment(enrollment)
}

// fakeLedger records calls and returns canned answers.
type fakeLedger struct {
	mu       sync.Mutex
	response *ledger.Response
	err      error
	actions  []string
	payloads []interface{}
	queries  []url.Values
	query    func(action string, params url.Values) (*ledger.Response, error)
	// onSend runs before the canned answer; a non-nil error replaces it.
	onSend func(ctx context.Context) error
}

func (l *fakeLedger) Send(ctx context.Context, action string, payload interface{}) (*ledger.Response, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = append(l.actions, action)
	l.payloads = append(l.payloads, payload)
	if l.onSend != nil {
		if err := l.onSend(ctx); err != nil {
			return nil, err
		}
	}
	if l.err != nil {
		return nil, l.err
	}
	if l.response != nil {
		return l.response, nil
	}
	return &ledger.Response{Success: true}, nil
}

func (l *fakeLedger) Query(ctx context.Context, action string, params url.Values) (*ledger.Response, error) {
	l.mu.Lock()
	l.actions = append(l.actions, action)
	l.queries = append(l.queries, params)
	l.mu.Unlock()
	if l.query != nil {
		return l.query(action, params)
	}
	return nil, errors.New("no query configured")
}

func (l *fakeLedger) calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.actions...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestCache() (*CacheService, *cache.MemoryStore) {
	store := cache.NewMemoryStore(cache.MemoryConfig{Clock: clockwork.NewFakeClock()})
	return NewCacheService(store, nil, nil), store
}
