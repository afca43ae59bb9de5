package handler

import (
	"context"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/service"
	"github.com/noah-isme/academy-api/pkg/cache"
)

type scheduleListerMock struct {
	birthYear *int
	force     bool
	hit       bool
	err       error
}

func (m *scheduleListerMock) List(ctx context.Context, birthYear *int, forceRefresh bool) (*dto.ScheduleListResponse, bool, error) {
	m.birthYear = birthYear
	m.force = forceRefresh
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.ScheduleListResponse{
		Schedules: []dto.ScheduleItem{{ID: "slot-1", Sport: "Swimming", DayOfWeek: "Monday", StartTime: "08:00", EndTime: "09:00", Capacity: 20, Occupied: 5, Available: 15}},
		Total:     1,
		Source:    dto.SourceDatabase,
	}, m.hit, nil
}

type enrollmentServiceMock struct {
	req dto.EnrollRequest
	err error
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.EnrollResponse, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.EnrollResponse{
		OperationCode: "ACD-20240105-AB12CD",
		Student:       dto.StudentSummary{ID: "stu-1", NationalID: req.Student.NationalID, FirstName: req.Student.FirstName},
	}, nil
}

func (m *enrollmentServiceMock) Operation(ctx context.Context, code string) (*dto.OperationLookupResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.OperationLookupResponse{OperationCode: code}, nil
}

type studentQueriesMock struct {
	err error
}

func (m *studentQueriesMock) Enrollments(ctx context.Context, nationalID string, forceRefresh bool) (*dto.EnrollmentListResponse, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.EnrollmentListResponse{NationalID: nationalID, Source: dto.SourceDatabase}, !forceRefresh, nil
}

func (m *studentQueriesMock) Consultation(ctx context.Context, nationalID string, forceRefresh bool) (*dto.ConsultationResponse, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.ConsultationResponse{Source: dto.SourceFallback}, false, nil
}

type receiptUploaderMock struct {
	err error
}

func (m *receiptUploaderMock) UploadReceipt(ctx context.Context, nationalID string, req dto.ReceiptUploadRequest) (*dto.ReceiptUploadResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.ReceiptUploadResponse{NationalID: nationalID, ReceiptURL: "https://files.example.com/" + req.OperationCode}, nil
}

type adminServiceMock struct {
	calls []string
	err   error
}

func (m *adminServiceMock) result(action, nationalID string) (*dto.StudentStatusResponse, error) {
	m.calls = append(m.calls, action+":"+nationalID)
	if m.err != nil {
		return nil, m.err
	}
	return &dto.StudentStatusResponse{NationalID: nationalID, Status: "active", PaymentStatus: "confirmed", AffectedEnrollments: 2}, nil
}

func (m *adminServiceMock) ConfirmPayment(ctx context.Context, nationalID string, req dto.ConfirmPaymentRequest) (*dto.StudentStatusResponse, error) {
	return m.result("confirm", nationalID)
}

func (m *adminServiceMock) RejectPayment(ctx context.Context, nationalID string, req dto.RejectPaymentRequest) (*dto.StudentStatusResponse, error) {
	return m.result("reject:"+req.Reason, nationalID)
}

func (m *adminServiceMock) Deactivate(ctx context.Context, nationalID string) (*dto.StudentStatusResponse, error) {
	return m.result("deactivate", nationalID)
}

func (m *adminServiceMock) Reactivate(ctx context.Context, nationalID string) (*dto.StudentStatusResponse, error) {
	return m.result("reactivate", nationalID)
}

type rosterServiceMock struct {
	day, sport, format string
	err                error
}

func (m *rosterServiceMock) List(ctx context.Context, day, sport string, forceRefresh bool) (*dto.RosterResponse, bool, error) {
	m.day, m.sport = day, sport
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.RosterResponse{Filters: dto.RosterFilters{Day: day, Sport: sport}, Source: dto.SourceDatabase}, true, nil
}

func (m *rosterServiceMock) Export(ctx context.Context, day, sport, format string) (*service.RosterExport, error) {
	m.day, m.sport, m.format = day, sport, format
	if m.err != nil {
		return nil, m.err
	}
	return &service.RosterExport{FileName: "roster_20240105.csv", ContentType: "text/csv", Body: []byte("National ID,Name\n")}, nil
}

type cacheAdminMock struct {
	cleared bool
	err     error
}

func (m *cacheAdminMock) Clear(ctx context.Context) error {
	m.cleared = m.err == nil
	return m.err
}

func (m *cacheAdminMock) Stats(ctx context.Context) (cache.Stats, error) {
	return cache.Stats{Hits: 3, Misses: 1}, m.err
}

type pingerMock struct {
	err error
}

func (m pingerMock) PingContext(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return context.DeadlineExceeded
	}
	return m.err
}
