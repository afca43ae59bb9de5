package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalmiddleware "github.com/noah-isme/academy-api/internal/middleware"
	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/response"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.UserRole(role)})
		}
		c.Next()
	})
	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestScheduleListParsesQuery(t *testing.T) {
	svc := &scheduleListerMock{hit: true}
	router := newTestRouter()
	router.GET("/schedules", NewScheduleHandler(svc).List)

	req, _ := http.NewRequest(http.MethodGet, "/schedules?birthYear=2015&forceRefresh=true", nil)
	w := performRequest(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.birthYear)
	assert.Equal(t, 2015, *svc.birthYear)
	assert.True(t, svc.force)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
}

func TestScheduleListRejectsNonNumericYear(t *testing.T) {
	svc := &scheduleListerMock{}
	router := newTestRouter()
	router.GET("/schedules", NewScheduleHandler(svc).List)

	req, _ := http.NewRequest(http.MethodGet, "/schedules?birthYear=abc", nil)
	w := performRequest(router, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error)
	assert.Nil(t, svc.birthYear)
}

func TestScheduleListServiceUnavailable(t *testing.T) {
	router := newTestRouter()
	router.GET("/schedules", NewScheduleHandler(&scheduleListerMock{err: appErrors.ErrUnavailable}).List)

	req, _ := http.NewRequest(http.MethodGet, "/schedules", nil)
	w := performRequest(router, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, decodeEnvelope(t, w).Success)
}

func TestEnrollmentCreate(t *testing.T) {
	svc := &enrollmentServiceMock{}
	router := newTestRouter()
	handler := NewEnrollmentHandler(svc)
	router.POST("/enrollments", handler.Create)

	body := `{"student":{"national_id":"12345678","first_name":"Ana","paternal_surname":"Diaz"},"slots":[{"slot_id":"slot-1"}]}`
	req, _ := http.NewRequest(http.MethodPost, "/enrollments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := performRequest(router, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.req.Student)
	assert.Equal(t, "12345678", svc.req.Student.NationalID)
	require.Len(t, svc.req.Slots, 1)
	assert.Contains(t, w.Body.String(), `"operation_code":"ACD-20240105-AB12CD"`)
}

func TestEnrollmentCreateErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{name: "malformed json", body: `{"student":`, status: http.StatusBadRequest, code: appErrors.ErrValidation.Code},
		{name: "duplicate", body: `{"student":{"national_id":"12345678"}}`, err: appErrors.ErrDuplicateEnroll, status: http.StatusConflict, code: appErrors.ErrDuplicateEnroll.Code},
		{name: "remote failure", body: `{"student":{"national_id":"12345678"}}`, err: appErrors.ErrRemoteSync, status: http.StatusBadGateway, code: appErrors.ErrRemoteSync.Code},
		{name: "remote timeout", body: `{"student":{"national_id":"12345678"}}`, err: appErrors.ErrRemoteTimeout, status: http.StatusGatewayTimeout, code: appErrors.ErrRemoteTimeout.Code},
		{name: "unexpected", body: `{"student":{"national_id":"12345678"}}`, err: errors.New("boom"), status: http.StatusInternalServerError, code: appErrors.ErrInternal.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter()
			router.POST("/enrollments", NewEnrollmentHandler(&enrollmentServiceMock{err: tc.err}).Create)

			req, _ := http.NewRequest(http.MethodPost, "/enrollments", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := performRequest(router, req)

			require.Equal(t, tc.status, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, tc.code, env.Error)
			assert.NotContains(t, w.Body.String(), "boom")
		})
	}
}

func TestEnrollmentGetByOperation(t *testing.T) {
	router := newTestRouter()
	router.GET("/enrollments/:operationCode", NewEnrollmentHandler(&enrollmentServiceMock{}).GetByOperation)

	req, _ := http.NewRequest(http.MethodGet, "/enrollments/ACD-1", nil)
	w := performRequest(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"operation_code":"ACD-1"`)
}

func TestStudentEndpoints(t *testing.T) {
	router := newTestRouter()
	handler := NewStudentHandler(&studentQueriesMock{}, &receiptUploaderMock{})
	router.GET("/students/:nationalId/enrollments", handler.Enrollments)
	router.GET("/students/:nationalId/consultation", handler.Consultation)
	router.POST("/students/:nationalId/receipt", handler.UploadReceipt)

	t.Run("enrollments cached", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/students/12345678/enrollments", nil)
		w := performRequest(router, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
		assert.Contains(t, w.Body.String(), `"national_id":"12345678"`)
	})

	t.Run("enrollments forced", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/students/12345678/enrollments?forceRefresh=1", nil)
		w := performRequest(router, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	})

	t.Run("consultation", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/students/12345678/consultation", nil)
		w := performRequest(router, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"source":"fallback"`)
	})

	t.Run("receipt", func(t *testing.T) {
		body := `{"operation_code":"ACD-1","image":"data:image/png;base64,AAAA"}`
		req, _ := http.NewRequest(http.MethodPost, "/students/12345678/receipt", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := performRequest(router, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"receipt_url":"https://files.example.com/ACD-1"`)
	})
}

func TestStudentConsultationErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: appErrors.ErrNotFound, status: http.StatusNotFound},
		{name: "inactive", err: appErrors.ErrAccountInactive, status: http.StatusForbidden},
		{name: "invalid id", err: appErrors.ErrInvalidNationalID, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter()
			router.GET("/students/:nationalId/consultation", NewStudentHandler(&studentQueriesMock{err: tc.err}, nil).Consultation)

			req, _ := http.NewRequest(http.MethodGet, "/students/123/consultation", nil)
			w := performRequest(router, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func buildAdminRouter(admin *adminServiceMock, roster *rosterServiceMock) *gin.Engine {
	router := newTestRouter()
	handler := NewAdminHandler(admin, roster, zap.NewNop())
	group := router.Group("/admin", internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	group.PUT("/students/:nationalId/payment/confirm", handler.ConfirmPayment)
	group.PUT("/students/:nationalId/payment/reject", handler.RejectPayment)
	group.POST("/students/:nationalId/deactivate", handler.Deactivate)
	group.POST("/students/:nationalId/reactivate", handler.Reactivate)
	group.GET("/rosters", handler.Roster)
	group.GET("/rosters/export", handler.ExportRoster)
	return router
}

func TestAdminStudentActions(t *testing.T) {
	admin := &adminServiceMock{}
	router := buildAdminRouter(admin, &rosterServiceMock{})

	requests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPut, "/admin/students/12345678/payment/confirm", `{"amount":120,"operation_number":"OP-1"}`},
		{http.MethodPut, "/admin/students/12345678/payment/reject", `{"reason":"blurry receipt"}`},
		{http.MethodPut, "/admin/students/12345678/payment/reject", ""},
		{http.MethodPost, "/admin/students/12345678/deactivate", ""},
		{http.MethodPost, "/admin/students/12345678/reactivate", ""},
	}
	for _, r := range requests {
		req, _ := http.NewRequest(r.method, r.path, bytes.NewBufferString(r.body))
		if r.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		w := performRequest(router, req)
		require.Equal(t, http.StatusOK, w.Code, r.path)
		assert.Contains(t, w.Body.String(), `"affected_enrollments":2`)
	}

	assert.Equal(t, []string{
		"confirm:12345678",
		"reject:blurry receipt:12345678",
		"reject::12345678",
		"deactivate:12345678",
		"reactivate:12345678",
	}, admin.calls)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	admin := &adminServiceMock{}
	router := buildAdminRouter(admin, &rosterServiceMock{})

	req, _ := http.NewRequest(http.MethodPost, "/admin/students/12345678/deactivate", nil)
	assert.Equal(t, http.StatusUnauthorized, performRequest(router, req).Code)

	req, _ = http.NewRequest(http.MethodPost, "/admin/students/12345678/deactivate", nil)
	req.Header.Set("X-Test-Role", "GUEST")
	assert.Equal(t, http.StatusForbidden, performRequest(router, req).Code)

	assert.Empty(t, admin.calls)
}

func TestAdminConfirmPreconditionFailed(t *testing.T) {
	router := buildAdminRouter(&adminServiceMock{err: appErrors.ErrPreconditionFailed}, &rosterServiceMock{})

	req, _ := http.NewRequest(http.MethodPut, "/admin/students/12345678/payment/confirm", bytes.NewBufferString(`{"amount":120}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleSuperAdmin))
	w := performRequest(router, req)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, decodeEnvelope(t, w).Error)
}

func TestAdminRosterAndExport(t *testing.T) {
	roster := &rosterServiceMock{}
	router := buildAdminRouter(&adminServiceMock{}, roster)

	req, _ := http.NewRequest(http.MethodGet, "/admin/rosters?day=Tuesday&sport=volley", nil)
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	w := performRequest(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tuesday", roster.day)
	assert.Equal(t, "volley", roster.sport)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	req, _ = http.NewRequest(http.MethodGet, "/admin/rosters/export?format=csv", nil)
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	w = performRequest(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", roster.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="roster_20240105.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "National ID,Name\n", w.Body.String())
}

func TestAdminExportInvalidFormat(t *testing.T) {
	router := buildAdminRouter(&adminServiceMock{}, &rosterServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "unsupported format")})

	req, _ := http.NewRequest(http.MethodGet, "/admin/rosters/export?format=xls", nil)
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	w := performRequest(router, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unsupported format", decodeEnvelope(t, w).Message)
}

func TestCacheHandler(t *testing.T) {
	store := &cacheAdminMock{}
	router := newTestRouter()
	handler := NewCacheHandler(store)
	router.POST("/cache/clear", handler.Clear)
	router.GET("/cache/stats", handler.Stats)

	req, _ := http.NewRequest(http.MethodPost, "/cache/clear", nil)
	w := performRequest(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.cleared)
	assert.Contains(t, w.Body.String(), `"cleared":true`)

	req, _ = http.NewRequest(http.MethodGet, "/cache/stats", nil)
	w = performRequest(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hits":3`)
}

func TestCacheClearFailure(t *testing.T) {
	router := newTestRouter()
	router.POST("/cache/clear", NewCacheHandler(&cacheAdminMock{err: errors.New("redis down")}).Clear)

	req, _ := http.NewRequest(http.MethodPost, "/cache/clear", nil)
	w := performRequest(router, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "redis down")
}

func TestHealthAndReady(t *testing.T) {
	cases := []struct {
		name   string
		db     Pinger
		status int
	}{
		{name: "ready", db: pingerMock{}, status: http.StatusOK},
		{name: "database down", db: pingerMock{err: errors.New("refused")}, status: http.StatusServiceUnavailable},
		{name: "no database", db: nil, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter()
			handler := NewMetricsHandler(nil, tc.db)
			router.GET("/health", handler.Health)
			router.GET("/ready", handler.Ready)

			req, _ := http.NewRequest(http.MethodGet, "/health", nil)
			assert.Equal(t, http.StatusOK, performRequest(router, req).Code)

			req, _ = http.NewRequest(http.MethodGet, "/ready", nil)
			assert.Equal(t, tc.status, performRequest(router, req).Code)
		})
	}
}
