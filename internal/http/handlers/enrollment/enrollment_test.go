package enrollment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) one(args mock.Arguments) (*models.Enrollment, error) {
	if res := args.Get(0); res != nil {
		return res.(*models.Enrollment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Create(ctx context.Context, req models.DummyEnrollment) (*models.Enrollment, error) {
	return m.one(m.Called(ctx, req))
}

func (m *MockService) Update(ctx context.Context, id int64, req models.DummyEnrollment) (*models.Enrollment, error) {
	return m.one(m.Called(ctx, id, req))
}

func (m *MockService) Get(ctx context.Context, id int64) (*models.Enrollment, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockService) List(ctx context.Context, f models.EnrollmentFilter) ([]*models.Enrollment, error) {
	args := m.Called(ctx, f)
	if res := args.Get(0); res != nil {
		return res.([]*models.Enrollment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Cancel(ctx context.Context, id int64) (*models.Enrollment, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockService) Activate(ctx context.Context, id int64) (*models.Enrollment, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockService) Deactivate(ctx context.Context, id int64) (*models.Enrollment, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockService) Renew(ctx context.Context, id int64) (*models.Enrollment, error) {
	return m.one(m.Called(ctx, id))
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func router(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/enrollments", h.Create)
	r.Get("/enrollments", h.List)
	r.Get("/enrollments/{id}", h.Get)
	r.Put("/enrollments/{id}", h.Update)
	r.Post("/enrollments/{id}/cancel", h.Cancel)
	r.Post("/enrollments/{id}/activate", h.Activate)
	r.Post("/enrollments/{id}/deactivate", h.Deactivate)
	r.Post("/enrollments/{id}/renew", h.Renew)
	return r
}

func TestHandler(t *testing.T) {
	active := &models.Enrollment{
		ID:        7,
		MemberID:  1,
		PlanID:    2,
		StartDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		Status:    models.EnrollmentActive,
	}
	canceled := *active
	canceled.Status = models.EnrollmentCanceled
	renewed := &models.Enrollment{ID: 8, MemberID: 1, PlanID: 2, Status: models.EnrollmentActive}

	tests := []struct {
		name           string
		method         string
		url            string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "create",
			method: http.MethodPost,
			url:    "/enrollments",
			body:   `{"member_id":1,"plan_id":2,"start_date":"2025-01-10"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, models.DummyEnrollment{MemberID: 1, PlanID: 2, StartDate: "2025-01-10"}).
					Return(active, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"end_date":"2025-02-10T00:00:00Z"`,
		},
		{
			name:           "create without plan",
			method:         http.MethodPost,
			url:            "/enrollments",
			body:           `{"member_id":1,"start_date":"2025-01-10"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field PlanID is a required field",
		},
		{
			name:   "create second active",
			method: http.MethodPost,
			url:    "/enrollments",
			body:   `{"member_id":1,"plan_id":2,"start_date":"2025-01-10"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("enrollment.Create: %w", apperr.ErrDuplicateActive)).Once()
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:   "create with inactive plan",
			method: http.MethodPost,
			url:    "/enrollments",
			body:   `{"member_id":1,"plan_id":2,"start_date":"2025-01-10"}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("enrollment.Create: %w", apperr.ErrPlanInvalid)).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "list by member and status",
			method: http.MethodGet,
			url:    "/enrollments?member_id=1&status=ACTIVE",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, models.EnrollmentFilter{MemberID: 1, Status: models.EnrollmentActive}).
					Return([]*models.Enrollment{active}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"id":7`,
		},
		{
			name:   "list empty",
			method: http.MethodGet,
			url:    "/enrollments?plan_id=9",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, models.EnrollmentFilter{PlanID: 9}).Return(nil, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"data":[]`,
		},
		{
			name:           "list with malformed member_id",
			method:         http.MethodGet,
			url:            "/enrollments?member_id=abc",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "cancel",
			method: http.MethodPost,
			url:    "/enrollments/7/cancel",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, int64(7)).Return(&canceled, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"CANCELED"`,
		},
		{
			name:   "activate canceled",
			method: http.MethodPost,
			url:    "/enrollments/7/activate",
			setupMock: func(m *MockService) {
				m.On("Activate", mock.Anything, int64(7)).
					Return(nil, fmt.Errorf("enrollment.Activate: %w", apperr.ErrStatusInvalid)).Once()
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:   "deactivate",
			method: http.MethodPost,
			url:    "/enrollments/7/deactivate",
			setupMock: func(m *MockService) {
				inactive := *active
				inactive.Status = models.EnrollmentInactive
				m.On("Deactivate", mock.Anything, int64(7)).Return(&inactive, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"INACTIVE"`,
		},
		{
			name:   "renew",
			method: http.MethodPost,
			url:    "/enrollments/7/renew",
			setupMock: func(m *MockService) {
				m.On("Renew", mock.Anything, int64(7)).Return(renewed, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"id":8`,
		},
		{
			name:   "update unknown",
			method: http.MethodPut,
			url:    "/enrollments/70",
			body:   `{"member_id":1,"plan_id":2,"start_date":"2025-01-10","end_date":"2025-03-10"}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, int64(70), mock.Anything).
					Return(nil, fmt.Errorf("enrollment.Update: %w", apperr.ErrNotFound)).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "get",
			method: http.MethodGet,
			url:    "/enrollments/7",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, int64(7)).Return(active, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"member_id":1`,
		},
		{
			name:           "get with bad id",
			method:         http.MethodGet,
			url:            "/enrollments/0",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			router(New(newNoopLogger(), svc)).ServeHTTP(w, httptest.NewRequest(tt.method, tt.url, strings.NewReader(tt.body)))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
			svc.AssertExpectations(t)
		})
	}
}
