package plan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) plan(args mock.Arguments) (*models.Plan, error) {
	if res := args.Get(0); res != nil {
		return res.(*models.Plan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Create(ctx context.Context, req models.DummyPlan) (*models.Plan, error) {
	return m.plan(m.Called(ctx, req))
}

func (m *MockService) Update(ctx context.Context, id int64, req models.DummyPlan) (*models.Plan, error) {
	return m.plan(m.Called(ctx, id, req))
}

func (m *MockService) Get(ctx context.Context, id int64) (*models.Plan, error) {
	return m.plan(m.Called(ctx, id))
}

func (m *MockService) List(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]*models.Plan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) ListActive(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]*models.Plan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) Activate(ctx context.Context, id int64) (*models.Plan, error) {
	return m.plan(m.Called(ctx, id))
}

func (m *MockService) Deactivate(ctx context.Context, id int64) (*models.Plan, error) {
	return m.plan(m.Called(ctx, id))
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func router(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/plans", h.Create)
	r.Get("/plans", h.List)
	r.Get("/plans/active", h.ListActive)
	r.Get("/plans/{id}", h.Get)
	r.Put("/plans/{id}", h.Update)
	r.Delete("/plans/{id}", h.Delete)
	r.Post("/plans/{id}/activate", h.Activate)
	r.Post("/plans/{id}/deactivate", h.Deactivate)
	return r
}

func TestHandler(t *testing.T) {
	monthly := &models.Plan{ID: 1, Name: "Monthly", Price: decimal.NewFromInt(100), DurationMonths: 1, Status: models.PlanActive}

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
			url:    "/plans",
			body:   `{"name":"Monthly","price":"100","duration_months":1}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(req models.DummyPlan) bool {
					return req.Name == "Monthly" && req.Price.Equal(decimal.NewFromInt(100)) && req.DurationMonths == 1
				})).
					Return(monthly, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"name":"Monthly"`,
		},
		{
			name:           "create with malformed JSON",
			method:         http.MethodPost,
			url:            "/plans",
			body:           `{"name":`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
		{
			name:           "create without name",
			method:         http.MethodPost,
			url:            "/plans",
			body:           `{"price":"100","duration_months":1}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Name is a required field",
		},
		{
			name:   "create with non-positive price",
			method: http.MethodPost,
			url:    "/plans",
			body:   `{"name":"Free","price":"0","duration_months":1}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("plan.Create: %w: price must be positive", apperr.ErrInvalid)).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "price must be positive",
		},
		{
			name:   "get",
			method: http.MethodGet,
			url:    "/plans/1",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, int64(1)).Return(monthly, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"duration_months":1`,
		},
		{
			name:           "get with bad id",
			method:         http.MethodGet,
			url:            "/plans/abc",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "get unknown",
			method: http.MethodGet,
			url:    "/plans/9",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, int64(9)).Return(nil, fmt.Errorf("plan.Get: %w", apperr.ErrNotFound)).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"not found"`,
		},
		{
			name:   "list empty",
			method: http.MethodGet,
			url:    "/plans",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything).Return(nil, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"data":[]`,
		},
		{
			name:   "list active storage failure",
			method: http.MethodGet,
			url:    "/plans/active",
			setupMock: func(m *MockService) {
				m.On("ListActive", mock.Anything).Return(nil, errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not list plans"`,
		},
		{
			name:   "delete referenced plan",
			method: http.MethodDelete,
			url:    "/plans/1",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, int64(1)).Return(apperr.ErrConflict).Once()
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			url:    "/plans/2",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, int64(2)).Return(nil).Once()
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "deactivate",
			method: http.MethodPost,
			url:    "/plans/1/deactivate",
			setupMock: func(m *MockService) {
				inactive := *monthly
				inactive.Status = models.PlanInactive
				m.On("Deactivate", mock.Anything, int64(1)).Return(&inactive, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"INACTIVE"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(tt.method, tt.url, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router(New(newNoopLogger(), svc)).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
