package payment

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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) one(args mock.Arguments) (*models.Payment, error) {
	if res := args.Get(0); res != nil {
		return res.(*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Register(ctx context.Context, req models.DummyPayment) (*models.Payment, error) {
	return m.one(m.Called(ctx, req))
}

func (m *MockService) Update(ctx context.Context, id int64, req models.DummyPayment) (*models.Payment, error) {
	return m.one(m.Called(ctx, id, req))
}

func (m *MockService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) Get(ctx context.Context, id int64) (*models.Payment, error) {
	return m.one(m.Called(ctx, id))
}

func (m *MockService) List(ctx context.Context, f models.PaymentFilter) ([]*models.Payment, error) {
	args := m.Called(ctx, f)
	if res := args.Get(0); res != nil {
		return res.([]*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Summary(ctx context.Context, enrollmentID int64) (*models.PaymentSummary, error) {
	args := m.Called(ctx, enrollmentID)
	if res := args.Get(0); res != nil {
		return res.(*models.PaymentSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func router(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/payments", h.Register)
	r.Get("/payments", h.List)
	r.Get("/payments/{id}", h.Get)
	r.Put("/payments/{id}", h.Update)
	r.Delete("/payments/{id}", h.Delete)
	r.Get("/enrollments/{id}/total-paid", h.TotalPaid)
	return r
}

func TestHandler(t *testing.T) {
	paid := &models.Payment{
		ID:           4,
		EnrollmentID: 7,
		PaymentDate:  time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Amount:       decimal.NewFromInt(100),
		Method:       "card",
	}
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

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
			name:   "register",
			method: http.MethodPost,
			url:    "/payments",
			body:   `{"enrollment_id":7,"payment_date":"2025-01-10","amount":"100","method":"card"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, mock.MatchedBy(func(req models.DummyPayment) bool {
					return req.EnrollmentID == 7 && req.Amount.Equal(decimal.NewFromInt(100)) &&
						req.Method != nil && *req.Method == "card"
				})).Return(paid, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"method":"card"`,
		},
		{
			name:   "register with non-positive amount",
			method: http.MethodPost,
			url:    "/payments",
			body:   `{"enrollment_id":7,"payment_date":"2025-01-10","amount":"0"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("payment.Register: %w: amount must be positive", apperr.ErrInvalid)).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "amount must be positive",
		},
		{
			name:           "register without date",
			method:         http.MethodPost,
			url:            "/payments",
			body:           `{"enrollment_id":7,"amount":"10"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field PaymentDate is a required field",
		},
		{
			name:   "list by period",
			method: http.MethodGet,
			url:    "/payments?member_id=1&from=2025-01-01&to=2025-01-31",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, models.PaymentFilter{MemberID: 1, From: &from, To: &to}).
					Return([]*models.Payment{paid}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"id":4`,
		},
		{
			name:           "list with malformed date",
			method:         http.MethodGet,
			url:            "/payments?from=2025-13-01",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			url:    "/payments/4",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, int64(4)).Return(nil).Once()
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "total paid",
			method: http.MethodGet,
			url:    "/enrollments/7/total-paid",
			setupMock: func(m *MockService) {
				m.On("Summary", mock.Anything, int64(7)).Return(&models.PaymentSummary{
					EnrollmentID: 7,
					TotalPaid:    decimal.NewFromInt(100),
					PlanPrice:    decimal.NewFromInt(100),
					PaidUp:       true,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"paid_up":true`,
		},
		{
			name:   "total paid for unknown enrollment",
			method: http.MethodGet,
			url:    "/enrollments/70/total-paid",
			setupMock: func(m *MockService) {
				m.On("Summary", mock.Anything, int64(70)).
					Return(nil, fmt.Errorf("payment.Summary: %w", apperr.ErrNotFound)).Once()
			},
			expectedStatus: http.StatusNotFound,
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
