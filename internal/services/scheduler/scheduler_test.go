package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gym-membership/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/gym-membership/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindEnrollmentsExpiringOn(ctx context.Context, day time.Time) ([]*models.EnrollmentExpiring, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EnrollmentExpiring), args.Error(1)
}

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_RunOnce(t *testing.T) {
	now := time.Date(2025, 2, 9, 8, 30, 0, 0, time.UTC)
	tomorrow := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	reminders := []*models.EnrollmentExpiring{
		{EnrollmentID: 1, MemberName: "Ana", Email: "ana@example.com", PlanName: "Monthly", EndDate: tomorrow},
		{EnrollmentID: 2, MemberName: "Bruno", Email: "bruno@example.com", PlanName: "Quarterly", EndDate: tomorrow},
	}

	tests := []struct {
		name       string
		setupMocks func(*MockRepository, *MockChannel)
		published  int
	}{
		{
			name: "publishes every reminder",
			setupMocks: func(r *MockRepository, c *MockChannel) {
				r.On("FindEnrollmentsExpiringOn", mock.Anything, tomorrow).Return(reminders, nil).Once()
				c.On("Publish", rabbitmq.NotificationsExchange, rabbitmq.UpcomingRoutingKey, false, false, mock.Anything).
					Return(nil).Twice()
			},
			published: 2,
		},
		{
			name: "nothing expiring",
			setupMocks: func(r *MockRepository, _ *MockChannel) {
				r.On("FindEnrollmentsExpiringOn", mock.Anything, tomorrow).Return([]*models.EnrollmentExpiring{}, nil).Once()
			},
		},
		{
			name: "repository error",
			setupMocks: func(r *MockRepository, _ *MockChannel) {
				r.On("FindEnrollmentsExpiringOn", mock.Anything, tomorrow).Return(nil, errors.New("db error")).Once()
			},
		},
		{
			name: "publish error skips the reminder",
			setupMocks: func(r *MockRepository, c *MockChannel) {
				r.On("FindEnrollmentsExpiringOn", mock.Anything, tomorrow).Return(reminders, nil).Once()
				c.On("Publish", mock.Anything, mock.Anything, false, false, mock.Anything).Return(amqp.ErrClosed).Once()
				c.On("Publish", mock.Anything, mock.Anything, false, false, mock.Anything).Return(nil).Once()
			},
			published: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			ch := new(MockChannel)
			tt.setupMocks(repo, ch)

			service := New(repo, ch, testclock.NewClock(now), time.Hour, newNoopLogger())
			assert.Equal(t, tt.published, service.RunOnce(context.Background()))

			repo.AssertExpectations(t)
			ch.AssertExpectations(t)
		})
	}
}

func TestService_RunRepeatsOnInterval(t *testing.T) {
	clk := testclock.NewClock(time.Date(2025, 2, 9, 8, 0, 0, 0, time.UTC))
	repo := new(MockRepository)
	calls := make(chan time.Time, 4)
	repo.On("FindEnrollmentsExpiringOn", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { calls <- args.Get(1).(time.Time) }).
		Return([]*models.EnrollmentExpiring{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	service := New(repo, new(MockChannel), clk, 24*time.Hour, newNoopLogger())
	go func() {
		service.Run(ctx)
		close(done)
	}()

	assert.Equal(t, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), <-calls)

	assert.NoError(t, clk.WaitAdvance(24*time.Hour, time.Second, 1))
	assert.Equal(t, time.Date(2025, 2, 11, 0, 0, 0, 0, time.UTC), <-calls)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
