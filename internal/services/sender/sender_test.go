package sender

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/gym-membership/internal/lib/smtp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) From() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	return m.Called().Error(0)
}

func (m *MockSMTPClient) Quit() error {
	return m.Called().Error(0)
}

// bufferWriter запоминает тело письма.
type bufferWriter struct {
	strings.Builder
	closed bool
}

func (w *bufferWriter) Close() error {
	w.closed = true
	return nil
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const reminder = `{"enrollment_id":7,"member_name":"Ana","email":"ana@example.com","plan_name":"Monthly","end_date":"2025-02-10T00:00:00Z"}`

func TestService_SendEnrollmentExpiring(t *testing.T) {
	writer := &bufferWriter{}

	tests := []struct {
		name         string
		body         string
		setupMocks   func(*MockTransport)
		errorMessage string
	}{
		{
			name: "success",
			body: reminder,
			setupMocks: func(tr *MockTransport) {
				client := new(MockSMTPClient)
				tr.On("From").Return("gym@example.com")
				tr.On("Connect").Return(client, nil).Once()
				client.On("Mail", "gym@example.com").Return(nil).Once()
				client.On("Rcpt", "ana@example.com").Return(nil).Once()
				client.On("Data").Return(writer, nil).Once()
				client.On("Quit").Return(nil).Once()
				client.On("Close").Return(nil).Once()
			},
		},
		{
			name:         "invalid JSON",
			body:         `invalid json`,
			setupMocks:   func(_ *MockTransport) {},
			errorMessage: "error unmarshalling message",
		},
		{
			name:       "missing email is dropped",
			body:       `{"enrollment_id":7,"member_name":"Ana"}`,
			setupMocks: func(_ *MockTransport) {},
		},
		{
			name: "SMTP connection error",
			body: reminder,
			setupMocks: func(tr *MockTransport) {
				tr.On("From").Return("gym@example.com")
				tr.On("Connect").Return(nil, errors.New("connection error")).Once()
			},
			errorMessage: "connection error",
		},
		{
			name: "recipient rejected",
			body: reminder,
			setupMocks: func(tr *MockTransport) {
				client := new(MockSMTPClient)
				tr.On("From").Return("gym@example.com")
				tr.On("Connect").Return(client, nil).Once()
				client.On("Mail", "gym@example.com").Return(nil).Once()
				client.On("Rcpt", "ana@example.com").Return(errors.New("550 mailbox unavailable")).Once()
				client.On("Close").Return(nil).Once()
			},
			errorMessage: "mailbox unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			tt.setupMocks(transport)
			service := New(transport, newNoopLogger())

			err := service.SendEnrollmentExpiring([]byte(tt.body))
			if tt.errorMessage != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}
			transport.AssertExpectations(t)
		})
	}

	assert.True(t, writer.closed)
	body := writer.String()
	assert.Contains(t, body, "To: ana@example.com")
	assert.Contains(t, body, "Monthly")
	assert.Contains(t, body, "2025-02-10")
}
