package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/gym-membership/internal/lib/apperr"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.ErrInvalid, http.StatusUnprocessableEntity},
		{apperr.ErrInvalidDate, http.StatusUnprocessableEntity},
		{apperr.ErrInvalidPeriod, http.StatusUnprocessableEntity},
		{apperr.ErrPlanInvalid, http.StatusUnprocessableEntity},
		{apperr.ErrEnrollmentInvalid, http.StatusUnprocessableEntity},
		{apperr.ErrNoActiveEnrollment, http.StatusUnprocessableEntity},
		{apperr.ErrNotFound, http.StatusNotFound},
		{apperr.ErrStatusInvalid, http.StatusConflict},
		{apperr.ErrDuplicateActive, http.StatusConflict},
		{apperr.ErrConflict, http.StatusConflict},
		{apperr.Aggregation("payments", apperr.ErrNotFound), http.StatusInternalServerError},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("enrollment.Create: %w", tt.err)
			assert.Equal(t, tt.want, StatusFromError(wrapped))
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "domain error keeps its description",
			err:     fmt.Errorf("enrollment.Create: %w: start date is in the past", apperr.ErrInvalidDate),
			status:  http.StatusUnprocessableEntity,
			message: "invalid date: start date is in the past",
		},
		{
			name:    "internal error is hidden",
			err:     fmt.Errorf("storage.GetPlan: %w", errors.New("connection refused")),
			status:  http.StatusInternalServerError,
			message: "could not get plan",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			FromError(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "could not get plan")

			assert.Equal(t, tt.status, w.Code)
			var got ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, StatusError, got.Status)
			assert.Equal(t, tt.message, got.Error)
		})
	}
}
