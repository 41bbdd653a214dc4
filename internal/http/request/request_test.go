package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "42", want: 42},
		{raw: "abc", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := withParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", tt.raw)
			got, err := ID(r, "id")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?member_id=7&from=2025-01-02&to=bad", nil)

	id, err := QueryID(r, "member_id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	id, err = QueryID(r, "plan_id")
	require.NoError(t, err)
	assert.Zero(t, id)

	from, err := QueryDate(r, "from")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), *from)

	_, err = QueryDate(r, "to")
	assert.Error(t, err)

	missing, err := QueryDate(r, "date")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
