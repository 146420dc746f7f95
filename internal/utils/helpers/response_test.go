package helpers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sessionauth/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestError_MapsKindToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantEnv    string
		wantMsg    string
	}{
		{"validation", apperr.Validation("missing details"), http.StatusBadRequest, StatusFail, "missing details"},
		{"authentication", apperr.Authentication("stale credentials"), http.StatusUnauthorized, StatusFail, "stale credentials"},
		{"not found", apperr.NotFound("no user"), http.StatusNotFound, StatusFail, "no user"},
		{"token expired", apperr.New(apperr.KindTokenExpired, "expired"), http.StatusUnauthorized, StatusFail, "expired"},
		{"delivery", apperr.Wrap(apperr.KindDelivery, "email failed", errors.New("smtp down")), http.StatusInternalServerError, StatusError, "email failed"},
		{"persistence hides details", apperr.Persistence("update users", errors.New("pq: secret detail")), http.StatusInternalServerError, StatusError, genericMessage},
		{"plain error is internal", errors.New("boom"), http.StatusInternalServerError, StatusError, genericMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)

			Error(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			resp := decode(t, rec)
			assert.Equal(t, tt.wantEnv, resp.Status)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, map[string]string{"k": "v"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"success","data":{"k":"v"}}`, rec.Body.String())
}
