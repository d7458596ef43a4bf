package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkcup/kart-tournament/internal/service"
	"github.com/smkcup/kart-tournament/internal/store"
	"github.com/smkcup/kart-tournament/internal/token"
)

var discard = slog.New(slog.DiscardHandler)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStatus(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{&service.ValidationError{Field: "name", Message: "required"}, http.StatusBadRequest},
		{&service.InsufficientPlayersError{Need: 8, Have: 3}, http.StatusBadRequest},
		{service.ErrMatchCompleted, http.StatusBadRequest},
		{badRequest("invalid id"), http.StatusBadRequest},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{token.ErrExpiredToken, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("load match: %w", store.ErrNotFound), http.StatusNotFound},
		{&store.VersionConflictError{Current: 4}, http.StatusConflict},
		{store.ErrDuplicate, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, Status(tc.err))
		})
	}
}

func TestErrorEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/matches/1/score", nil)

	t.Run("conflict carries the current version", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Error(rec, req, discard, &store.VersionConflictError{Current: 7})

		assert.Equal(t, http.StatusConflict, rec.Code)
		body := decode(t, rec)
		assert.EqualValues(t, 7, body["currentVersion"])
		assert.EqualValues(t, 409, body["status"])
	})

	t.Run("validation names the field", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Error(rec, req, discard, &service.ValidationError{Field: "score", Message: "no winner"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "score: no winner", body["error"])
		assert.Equal(t, "score", body["field"])
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Error(rec, req, discard, errors.New("database is locked"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "locked")
	})
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Score1 int `json:"score1"`
	}

	testCases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"score1": 3}`},
		{name: "empty", body: ``, wantErr: "must not be empty"},
		{name: "syntax", body: `{"score1": }`, wantErr: "badly-formed"},
		{name: "wrong type", body: `{"score1": "three"}`, wantErr: "score1"},
		{name: "unknown field", body: `{"score3": 1}`, wantErr: "unknown key"},
		{name: "trailing data", body: `{"score1": 3}{}`, wantErr: "single JSON value"},
		{name: "too large", body: `{"score1": 3, "x": "` + strings.Repeat("a", maxBodyBytes) + `"}`, wantErr: "larger than"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst payload
			err := ReadJSON(httptest.NewRecorder(), req, &dst)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, 3, dst.Score1)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, discard, http.StatusCreated, map[string]string{"id": "abc"}, http.Header{"Etag": {`"x"`}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `"x"`, rec.Header().Get("ETag"))
	assert.JSONEq(t, `{"data":{"id":"abc"},"status":201}`, rec.Body.String())
}
