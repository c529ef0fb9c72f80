package echoapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/observa/core"
	"github.com/trezcool/observa/core/evaluation"
	"github.com/trezcool/observa/tests"
)

func TestAppHTTPErrorHandler(t *testing.T) {
	persistErr := &evaluation.PersistenceError{Err: errors.New("disk I/O error")}

	tests := []struct {
		name         string
		err          error
		wantCode     int
		wantBody     map[string]interface{}
		wantLogged   bool
		wantShutdown bool
	}{
		{
			name:     "http error",
			err:      echo.NewHTTPError(http.StatusForbidden, "permission denied"),
			wantCode: http.StatusForbidden,
			wantBody: map[string]interface{}{"error": "permission denied"},
		},
		{
			name:     "wrapped evaluation error",
			err:      errors.Wrap(evaluation.ErrNotFound, "getting evaluation"),
			wantCode: http.StatusNotFound,
			wantBody: map[string]interface{}{"error": "evaluation not found"},
		},
		{
			name:     "validation error",
			err:      core.NewValidationError(nil, core.FieldError{Field: "status", Error: "invalid status"}),
			wantCode: http.StatusBadRequest,
			wantBody: map[string]interface{}{"status": "invalid status"},
		},
		{
			name:       "unknown error",
			err:        errors.New("secret details"),
			wantCode:   http.StatusInternalServerError,
			wantBody:   map[string]interface{}{"error": "Internal Server Error"},
			wantLogged: true,
		},
		{
			name:       "submission persistence error",
			err:        &submissionError{persistErr},
			wantCode:   http.StatusInternalServerError,
			wantBody:   map[string]interface{}{"success": false, "message": "disk I/O error"},
			wantLogged: true,
		},
		{
			name:     "submission validation error",
			err:      &submissionError{core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: "this field is required"})},
			wantCode: http.StatusBadRequest,
			wantBody: map[string]interface{}{
				"success": false,
				"message": "teacher_id: this field is required",
				"errors":  map[string]interface{}{"teacher_id": "this field is required"},
			},
		},
		{
			name:         "shutdown error",
			err:          errors.Wrap(core.NewShutdownError("integrity issue"), "saving"),
			wantCode:     http.StatusInternalServerError,
			wantBody:     map[string]interface{}{"error": "Internal Server Error"},
			wantLogged:   true,
			wantShutdown: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := new(testutil.Logger)
			var shutdown bool
			handler := newAppHTTPErrorHandler(logger, func() { shutdown = true })

			e := echo.New()
			rec := httptest.NewRecorder()
			ctx := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
			handler(tt.err, ctx)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]interface{}
			if assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body)) {
				assert.Equal(t, tt.wantBody, body)
			}
			assert.Equal(t, tt.wantLogged, len(logger.Entries("error")) == 1)
			assert.Equal(t, tt.wantShutdown, shutdown)
		})
	}
}
