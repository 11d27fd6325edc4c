package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/copyleftdev/newtonkit/internal/logging"
	"github.com/copyleftdev/newtonkit/internal/optimization"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{
			name:   "dimension mismatch",
			err:    optimization.WrapError(optimization.ErrDimensionMismatch, "3 vs 2"),
			status: http.StatusBadRequest,
			code:   CodeInvalidParams,
		},
		{
			name:   "wrapped settings",
			err:    fmt.Errorf("solve: %w", optimization.WrapError(optimization.ErrInvalidSettings, "tolerance")),
			status: http.StatusBadRequest,
			code:   CodeInvalidParams,
		},
		{
			name:   "explicit bad request",
			err:    BadRequest("max_iterations %d above limit", 10),
			status: http.StatusBadRequest,
			code:   CodeInvalidParams,
		},
		{
			name:   "unknown",
			err:    fmt.Errorf("disk on fire"),
			status: http.StatusInternalServerError,
			code:   CodeServerError,
		},
		{
			name:   "canceled request",
			err:    Wrap(context.Canceled, "solve abandoned"),
			status: http.StatusServiceUnavailable,
			code:   CodeServerError,
		},
		{
			name:   "deadline exceeded",
			err:    fmt.Errorf("solve: %w", context.DeadlineExceeded),
			status: http.StatusServiceUnavailable,
			code:   CodeServerError,
		},
		{
			name:   "wrapped unknown keeps server status",
			err:    Wrap(fmt.Errorf("disk on fire"), "solve"),
			status: http.StatusInternalServerError,
			code:   CodeServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusCode(tt.err))
			assert.Equal(t, tt.code, RPCCode(tt.err))
		})
	}
}

func TestErrorFormat(t *testing.T) {
	err := Wrap(fmt.Errorf("root cause"), "decoding body").WithOperation("tetrahedron")
	assert.Equal(t, "tetrahedron: decoding body: root cause", err.Error())
	assert.NotEmpty(t, err.StackTrace())
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Equal(t, "bad 1", BadRequest("bad %d", 1).Error())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	status := WriteError(rec, optimization.WrapError(optimization.ErrEmptyVector, "initial guess is empty"))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "initial guess is empty")
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.NewFromZap(zap.New(core))

	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("expression blew up")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/roots", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	entries := logs.FilterMessage("Recovered from panic").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "expression blew up", entries[0].ContextMap()["error"])
	assert.Equal(t, "/api/v1/roots", entries[0].ContextMap()["path"])
}

func TestErrorHandler(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.NewFromZap(zap.New(core))

	h := ErrorHandler(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, 1, logs.FilterMessage("Request error").Len())
}
