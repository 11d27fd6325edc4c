package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/newtonkit/internal/config"
	apierrors "github.com/copyleftdev/newtonkit/internal/errors"
	"github.com/copyleftdev/newtonkit/internal/logging"
	"github.com/copyleftdev/newtonkit/internal/metrics"
)

// testConfig creates a test configuration with default values
func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{
		Environment: "test",
	}

	cfg.HTTP.Port = 8080
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 30 * time.Second

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"
	cfg.Logging.Output = "stdout"

	cfg.Solver.MaxIterations = 5000
	cfg.Solver.IterationLimit = 10000
	cfg.Solver.Tolerance = 1e-10
	cfg.Solver.Attenuation = 1.5
	cfg.Solver.Spread = 1e-6
	cfg.Solver.SecondSpread = 1e-3

	require.NoError(t, cfg.Validate())
	return cfg
}

type fixture struct {
	srv    *Server
	router chi.Router
	reg    *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	srv := NewServer(testConfig(t), logging.Nop(), collector)
	r := chi.NewRouter()
	srv.RegisterRoutes(r)

	return &fixture{srv: srv, router: r, reg: reg}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out), rr.Body.String())
	return out
}

func TestRegisterRoutes(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		method      string
		path        string
		shouldExist bool
	}{
		{"POST", "/api/v1/tetrahedron", true},
		{"POST", "/api/v1/roots", true},
		{"GET", "/api/v1/solves/123", true},
		{"POST", "/rpc", true},
		{"GET", "/healthz", false}, // Not registered by server package
		{"GET", "/nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := f.do(t, tt.method, tt.path, "")
			// Registered routes always answer JSON, even on errors; the
			// router's own 404 is plain text.
			if tt.shouldExist {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			} else {
				assert.Equal(t, http.StatusNotFound, rr.Code)
			}
		})
	}
}

func TestTetrahedronEndpoint(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/tetrahedron", `{
		"base": {"a": 1, "b": 1, "c": 1},
		"apex_degrees": {"a": 60, "b": 60, "c": 60},
		"initial_guess": [1.1, 0.95, 1.05]
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	assert.Equal(t, true, body["satisfied"])
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["solve_id"])

	edges, ok := body["edges"].([]interface{})
	require.True(t, ok)
	require.Len(t, edges, 3)
	for _, e := range edges {
		assert.InDelta(t, 1.0, e.(float64), 1e-4)
	}
	assert.LessOrEqual(t, body["residual"].(float64), 1e-10)

	expected := `
# HELP newtonkit_solves_total Number of finished solves by solver and termination status.
# TYPE newtonkit_solves_total counter
newtonkit_solves_total{solver="tetrahedron",status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "newtonkit_solves_total"))
}

func TestTetrahedronEndpointRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "malformed json",
			body: `{"base":`,
			want: "invalid request body",
		},
		{
			name: "unknown field",
			body: `{"base": {"a": 1, "b": 1, "c": 1}, "apex_degrees": {"a": 60, "b": 60, "c": 60}, "colour": "red"}`,
			want: "unknown field",
		},
		{
			name: "non-positive side",
			body: `{"base": {"a": 0, "b": 1, "c": 1}, "apex_degrees": {"a": 60, "b": 60, "c": 60}}`,
			want: "base side a",
		},
		{
			name: "angle out of range",
			body: `{"base": {"a": 1, "b": 1, "c": 1}, "apex_degrees": {"a": 60, "b": 180, "c": 60}}`,
			want: "apex angle b",
		},
		{
			name: "wrong guess length",
			body: `{"base": {"a": 1, "b": 1, "c": 1}, "apex_degrees": {"a": 60, "b": 60, "c": 60}, "initial_guess": [1, 1]}`,
			want: "initial guess needs 3 edges",
		},
		{
			name: "iterations above limit",
			body: `{"base": {"a": 1, "b": 1, "c": 1}, "apex_degrees": {"a": 60, "b": 60, "c": 60}, "max_iterations": 20000}`,
			want: "exceeds the limit",
		},
		{
			name: "negative tolerance",
			body: `{"base": {"a": 1, "b": 1, "c": 1}, "apex_degrees": {"a": 60, "b": 60, "c": 60}, "tolerance": -1}`,
			want: "tolerance",
		},
		{
			name: "zero attenuation",
			body: `{"base": {"a": 1, "b": 1, "c": 1}, "apex_degrees": {"a": 60, "b": 60, "c": 60}, "attenuation": 0}`,
			want: "attenuation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/api/v1/tetrahedron", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, decode(t, rr)["error"], tt.want)
		})
	}
}

func TestTetrahedronEndpointCapAndHistory(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/tetrahedron", `{
		"base": {"a": 5, "b": 12.649110640673518, "c": 12.36931687685298},
		"apex_degrees": {"a": 90, "b": 90, "c": 90},
		"max_iterations": 3,
		"history": true
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	assert.Equal(t, false, body["satisfied"])
	assert.Equal(t, "iteration_limit", body["status"])
	assert.Equal(t, 3.0, body["iterations"])
	assert.Len(t, body["history"], 4)
}

func TestRootsEndpoint(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		body  string
		value float64
	}{
		{
			name:  "newton analytic",
			body:  `{"function": "x ** 2 - 4", "derivative": "2 * x", "initial_guess": 3}`,
			value: 2,
		},
		{
			name:  "newton approximate",
			body:  `{"function": "x ** 2 - 4", "initial_guess": 3}`,
			value: 2,
		},
		{
			name:  "halley analytic",
			body:  `{"function": "x ** 2 - 4", "derivative": "2 * x", "second_derivative": "2", "method": "halley", "initial_guess": 3}`,
			value: 2,
		},
		{
			name:  "halley with target",
			body:  `{"function": "x ** 3", "method": "halley", "initial_guess": 1, "target": 8}`,
			value: 2,
		},
		{
			name:  "transcendental",
			body:  `{"function": "cos(x) - x", "initial_guess": 1, "tolerance": 1e-12}`,
			value: 0.7390851332151607,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/api/v1/roots", tt.body)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			body := decode(t, rr)
			assert.Equal(t, true, body["satisfied"])
			assert.Equal(t, "success", body["status"])
			assert.InDelta(t, tt.value, body["value"].(float64), 1e-8)
		})
	}
}

func TestRootsEndpointDegenerateIsNotAnError(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/roots", `{"function": "x ** 2 - 4", "derivative": "2 * x", "initial_guess": 0}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	assert.Equal(t, false, body["satisfied"])
	assert.Equal(t, "degenerate_step", body["status"])
	assert.Equal(t, 0.0, body["iterations"])
}

func TestRootsEndpointRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	for name, body := range map[string]string{
		"missing function":   `{"initial_guess": 1}`,
		"bad expression":     `{"function": "x +", "initial_guess": 1}`,
		"unknown variable":   `{"function": "y - 1", "initial_guess": 1}`,
		"bad derivative":     `{"function": "x", "derivative": "(", "initial_guess": 1}`,
		"unknown method":     `{"function": "x", "method": "bisection", "initial_guess": 1}`,
		"zero iterations":    `{"function": "x", "max_iterations": 0, "initial_guess": 1}`,
		"iterations too big": `{"function": "x", "max_iterations": 10001, "initial_guess": 1}`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/api/v1/roots", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
}

func TestSolveLookup(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/roots", `{"function": "x - 1", "initial_guess": 0}`)
	require.Equal(t, http.StatusOK, rr.Code)
	id := decode(t, rr)["solve_id"].(string)

	rr = f.do(t, http.MethodGet, "/api/v1/solves/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, id, body["solve_id"])
	assert.Equal(t, "root", body["kind"])

	rr = f.do(t, http.MethodGet, "/api/v1/solves/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	require.NoError(t, f.srv.Close())
	rr = f.do(t, http.MethodGet, "/api/v1/solves/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func rpc(t *testing.T, f *fixture, method string, params interface{}) map[string]interface{} {
	t.Helper()
	payload := map[string]interface{}{"jsonrpc": "2.0", "id": 7, "method": method}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	rr := f.do(t, http.MethodPost, "/rpc", string(raw))
	require.Equal(t, http.StatusOK, rr.Code)
	return decode(t, rr)
}

func TestJSONRPC(t *testing.T) {
	f := newFixture(t)

	resp := rpc(t, f, "root.find", map[string]interface{}{
		"function":      "x ** 2 - 2",
		"method":        "halley",
		"initial_guess": 1,
	})
	require.Nil(t, resp["error"])
	assert.Equal(t, 7.0, resp["id"])
	result := resp["result"].(map[string]interface{})
	assert.InDelta(t, math.Sqrt2, result["value"].(float64), 1e-9)
	assert.Equal(t, "halley", result["method"])

	resp = rpc(t, f, "solve.get", map[string]interface{}{"solve_id": result["solve_id"]})
	require.Nil(t, resp["error"])
	assert.Equal(t, "root", resp["result"].(map[string]interface{})["kind"])

	resp = rpc(t, f, "tetrahedron.solve", map[string]interface{}{
		"base":         map[string]float64{"a": 1, "b": 1, "c": 1},
		"apex_degrees": map[string]float64{"a": 60, "b": 60, "c": 60},
	})
	require.Nil(t, resp["error"])
	assert.Equal(t, true, resp["result"].(map[string]interface{})["satisfied"])
}

func TestJSONRPCErrors(t *testing.T) {
	f := newFixture(t)

	code := func(resp map[string]interface{}) float64 {
		errObj, ok := resp["error"].(map[string]interface{})
		require.True(t, ok, "response should contain error object")
		return errObj["code"].(float64)
	}

	assert.Equal(t, float64(apierrors.CodeMethodNotFound), code(rpc(t, f, "optimization.start", nil)))
	assert.Equal(t, float64(apierrors.CodeInvalidParams), code(rpc(t, f, "root.find", nil)))
	assert.Equal(t, float64(apierrors.CodeInvalidParams), code(rpc(t, f, "root.find", map[string]interface{}{"function": "x +"})))
	assert.Equal(t, float64(apierrors.CodeServerError), code(rpc(t, f, "solve.get", map[string]interface{}{"solve_id": "nope"})))

	rr := f.do(t, http.MethodPost, "/rpc", `{not json`)
	assert.Equal(t, float64(apierrors.CodeParseError), code(decode(t, rr)))

	rr = f.do(t, http.MethodPost, "/rpc", `{"jsonrpc": "1.0", "method": "root.find"}`)
	assert.Equal(t, float64(apierrors.CodeInvalidRequest), code(decode(t, rr)))
}

func TestRespondWithError(t *testing.T) {
	srv := NewServer(testConfig(t), logging.Nop(), nil)

	tests := []struct {
		name       string
		code       int
		message    string
		id         interface{}
		expectedID interface{}
	}{
		{name: "string id", code: apierrors.CodeInvalidParams, message: "invalid input", id: "123", expectedID: "123"},
		{name: "nil id", code: apierrors.CodeServerError, message: "server error", id: nil, expectedID: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.respondWithError(rr, tt.code, tt.message, tt.id)

			assert.Equal(t, http.StatusOK, rr.Code, "JSON-RPC errors travel with 200")

			response := decode(t, rr)
			errObj, ok := response["error"].(map[string]interface{})
			require.True(t, ok, "response should contain error object")
			assert.Equal(t, float64(tt.code), errObj["code"])
			assert.Equal(t, tt.message, errObj["message"])
			assert.Equal(t, tt.expectedID, response["id"])
		})
	}
}

func TestFloatMarshalsNonFinite(t *testing.T) {
	raw, err := json.Marshal([]Float{1.5, Float(math.NaN()), Float(math.Inf(1)), Float(math.Inf(-1))})
	require.NoError(t, err)
	assert.Equal(t, `[1.5,"NaN","+Inf","-Inf"]`, string(raw))
}

func TestSolveStoreEvictsOldest(t *testing.T) {
	s := newSolveStore(2)
	now := time.Now()
	s.put("a", "root", now, nil)
	s.put("b", "root", now, nil)
	s.put("c", "root", now, nil)

	assert.Equal(t, 2, s.len())
	_, ok := s.get("a")
	assert.False(t, ok)
	_, ok = s.get("c")
	assert.True(t, ok)
}

func TestNilMetricsCollector(t *testing.T) {
	srv := NewServer(testConfig(t), logging.Nop(), nil)
	r := chi.NewRouter()
	srv.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/roots", bytes.NewBufferString(`{"function": "x - 1", "initial_guess": 0}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCanceledRequestIsNotAServerFault(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.srv.SolveTetrahedron(ctx, TetrahedronRequest{
		Base:        Triple{A: 1, B: 1, C: 1},
		ApexDegrees: Triple{A: 60, B: 60, C: 60},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, http.StatusServiceUnavailable, apierrors.StatusCode(err))

	_, err = f.srv.FindRoot(ctx, RootRequest{Function: "x*x - 2", InitialGuess: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, http.StatusServiceUnavailable, apierrors.StatusCode(err))
	assert.Equal(t, 0, f.srv.solves.len())
}
