package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/newtonkit/internal/config"
	apierrors "github.com/copyleftdev/newtonkit/internal/errors"
	"github.com/copyleftdev/newtonkit/internal/logging"
	"github.com/copyleftdev/newtonkit/internal/metrics"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Server implements the HTTP and JSON-RPC server for the solver service.
// Solves run synchronously inside the request; finished solves are kept
// in a bounded store for lookup by ID.
type Server struct {
	cfg     *config.Config
	logger  Logger
	metrics *metrics.Collector
	solves  *solveStore
}

// NewServer creates a new server instance with the given config and logger.
// collector may be nil to disable metrics.
func NewServer(cfg *config.Config, logger Logger, collector *metrics.Collector) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: collector,
		solves:  newSolveStore(DefaultStoreSize),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tetrahedron", s.handleTetrahedron)
		r.Post("/roots", s.handleRoots)
		r.Get("/solves/{id}", s.handleSolve)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      interface{}       `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		s.respondWithError(w, apierrors.CodeParseError, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, apierrors.CodeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	// Route to appropriate handler
	var result interface{}
	var err error

	switch request.Method {
	case "tetrahedron.solve":
		var req TetrahedronRequest
		if err = decodeParams(request.Params, &req); err == nil {
			result, err = s.SolveTetrahedron(r.Context(), req)
		}
	case "root.find":
		var req RootRequest
		if err = decodeParams(request.Params, &req); err == nil {
			result, err = s.FindRoot(r.Context(), req)
		}
	case "solve.get":
		var req struct {
			SolveID string `json:"solve_id"`
		}
		if err = decodeParams(request.Params, &req); err == nil {
			result, err = s.Solve(req.SolveID)
		}
	default:
		s.respondWithError(w, apierrors.CodeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, apierrors.RPCCode(err), err.Error(), request.ID)
		return
	}

	// Send successful response
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}
	_ = apierrors.WriteJSON(w, http.StatusOK, response)
}

// decodeParams decodes the first positional parameter into v.
func decodeParams(params []json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return apierrors.BadRequest("missing required parameters")
	}
	if err := json.Unmarshal(params[0], v); err != nil {
		return apierrors.BadRequest("invalid parameter format: %v", err)
	}
	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("Request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	_ = apierrors.WriteJSON(w, http.StatusOK, response)
}

// Close drops every recorded solve.
func (s *Server) Close() error {
	s.solves.reset()
	return nil
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apierrors.BadRequest("invalid request body: %v", err)
	}
	return nil
}

// respond writes result, or the error with the status it maps to.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, result interface{}, err error) {
	if err != nil {
		status := apierrors.WriteError(w, err)
		logging.FromContext(r.Context()).Warn("Solve rejected", map[string]interface{}{
			"status": status,
			"error":  err.Error(),
		})
		return
	}
	_ = apierrors.WriteJSON(w, http.StatusOK, result)
}

// handleTetrahedron handles POST /api/v1/tetrahedron
func (s *Server) handleTetrahedron(w http.ResponseWriter, r *http.Request) {
	var req TetrahedronRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respond(w, r, nil, err)
		return
	}
	result, err := s.SolveTetrahedron(r.Context(), req)
	s.respond(w, r, result, err)
}

// handleRoots handles POST /api/v1/roots
func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	var req RootRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respond(w, r, nil, err)
		return
	}
	result, err := s.FindRoot(r.Context(), req)
	s.respond(w, r, result, err)
}

// handleSolve handles GET /api/v1/solves/{id}
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		s.respond(w, r, nil, apierrors.BadRequest("missing solve ID"))
		return
	}
	result, err := s.Solve(id)
	s.respond(w, r, result, err)
}
