// Package server exposes an engine over HTTP. The three endpoints
// mirror the engine boundary: /query evaluates a pattern, /update
// ingests source text, /validate reports diagnostics for source text
// without touching the store.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ontoforge/tern"
	"github.com/ontoforge/tern/internal/query"
	"github.com/ontoforge/tern/internal/turtle"
)

// Server is the HTTP front of one engine
type Server struct {
	engine *tern.Engine
	addr   string
	logger *zap.Logger
}

// NewServer creates an HTTP server around the given engine
func NewServer(engine *tern.Engine, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine: engine,
		addr:   addr,
		logger: logger,
	}
}

// Handler returns the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/update", s.handleUpdate)
	mux.HandleFunc("/validate", s.handleValidate)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting endpoint", zap.String("addr", s.addr))
	return server.ListenAndServe()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	count, err := s.engine.Count()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"service":   "tern",
		"triples":   count,
		"endpoints": []string{"/query", "/update", "/validate"},
	})
}

// handleQuery accepts the query text as a 'query' URL or form
// parameter, or as the raw POST body.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r, "query")
	if !ok {
		return
	}

	result, err := s.engine.Query(text)
	if err != nil {
		var syntaxErr *query.SyntaxError
		if errors.As(err, &syntaxErr) {
			s.writeError(w, http.StatusBadRequest, syntaxErr.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, result)
}

// handleUpdate ingests the POST body into the store
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed, use POST")
		return
	}

	text, ok := s.readText(w, r, "update")
	if !ok {
		return
	}

	completed, err := s.engine.Update(text)
	if err != nil {
		var fatal *turtle.FatalError
		if errors.As(err, &fatal) {
			s.writeError(w, http.StatusBadRequest, fatal.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, map[string]bool{"success": completed})
}

// handleValidate runs the rules over the POST body without mutating
// the store
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed, use POST")
		return
	}

	text, ok := s.readText(w, r, "validate")
	if !ok {
		return
	}

	diagnostics, err := s.engine.Validate(text)
	if err != nil {
		var fatal *turtle.FatalError
		if errors.As(err, &fatal) {
			s.writeError(w, http.StatusBadRequest, fatal.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if diagnostics == nil {
		diagnostics = []string{}
	}
	s.writeJSON(w, map[string]interface{}{
		"valid":   len(diagnostics) == 0,
		"results": diagnostics,
	})
}

// readText extracts the operation text from the request: a named URL
// or form parameter, or the raw body.
func (s *Server) readText(w http.ResponseWriter, r *http.Request, param string) (string, bool) {
	if v := r.URL.Query().Get(param); v != "" {
		return v, true
	}

	if strings.Contains(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			s.writeError(w, http.StatusBadRequest, "failed to parse form")
			return "", false
		}
		if v := r.FormValue(param); v != "" {
			return v, true
		}
		s.writeError(w, http.StatusBadRequest, "missing '"+param+"' parameter")
		return "", false
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return "", false
	}
	if len(body) == 0 {
		s.writeError(w, http.StatusBadRequest, "missing '"+param+"' parameter")
		return "", false
	}
	return string(body), true
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		s.logger.Error("writing response", zap.Error(err))
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.logger.Warn("request failed",
		zap.Int("status", statusCode),
		zap.String("message", message))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	body, _ := json.Marshal(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    statusCode,
			"message": message,
		},
	})
	_, _ = w.Write(body)
}
