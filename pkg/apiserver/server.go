// Package apiserver exposes the scoring and decision pipeline over HTTP:
// sentiment scoring, batch decisions behind the relevance gate, debug
// introspection, and source-weight administration.
package apiserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/indexwatch/relevance-router/pkg/aihint"
	"github.com/indexwatch/relevance-router/pkg/history"
	"github.com/indexwatch/relevance-router/pkg/notify"
	"github.com/indexwatch/relevance-router/pkg/observability/logging"
	"github.com/indexwatch/relevance-router/pkg/relevance"
	"github.com/indexwatch/relevance-router/pkg/rolling"
	"github.com/indexwatch/relevance-router/pkg/sentiment"
	"github.com/indexwatch/relevance-router/pkg/sourceweights"
)

// DefaultSourceWeightsPath is where admin reloads read fresh weights from.
const DefaultSourceWeightsPath = "config/source_weights.json"

// Server holds the shared pipeline state behind the HTTP handlers.
type Server struct {
	analyzer  sentiment.Analyzer
	rolling   *rolling.Window
	hist      history.Store
	relevance *relevance.Handle
	hints     aihint.Client

	notifier *notify.Mux
	flutter  *notify.AntiFlutter

	weightsMu   sync.RWMutex
	weights     *sourceweights.Config
	weightsPath string

	// now is swappable in tests.
	now func() int64
}

// Options carries the collaborators the server needs. Nil optional fields
// (Hints, Notifier, Flutter) disable the corresponding step.
type Options struct {
	History     history.Store
	Relevance   *relevance.Handle
	Hints       aihint.Client
	Notifier    *notify.Mux
	Flutter     *notify.AntiFlutter
	WeightsPath string
}

// New assembles a server. Source weights are loaded eagerly so the first
// request never pays for it.
func New(opts Options) *Server {
	path := opts.WeightsPath
	if path == "" {
		path = DefaultSourceWeightsPath
	}
	hist := opts.History
	if hist == nil {
		hist = history.NewMemory(2000)
	}
	hints := opts.Hints
	if hints == nil {
		hints = aihint.DisabledClient{}
	}
	return &Server{
		analyzer:    sentiment.New(),
		rolling:     rolling.New48h(),
		hist:        hist,
		relevance:   opts.Relevance,
		hints:       hints,
		notifier:    opts.Notifier,
		flutter:     opts.Flutter,
		weights:     sourceweights.LoadFromFile(path),
		weightsPath: path,
		now:         func() int64 { return time.Now().Unix() },
	}
}

// Routes builds the HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /batch", s.handleBatch)
	mux.HandleFunc("POST /decide", s.handleDecide)

	mux.HandleFunc("GET /debug/rolling", s.handleDebugRolling)
	mux.HandleFunc("GET /debug/history", s.handleDebugHistory)
	mux.HandleFunc("GET /debug/last-decision", s.handleDebugLastDecision)
	mux.HandleFunc("GET /debug/source-weight", s.handleDebugSourceWeight)

	mux.HandleFunc("GET /admin/reload-source-weights", s.handleReloadSourceWeights)

	return mux
}

// ListenAndServe runs the server on port until it fails.
func (s *Server) ListenAndServe(port int) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	logging.Infof("api server listening on port %d", port)
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) parseJSONRequest(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, map[string]any{
		"error": map[string]any{
			"message":   message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}
