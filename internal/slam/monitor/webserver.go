// Package monitor serves a live view of a running session over HTTP: JSON
// state, go-echarts debug pages, a websocket step stream and, when a
// database is attached, stored runs and a tailsql console.
package monitor

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/gridslam/internal/httputil"
	"github.com/banshee-data/gridslam/internal/monitoring"
	"github.com/banshee-data/gridslam/internal/slam/session"
	"github.com/banshee-data/gridslam/internal/slam/storage/sqlite"
	"github.com/banshee-data/gridslam/internal/slam/world"
	"github.com/banshee-data/gridslam/internal/version"
)

//go:embed status.html
var statusHTML embed.FS

// maxTrace bounds the pose-error history kept for charts.
const maxTrace = 5000

// Config configures a WebServer.
type Config struct {
	Address string
	// DB is optional. When set, /api/runs and /debug/tailsql/ are served.
	DB *sqlite.DB
	// RunID identifies the live run in state responses.
	RunID string
}

// WebServer publishes session state. Publish and Observe are called from
// the simulation goroutine; handlers read copies under mu.
type WebServer struct {
	address string
	server  *http.Server
	db      *sqlite.DB
	runs    *sqlite.RunStore
	runID   string
	hub     *hub

	mu      sync.RWMutex
	grid    *world.Grid
	snap    *session.Snapshot
	trace   []float64
	started time.Time
}

// NewWebServer builds the server and its routes.
func NewWebServer(cfg Config) (*WebServer, error) {
	ws := &WebServer{
		address: cfg.Address,
		db:      cfg.DB,
		runID:   cfg.RunID,
		hub:     newHub(),
		started: time.Now(),
	}
	if cfg.DB != nil {
		ws.runs = sqlite.NewRunStore(cfg.DB.DB)
	}

	handler, err := ws.setupRoutes()
	if err != nil {
		return nil, err
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws, nil
}

// Handler returns the route mux, for tests and embedding.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// Publish replaces the state served by handlers. The grid must not be
// mutated afterwards.
func (ws *WebServer) Publish(grid *world.Grid, snap session.Snapshot) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.grid = grid
	ws.snap = &snap
}

// Observe records a step for charts and streams it to websocket clients.
// It can be registered directly as a session observer.
func (ws *WebServer) Observe(r session.StepResult) {
	ws.mu.Lock()
	ws.trace = append(ws.trace, r.PoseError)
	if len(ws.trace) > maxTrace {
		ws.trace = ws.trace[len(ws.trace)-maxTrace:]
	}
	ws.mu.Unlock()

	msg, err := json.Marshal(r)
	if err != nil {
		monitoring.Logf("monitor: encode step %d: %v", r.Step, err)
		return
	}
	ws.hub.broadcast(msg)
}

func (ws *WebServer) state() (*world.Grid, *session.Snapshot, []float64) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	trace := make([]float64, len(ws.trace))
	copy(trace, ws.trace)
	return ws.grid, ws.snap, trace
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")
	ws.hub.closeAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	monitoring.Logf("HTTP server routine stopped")
	return nil
}

func (ws *WebServer) setupRoutes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/{$}", ws.handleStatus)
	mux.HandleFunc("/api/state", ws.handleState)
	mux.HandleFunc("/api/runs", ws.handleRuns)
	mux.HandleFunc("/api/runs/{id}/steps", ws.handleRunSteps)
	mux.HandleFunc("/debug/maps/truth", ws.handleTruthMap)
	mux.HandleFunc("/debug/maps/belief", ws.handleBeliefMap)
	mux.HandleFunc("/debug/charts/error", ws.handleErrorChart)
	mux.HandleFunc("/ws", ws.handleWebSocket)

	if ws.db != nil {
		if err := ws.db.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]any{
		"status":  "ok",
		"version": version.String(),
		"run_id":  ws.runID,
		"uptime":  time.Since(ws.started).Round(time.Second).String(),
		"clients": ws.hub.count(),
	})
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	page, err := statusHTML.ReadFile("status.html")
	if err != nil {
		httputil.InternalServerError(w, "status page missing")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

type stateResponse struct {
	RunID string `json:"run_id,omitempty"`
	session.Snapshot
}

func (ws *WebServer) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	_, snap, _ := ws.state()
	if snap == nil {
		httputil.Unavailable(w, "no session published yet")
		return
	}
	httputil.WriteJSONOK(w, stateResponse{RunID: ws.runID, Snapshot: *snap})
}

func (ws *WebServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if ws.runs == nil {
		httputil.NotFound(w, "no database configured")
		return
	}
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}
	runs, err := ws.runs.List(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*sqlite.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (ws *WebServer) handleRunSteps(w http.ResponseWriter, r *http.Request) {
	if ws.runs == nil {
		httputil.NotFound(w, "no database configured")
		return
	}
	id := r.PathValue("id")
	if _, err := ws.runs.Get(id); err != nil {
		if errors.Is(err, sqlite.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	steps, err := ws.runs.Steps(id)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("get steps: %v", err))
		return
	}
	if steps == nil {
		steps = []sqlite.StepRecord{}
	}
	httputil.WriteJSONOK(w, steps)
}
