// Package serve exposes a live cluster graph over HTTP: the event loop runs
// in real time while clients post input events and fetch PNG frames.
package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/msalah0e/clustermap/internal/camera"
	"github.com/msalah0e/clustermap/internal/explorer"
	"github.com/msalah0e/clustermap/internal/interact"
	"github.com/msalah0e/clustermap/internal/records"
)

var errNodeMissing = errors.New("node not in graph")

// EventRequest is the body of POST /events.
type EventRequest struct {
	Kind      string  `json:"kind"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Node      string  `json:"node,omitempty"`
	Button    int     `json:"button,omitempty"`
	Modifiers string  `json:"modifiers,omitempty"`
	DeltaY    float64 `json:"delta_y,omitempty"`
	Key       string  `json:"key,omitempty"`
}

// DensityRequest is the body of POST /density.
type DensityRequest struct {
	Value int `json:"value"`
}

// SelectRequest is the body of POST /select.
type SelectRequest struct {
	Clusters []int `json:"clusters"`
}

// StateResponse describes the live graph.
type StateResponse struct {
	Version   uint64           `json:"version"`
	Clusters  int              `json:"clusters"`
	Items     int              `json:"items"`
	Edges     int              `json:"edges"`
	Pinned    int              `json:"pinned"`
	Alpha     float64          `json:"alpha"`
	Active    bool             `json:"active"`
	Density   int              `json:"density"`
	Expanded  []int            `json:"expanded"`
	Transform camera.Transform `json:"transform"`
	Hovered   string           `json:"hovered,omitempty"`
	Selected  string           `json:"selected,omitempty"`
	Cursor    string           `json:"cursor"`
	Frames    uint64           `json:"frames"`
}

// Server serves one explorer.
type Server struct {
	e    *explorer.Explorer
	log  *slog.Logger
	http *http.Server
}

// New wires the handlers. The explorer must be mounted; Run drives its loop.
func New(addr string, e *explorer.Explorer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{e: e, log: logger}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler with recovery and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /snapshot.png", s.handleSnapshot)
	mux.HandleFunc("POST /events", s.handleEvent)
	mux.HandleFunc("POST /density", s.handleDensity)
	mux.HandleFunc("POST /select", s.handleSelect)
	mux.HandleFunc("POST /reset", s.handleReset)
	return s.recovery(s.logging(mux))
}

// Run drives the explorer's event loop and serves HTTP until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.e.Run(ctx) }()

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("http shutdown", "err", err)
		}
	}()

	s.log.Info("serving", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	cancel()
	return <-loopErr
}

// call runs fn on the event loop and waits for it.
func (s *Server) call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if err := s.e.PostContext(ctx, func() { done <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var resp StateResponse
	err := s.call(r.Context(), func() error {
		a := s.e.Arena()
		st := a.GetStats()
		c := s.e.Controller()
		resp = StateResponse{
			Version:   a.Version,
			Clusters:  st.ClusterNodes,
			Items:     st.ItemNodes,
			Edges:     st.Edges,
			Pinned:    st.Pinned,
			Alpha:     s.e.Simulation().Alpha(),
			Active:    s.e.Simulation().Active(),
			Density:   s.e.Layout().Density(),
			Expanded:  s.e.Layout().Expanded(),
			Transform: s.e.Transform(),
			Hovered:   c.Hovered(),
			Selected:  c.Selected(),
			Cursor:    c.Cursor(),
			Frames:    s.e.Frames(),
		}
		return nil
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.call(r.Context(), func() error { return s.e.Snapshot(&buf) }); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	kind, err := interact.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mods, err := interact.ParseModifiers(req.Modifiers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.call(r.Context(), func() error {
		ev := interact.Event{Kind: kind, X: req.X, Y: req.Y, Button: req.Button, Modifiers: mods, DeltaY: req.DeltaY, Key: req.Key}
		if req.Node != "" {
			n, ok := s.e.Arena().Node(req.Node)
			if !ok {
				return fmt.Errorf("%w: %q", errNodeMissing, req.Node)
			}
			p := s.e.Transform().Apply(n.Pos())
			ev.X, ev.Y = p.X, p.Y
		}
		s.e.Dispatch(ev)
		return nil
	})
	switch {
	case errors.Is(err, errNodeMissing):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDensity(w http.ResponseWriter, r *http.Request) {
	var req DensityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	s.respond(w, s.call(r.Context(), func() error { s.e.SetDensity(req.Value); return nil }))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	s.respond(w, s.call(r.Context(), func() error {
		s.e.SetSelection(records.NewSelection(req.Clusters...))
		return nil
	}))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.call(r.Context(), func() error { s.e.ResetLayout(); return nil }))
}

func (s *Server) respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recovery turns handler panics into 500s.
func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("panic in handler", "error", err, "path", r.URL.Path, "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", sw.status, "duration", time.Since(start).String())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
