package httpserver

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/milad/desconotify/internal/repo"
)

// Trigger queues an out-of-band run. It reports false when one is already pending.
type Trigger interface {
	Trigger() bool
}

type Server struct {
	store   repo.SnapshotStore
	trigger Trigger
	mux     *http.ServeMux
	log     *zap.Logger
}

func New(store repo.SnapshotStore, trigger Trigger, log *zap.Logger) *Server {
	s := &Server{
		store:   store,
		trigger: trigger,
		mux:     http.NewServeMux(),
		log:     log,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := uuid.NewString()

	w.Header().Set("X-Request-Id", reqID)
	rr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if rec := recover(); rec != nil {
			rr.status = http.StatusInternalServerError

			// Best-effort response. If headers/body were already written, we can
			// only log.
			if !rr.wroteHeader {
				writeAPIError(rr, http.StatusInternalServerError, "internal_error", "internal error")
			}

			s.log.Error("panic handling request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("req_id", reqID),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
		}

		dur := time.Since(start)
		observeHTTPRequest(r, rr.status, dur)

		// Keep health checks + metrics endpoint quiet.
		if r.URL.Path != "/healthz" && r.URL.Path != "/metrics" {
			s.log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rr.status),
				zap.Duration("took", dur.Truncate(time.Millisecond)),
				zap.String("req_id", reqID),
			)
		}
	}()

	s.mux.ServeHTTP(rr, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/readings", s.handleListReadings)
	s.mux.HandleFunc("/api/readings/", s.handleGetReading)
	s.mux.HandleFunc("/api/runs", s.handleTriggerRun)
	s.mux.HandleFunc("/api/runs/last", s.handleLastRun)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/", s.handleNotFound)
}

// handleListReadings returns the latest snapshot of every meter in first-seen order.
func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	snaps, err := s.store.List(r.Context())
	if err != nil {
		s.log.Error("list snapshots", zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	out := make([]readingJSON, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, toReadingJSON(snap))
	}
	_ = writeJSON(w, http.StatusOK, listReadingsResponseJSON{Readings: out})
}

// handleGetReading serves /api/readings/{accountNo}.
func (s *Server) handleGetReading(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	acct := strings.TrimPrefix(r.URL.Path, "/api/readings/")
	if acct == "" || strings.Contains(acct, "/") {
		writeAPIError(w, http.StatusNotFound, "not_found", "not found")
		return
	}

	snap, err := s.store.Get(r.Context(), acct)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeAPIError(w, http.StatusNotFound, "not_found", "no reading for account "+acct)
			return
		}
		s.log.Error("get snapshot", zap.String("account", acct), zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	_ = writeJSON(w, http.StatusOK, toReadingJSON(snap))
}

func (s *Server) handleLastRun(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	run, err := s.store.LastRun(r.Context())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeAPIError(w, http.StatusNotFound, "not_found", "no run finished yet")
			return
		}
		s.log.Error("last run", zap.Error(err))
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	_ = writeJSON(w, http.StatusOK, toRunJSON(run))
}

func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if s.trigger == nil {
		writeAPIError(w, http.StatusServiceUnavailable, "unavailable", "runs cannot be triggered")
		return
	}
	_ = writeJSON(w, http.StatusAccepted, triggerResponseJSON{Queued: s.trigger.Trigger()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	// Keep API errors JSON.
	if strings.HasPrefix(r.URL.Path, "/api") {
		writeAPIError(w, http.StatusNotFound, "not_found", "not found")
		return
	}
	http.NotFound(w, r)
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(p)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	reqID := w.Header().Get("X-Request-Id")
	_ = writeJSON(w, status, apiErrorJSON{
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}
