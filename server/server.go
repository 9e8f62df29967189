// Package server provides the HTTP API in front of the agent.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/netutil"

	"github.com/Aymensat/CarthageGate/planner"

	. "github.com/Aymensat/CarthageGate/logging"
)

const chatFailureDetail = "Failed to get a response from the AI model."

// Chatter answers one user message.
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
}

// TripPlanner builds a trip plan between two zones.
type TripPlanner interface {
	Plan(ctx context.Context, startZone, destinationZone string) *planner.TripPlan
}

// Config holds HTTP server configuration
type Config struct {
	Listen         string // e.g. ":8000"
	MaxConnections int    // 0 means unlimited
}

// Server represents the HTTP server
type Server struct {
	cfg     Config
	chat    Chatter
	planner TripPlanner
	server  *http.Server
}

// New creates a server. tp may be nil, which disables /api/plan-trip.
func New(cfg Config, chat Chatter, tp TripPlanner) *Server {
	if cfg.Listen == "" {
		cfg.Listen = ":8000"
	}
	s := &Server{
		cfg:     cfg,
		chat:    chat,
		planner: tp,
	}
	s.server = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /chat", s.handleChat)
	if s.planner != nil {
		mux.HandleFunc("POST /api/plan-trip", s.handlePlanTrip)
	}
	return withRequestLog(mux)
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Listen, err)
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	L_info("http: listening", "addr", ln.Addr().String(), "maxConnections", s.cfg.MaxConnections)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		L_info("http: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chatbot Service is running."})
}

type chatRequest struct {
	Message *string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "request body must be a JSON object: " + err.Error()})
		return
	}
	if req.Message == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "field 'message' is required"})
		return
	}

	// Outbound calls run to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	reply, err := s.chat.Chat(ctx, *req.Message)
	if err != nil {
		L_error("http: chat failed", "requestID", requestID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: chatFailureDetail})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

type planTripRequest struct {
	StartZone       string `json:"startZone"`
	DestinationZone string `json:"destinationZone"`
}

func (s *Server) handlePlanTrip(w http.ResponseWriter, r *http.Request) {
	var req planTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StartZone == "" || req.DestinationZone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Both startZone and destinationZone are required."})
		return
	}
	plan := s.planner.Plan(context.WithoutCancel(r.Context()), req.StartZone, req.DestinationZone)
	writeJSON(w, http.StatusOK, plan)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		L_warn("http: writing response failed", "error", err)
	}
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLog tags each request with an id and logs its outcome.
func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		L_info("http: request", "requestID", id, "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start).String())
	})
}
