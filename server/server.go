package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	chatx "github.com/b3cub3d/mcp-playground/agent/agents/chat"
	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
)

// DefaultSessionID is used when a request carries no session id.
const DefaultSessionID = "default"

type Config struct {
	Addr            string        `split_words:"true" default:":8080"`
	ReadTimeout     time.Duration `split_words:"true" default:"30s"`
	WriteTimeout    time.Duration `split_words:"true" default:"5m"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// ChatService is the part of the chat pipeline the HTTP layer depends on.
type ChatService interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (contractx.RunResult, error)
}

// Pinger reports whether the model endpoint is reachable.
type Pinger func(ctx context.Context) error

type Server struct {
	cfg  Config
	http *http.Server
}

func New(cfg Config, svc ChatService, ping Pinger) *Server {
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      Handler(svc, ping),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// Handler builds the route table. Exposed separately so tests can drive it
// through httptest without binding a port.
func Handler(svc ChatService, ping Pinger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", chatHandler(svc))
	mux.HandleFunc("/healthz", healthHandler(ping))
	return requestLogging(mux)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response    string `json:"response"`
	HandoffInfo string `json:"handoff_info"`
	SessionID   string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func chatHandler(svc ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sessionID := strings.TrimSpace(req.SessionID)
		if sessionID == "" {
			sessionID = DefaultSessionID
		}

		result, err := svc.HandleMessage(r.Context(), sessionID, req.Message)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, chatx.ErrInvalidMessage) || errors.Is(err, contractx.ErrValidation) {
				status = http.StatusBadRequest
			}
			log.Error().Err(err).Str("session_id", sessionID).Msg("chat request failed")
			writeError(w, status, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, chatResponse{
			Response:    result.Reply,
			HandoffInfo: result.HandoffInfo,
			SessionID:   sessionID,
		})
	}
}

func healthHandler(ping Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
