// Package api exposes the QA pipeline over HTTP. Answers stream as
// server-sent events, one data event per model chunk.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/communitykit/smartqa/qa"
)

type Server struct {
	svc     *qa.Service
	logger  *zap.Logger
	handler http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type qaTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type qaRequest struct {
	Question string   `json:"question"`
	OwnerID  int64    `json:"ownerId"`
	History  []qaTurn `json:"history"`
}

func New(svc *qa.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{svc: svc, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/qa/stream", s.handleQAStream)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

// handleQAStream streams the answer as text/event-stream. Question
// validation happens inside the pipeline, which answers a blank question
// with a single informational chunk rather than an HTTP error.
func (s *Server) handleQAStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req qaRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("response writer does not support streaming"))
		return
	}

	requestID := uuid.NewString()
	s.logger.Info("qa stream started",
		zap.String("request_id", requestID),
		zap.Int64("owner_id", req.OwnerID),
		zap.Int("history_turns", len(req.History)))

	history := make([]qa.ChatTurn, len(req.History))
	for i, turn := range req.History {
		history[i] = qa.ChatTurn{Role: turn.Role, Content: turn.Content}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	chunks := s.svc.StreamAnswer(ctx, qa.Request{
		Question: req.Question,
		History:  history,
		OwnerID:  req.OwnerID,
	})

	count := 0
	for chunk := range chunks {
		if ctx.Err() != nil {
			break
		}
		writeSSEData(w, chunk)
		flusher.Flush()
		count++
	}

	s.logger.Info("qa stream finished",
		zap.String("request_id", requestID),
		zap.Int("chunks", count),
		zap.Bool("client_gone", ctx.Err() != nil))
}

// writeSSEData emits one event; multi-line chunks become multiple data
// lines of the same event per the SSE framing rules.
func writeSSEData(w io.Writer, chunk string) {
	for _, line := range strings.Split(chunk, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed, use %s", allowed))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("api error", zap.Int("status", status), zap.Error(err))
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}
