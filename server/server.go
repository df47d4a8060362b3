// Package server exposes the conversation pipeline over HTTP: a streaming
// NDJSON chat endpoint, a WebSocket variant, and a health probe. Framing is
// the only concern here; all conversation logic lives in the engine.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Gh0stWires/T-800-server/core"
	"github.com/Gh0stWires/T-800-server/engine"
)

// DefaultUserID is used when a chat request carries no user id.
const DefaultUserID = "default_user"

// Server handles HTTP traffic for the conversation engine.
type Server struct {
	engine   *engine.Engine
	upgrader websocket.Upgrader
}

// New creates a Server over an engine.
func New(eng *engine.Engine) *Server {
	return &Server{
		engine: eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Get("/chat/ws", s.handleChatWS)
	return r
}

type chatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
	Agent   struct {
		Name         string `json:"name"`
		SystemPrompt string `json:"systemPrompt"`
	} `json:"agent"`
}

func (req *chatRequest) toConverse() engine.ConverseRequest {
	userID := req.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	return engine.ConverseRequest{
		UserID:               userID,
		Question:             req.Message,
		AgentName:            req.Agent.Name,
		SystemPromptOverride: req.Agent.SystemPrompt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleChat streams conversation events as newline-delimited JSON.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	reqID := uuid.NewString()
	converse := req.toConverse()
	log.Printf("[SERVER] chat request=%s user=%s", reqID, converse.UserID)

	events, errCh := s.engine.Converse(r.Context(), converse)

	// The first event (or terminal error) decides the status code; after
	// that the response is a committed stream.
	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")

	enc := json.NewEncoder(w)
	streamed := false
	for ev := range events {
		if !streamed {
			w.WriteHeader(http.StatusOK)
			streamed = true
		}
		if err := enc.Encode(ev); err != nil {
			log.Printf("[SERVER] chat request=%s write failed: %v", reqID, err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if err := <-errCh; err != nil {
		if !streamed {
			status := http.StatusBadGateway
			if errors.Is(err, core.ErrEmptyInput) {
				status = http.StatusBadRequest
			}
			respondJSON(w, status, map[string]any{"error": err.Error()})
			return
		}
		// Stream already committed: surface the failure as a terminal
		// error event rather than silently truncating.
		enc.Encode(core.StreamEvent{Type: "error", Content: err.Error()})
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// handleChatWS answers one chat request per WebSocket connection, writing
// each event as a JSON message.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var req chatRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(core.StreamEvent{Type: "error", Content: "invalid JSON request"})
		return
	}

	events, errCh := s.engine.Converse(r.Context(), req.toConverse())
	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("[SERVER] ws write failed: %v", err)
			return
		}
	}
	if err := <-errCh; err != nil {
		conn.WriteJSON(core.StreamEvent{Type: "error", Content: err.Error()})
		return
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
