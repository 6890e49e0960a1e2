package server

import (
	"fmt"
	"net/http"
	"strings"
)

// --- Chat handlers ---

// handleChatSend handles POST /api/chat. The reply is produced asynchronously
// by the session worker; the response carries the accepted user message and
// the session state for the UI to poll against.
func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	msg, err := s.app.ChatService.Send(r.Context(), userID, req.Message)
	if err != nil {
		WriteError(w, http.StatusTooManyRequests, fmt.Sprintf("Chat error: %v", err))
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": msg,
		"state":   s.app.ChatService.State(r.Context(), userID),
	})
}

// handleChatHistory handles GET /api/chat/history.
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": s.app.ChatService.History(r.Context(), userID),
		"state":    s.app.ChatService.State(r.Context(), userID),
	})
}
