package routes

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"bookshop-assistant/internal/agent"
	"bookshop-assistant/internal/telemetry"
)

type ChatRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

type ChatResponse struct {
	Response       string  `json:"response"`
	Timestamp      string  `json:"timestamp"`
	ProcessingTime float64 `json:"processing_time"`
}

const maxChatTextLen = 1000

// ChatHandler answers one user message. Messages are serialized per
// user id so conversation turns never interleave.
func ChatHandler(a *agent.Agent, metrics *telemetry.Metrics) http.HandlerFunc {
	// One mutex per user id, never evicted: the map grows with the
	// total number of sessions served.
	var userLocks sync.Map

	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Text == "" {
			writeError(w, http.StatusBadRequest, "text input cannot be empty")
			return
		}
		if len(req.Text) > maxChatTextLen {
			writeError(w, http.StatusBadRequest, "text input too long")
			return
		}
		userID := req.UserID
		if userID == "" {
			userID = "anonymous"
		}

		lock, _ := userLocks.LoadOrStore(userID, &sync.Mutex{})
		mu := lock.(*sync.Mutex)
		mu.Lock()
		defer mu.Unlock()

		start := time.Now()
		reply, err := a.Respond(r.Context(), userID, req.Text)
		duration := time.Since(start)

		if metrics != nil {
			metrics.ChatDuration.Record(r.Context(), duration.Seconds())
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error occurred while processing chat request")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChatResponse{
			Response:       reply,
			Timestamp:      time.Now().Format(time.RFC3339),
			ProcessingTime: float64(duration.Milliseconds()) / 1000,
		})
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
