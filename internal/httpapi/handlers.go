package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/louismark-dev/listen-together/internal/relay"
)

// SessionInfo exposes a session's live membership for ops and tests.
// Sessions are created over the websocket (startSession), never here.
func SessionInfo(h *relay.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		reply := make(chan *relay.Room, 1)
		h.Inbox() <- relay.LookupRoom{Code: code, Reply: reply}
		room := <-reply
		if room == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		infoReply := make(chan relay.Info, 1)
		room.Inbox() <- relay.GetInfo{Reply: infoReply}
		select {
		case info := <-infoReply:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(struct {
				Code          string `json:"code"`
				CoordinatorID string `json:"coordinator_id"`
				NumMembers    int    `json:"num_members"`
			}{Code: info.Code, CoordinatorID: info.CoordinatorID, NumMembers: info.NumMembers})
		case <-time.After(2 * time.Second):
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		}
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
