package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StreamNotifications handles GET /api/v1/notifications/stream.
// It streams the user's notifications as server-sent events until the
// client disconnects.
func (h *Handler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	userID := UserID(r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.notifs.Subscribe(userID)
	defer h.notifs.Unsubscribe(userID, ch)

	for {
		select {
		case n, open := <-ch:
			if !open {
				return
			}
			writeSSEEvent(w, flusher, "notification", n)
		case <-r.Context().Done():
			return
		}
	}
}

// writeSSEEvent serialises data as JSON and writes a single SSE event frame.
func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
