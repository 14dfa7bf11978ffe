package ui

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sse writes server-sent events on a streaming response.
type sse struct {
	w http.ResponseWriter
	f http.Flusher
}

func newSSE(w http.ResponseWriter) (*sse, bool) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &sse{w: w, f: f}, true
}

func (s *sse) send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, raw); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

type htmlEvent struct {
	HTML string `json:"html"`
}

type doneEvent struct {
	HTML      string `json:"html"`
	Download  string `json:"download,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// errorEvent ends a stream. Retract tells the page to drop the user bubble
// of a turn that was never committed.
type errorEvent struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Retract bool   `json:"retract,omitempty"`
}
