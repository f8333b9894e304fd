package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/delmic/odemis-sub008/internal/logging"
	"github.com/delmic/odemis-sub008/pkg/domain"
)

// Event is the payload of a server-sent event.
type Event struct {
	Type     domain.EventType `json:"type"`
	Mode     string           `json:"mode"`
	Target   string           `json:"target,omitempty"`
	Previous string           `json:"previous,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[chan string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message")
		}
	}
}

// Hooks returns lifecycle hooks broadcasting path changes to the subscribers.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	publish := func(_ context.Context, e *domain.ApplyEvent) {
		ev := Event{Type: e.Type, Mode: e.Mode, Target: e.Target, Previous: e.Previous}
		if e.Err != nil {
			ev.Error = e.Err.Error()
		}
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		sm.Broadcast(string(data))
	}
	return domain.LifecycleHooks{
		OnApplyStart: publish,
		OnApplyEnd:   publish,
		OnSuperseded: publish,
	}
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
