package pipeline

import (
	"log"
	"sync"
	"time"

	"wastesort/internal/media"
	"wastesort/internal/model"
)

// EventType identifies a presentation event.
type EventType string

const (
	EventModelStatusChanged      EventType = "model_status_changed"
	EventImageChanged            EventType = "image_changed"
	EventClassificationStarted   EventType = "classification_started"
	EventClassificationCompleted EventType = "classification_completed"
	EventClassificationFailed    EventType = "classification_failed"
	EventCameraError             EventType = "camera_error"
)

// Event is a presentation update pushed to subscribers.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ImageInfo describes the current image without carrying its pixels.
type ImageInfo struct {
	ID         string    `json:"id"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Format     string    `json:"format"`
	Source     string    `json:"source"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// NewImageInfo builds the event payload for an image.
func NewImageInfo(img *media.Image) *ImageInfo {
	return &ImageInfo{
		ID:         img.ID,
		Width:      img.Width,
		Height:     img.Height,
		Format:     img.Format,
		Source:     string(img.Source),
		AcquiredAt: img.AcquiredAt,
	}
}

// ModelStatusInfo is the payload of a model status event.
type ModelStatusInfo struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ErrorInfo is the payload of failure events.
type ErrorInfo struct {
	Message string `json:"message"`
}

// ModelStatusEvent builds the event published when the model loader
// changes state.
func ModelStatusEvent(status model.Status, err error) Event {
	info := ModelStatusInfo{Status: string(status)}
	if err != nil {
		info.Error = err.Error()
	}
	return Event{Type: EventModelStatusChanged, Data: info}
}

// Hub fans presentation events out to subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event]struct{})}
}

// Subscribe registers a listener and returns its channel along with an
// unsubscribe function. Unsubscribing more than once is safe.
func (h *Hub) Subscribe() (chan Event, func()) {
	ch := make(chan Event, 32)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish delivers the event to every subscriber, dropping it for
// clients that have fallen behind rather than blocking.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- event:
		default:
			log.Printf("[EVENTS] Dropped %s event for a slow client", event.Type)
		}
	}
}

// ClientCount returns the number of active subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
