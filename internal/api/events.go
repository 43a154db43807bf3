package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"wastesort/internal/metrics"
	"wastesort/internal/pipeline"
)

// EventsHandler streams pipeline events over SSE. On connect the
// client first receives the current model status so it cannot miss a
// ready transition that happened before it subscribed.
func (app *App) EventsHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	events, unsubscribe := app.Hub.Subscribe()
	defer unsubscribe()

	metrics.EventSubscribers.Inc()
	defer metrics.EventSubscribers.Dec()

	snap := app.Pipeline.Snapshot()
	writeEvent(w, pipeline.Event{
		Type: pipeline.EventModelStatusChanged,
		Data: pipeline.ModelStatusInfo{Status: string(snap.ModelStatus), Error: snap.ModelError},
	})
	flusher.Flush()

	clientGone := r.Context().Done()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, event)
			flusher.Flush()

		case <-clientGone:
			return
		}
	}
}

func writeEvent(w io.Writer, event pipeline.Event) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		log.Printf("[API] Failed to marshal %s event: %v", event.Type, err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
}
