package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/service"
)

// EventsHandler handles SSE event streaming
type EventsHandler struct {
	eventHub *service.EventHub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(eventHub *service.EventHub) *EventsHandler {
	return &EventsHandler{
		eventHub: eventHub,
	}
}

// RegisterRoutes registers the event stream route
func (h *EventsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/service-dates/{date}/events", h.Stream)
}

// Stream handles GET /v1/service-dates/{date}/events
// It streams group changes of one service date to a dashboard.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	serviceDate := r.PathValue("date")
	if !model.ValidServiceDate(serviceDate) {
		WriteError(w, MapServiceError(service.ErrInvalidServiceDate))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, model.NewInternalError("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	subscriberID := uuid.New().String()

	sub := h.eventHub.Subscribe(serviceDate, subscriberID)
	defer h.eventHub.Unsubscribe(serviceDate, subscriberID)

	fmt.Fprintf(w, "event: connected\ndata: {\"subscriber_id\":%q,\"service_date\":%q}\n\n", subscriberID, serviceDate)
	flusher.Flush()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			fmt.Fprint(w, event.Format())
			flusher.Flush()

		case <-sub.Done:
			return

		case <-r.Context().Done():
			return
		}
	}
}
