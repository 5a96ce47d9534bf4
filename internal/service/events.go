package service

import (
	"encoding/json"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Service group events
	EventGroupCreated       EventType = "group.created"
	EventGroupDeleted       EventType = "group.deleted"
	EventGroupGuideAssigned EventType = "group.guide_assigned"
	EventGroupRefreshed     EventType = "group.refreshed"

	// System events
	EventHeartbeat EventType = "heartbeat"
)

const (
	subscriberBuffer  = 100
	heartbeatInterval = 30 * time.Second
)

// Event represents a server-sent event
type Event struct {
	Type        EventType   `json:"type"`
	Data        interface{} `json:"data"`
	ServiceDate string      `json:"-"` // Used for routing, not sent to client
}

// Format returns the SSE formatted string
func (e *Event) Format() string {
	data, _ := json.Marshal(e.Data)
	return "event: " + string(e.Type) + "\ndata: " + string(data) + "\n\n"
}

// NewGroupEvent creates an event routed to the dashboards of serviceDate.
func NewGroupEvent(eventType EventType, serviceDate string, data interface{}) *Event {
	return &Event{
		Type:        eventType,
		ServiceDate: serviceDate,
		Data:        data,
	}
}

// Subscriber represents a connected SSE client
type Subscriber struct {
	ID          string
	ServiceDate string
	Events      chan *Event
	Done        chan struct{}
}

// EventHub fans group events out to SSE clients watching a service date.
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*Subscriber // serviceDate -> subscriberID -> subscriber
	heartbeat   *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	hub := &EventHub{
		subscribers: make(map[string]map[string]*Subscriber),
		done:        make(chan struct{}),
	}
	hub.heartbeat = time.NewTicker(heartbeatInterval)
	go hub.sendHeartbeats()
	return hub
}

// Subscribe adds a new subscriber for a service date
func (h *EventHub) Subscribe(serviceDate, subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:          subscriberID,
		ServiceDate: serviceDate,
		Events:      make(chan *Event, subscriberBuffer),
		Done:        make(chan struct{}),
	}

	if h.subscribers[serviceDate] == nil {
		h.subscribers[serviceDate] = make(map[string]*Subscriber)
	}
	h.subscribers[serviceDate][subscriberID] = sub

	return sub
}

// Unsubscribe removes a subscriber
func (h *EventHub) Unsubscribe(serviceDate, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if dateSubs, ok := h.subscribers[serviceDate]; ok {
		if sub, ok := dateSubs[subscriberID]; ok {
			close(sub.Done)
			close(sub.Events)
			delete(dateSubs, subscriberID)
		}
		if len(dateSubs) == 0 {
			delete(h.subscribers, serviceDate)
		}
	}
}

// Publish sends an event to all subscribers of its service date. Slow
// subscribers with a full buffer miss the event.
func (h *EventHub) Publish(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dateSubs, ok := h.subscribers[event.ServiceDate]
	if !ok {
		return
	}

	for _, sub := range dateSubs {
		select {
		case sub.Events <- event:
		default:
		}
	}
}

// sendHeartbeats sends periodic heartbeats to all subscribers
func (h *EventHub) sendHeartbeats() {
	for {
		select {
		case <-h.heartbeat.C:
			h.mu.RLock()
			for serviceDate, dateSubs := range h.subscribers {
				event := &Event{
					Type:        EventHeartbeat,
					ServiceDate: serviceDate,
					Data: map[string]string{
						"timestamp": time.Now().UTC().Format(time.RFC3339),
					},
				}
				for _, sub := range dateSubs {
					select {
					case sub.Events <- event:
					default:
					}
				}
			}
			h.mu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Close stops the event hub and disconnects every subscriber
func (h *EventHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.heartbeat.Stop()

		h.mu.Lock()
		defer h.mu.Unlock()

		for serviceDate, dateSubs := range h.subscribers {
			for _, sub := range dateSubs {
				close(sub.Done)
				close(sub.Events)
			}
			delete(h.subscribers, serviceDate)
		}
	})
}

// SubscriberCount returns the number of subscribers for a service date
func (h *EventHub) SubscriberCount(serviceDate string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[serviceDate])
}
