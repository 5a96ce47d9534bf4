package service

import (
	"strings"
	"testing"
	"time"
)

func TestEventHub_PublishRoutesByServiceDate(t *testing.T) {
	t.Parallel()
	hub := NewEventHub()
	defer hub.Close()

	june1 := hub.Subscribe("2025-06-01", "a")
	june2 := hub.Subscribe("2025-06-02", "b")

	hub.Publish(NewGroupEvent(EventGroupCreated, "2025-06-01", map[string]string{"id": "g1"}))

	select {
	case ev := <-june1.Events:
		if ev.Type != EventGroupCreated {
			t.Errorf("expected %s, got %s", EventGroupCreated, ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	select {
	case ev := <-june2.Events:
		t.Errorf("subscriber of another date received %v", ev)
	default:
	}
}

func TestEventHub_Unsubscribe(t *testing.T) {
	t.Parallel()
	hub := NewEventHub()
	defer hub.Close()

	sub := hub.Subscribe("2025-06-01", "a")
	if hub.SubscriberCount("2025-06-01") != 1 {
		t.Fatal("expected 1 subscriber")
	}

	hub.Unsubscribe("2025-06-01", "a")
	if hub.SubscriberCount("2025-06-01") != 0 {
		t.Error("expected 0 subscribers")
	}
	if _, open := <-sub.Done; open {
		t.Error("Done should be closed")
	}

	// Publishing after unsubscribe must not panic.
	hub.Publish(NewGroupEvent(EventGroupDeleted, "2025-06-01", nil))
}

func TestEventHub_CloseIsIdempotent(t *testing.T) {
	t.Parallel()
	hub := NewEventHub()
	sub := hub.Subscribe("2025-06-01", "a")

	hub.Close()
	hub.Close()

	if _, open := <-sub.Events; open {
		t.Error("Events should be closed")
	}
}

func TestEvent_Format(t *testing.T) {
	t.Parallel()
	ev := NewGroupEvent(EventGroupGuideAssigned, "2025-06-01", map[string]string{"group_id": "g1"})

	got := ev.Format()
	want := "event: group.guide_assigned\ndata: {\"group_id\":\"g1\"}\n\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if strings.Contains(got, "2025-06-01") {
		t.Error("service date is routing only and should not be serialized")
	}
}
