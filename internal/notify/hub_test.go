package notify

import (
	"testing"
	"time"
)

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("user-1")
	defer hub.Unsubscribe("user-1", ch)

	n := &Notification{ID: "n-1", UserID: "user-1", Type: TypeJobUpdate, Message: "hi"}
	hub.Publish(n)

	select {
	case got := <-ch:
		if got.ID != "n-1" {
			t.Errorf("got %q, want n-1", got.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}
}

func TestHub_ScopedToUser(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("user-1")
	defer hub.Unsubscribe("user-1", ch)

	hub.Publish(&Notification{ID: "n-1", UserID: "user-2", Message: "not yours"})

	select {
	case got := <-ch:
		t.Fatalf("received %q for another user", got.ID)
	default:
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("user-1")
	hub.Unsubscribe("user-1", ch)

	hub.Publish(&Notification{ID: "n-1", UserID: "user-1"})

	select {
	case got := <-ch:
		t.Fatalf("received %q after unsubscribe", got.ID)
	default:
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("user-1")
	defer hub.Unsubscribe("user-1", ch)

	// Overflow the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(&Notification{ID: "n", UserID: "user-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
