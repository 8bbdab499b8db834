package event

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	broker := NewBroker(16)

	received := make(chan string, 1)
	handler := func(msg string) { received <- msg }

	if err := broker.Subscribe(TopicGalleryDone, handler); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	broker.Publish(TopicGalleryDone, "folder-a")

	select {
	case got := <-received:
		if got != "folder-a" {
			t.Errorf("received %q, want %q", got, "folder-a")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	broker := NewBroker(16)

	first := make(chan int, 1)
	second := make(chan int, 1)

	if err := broker.Subscribe(TopicGalleryProgress, func(n int) { first <- n }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := broker.Subscribe(TopicGalleryProgress, func(n int) { second <- n }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	broker.Publish(TopicGalleryProgress, 7)

	for i, ch := range []chan int{first, second} {
		select {
		case got := <-ch:
			if got != 7 {
				t.Errorf("subscriber %d received %d, want 7", i, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %d was not invoked", i)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	broker := NewBroker(16)

	received := make(chan struct{}, 1)
	handler := func() { received <- struct{}{} }

	if err := broker.Subscribe(TopicDeviceChanged, handler); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := broker.Unsubscribe(TopicDeviceChanged, handler); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	broker.Publish(TopicDeviceChanged)

	select {
	case <-received:
		t.Error("handler invoked after Unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}
