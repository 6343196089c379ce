package updates

import "testing"

func TestHubDeliversToRightUser(t *testing.T) {
	hub := NewHub()

	chA, cancelA := hub.Subscribe("user-a")
	defer cancelA()
	chB, cancelB := hub.Subscribe("user-b")
	defer cancelB()

	hub.Publish("user-a", "hello a")

	select {
	case got := <-chA:
		if got != "hello a" {
			t.Fatalf("unexpected update: %q", got)
		}
	default:
		t.Fatal("user-a should have received the update")
	}

	select {
	case got := <-chB:
		t.Fatalf("user-b must not receive user-a updates, got %q", got)
	default:
	}
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe("user-a")
	defer cancel1()
	ch2, cancel2 := hub.Subscribe("user-a")
	defer cancel2()

	hub.Publish("user-a", "note")

	for i, ch := range []<-chan string{ch1, ch2} {
		select {
		case got := <-ch:
			if got != "note" {
				t.Fatalf("subscriber %d got %q", i, got)
			}
		default:
			t.Fatalf("subscriber %d missed the update", i)
		}
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("user-a")
	cancel()
	cancel() // idempotent

	hub.Publish("user-a", "late")

	select {
	case got := <-ch:
		t.Fatalf("cancelled subscriber received %q", got)
	default:
	}
}

func TestHubDropsForFullBuffers(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("user-a")
	defer cancel()

	for i := 0; i <= subscriberBufferSize; i++ {
		hub.Publish("user-a", "burst")
	}

	// Publish must not block even though the buffer overflowed.
	if len(ch) != subscriberBufferSize {
		t.Fatalf("expected full buffer of %d, got %d", subscriberBufferSize, len(ch))
	}
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	hub.Publish("nobody", "into the void") // must not panic
}
