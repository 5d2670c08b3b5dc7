package events

import (
	"testing"
)

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Progress("s1", 42.5)

	for _, ch := range []chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.SessionID != "s1" || ev.Type != TypeProgress || ev.Percent != 42.5 {
				t.Errorf("event = %+v", ev)
			}
			if ev.At.IsZero() {
				t.Error("event timestamp not set")
			}
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// Fill the buffer and keep publishing; Publish must never block.
	for i := 0; i < subscriberBuffer*2; i++ {
		h.Progress("s1", float64(i))
	}

	if got := len(ch); got != subscriberBuffer {
		t.Errorf("buffered events = %d, want %d", got, subscriberBuffer)
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Error("channel must be closed after Unsubscribe")
	}

	// Double unsubscribe is a no-op.
	h.Unsubscribe(ch)

	// Publishing after unsubscribe must not panic.
	h.Done("s1")
}

func TestHub_EventHelpers(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Fallback("s1")
	h.Done("s1")
	h.Failed("s1", "software encode failed")

	want := []struct {
		typ     string
		percent float64
		errMsg  string
	}{
		{TypeFallback, 0, ""},
		{TypeDone, 100, ""},
		{TypeFailed, 0, "software encode failed"},
	}
	for _, w := range want {
		ev := <-ch
		if ev.Type != w.typ || ev.Percent != w.percent || ev.Error != w.errMsg {
			t.Errorf("event = %+v, want %+v", ev, w)
		}
	}
}
