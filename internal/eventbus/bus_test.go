package eventbus

import (
	"testing"
	"time"
)

func TestPublishFanout(t *testing.T) {
	t.Parallel()
	b := New()
	a, unsubA := b.Subscribe(4)
	c, unsubC := b.Subscribe(4)
	defer unsubA()
	defer unsubC()

	b.Publish(Event{Topic: TopicAdhanTrigger, Data: "x"})

	for _, ch := range []<-chan Event{a, c} {
		select {
		case e := <-ch:
			if e.Topic != TopicAdhanTrigger || e.Data != "x" {
				t.Fatalf("got %+v", e)
			}
			if e.Time.IsZero() {
				t.Fatal("Publish should stamp the time")
			}
		default:
			t.Fatal("subscriber missed the event")
		}
	}
}

func TestPublishKeepsExplicitTime(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	at := time.Date(2026, time.February, 18, 11, 55, 12, 0, time.UTC)
	b.Publish(Event{Topic: TopicScheduleRefreshed, Time: at})
	e := <-ch
	if !e.Time.Equal(at) {
		t.Fatalf("Time = %v, want %v", e.Time, at)
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(Event{Topic: "a"})
	b.Publish(Event{Topic: "b"}) // buffer full, dropped

	if e := <-ch; e.Topic != "a" {
		t.Fatalf("Topic = %s, want a", e.Topic)
	}
	select {
	case e := <-ch:
		t.Fatalf("expected drop, got %+v", e)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(2)
	unsub()
	unsub() // second call is a no-op

	// Channel is closed after unsubscribe.
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	// Publishing after unsubscribe must not panic.
	b.Publish(Event{Topic: "x"})
}

func TestSubscribeDefaultBuffer(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(0)
	defer unsub()
	for i := 0; i < 8; i++ {
		b.Publish(Event{Topic: "t"})
	}
	n := 0
	for {
		select {
		case <-ch:
			n++
			continue
		default:
		}
		break
	}
	if n != 8 {
		t.Fatalf("buffered %d events, want 8", n)
	}
}
