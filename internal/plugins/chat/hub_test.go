package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

// newTestClient builds a client with the same send queue the websocket
// handler gives real connections, so replay and drop behavior is exercised
// at the production buffer size.
func newTestClient(h *Hub, username string) *client {
	return &client{
		hub:      h,
		send:     make(chan []byte, sendQueueSize),
		username: username,
	}
}

func receive(t *testing.T, c *client) Message {
	t.Helper()
	select {
	case payload := <-c.send:
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("unmarshaling delivery: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a delivery")
		return Message{}
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	h := startHub(t)

	alice := newTestClient(h, "alice")
	bob := newTestClient(h, "bob")
	h.register <- alice
	h.register <- bob

	h.broadcast <- Message{Username: "alice", Body: "gg"}

	for _, c := range []*client{alice, bob} {
		msg := receive(t, c)
		if msg.Body != "gg" || msg.Username != "alice" {
			t.Errorf("client %s got %+v", c.username, msg)
		}
	}
}

func TestHub_NewcomerGetsHistoryReplay(t *testing.T) {
	h := startHub(t)

	speaker := newTestClient(h, "alice")
	h.register <- speaker
	h.broadcast <- Message{Username: "alice", Body: "first"}
	h.broadcast <- Message{Username: "alice", Body: "second"}
	receive(t, speaker)
	receive(t, speaker)

	late := newTestClient(h, "bob")
	h.register <- late

	if msg := receive(t, late); msg.Body != "first" {
		t.Errorf("expected first replayed line, got %q", msg.Body)
	}
	if msg := receive(t, late); msg.Body != "second" {
		t.Errorf("expected second replayed line, got %q", msg.Body)
	}
}

func TestHub_HistoryCappedAtLimit(t *testing.T) {
	h := startHub(t)

	speaker := newTestClient(h, "alice")
	h.register <- speaker
	total := historyLimit + 25
	for i := 0; i < total; i++ {
		h.broadcast <- Message{Username: "alice", Body: fmt.Sprintf("line %d", i)}
		receive(t, speaker)
	}

	late := newTestClient(h, "bob")
	h.register <- late

	first := receive(t, late)
	if want := fmt.Sprintf("line %d", total-historyLimit); first.Body != want {
		t.Errorf("expected replay to start at %q, got %q", want, first.Body)
	}
	for i := total - historyLimit + 1; i < total; i++ {
		receive(t, late)
	}
	select {
	case extra := <-late.send:
		t.Errorf("unexpected extra replay line: %s", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_FullHistoryReplayFitsProductionQueue(t *testing.T) {
	h := startHub(t)

	speaker := newTestClient(h, "alice")
	h.register <- speaker
	for i := 0; i < historyLimit; i++ {
		h.broadcast <- Message{Username: "alice", Body: fmt.Sprintf("line %d", i)}
		receive(t, speaker)
	}

	// The handler registers before the write pump starts draining, so the
	// whole replay lands in the queue at once. Join without reading.
	late := newTestClient(h, "bob")
	h.register <- late

	for i := 0; i < historyLimit; i++ {
		if msg := receive(t, late); msg.Body != fmt.Sprintf("line %d", i) {
			t.Fatalf("replay line %d: got %q", i, msg.Body)
		}
	}

	// The newcomer must still be a member after absorbing the replay.
	h.broadcast <- Message{Username: "alice", Body: "fresh"}
	if msg := receive(t, late); msg.Body != "fresh" {
		t.Errorf("expected live delivery after replay, got %q", msg.Body)
	}
}

func TestHub_ReplayOverflowDropsNewcomerOnly(t *testing.T) {
	h := startHub(t)

	speaker := newTestClient(h, "alice")
	h.register <- speaker
	for i := 0; i < historyLimit; i++ {
		h.broadcast <- Message{Username: "alice", Body: fmt.Sprintf("line %d", i)}
		receive(t, speaker)
	}

	// A newcomer whose queue cannot hold the replay is dropped mid-replay;
	// the hub must survive that and keep serving the room.
	small := &client{hub: h, send: make(chan []byte, 8)}
	h.register <- small

	select {
	case _, ok := <-small.send:
		if !ok {
			t.Fatal("expected queued replay lines before the close")
		}
	case <-time.After(time.Second):
		t.Fatal("expected the overflowing client's channel to see traffic")
	}
	closed := false
	for !closed {
		select {
		case _, ok := <-small.send:
			closed = !ok
		case <-time.After(time.Second):
			t.Fatal("overflowing client was never dropped")
		}
	}

	h.broadcast <- Message{Username: "alice", Body: "still here"}
	if msg := receive(t, speaker); msg.Body != "still here" {
		t.Errorf("expected the hub to keep serving, got %q", msg.Body)
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	h := startHub(t)

	stalled := &client{hub: h, send: make(chan []byte)} // no reader, no buffer
	healthy := newTestClient(h, "bob")
	h.register <- stalled
	h.register <- healthy

	h.broadcast <- Message{Username: "alice", Body: "one"}
	h.broadcast <- Message{Username: "alice", Body: "two"}

	if msg := receive(t, healthy); msg.Body != "one" {
		t.Errorf("expected healthy client to get %q, got %q", "one", msg.Body)
	}
	if msg := receive(t, healthy); msg.Body != "two" {
		t.Errorf("expected healthy client to get %q, got %q", "two", msg.Body)
	}

	// The stalled client's channel is closed once it is dropped.
	select {
	case _, ok := <-stalled.send:
		if ok {
			t.Error("expected stalled client's channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("stalled client was never dropped")
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	c := newTestClient(h, "alice")
	h.register <- c
	cancel()

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected send channel to be closed on shutdown")
		}
	case <-time.After(time.Second):
		t.Error("shutdown never closed the client channel")
	}
}
