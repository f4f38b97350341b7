package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// fakeConn captures written frames so tests can assert on fan-out.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	f.frames = append(f.frames, buf)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeConn) lastEnvelope(t *testing.T) Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		t.Fatal("no frames written")
	}
	var env Envelope
	if err := json.Unmarshal(f.frames[len(f.frames)-1], &env); err != nil {
		t.Fatalf("failed to unmarshal frame: %v", err)
	}
	return env
}

// startHub runs a hub for the duration of a test.
func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		hub.Wait()
	})
	return hub
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func newTestClient(id string, userID int, username string) (*Client, *fakeConn) {
	conn := &fakeConn{}
	return &Client{
		ID:       id,
		UserID:   userID,
		Username: username,
		Conn:     conn,
	}, conn
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := startHub(t)

	client, _ := newTestClient("c1", 10, "alice")
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 }, "client never registered")

	hub.Unregister(client)
	waitFor(t, func() bool { return hub.ClientCount() == 0 }, "client never unregistered")
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub := startHub(t)

	alice, aliceConn := newTestClient("c1", 10, "alice")
	bob, bobConn := newTestClient("c2", 11, "bob")
	carol, carolConn := newTestClient("c3", 12, "carol")

	for _, c := range []*Client{alice, bob, carol} {
		hub.Register(c)
	}
	waitFor(t, func() bool { return hub.ClientCount() == 3 }, "clients never registered")

	hub.JoinRoom("c1", 1)
	hub.JoinRoom("c2", 1)
	hub.JoinRoom("c3", 2)

	hub.Broadcast(1, Envelope{
		Type:    EventNewMessage,
		Payload: map[string]string{"content": "hello"},
	})

	waitFor(t, func() bool { return aliceConn.frameCount() == 1 }, "alice never received broadcast")
	waitFor(t, func() bool { return bobConn.frameCount() == 1 }, "bob never received broadcast")

	env := aliceConn.lastEnvelope(t)
	if env.Type != EventNewMessage {
		t.Errorf("envelope type = %q, want %q", env.Type, EventNewMessage)
	}

	// Carol is in another room
	if carolConn.frameCount() != 0 {
		t.Errorf("carol received %d frames, want 0", carolConn.frameCount())
	}
}

func TestHub_BroadcastExcept(t *testing.T) {
	hub := startHub(t)

	alice, aliceConn := newTestClient("c1", 10, "alice")
	bob, bobConn := newTestClient("c2", 11, "bob")

	hub.Register(alice)
	hub.Register(bob)
	waitFor(t, func() bool { return hub.ClientCount() == 2 }, "clients never registered")

	hub.JoinRoom("c1", 1)
	hub.JoinRoom("c2", 1)

	hub.BroadcastExcept(1, "c1", Envelope{
		Type:    EventPersonJoined,
		Payload: map[string]int{"roomId": 1},
	})

	waitFor(t, func() bool { return bobConn.frameCount() == 1 }, "bob never received broadcast")
	if aliceConn.frameCount() != 0 {
		t.Errorf("excluded client received %d frames, want 0", aliceConn.frameCount())
	}
}

func TestHub_LeaveRoomStopsDelivery(t *testing.T) {
	hub := startHub(t)

	client, conn := newTestClient("c1", 10, "alice")
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 }, "client never registered")

	hub.JoinRoom("c1", 1)
	if got := hub.RoomClientCount(1); got != 1 {
		t.Errorf("RoomClientCount(1) = %d, want 1", got)
	}

	hub.LeaveRoom("c1")
	if got := hub.RoomClientCount(1); got != 0 {
		t.Errorf("RoomClientCount(1) after leave = %d, want 0", got)
	}

	hub.Broadcast(1, Envelope{Type: EventNewMessage, Payload: "late"})

	// Give the hub loop a moment to process
	time.Sleep(20 * time.Millisecond)
	if conn.frameCount() != 0 {
		t.Errorf("client received %d frames after leaving, want 0", conn.frameCount())
	}
}

func TestHub_JoinRoomMoves(t *testing.T) {
	hub := startHub(t)

	client, _ := newTestClient("c1", 10, "alice")
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 }, "client never registered")

	hub.JoinRoom("c1", 1)
	hub.JoinRoom("c1", 2)

	if got := hub.RoomClientCount(1); got != 0 {
		t.Errorf("RoomClientCount(1) = %d, want 0", got)
	}
	if got := hub.RoomClientCount(2); got != 1 {
		t.Errorf("RoomClientCount(2) = %d, want 1", got)
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client, conn := newTestClient("c1", 10, "alice")
	hub.Register(client)
	waitFor(t, func() bool { return hub.ClientCount() == 1 }, "client never registered")

	cancel()
	hub.Wait()

	conn.mu.Lock()
	closed := conn.closed
	conn.mu.Unlock()
	if !closed {
		t.Error("shutdown did not close the client connection")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() after shutdown = %d, want 0", hub.ClientCount())
	}
}

func TestClient_SendSerializesEnvelope(t *testing.T) {
	client, conn := newTestClient("c1", 10, "alice")

	if err := client.Send(Envelope{
		Type:    EventError,
		Payload: ErrorPayload{Message: "nope"},
	}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	env := conn.lastEnvelope(t)
	if env.Type != EventError {
		t.Errorf("envelope type = %q, want %q", env.Type, EventError)
	}
}
