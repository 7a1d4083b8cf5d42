package broadcast

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// fakeConn records frames written by the hub's writePump.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame := make([]byte, len(data))
	copy(frame, data)
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) frame(i int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[i]
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// waitFor polls cond until it holds or the deadline passes. Delivery runs on
// the client's writer goroutine, so assertions on written frames must wait.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHub_RegisterAndSendTo(t *testing.T) {
	h := NewHub()
	conn := &fakeConn{}
	h.Register(NewClient("c1", conn))

	if got := h.ClientCount(); got != 1 {
		t.Fatalf("ClientCount() = %d, want 1", got)
	}

	h.SendTo("c1", map[string]string{"type": "pong"})
	waitFor(t, func() bool { return conn.frameCount() == 1 })

	var decoded map[string]string
	if err := json.Unmarshal(conn.frame(0), &decoded); err != nil {
		t.Fatalf("frame is not valid JSON: %v", err)
	}
	if decoded["type"] != "pong" {
		t.Errorf("frame type = %q, want pong", decoded["type"])
	}
}

func TestHub_SendToUnknownClient(t *testing.T) {
	h := NewHub()
	// Must not panic or block.
	h.SendTo("nobody", map[string]string{"type": "pong"})
}

func TestHub_BroadcastExcludes(t *testing.T) {
	h := NewHub()
	connA := &fakeConn{}
	connB := &fakeConn{}
	connC := &fakeConn{}
	h.Register(NewClient("a", connA))
	h.Register(NewClient("b", connB))
	h.Register(NewClient("c", connC))

	h.JoinRoom("a", "ROOM0001")
	h.JoinRoom("b", "ROOM0001")
	h.JoinRoom("c", "OTHER002")

	h.Broadcast("ROOM0001", map[string]string{"type": "participant_joined"}, "a")

	waitFor(t, func() bool { return connB.frameCount() == 1 })
	if connA.frameCount() != 0 {
		t.Errorf("excluded client received %d frames, want 0", connA.frameCount())
	}
	if connC.frameCount() != 0 {
		t.Errorf("client in another room received %d frames, want 0", connC.frameCount())
	}
}

func TestHub_BroadcastIncludesAllWithoutExclusion(t *testing.T) {
	h := NewHub()
	connA := &fakeConn{}
	connB := &fakeConn{}
	h.Register(NewClient("a", connA))
	h.Register(NewClient("b", connB))
	h.JoinRoom("a", "ROOM0001")
	h.JoinRoom("b", "ROOM0001")

	h.Broadcast("ROOM0001", map[string]string{"type": "message"}, "")

	waitFor(t, func() bool { return connA.frameCount() == 1 && connB.frameCount() == 1 })
}

func TestHub_JoinRoomSwitchesDeliverySet(t *testing.T) {
	h := NewHub()
	h.Register(NewClient("a", &fakeConn{}))

	h.JoinRoom("a", "ROOM0001")
	if got := h.RoomClientCount("ROOM0001"); got != 1 {
		t.Fatalf("RoomClientCount(ROOM0001) = %d, want 1", got)
	}

	h.JoinRoom("a", "ROOM0002")
	if got := h.RoomClientCount("ROOM0001"); got != 0 {
		t.Errorf("RoomClientCount(ROOM0001) = %d, want 0 after switch", got)
	}
	if got := h.RoomClientCount("ROOM0002"); got != 1 {
		t.Errorf("RoomClientCount(ROOM0002) = %d, want 1", got)
	}
}

func TestHub_Unregister(t *testing.T) {
	h := NewHub()
	conn := &fakeConn{}
	h.Register(NewClient("a", conn))
	h.JoinRoom("a", "ROOM0001")

	h.Unregister("a")

	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}
	if got := h.RoomClientCount("ROOM0001"); got != 0 {
		t.Errorf("RoomClientCount() = %d, want 0", got)
	}
	waitFor(t, conn.isClosed)

	// Second unregister and sends to the gone client are no-ops.
	h.Unregister("a")
	h.SendTo("a", map[string]string{"type": "pong"})
}

func TestHub_OrderPreservedPerClient(t *testing.T) {
	h := NewHub()
	conn := &fakeConn{}
	h.Register(NewClient("a", conn))

	for i := 0; i < 20; i++ {
		h.SendTo("a", map[string]int{"seq": i})
	}
	waitFor(t, func() bool { return conn.frameCount() == 20 })

	for i := 0; i < 20; i++ {
		var decoded map[string]int
		if err := json.Unmarshal(conn.frame(i), &decoded); err != nil {
			t.Fatalf("frame %d not valid JSON: %v", i, err)
		}
		if decoded["seq"] != i {
			t.Fatalf("frame %d seq = %d, want %d", i, decoded["seq"], i)
		}
	}
}

func TestHub_CloseAll(t *testing.T) {
	h := NewHub()
	connA := &fakeConn{}
	connB := &fakeConn{}
	h.Register(NewClient("a", connA))
	h.Register(NewClient("b", connB))
	h.JoinRoom("a", "ROOM0001")

	h.CloseAll()

	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}
	if got := h.RoomClientCount("ROOM0001"); got != 0 {
		t.Errorf("RoomClientCount() = %d, want 0", got)
	}
	waitFor(t, func() bool { return connA.isClosed() && connB.isClosed() })
}
