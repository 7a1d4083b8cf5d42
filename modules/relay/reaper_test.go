package relay

import (
	"context"
	"testing"
	"time"
)

func TestReaper_SweepsStaleEmptyRooms(t *testing.T) {
	s := NewStore(nil)

	s.mu.Lock()
	s.rooms["STALE001"] = &room{
		key:       "STALE001",
		members:   map[string]bool{},
		createdAt: time.Now().Add(-time.Hour),
	}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewReaper(s, 5*time.Millisecond, time.Minute, nil).Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.RoomCount() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("reaper did not remove stale empty room")
}

func TestReaper_RunStopsOnCancel(t *testing.T) {
	s := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewReaper(s, time.Millisecond, time.Minute, nil).Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
