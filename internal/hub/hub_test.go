package hub

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRegisterUnregister(t *testing.T) {
	h, _ := testHub(t)
	var counts atomic.Int64
	h.onCount = func(n int) { counts.Store(int64(n)) }

	s := NewSession(1, 4, nil)
	h.Register(s)
	eventually(t, "register", func() bool { return counts.Load() == 1 })
	if n := h.ProjectSessions(1); n != 1 {
		t.Fatalf("ProjectSessions(1) = %d, want 1", n)
	}

	h.Unregister(s)
	eventually(t, "unregister", func() bool { return h.SessionCount() == 0 })
	if _, ok := <-s.Send; ok {
		t.Fatal("Send should be closed after unregister")
	}
	eventually(t, "count report", func() bool { return counts.Load() == 0 })

	// A second unregister is a no-op.
	h.Unregister(s)
}

func TestNotifyProjectChangedSkipsOrigin(t *testing.T) {
	h, _ := testHub(t)

	var a, b, other atomic.Int64
	sa := NewSession(1, 4, func() { a.Add(1) })
	sb := NewSession(1, 4, func() { b.Add(1) })
	so := NewSession(2, 4, func() { other.Add(1) })
	for _, s := range []*Session{sa, sb, so} {
		h.Register(s)
	}
	eventually(t, "register", func() bool { return h.SessionCount() == 3 })

	h.NotifyProjectChanged(1, sa.ID)
	eventually(t, "reload", func() bool { return b.Load() == 1 })
	if a.Load() != 0 || other.Load() != 0 {
		t.Fatalf("reloads a=%d other=%d, want 0", a.Load(), other.Load())
	}
}

func TestMove(t *testing.T) {
	h, _ := testHub(t)

	var reloads atomic.Int64
	s := NewSession(1, 4, func() { reloads.Add(1) })
	h.Register(s)
	eventually(t, "register", func() bool { return h.SessionCount() == 1 })
	h.Move(s, 2)
	eventually(t, "move", func() bool { return h.ProjectSessions(2) == 1 })
	if s.ProjectID() != 2 || h.ProjectSessions(1) != 0 {
		t.Fatalf("ProjectID = %d, sessions on 1 = %d", s.ProjectID(), h.ProjectSessions(1))
	}

	h.NotifyProjectChanged(2, "")
	eventually(t, "reload", func() bool { return reloads.Load() == 1 })
}

func TestRunStopClosesSessions(t *testing.T) {
	h, cancel := testHub(t)
	s := NewSession(1, 4, nil)
	h.Register(s)
	eventually(t, "register", func() bool { return h.SessionCount() == 1 })

	cancel()
	<-h.done
	if _, ok := <-s.Send; ok {
		t.Fatal("Send should be closed on shutdown")
	}
	if s.Deliver([]byte("late")) {
		t.Fatal("Deliver should fail on a closed session")
	}
	// Calls after shutdown must not block.
	h.Unregister(s)
	h.Register(NewSession(1, 1, nil))
}

func TestDeliverFullBuffer(t *testing.T) {
	s := NewSession(1, 1, nil)
	if !s.Deliver([]byte("a")) {
		t.Fatal("first Deliver should succeed")
	}
	if s.Deliver([]byte("b")) {
		t.Fatal("Deliver should fail when the buffer is full")
	}
}
