package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/services/lifecycle"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub()
	go h.Run(ctx)
	return h
}

func recv(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("no message")
		return nil
	}
}

// waitConnected polls because registration is handled by the Run goroutine.
func waitConnected(t *testing.T, h *Hub, userID uint, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.Connected(userID) != n {
		if time.Now().After(deadline) {
			t.Fatalf("Connected(%d)=%d, want %d", userID, h.Connected(userID), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHub_SendToUser(t *testing.T) {
	h := startHub(t)
	a := &Client{ID: "a", UserID: 1, Send: make(chan []byte, 4)}
	a2 := &Client{ID: "a2", UserID: 1, Send: make(chan []byte, 4)}
	b := &Client{ID: "b", UserID: 2, Send: make(chan []byte, 4)}
	h.RegisterClient(a)
	h.RegisterClient(a2)
	h.RegisterClient(b)
	waitConnected(t, h, 1, 2)
	waitConnected(t, h, 2, 1)

	h.SendToUser(1, map[string]string{"type": "ping"})
	if got := string(recv(t, a.Send)); got != `{"type":"ping"}` {
		t.Fatalf("a got %s", got)
	}
	recv(t, a2.Send)
	select {
	case msg := <-b.Send:
		t.Fatalf("b should get nothing, got %s", msg)
	default:
	}

	h.UnregisterClient(a)
	if _, ok := <-a.Send; ok {
		t.Fatalf("send channel should be closed after unregister")
	}
	if n := h.Connected(1); n != 1 {
		t.Fatalf("Connected(1)=%d, want 1", n)
	}
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	h := startHub(t)
	c := &Client{ID: "c", UserID: 7, Send: make(chan []byte, 1)}
	h.RegisterClient(c)
	waitConnected(t, h, 7, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.SendRaw(7, []byte("x"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("SendRaw blocked on a full buffer")
	}
}

func TestNotifier_LocalWithoutRedis(t *testing.T) {
	h := startHub(t)
	c := &Client{ID: "c", UserID: 3, Send: make(chan []byte, 1)}
	h.RegisterClient(c)
	waitConnected(t, h, 3, 1)

	n := &Notifier{Hub: h}
	n.Notify(context.Background(), 3, lifecycle.Notification{Type: models.ActionAwarded, ProjectID: 9})

	var got lifecycle.Notification
	if err := json.Unmarshal(recv(t, c.Send), &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != models.ActionAwarded || got.ProjectID != 9 {
		t.Fatalf("got %+v", got)
	}
}

func TestChannel(t *testing.T) {
	if Channel(42) != "notifications:42" {
		t.Fatalf("Channel(42)=%q", Channel(42))
	}
	if uid, ok := userFromChannel("notifications:42"); !ok || uid != 42 {
		t.Fatalf("userFromChannel = %d, %v", uid, ok)
	}
	for _, bad := range []string{"notifications:", "notifications:x", "other:1", "notifications:0"} {
		if _, ok := userFromChannel(bad); ok {
			t.Errorf("userFromChannel(%q) should fail", bad)
		}
	}
}
