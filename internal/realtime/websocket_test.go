package realtime

import (
	"net"
	"testing"
	"time"

	fws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func TestServeNotifications_RoundTrip(t *testing.T) {
	h := startHub(t)

	returned := make(chan struct{})
	serve := ServeNotifications(h)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("uid", uint(5))
		return c.Next()
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		serve(c)
		close(returned)
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := fws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	waitConnected(t, h, 5, 1)

	h.SendRaw(5, []byte(`{"type":"project.awarded"}`))
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != `{"type":"project.awarded"}` {
		t.Fatalf("msg=%s", msg)
	}

	_ = conn.Close()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler did not return after the client went away")
	}
	waitConnected(t, h, 5, 0)
}
