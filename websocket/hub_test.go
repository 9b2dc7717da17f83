package websocket

import (
	"sync"
	"testing"
)

func newTestClient(hub *Hub, userID uint) *Client {
	return &Client{
		Hub:    hub,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
}

func TestHubReconnectReplacesConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := newTestClient(hub, 7)
	hub.Register <- first
	second := newTestClient(hub, 7)
	hub.Register <- second

	// The stale connection's channel is closed so its write pump exits.
	if _, ok := <-first.Send; ok {
		t.Fatal("old connection's send channel should be closed after reconnect")
	}

	if !hub.Deliver(7, []byte(`{"type":"test"}`)) {
		t.Fatal("deliver to reconnected user failed")
	}
	select {
	case payload := <-second.Send:
		if string(payload) != `{"type":"test"}` {
			t.Fatalf("payload = %s", payload)
		}
	default:
		t.Fatal("payload did not reach the new connection")
	}
}

func TestHubDeliverDuringReconnectChurn(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Background jobs deliver notifications while users reconnect; a delivery
	// must never land on a channel that a reconnect just closed.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			client := newTestClient(hub, 42)
			hub.Register <- client
			go func(c *Client) {
				for range c.Send {
				}
			}(client)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			hub.Deliver(42, []byte(`{"type":"sla_breach"}`))
		}
	}()
	wg.Wait()
}

func TestHubDeliverToOfflineUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	if hub.Deliver(99, []byte("x")) {
		t.Fatal("deliver to offline user should report false")
	}
}

func TestHubUnregisterKeepsNewerConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := newTestClient(hub, 3)
	hub.Register <- first
	second := newTestClient(hub, 3)
	hub.Register <- second

	// The write pump of the replaced connection unregisters on its way out;
	// that must not evict the connection that replaced it.
	hub.Unregister <- first

	if !hub.IsUserConnected(3) {
		t.Fatal("stale unregister evicted the live connection")
	}
}
