package server

import (
	"testing"

	"github.com/npezzotti/tvdash/internal/registry"
	"github.com/npezzotti/tvdash/internal/stats"
	"github.com/npezzotti/tvdash/internal/testutil"
)

// newTestHub creates a hub that is not running; tests drive its handlers
// directly.
func newTestHub(t *testing.T, reg registry.Repository) *Hub {
	if reg == nil {
		reg = registry.NewMemory()
	}
	return NewHub(testutil.TestLogger(t), reg, stats.Discard{})
}

func newTestClient(t *testing.T, h *Hub, id string) *Client {
	return &Client{
		id:    id,
		hub:   h,
		log:   testutil.TestLogger(t),
		send:  make(chan *ServerMessage, 16),
		rooms: make(map[int]struct{}),
		stop:  make(chan struct{}),
	}
}

func mustRecv(t *testing.T, c *Client) *ServerMessage {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	default:
		t.Fatalf("expected a message to be queued to client %q, but none was", c.id)
		return nil
	}
}

func assertNoMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Errorf("expected no message for client %q, got %+v", c.id, msg)
	default:
	}
}
