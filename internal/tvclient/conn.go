// Package tvclient talks to a tvdash server over its websocket and HTTP
// APIs and drives the reconcilers from what it receives.
package tvclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/tvdash/internal/server"
	"github.com/npezzotti/tvdash/internal/types"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second
	// readWait is how long a connection may stay silent. The server pings
	// well within it.
	readWait = 75 * time.Second
)

// Conn is a client websocket session.
type Conn struct {
	ws      *websocket.Conn
	log     *zap.Logger
	writeMu sync.Mutex
	lastId  atomic.Int64
}

// WebsocketURL turns a server base URL such as http://host:3000 into the
// URL of its websocket endpoint.
func WebsocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

func Dial(ctx context.Context, baseURL string, logger *zap.Logger) (*Conn, error) {
	wsURL, err := WebsocketURL(baseURL)
	if err != nil {
		return nil, err
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", wsURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	c := &Conn{ws: ws, log: logger}
	ws.SetPingHandler(func(data string) error {
		ws.SetReadDeadline(time.Now().Add(readWait))
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return ws.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})
	return c, nil
}

// ReadMessage blocks until the next server message arrives.
func (c *Conn) ReadMessage() (*server.ServerMessage, error) {
	c.ws.SetReadDeadline(time.Now().Add(readWait))

	var msg server.ServerMessage
	if err := c.ws.ReadJSON(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Conn) send(msg *server.ClientMessage) (int, error) {
	msg.Id = int(c.lastId.Add(1))
	msg.Timestamp = server.Now()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(msg); err != nil {
		return 0, fmt.Errorf("write message: %w", err)
	}
	return msg.Id, nil
}

// Join asks to receive the commands routed to tvId. It returns the request
// id the server will answer with.
func (c *Conn) Join(tvId int) (int, error) {
	return c.send(&server.ClientMessage{Join: &server.Join{TVId: tvId}})
}

func (c *Conn) Leave(tvId int) (int, error) {
	return c.send(&server.ClientMessage{Leave: &server.Leave{TVId: tvId}})
}

func (c *Conn) Zoom(tvId int, cmd types.ZoomCommand) (int, error) {
	return c.send(&server.ClientMessage{Zoom: &server.Zoom{TVId: tvId, Command: string(cmd)}})
}

// Await reads until the reply to request id arrives. Messages read on the
// way are passed to skipped, which may be nil.
func (c *Conn) Await(ctx context.Context, id int, skipped func(*server.ServerMessage)) (*server.ServerMessage, error) {
	stop := context.AfterFunc(ctx, func() { c.ws.SetReadDeadline(time.Now()) })
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		if msg.Id == id && msg.Response != nil {
			return msg, nil
		}
		if skipped != nil {
			skipped(msg)
		}
	}
}

// Close sends a close frame and closes the connection.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.ws.Close()
}

// ResponseError is a non-200 reply to a request.
type ResponseError struct {
	Code    int
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("server replied %d: %s", e.Code, e.Message)
}

func checkResponse(msg *server.ServerMessage) error {
	if msg.Response == nil || msg.Response.ResponseCode == http.StatusOK {
		return nil
	}
	return &ResponseError{Code: msg.Response.ResponseCode, Message: msg.Response.Error}
}

// SendZoom connects, sends one zoom command and returns how many displays
// received it.
func SendZoom(ctx context.Context, baseURL string, tvId int, cmd types.ZoomCommand, logger *zap.Logger) (int, error) {
	conn, err := Dial(ctx, baseURL, logger)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	id, err := conn.Zoom(tvId, cmd)
	if err != nil {
		return 0, err
	}

	reply, err := conn.Await(ctx, id, nil)
	if err != nil {
		return 0, err
	}
	if err := checkResponse(reply); err != nil {
		return 0, err
	}
	if reply.Event == nil {
		return 0, fmt.Errorf("reply to zoom command carried no outcome")
	}
	return reply.Event.Delivered, nil
}
