package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

// Conn is a viewer connection. Send and Recv may be used from
// different goroutines.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// WebsocketURL converts an http(s) base URL to the viewer endpoint
func WebsocketURL(baseURL string) string {
	base := strings.TrimSuffix(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

// Dial opens a viewer connection. The server sends a tail init as soon
// as the connection is up.
func Dial(ctx context.Context, baseURL string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, WebsocketURL(baseURL), nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", baseURL, err)
	}
	return &Conn{ws: ws}, nil
}

// Send asks the server for a new mode, filter or window
func (c *Conn) Send(req domain.Request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(constants.DefaultWriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(req)
}

// Recv blocks for the next server message
func (c *Conn) Recv() (domain.ServerMessage, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return domain.ServerMessage{}, err
	}
	return domain.DecodeServerMessage(data)
}

// Close sends a close frame and closes the connection
func (c *Conn) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.ws.Close()
}

// IsClosed reports whether err means the server closed the connection
func IsClosed(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseTryAgainLater)
}
