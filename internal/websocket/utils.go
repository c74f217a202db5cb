package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	readWait   = 5 * time.Minute
	maxMessage = 64 << 10
)

// Conn serialises writes so engine events and replies can share one
// gorilla connection, which allows a single concurrent writer.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// Wrap prepares a freshly upgraded connection.
func Wrap(ws *websocket.Conn) *Conn {
	ws.SetReadLimit(maxMessage)
	return &Conn{ws: ws}
}

// Write sends one response.
func (c *Conn) Write(resp Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(resp)
}

// WriteEvent sends data tagged with ev.
func (c *Conn) WriteEvent(ev Event, data interface{}) error {
	return c.Write(Response{Event: ev, Data: data})
}

// WriteError sends an error event.
func (c *Conn) WriteError(code, msg string) error {
	return c.Write(Response{Event: EventError, Code: code, Error: msg})
}

// Read decodes the next client message with a read deadline.
func (c *Conn) Read(v interface{}) error {
	_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
	return c.ws.ReadJSON(v)
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}
