package chathub

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	// Heartbeat: a ping goes out every pingPeriod and the peer gets
	// pongTimeout to acknowledge it. pongTimeout must stay strictly
	// shorter than pingPeriod, otherwise a healthy connection can be
	// declared dead between two probes.
	pingPeriod  = 30 * time.Second
	pongTimeout = 5 * time.Second
	pongWait    = pingPeriod + pongTimeout

	maxMessageSize = 4096
)

// WebSocketClient implements the Client interface over gorilla/websocket.
// One reader and one writer goroutine per connection; the reader feeds the
// dispatcher, the writer drains the send channel and keeps the heartbeat.
type WebSocketClient struct {
	connID     string
	conn       *websocket.Conn
	dispatcher *Dispatcher

	send chan models.ServerEvent
	done chan struct{}

	mu     sync.Mutex // guards userID and room
	userID uint
	room   string

	closed   atomic.Bool
	teardown sync.Once
}

func NewWebSocketClient(conn *websocket.Conn, d *Dispatcher) *WebSocketClient {
	return &WebSocketClient{
		connID:     uuid.NewString(),
		conn:       conn,
		dispatcher: d,
		send:       make(chan models.ServerEvent, config.SendBufferSize),
		done:       make(chan struct{}),
	}
}

func (c *WebSocketClient) GetConnID() string { return c.connID }

func (c *WebSocketClient) GetUserID() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *WebSocketClient) SetUserID(id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = id
}

func (c *WebSocketClient) GetRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *WebSocketClient) SetRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
}

func (c *WebSocketClient) GetSendChannel() chan<- models.ServerEvent { return c.send }

func (c *WebSocketClient) IsClosed() bool { return c.closed.Load() }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down exactly once: the presence entry and the
// channel membership go first, then the writer is released and the socket
// closed. Later calls are no-ops.
func (c *WebSocketClient) Close() {
	c.teardown.Do(func() {
		c.closed.Store(true)
		c.dispatcher.Disconnect(c)
		close(c.done)
		c.conn.Close()
	})
}

// readPump reads frames, decodes them and hands them to the dispatcher. It
// drives the connection lifecycle: when the read side ends (remote close,
// heartbeat timeout, transport error), teardown runs.
func (c *WebSocketClient) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading from conn %s: %v", c.connID, err)
			}
			break
		}

		var evt models.ClientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Printf("Error decoding frame on conn %s: %v", c.connID, err)
			continue
		}

		c.handleEvent(evt)
	}
}

func (c *WebSocketClient) handleEvent(evt models.ClientEvent) {
	var reason DropReason
	switch evt.Type {
	case models.EventRegister:
		reason = c.dispatcher.Register(c, evt.Token)
	case models.EventJoinRoom:
		reason = c.dispatcher.JoinRoom(c, evt.Token, evt.PeerID)
	case models.EventLeaveRoom:
		reason = c.dispatcher.LeaveRoom(c, evt.Token)
	case models.EventMessage:
		reason = c.dispatcher.Message(evt.Token, evt.PeerID, evt.Content)
	case models.EventTyping:
		reason = c.dispatcher.Typing(evt.Token, evt.PeerID)
	case models.EventOnlineUsers:
		reason = c.dispatcher.OnlineUsers(evt.Token)
	default:
		log.Printf("unknown event type %q on conn %s", evt.Type, c.connID)
		return
	}

	if reason != DropNone {
		// The peer is never told; the drop is only visible here.
		log.Printf("%s event on conn %s dropped: %s", evt.Type, c.connID, reason)
	}
}

// writePump drains the send channel into the socket and keeps the heartbeat
// going. It exits when teardown closes the done channel or a write fails.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case evt := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			data, err := json.Marshal(evt)
			if err != nil {
				log.Printf("Error encoding %s event for conn %s: %v", evt.Type, c.connID, err)
				continue
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(data)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
