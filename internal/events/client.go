package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/counselhub/counselhub/internal/session"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// ClientRequest is what a connected participant may ask of the feed:
// subscribe to or unsubscribe from a session's events.
type ClientRequest struct {
	Subscribe   *Subscribe   `json:"subscribe,omitempty"`
	Unsubscribe *Unsubscribe `json:"unsubscribe,omitempty"`
}

type Subscribe struct {
	SessionId string `json:"session_id"`
}

type Unsubscribe struct {
	SessionId string `json:"session_id"`
}

type Client struct {
	conn     *websocket.Conn
	hub      *Hub
	auth     session.Authorizer
	log      *log.Logger
	userId   int
	send     chan *Event
	stop     chan struct{}
	stopOnce sync.Once
}

func NewClient(userId int, conn *websocket.Conn, hub *Hub, auth session.Authorizer, l *log.Logger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		auth:   auth,
		log:    l,
		userId: userId,
		send:   make(chan *Event, 256),
		stop:   make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(ev)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.writeMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.writeMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.hub.deregisterChan <- c
		c.stopClient()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var req ClientRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.log.Println("error parsing client request:", err)
			c.queueEvent(&Event{Type: EventError, Error: "invalid request"})
			continue
		}

		switch {
		case req.Subscribe != nil:
			c.subscribe(req.Subscribe.SessionId)
		case req.Unsubscribe != nil:
			c.hub.unsubscribeChan <- subscription{client: c, sessionId: req.Unsubscribe.SessionId}
		}
	}
}

// subscribe authorizes the client against the session's participant set
// before any event can reach it. Authorization is re-derived here on every
// subscribe, never cached across connections.
func (c *Client) subscribe(sessionId string) {
	if _, err := c.auth.Authorize(context.Background(), sessionId, c.userId); err != nil {
		c.log.Printf("subscribe denied for user %d on session %q: %v", c.userId, sessionId, err)
		c.queueEvent(&Event{Type: EventError, SessionId: sessionId, Error: "forbidden"})
		return
	}

	select {
	case c.hub.subscribeChan <- subscription{client: c, sessionId: sessionId}:
	default:
		c.log.Println("subscribe queue full")
		c.queueEvent(&Event{Type: EventError, SessionId: sessionId, Error: "unavailable"})
	}
}

func (c *Client) queueEvent(ev *Event) bool {
	select {
	case c.send <- ev:
	default:
		c.log.Println("client send buffer full")
		return false
	}

	return true
}

func (c *Client) writeMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}
