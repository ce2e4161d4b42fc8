package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rps-arena/server/internal/game"
)

// Connection is the Player Connection actor: it owns a websocket, exposes
// game.Participant so the matchmaking controller and a session can talk to
// it, and enforces the liveness ping/idle deadline independent of match
// state.
type Connection struct {
	conn     *websocket.Conn
	identity game.Identity

	controller *game.Controller
	session    atomic.Pointer[game.Session]

	send chan []byte

	pingInterval time.Duration
	idleDeadline time.Duration

	closeOnce sync.Once
}

func NewConnection(conn *websocket.Conn, identity game.Identity, controller *game.Controller, pingInterval, idleDeadline time.Duration) *Connection {
	return &Connection{
		conn:         conn,
		identity:     identity,
		controller:   controller,
		send:         make(chan []byte, 16),
		pingInterval: pingInterval,
		idleDeadline: idleDeadline,
	}
}

func (c *Connection) Identity() game.Identity { return c.identity }

// Deliver is called from the controller's or a session's own goroutine. It
// never blocks on a slow client: a full buffer drops the message rather than
// stalling the session or controller loop.
func (c *Connection) Deliver(e game.Event) {
	data, err := buildOutbound(e)
	if err != nil || data == nil {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] dropping frame for %s, send buffer full", c.identity.ID)
	}
}

// SetSession is called from the controller's goroutine when a match is
// found. It stores the session behind an atomic pointer since readPump and
// teardown read it from the connection's own goroutine.
func (c *Connection) SetSession(s *game.Session) { c.session.Store(s) }

// Run drives the connection until the socket closes. Call it once, from the
// goroutine that accepted the upgrade.
func (c *Connection) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Connection) readPump() {
	defer c.teardown()

	c.conn.SetReadDeadline(time.Now().Add(c.idleDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.idleDeadline))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env inboundEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}

		switch env.Type {
		case "join_queue":
			var p joinQueuePayload
			json.Unmarshal(raw, &p)
			ranked := p.Ranked && !c.identity.IsGuest
			c.controller.Join(c.identity, ranked, c)
		case "leave_queue":
			c.controller.Leave(c.identity.ID)
		case "choice":
			var p choicePayload
			json.Unmarshal(raw, &p)
			if s := c.session.Load(); s != nil {
				s.SubmitChoice(c.identity.ID, p.Choice)
			}
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for %s: %v", c.identity.ID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for %s: %v", c.identity.ID, err)
				return
			}
		}
	}
}

// teardown runs once the read loop exits for any reason: the connection
// always leaves the queue (a no-op if it was never queued or already
// matched), and reports itself as disconnected to its session if it has one.
func (c *Connection) teardown() {
	c.closeOnce.Do(func() {
		c.controller.Leave(c.identity.ID)
		if s := c.session.Load(); s != nil {
			s.Disconnect(c.identity.ID)
		}
		close(c.send)
	})
}
