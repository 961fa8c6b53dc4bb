package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

// Subscribers only listen. Inbound frames are read and thrown away so that
// closes and keepalive pongs are noticed.
const (
	writeTimeout = 5 * time.Second
	idleTimeout  = 30 * time.Second
	keepalive    = idleTimeout * 9 / 10
	inboundLimit = 512
	sendBuffer   = 16
)

// Client is one dashboard subscriber
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// Serve subscribes conn to h and blocks until the peer leaves or h stops.
// Call it from a websocket handler.
func Serve(h *Hub, conn *websocket.Conn) {
	c := &Client{hub: h, conn: conn, send: make(chan Message, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.forward()
	c.drain()
}

// drain discards inbound frames until the connection fails, then unsubscribes.
func (c *Client) drain() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(inboundLimit)
	c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// forward is the only writer on conn. A closed send channel means the hub
// dropped this subscriber.
func (c *Client) forward() {
	ping := time.NewTicker(keepalive)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
				return
			}

		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
