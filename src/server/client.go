package server

import (
	"sync"
	"time"

	"energy-forecast/src/models"
	"energy-forecast/src/pipeline"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // select commands are tiny
	sendBuffer     = 16
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

type Client struct {
	hub    *FastAPIServer
	conn   *websocket.Conn
	send   chan *models.MPushMessage
	runner *pipeline.Runner

	mu        sync.Mutex
	closed    bool
	selection pipeline.Selection
}

// -----------------------------------------------------------------------------

func newClient(hub *FastAPIServer, conn *websocket.Conn) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan *models.MPushMessage, sendBuffer),
	}

	c.runner = pipeline.NewRunner(hub.Forecasts)
	c.runner.OnLoading = func(loading bool) {
		c.push(&models.MPushMessage{Type: models.MessageLoading, Loading: &loading})
	}
	c.runner.OnResult = func(set *models.MForecastSet) {
		c.push(&models.MPushMessage{Type: models.MessageData, Data: set})
	}
	c.runner.OnError = func(sel pipeline.Selection, err error) {
		hub.Logger.Warning("Forecast %s for websocket client failed: %v", sel, err)
		c.push(&models.MPushMessage{Type: models.MessageError, Message: err.Error()})
	}
	return c
}

// -----------------------------------------------------------------------------

// push queues msg without blocking. It reports false when the client is
// gone or its queue is full.
func (c *Client) push(msg *models.MPushMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) setSelection(sel pipeline.Selection) {
	c.mu.Lock()
	c.selection = sel
	c.mu.Unlock()
}

func (c *Client) watches(date, region string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Date == date && c.selection.Region == region
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		c.runner.Stop()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
		c.hub.Logger.Info("Client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
		// Handle the message (select commands)
		c.hub.HandleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Write JSON message
			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Write error: %v", err)
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
