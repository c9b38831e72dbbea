package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"energy-forecast/src/models"
	"energy-forecast/src/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

func (s *FastAPIServer) startHub() {
	s.hubOnce.Do(func() {
		go s.handleWebsockets()
	})
}

// handleWebsockets is the main Hub loop
func (s *FastAPIServer) handleWebsockets() {
	for {
		select {
		case <-s.quit:
			s.clientsMu.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				client.close()
			}
			s.clientsMu.Unlock()
			return

		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = struct{}{}
			s.clientsMu.Unlock()

		case client := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.close()
			}
			s.clientsMu.Unlock()

		case set := <-s.broadcast:
			message := &models.MPushMessage{Type: models.MessageData, Data: set}

			s.clientsMu.Lock()
			for client := range s.clients {
				if !client.watches(set.Date, set.Region) {
					continue
				}
				if !client.push(message) {
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					client.close()
				}
			}
			s.clientsMu.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange
// -----------------------------------------------------------------------------

// Broadcast pushes a fresh forecast to every client currently showing the
// same date and region. It never blocks; a full queue drops the update.
func (s *FastAPIServer) Broadcast(set *models.MForecastSet) {
	if set == nil {
		return
	}
	select {
	case s.broadcast <- set:
	case <-s.quit:
	default:
		s.Logger.Warning("Broadcast queue full, dropping update for %s/%s", set.Date, set.Region)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *FastAPIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSelectCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "select" {
		s.Logger.Debug("Ignoring client command %q", cmd.Command)
		return
	}

	sel := pipeline.Selection{
		Date:   strings.TrimSpace(cmd.Date),
		Region: strings.TrimSpace(cmd.Region),
	}
	if sel.Region == "" {
		sel.Region = s.Config.DefaultRegion
	}
	if sel.Date == "" {
		sel.Date = s.today()
	}

	client.setSelection(sel)
	client.runner.Select(s.ctx, sel)
}
