// Package websocket fans newly persisted messages out to clients watching a
// conversation. Messages are only ever created over the REST API; sockets
// are read-side delivery, so inbound frames are drained and dropped.
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
	"github.com/NuncEstBibendum/agrolink-api/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	broadcast  chan *domain.Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	userID         uuid.UUID
	conversationID uuid.UUID
}

func NewHub() *Hub {
	hub := &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan *domain.Message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	go hub.run()
	return hub
}

// Publish hands a freshly created message to the hub. Implements
// services.Publisher.
func (h *Hub) Publish(msg *domain.Message) {
	h.broadcast <- msg
}

// Subscribe attaches an upgraded connection to a conversation and starts its
// pumps. Authorization happens before the upgrade, in the handler.
func (h *Hub) Subscribe(conn *websocket.Conn, userID, conversationID uuid.UUID) {
	client := &Client{
		hub:            h,
		conn:           conn,
		send:           make(chan []byte, 16),
		userID:         userID,
		conversationID: conversationID,
	}
	h.register <- client
	go client.writePump()
	go client.readPump()
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.conversationID]; !ok {
				h.clients[client.conversationID] = make(map[*Client]bool)
			}
			h.clients[client.conversationID][client] = true
			h.mu.Unlock()
			logger.Log.Info("websocket client connected",
				zap.String("user_id", client.userID.String()),
				zap.String("conversation_id", client.conversationID.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if clientsInConv, ok := h.clients[client.conversationID]; ok {
				if _, ok := clientsInConv[client]; ok {
					delete(clientsInConv, client)
					close(client.send)
					if len(clientsInConv) == 0 {
						delete(h.clients, client.conversationID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			clientsInConv, ok := h.clients[message.ConversationID]
			if !ok {
				h.mu.RUnlock()
				continue
			}
			payload, err := json.Marshal(map[string]interface{}{
				"id":              message.ID.String(),
				"conversation_id": message.ConversationID.String(),
				"text":            message.Text,
				"hasAnswer":       message.HasAnswer,
				"createdAt":       message.CreatedAt.Format(time.RFC3339),
				"user": map[string]interface{}{
					"id":   message.Author.ID.String(),
					"name": message.Author.Name,
				},
			})
			if err != nil {
				logger.Log.Error("failed to marshal message for broadcast", zap.Error(err))
				h.mu.RUnlock()
				continue
			}
			for client := range clientsInConv {
				select {
				case client.send <- payload:
				default:
					close(client.send)
					delete(clientsInConv, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
