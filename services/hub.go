package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"turtlesoup/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Hub maps room ids to the set of live realtime channels subscribed to them.
// A channel belongs to at most one room; subscribing to a new room leaves the
// old one first. The hub is owned by the composition root and injected into
// whatever needs to fan out room updates.
type Hub struct {
	mu       sync.Mutex
	rooms    map[string]map[*Client]bool
	byClient map[*Client]string
}

type Client struct {
	hub    *Hub
	id     string
	socket *websocket.Conn
	send   chan []byte
}

// InboundMessage is what clients send over the channel. Unrecognized types
// are logged and dropped at this boundary.
type InboundMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
}

// RoomUpdateEvent carries the full updated room snapshot; receivers replace
// their local view wholesale instead of patching it.
type RoomUpdateEvent struct {
	Type     string                  `json:"type"`
	Action   models.RoomUpdateAction `json:"action"`
	PlayerID string                  `json:"playerId,omitempty"`
	Room     *models.Room            `json:"room"`
}

func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Client]bool),
		byClient: make(map[*Client]string),
	}
}

// RegisterClient wraps an upgraded connection and starts its pumps. The
// client is not in any room until it sends a joinRoom message.
func (h *Hub) RegisterClient(conn *websocket.Conn) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, sendBuffer),
	}
	go client.writePump()
	go client.readPump()
	return client
}

// Subscribe adds the client to a room's channel set, leaving its previous
// room if it had one.
func (h *Hub) Subscribe(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.detachLocked(client)
	set, ok := h.rooms[roomID]
	if !ok {
		set = make(map[*Client]bool)
		h.rooms[roomID] = set
	}
	set[client] = true
	h.byClient[client] = roomID
	log.Printf("Channel %s subscribed to room %s (%d channels)", client.id, roomID, len(set))
}

// Unsubscribe removes the client from whatever room it belongs to. Called for
// explicit leaveRoom messages and for connection teardown; dropping a
// connection only detaches the channel, it never removes the player from the
// room roster.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(client)
}

// BroadcastRoomUpdate serializes the event once and delivers it to every live
// channel in the room. Delivery is best effort: a channel that cannot accept
// the message is dropped without affecting the others, and a room with no
// subscribers is a no-op.
func (h *Hub) BroadcastRoomUpdate(roomID string, action models.RoomUpdateAction, playerID string, room *models.Room) {
	event := RoomUpdateEvent{
		Type:     "roomUpdate",
		Action:   action,
		PlayerID: playerID,
		Room:     room,
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling room update: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for client := range set {
		select {
		case client.send <- data:
		default:
			log.Printf("Channel %s send buffer full, dropping it from room %s", client.id, roomID)
			h.detachLocked(client)
			client.close()
		}
	}
}

// SubscriberCount reports how many channels are attached to a room.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

// RoomOf returns the room a client is currently subscribed to, if any.
func (h *Hub) RoomOf(client *Client) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	roomID, ok := h.byClient[client]
	return roomID, ok
}

func (h *Hub) detachLocked(client *Client) {
	roomID, ok := h.byClient[client]
	if !ok {
		return
	}
	delete(h.byClient, client)
	set := h.rooms[roomID]
	delete(set, client)
	if len(set) == 0 {
		delete(h.rooms, roomID)
	}
}

// close tears down the transport; both pumps exit on their next socket
// operation. The send channel is never closed, so a message racing the drop
// sits in the buffer (or is discarded by the sender's default case) instead
// of hitting a closed channel.
func (c *Client) close() {
	if c.socket != nil {
		c.socket.Close()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unsubscribe(c)
		c.socket.Close()
	}()

	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg InboundMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling channel message: %v", err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg InboundMessage) {
	switch msg.Type {
	case "joinRoom":
		if msg.RoomID == "" {
			log.Printf("Channel %s sent joinRoom without roomId", c.id)
			return
		}
		c.hub.Subscribe(c, msg.RoomID)

	case "leaveRoom":
		c.hub.Unsubscribe(c)

	case "ping":
		data, _ := json.Marshal(InboundMessage{Type: "pong"})
		select {
		case c.send <- data:
		default:
		}

	default:
		log.Printf("Unknown message type %q from channel %s", msg.Type, c.id)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
