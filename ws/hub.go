package ws

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vnkhanh/ai-podcast-backend/models"
)

// Frame types exchanged on the room socket.
const (
	FrameJoined            = "joined"
	FrameParticipantJoined = "participant_joined"
	FrameParticipantLeft   = "participant_left"
	FrameTrackPublished    = "track_published"
	FrameRoomClosed        = "room_closed"
	FrameLeave             = "leave"
	FramePodcasts          = "podcasts"
)

// Frame is the JSON envelope of every room message.
type Frame struct {
	Type             string   `json:"type"`
	Room             string   `json:"room,omitempty"`
	Identity         string   `json:"identity,omitempty"`
	Participants     []string `json:"participants,omitempty"`
	Source           string   `json:"source,omitempty"`
	PreConnectBuffer bool     `json:"pre_connect_buffer,omitempty"`
}

// FeedMessage is pushed to /ws/podcasts clients.
type FeedMessage struct {
	Type     string           `json:"type"`
	Podcasts []models.Podcast `json:"podcasts"`
}

type Client struct {
	Conn     *websocket.Conn
	Send     chan []byte
	Identity string
	Room     string
}

type Hub struct {
	Rooms       map[string]map[*websocket.Conn]*Client // by room name
	FeedClients map[*websocket.Conn]*Client
	Mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Rooms:       make(map[string]map[*websocket.Conn]*Client),
		FeedClients: make(map[*websocket.Conn]*Client),
	}
}

// Join adds conn to room as identity, tells it who is already there and
// announces it to the others. It starts the connection's pumps.
func (h *Hub) Join(room, identity string, conn *websocket.Conn) *Client {
	client := &Client{
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Identity: identity,
		Room:     room,
	}

	h.Mutex.Lock()
	if _, ok := h.Rooms[room]; !ok {
		h.Rooms[room] = make(map[*websocket.Conn]*Client)
	}
	others := make([]string, 0, len(h.Rooms[room]))
	for _, c := range h.Rooms[room] {
		others = append(others, c.Identity)
	}
	sort.Strings(others)
	// queued before the client is visible so it is always the first frame
	client.enqueue(Frame{Type: FrameJoined, Room: room, Identity: identity, Participants: others})
	h.Rooms[room][conn] = client
	h.Mutex.Unlock()

	h.broadcastRoom(room, conn, Frame{Type: FrameParticipantJoined, Room: room, Identity: identity})

	go h.readRoomPump(client)
	go writePump(client)

	slog.Info("Participant joined room", "room", room, "identity", identity)
	return client
}

// Leave removes conn from its room and announces the departure.
func (h *Hub) Leave(room string, conn *websocket.Conn) {
	h.Mutex.Lock()
	clients, ok := h.Rooms[room]
	if !ok {
		h.Mutex.Unlock()
		return
	}
	client, ok := clients[conn]
	if !ok {
		h.Mutex.Unlock()
		return
	}
	close(client.Send)
	delete(clients, conn)
	if len(clients) == 0 {
		delete(h.Rooms, room)
	}
	h.Mutex.Unlock()

	h.broadcastRoom(room, conn, Frame{Type: FrameParticipantLeft, Room: room, Identity: client.Identity})
	slog.Info("Participant left room", "room", room, "identity", client.Identity)
}

// CloseRoom sends room_closed to every participant and drops the room.
func (h *Hub) CloseRoom(room string) {
	data, _ := json.Marshal(Frame{Type: FrameRoomClosed, Room: room})

	h.Mutex.Lock()
	clients := h.Rooms[room]
	delete(h.Rooms, room)
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
		close(c.Send)
	}
	h.Mutex.Unlock()

	if len(clients) > 0 {
		slog.Info("Room closed", "room", room, "participants", len(clients))
	}
}

// Participants lists the identities currently in room.
func (h *Hub) Participants(room string) []string {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	out := make([]string, 0, len(h.Rooms[room]))
	for _, c := range h.Rooms[room] {
		out = append(out, c.Identity)
	}
	sort.Strings(out)
	return out
}

func (h *Hub) broadcastRoom(room string, except *websocket.Conn, f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		slog.Error("JSON marshal error", "error", err)
		return
	}

	h.Mutex.RLock()
	defer h.Mutex.RUnlock()
	for conn, client := range h.Rooms[room] {
		if conn == except {
			continue
		}
		select {
		case client.Send <- data:
		default:
		}
	}
}

// RegisterFeed subscribes conn to collection snapshots. initial is sent first.
func (h *Hub) RegisterFeed(conn *websocket.Conn, initial []models.Podcast) {
	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 16),
	}
	if data, err := json.Marshal(FeedMessage{Type: FramePodcasts, Podcasts: initial}); err == nil {
		client.Send <- data
	}

	h.Mutex.Lock()
	h.FeedClients[conn] = client
	h.Mutex.Unlock()

	go h.readFeedPump(client)
	go writePump(client)
}

func (h *Hub) UnregisterFeed(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if client, ok := h.FeedClients[conn]; ok {
		close(client.Send)
		delete(h.FeedClients, conn)
	}
}

// BroadcastPodcasts pushes a snapshot to every feed client. Slow clients miss
// the update rather than block the store.
func (h *Hub) BroadcastPodcasts(podcasts []models.Podcast) {
	data, err := json.Marshal(FeedMessage{Type: FramePodcasts, Podcasts: podcasts})
	if err != nil {
		slog.Error("JSON marshal error", "error", err)
		return
	}

	h.Mutex.RLock()
	defer h.Mutex.RUnlock()
	for _, client := range h.FeedClients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (h *Hub) GetStats() map[string]int {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	participants := 0
	for _, clients := range h.Rooms {
		participants += len(clients)
	}
	return map[string]int{
		"rooms":        len(h.Rooms),
		"participants": participants,
		"feed_clients": len(h.FeedClients),
	}
}

func (c *Client) enqueue(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		slog.Error("JSON marshal error", "error", err)
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// readRoomPump relays published tracks and handles leave. Any read error is
// treated as leaving.
func (h *Hub) readRoomPump(c *Client) {
	defer h.Leave(c.Room, c.Conn)
	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil {
			slog.Warn("Ignoring malformed room frame", "room", c.Room, "identity", c.Identity, "error", err)
			continue
		}
		switch f.Type {
		case FrameLeave:
			return
		case FrameTrackPublished:
			h.broadcastRoom(c.Room, c.Conn, Frame{
				Type:             FrameTrackPublished,
				Room:             c.Room,
				Identity:         c.Identity,
				Source:           f.Source,
				PreConnectBuffer: f.PreConnectBuffer,
			})
		}
	}
}

func (h *Hub) readFeedPump(c *Client) {
	defer h.UnregisterFeed(c.Conn)
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(c *Client) {
	defer func() {
		c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
		c.Conn.Close()
	}()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}
