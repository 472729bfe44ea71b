package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	ErrNotConnected   = errors.New("room is not connected")
	ErrAlreadyJoined  = errors.New("room is already connected")
	ErrMediaDevice    = errors.New("media device error")
	ErrUnexpectedJoin = errors.New("unexpected first room frame")
)

// Room frame types, mirrored from the server hub.
const (
	frameJoined            = "joined"
	frameParticipantJoined = "participant_joined"
	frameParticipantLeft   = "participant_left"
	frameTrackPublished    = "track_published"
	frameRoomClosed        = "room_closed"
	frameLeave             = "leave"

	SourceMicrophone = "microphone"
)

type frame struct {
	Type             string   `json:"type"`
	Room             string   `json:"room,omitempty"`
	Identity         string   `json:"identity,omitempty"`
	Participants     []string `json:"participants,omitempty"`
	Source           string   `json:"source,omitempty"`
	PreConnectBuffer bool     `json:"pre_connect_buffer,omitempty"`
}

// Room is the real-time connection driven by a Controller.
type Room interface {
	Connect(ctx context.Context, serverURL, token string) error
	EnableMicrophone(ctx context.Context, preConnectBuffer bool) error
	Disconnect() error
	OnDisconnected(fn func())
	OnMediaDevicesError(fn func(error))
}

// WSRoom joins a room on the /rtc signalling socket.
type WSRoom struct {
	Dialer *websocket.Dialer
	// AcquireMicrophone opens the capture device. Nil means no device check.
	AcquireMicrophone func(ctx context.Context) error

	mu           sync.Mutex
	conn         *websocket.Conn
	writeMu      sync.Mutex
	room         string
	identity     string
	remote       map[string]bool
	pendingMic   bool
	micBuffered  bool
	micPublished bool

	onDisconnected func()
	onMediaError   func(error)
}

func NewWSRoom() *WSRoom {
	return &WSRoom{Dialer: websocket.DefaultDialer, remote: make(map[string]bool)}
}

func (r *WSRoom) OnDisconnected(fn func()) {
	r.mu.Lock()
	r.onDisconnected = fn
	r.mu.Unlock()
}

func (r *WSRoom) OnMediaDevicesError(fn func(error)) {
	r.mu.Lock()
	r.onMediaError = fn
	r.mu.Unlock()
}

// Connect dials <serverURL>/rtc and waits for the joined frame. A microphone
// enabled earlier is published once joined.
func (r *WSRoom) Connect(ctx context.Context, serverURL, token string) error {
	r.mu.Lock()
	if r.conn != nil {
		r.mu.Unlock()
		return ErrAlreadyJoined
	}
	r.mu.Unlock()

	endpoint := strings.TrimRight(serverURL, "/") + "/rtc?access_token=" + url.QueryEscape(token)
	conn, resp, err := r.Dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial room (%s): %w", resp.Status, err)
		}
		return fmt.Errorf("dial room: %w", err)
	}

	var joined frame
	if err := conn.ReadJSON(&joined); err != nil {
		conn.Close()
		return fmt.Errorf("read joined frame: %w", err)
	}
	if joined.Type != frameJoined {
		conn.Close()
		return fmt.Errorf("%w: %q", ErrUnexpectedJoin, joined.Type)
	}

	r.mu.Lock()
	if r.conn != nil {
		r.mu.Unlock()
		conn.Close()
		return ErrAlreadyJoined
	}
	r.conn = conn
	r.room = joined.Room
	r.identity = joined.Identity
	r.remote = make(map[string]bool, len(joined.Participants))
	for _, p := range joined.Participants {
		r.remote[p] = true
	}
	flush := r.pendingMic
	buffered := r.micBuffered
	r.pendingMic = false
	r.mu.Unlock()

	go r.readLoop(conn)

	slog.Debug("Joined room", "room", joined.Room, "identity", joined.Identity)
	if flush {
		return r.publishMicrophone(conn, buffered)
	}
	return nil
}

// EnableMicrophone acquires the device and publishes the microphone track.
// Before the connection is up the track is queued; with preConnectBuffer the
// captured audio is marked as buffered for the agent.
func (r *WSRoom) EnableMicrophone(ctx context.Context, preConnectBuffer bool) error {
	if r.AcquireMicrophone != nil {
		if err := r.AcquireMicrophone(ctx); err != nil {
			err = fmt.Errorf("%w: %w", ErrMediaDevice, err)
			r.mu.Lock()
			fn := r.onMediaError
			r.mu.Unlock()
			if fn != nil {
				fn(err)
			}
			return err
		}
	}

	r.mu.Lock()
	conn := r.conn
	if conn == nil {
		r.pendingMic = true
		r.micBuffered = preConnectBuffer
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()
	return r.publishMicrophone(conn, false)
}

func (r *WSRoom) publishMicrophone(conn *websocket.Conn, buffered bool) error {
	if err := r.write(conn, frame{Type: frameTrackPublished, Source: SourceMicrophone, PreConnectBuffer: buffered}); err != nil {
		return fmt.Errorf("publish microphone: %w", err)
	}
	r.mu.Lock()
	r.micPublished = true
	r.mu.Unlock()
	return nil
}

// Disconnect leaves the room. It is a no-op when not connected. A local
// disconnect does not fire the disconnected callback.
func (r *WSRoom) Disconnect() error {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.pendingMic = false
	r.micPublished = false
	r.remote = make(map[string]bool)
	r.mu.Unlock()
	if conn == nil {
		return nil
	}

	err := r.write(conn, frame{Type: frameLeave})
	r.writeMu.Lock()
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	r.writeMu.Unlock()
	if cerr := conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func (r *WSRoom) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

func (r *WSRoom) Identity() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.identity
}

func (r *WSRoom) RoomName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.room
}

func (r *WSRoom) MicrophonePublished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.micPublished
}

// RemoteParticipants lists the other identities in the room.
func (r *WSRoom) RemoteParticipants() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.remote))
	for id := range r.remote {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *WSRoom) write(conn *websocket.Conn, f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop ends on read error or room_closed and then reports the disconnect
// exactly once for conn.
func (r *WSRoom) readLoop(conn *websocket.Conn) {
	defer r.closed(conn)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f frame
		if err := json.Unmarshal(msg, &f); err != nil {
			slog.Debug("Ignoring malformed room frame", "error", err)
			continue
		}
		switch f.Type {
		case frameParticipantJoined:
			r.mu.Lock()
			r.remote[f.Identity] = true
			r.mu.Unlock()
		case frameParticipantLeft:
			r.mu.Lock()
			delete(r.remote, f.Identity)
			r.mu.Unlock()
		case frameRoomClosed:
			return
		}
	}
}

func (r *WSRoom) closed(conn *websocket.Conn) {
	conn.Close()

	r.mu.Lock()
	if r.conn != conn {
		r.mu.Unlock()
		return
	}
	r.conn = nil
	r.remote = make(map[string]bool)
	r.micPublished = false
	fn := r.onDisconnected
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
}
