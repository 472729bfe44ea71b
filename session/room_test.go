package session

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/ai-podcast-backend/middleware"
	"github.com/vnkhanh/ai-podcast-backend/utils"
	"github.com/vnkhanh/ai-podcast-backend/ws"
)

type roomServer struct {
	srv    *httptest.Server
	hub    *ws.Hub
	issuer *utils.RoomTokenIssuer
}

func newRoomServer(t *testing.T) *roomServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub()
	issuer := utils.NewRoomTokenIssuer("devkey", "0123456789abcdef0123456789abcdef", time.Minute)
	r := gin.New()
	r.GET("/rtc", middleware.RoomAuth(issuer), ws.HandleRoomWebSocket(hub, ws.NewUpgrader(nil)))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &roomServer{srv: srv, hub: hub, issuer: issuer}
}

func (rs *roomServer) url() string {
	return "ws" + strings.TrimPrefix(rs.srv.URL, "http")
}

func (rs *roomServer) token(t *testing.T, identity, room string) string {
	t.Helper()
	tok, _, err := rs.issuer.Issue(identity, identity, room)
	require.NoError(t, err)
	return tok
}

// agentPeer joins as a raw socket and reports every frame it receives.
func (rs *roomServer) agentPeer(t *testing.T, room string) <-chan frame {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(rs.url()+"/rtc?access_token="+rs.token(t, "agent", room), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var joined frame
	require.NoError(t, conn.ReadJSON(&joined))

	frames := make(chan frame, 16)
	go func() {
		defer close(frames)
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			frames <- f
		}
	}()
	return frames
}

func waitFrame(t *testing.T, frames <-chan frame, typ string) frame {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case f, ok := <-frames:
			require.True(t, ok, "peer closed before %s", typ)
			if f.Type == typ {
				return f
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestWSRoom_ConnectSeesExistingParticipants(t *testing.T) {
	rs := newRoomServer(t)
	frames := rs.agentPeer(t, "podcast-1")

	room := NewWSRoom()
	require.NoError(t, room.Connect(context.Background(), rs.url(), rs.token(t, "listener_a", "podcast-1")))
	t.Cleanup(func() { room.Disconnect() })

	assert.True(t, room.Connected())
	assert.Equal(t, "listener_a", room.Identity())
	assert.Equal(t, "podcast-1", room.RoomName())
	assert.Equal(t, []string{"agent"}, room.RemoteParticipants())

	f := waitFrame(t, frames, frameParticipantJoined)
	assert.Equal(t, "listener_a", f.Identity)
}

func TestWSRoom_PreConnectMicrophoneIsFlushed(t *testing.T) {
	rs := newRoomServer(t)
	frames := rs.agentPeer(t, "podcast-2")

	room := NewWSRoom()
	require.NoError(t, room.EnableMicrophone(context.Background(), true))
	assert.False(t, room.MicrophonePublished())

	require.NoError(t, room.Connect(context.Background(), rs.url(), rs.token(t, "listener_b", "podcast-2")))
	t.Cleanup(func() { room.Disconnect() })

	f := waitFrame(t, frames, frameTrackPublished)
	assert.Equal(t, "listener_b", f.Identity)
	assert.Equal(t, SourceMicrophone, f.Source)
	assert.True(t, f.PreConnectBuffer)
	assert.True(t, room.MicrophonePublished())
}

func TestWSRoom_MicrophoneAfterConnect(t *testing.T) {
	rs := newRoomServer(t)
	frames := rs.agentPeer(t, "podcast-3")

	room := NewWSRoom()
	require.NoError(t, room.Connect(context.Background(), rs.url(), rs.token(t, "listener_c", "podcast-3")))
	t.Cleanup(func() { room.Disconnect() })
	require.NoError(t, room.EnableMicrophone(context.Background(), true))

	f := waitFrame(t, frames, frameTrackPublished)
	assert.False(t, f.PreConnectBuffer)
}

func TestWSRoom_RoomClosedFiresDisconnected(t *testing.T) {
	rs := newRoomServer(t)

	room := NewWSRoom()
	var disconnected atomic.Int32
	room.OnDisconnected(func() { disconnected.Add(1) })
	require.NoError(t, room.Connect(context.Background(), rs.url(), rs.token(t, "listener_d", "podcast-4")))

	rs.hub.CloseRoom("podcast-4")

	assert.Eventually(t, func() bool { return disconnected.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, room.Connected())
}

func TestWSRoom_LocalDisconnectIsSilent(t *testing.T) {
	rs := newRoomServer(t)
	frames := rs.agentPeer(t, "podcast-5")

	room := NewWSRoom()
	var disconnected atomic.Int32
	room.OnDisconnected(func() { disconnected.Add(1) })
	require.NoError(t, room.Connect(context.Background(), rs.url(), rs.token(t, "listener_e", "podcast-5")))

	require.NoError(t, room.Disconnect())
	assert.False(t, room.Connected())

	f := waitFrame(t, frames, frameParticipantLeft)
	assert.Equal(t, "listener_e", f.Identity)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, disconnected.Load())

	assert.NoError(t, room.Disconnect())
}

func TestWSRoom_BadTokenFails(t *testing.T) {
	rs := newRoomServer(t)

	err := NewWSRoom().Connect(context.Background(), rs.url(), "garbage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestWSRoom_MicrophoneDeviceError(t *testing.T) {
	room := NewWSRoom()
	room.AcquireMicrophone = func(context.Context) error { return errors.New("no input device") }
	var reported error
	room.OnMediaDevicesError(func(err error) { reported = err })

	err := room.EnableMicrophone(context.Background(), true)
	assert.ErrorIs(t, err, ErrMediaDevice)
	assert.ErrorIs(t, reported, ErrMediaDevice)
}

func TestController_OverWSRoom(t *testing.T) {
	rs := newRoomServer(t)
	frames := rs.agentPeer(t, "podcast-6")

	fetcher := &countingFetcher{expires: time.Now().Add(time.Hour)}
	creds := NewCredentialsCache(detailsFunc(func(ctx context.Context, id string) (ConnectionDetails, error) {
		fetcher.calls++
		return ConnectionDetails{
			ServerURL:        rs.url(),
			ParticipantToken: rs.token(t, "listener_f", "podcast-6"),
			ExpiresAt:        fetcher.expires,
		}, nil
	}), "6")

	room := NewWSRoom()
	ctrl := New(&fakeAgent{}, room, creds, Options{PreConnectBuffer: true})

	require.NoError(t, ctrl.Start(context.Background()))
	assert.Equal(t, StateConnected, ctrl.State())
	waitFrame(t, frames, frameTrackPublished)

	rs.hub.CloseRoom("podcast-6")
	assert.Eventually(t, func() bool { return ctrl.State() == StateIdle && !ctrl.Started() }, 2*time.Second, 5*time.Millisecond)

	ctrl.Teardown()
	assert.Equal(t, 1, fetcher.calls)
}

type detailsFunc func(ctx context.Context, podcastID string) (ConnectionDetails, error)

func (f detailsFunc) FetchConnectionDetails(ctx context.Context, podcastID string) (ConnectionDetails, error) {
	return f(ctx, podcastID)
}
