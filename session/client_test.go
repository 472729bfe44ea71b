package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentClient_StartAgent(t *testing.T) {
	var got AgentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/agent/start", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL+"/", time.Second)
	require.NoError(t, c.StartAgent(context.Background(), AgentRequest{PodcastID: "4", Title: "Biz", Topics: "markets"}))
	assert.Equal(t, AgentRequest{PodcastID: "4", Title: "Biz", Topics: "markets"}, got)
}

func TestAgentClient_NonSuccessCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewAgentClient(srv.URL, time.Second).StartAgent(context.Background(), AgentRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAgentStart))
	assert.Contains(t, err.Error(), "500 Internal Server Error")
}

func TestAgentClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewAgentClient(url, time.Second).StartAgent(context.Background(), AgentRequest{})
	assert.ErrorIs(t, err, ErrAgentStart)
}

func TestDetailsClient_Fetch(t *testing.T) {
	expires := time.Now().Add(time.Minute).UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/connection-details", r.URL.Path)
		if r.URL.Query().Get("podcast") != "a b" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(ConnectionDetails{
			ServerURL:        "ws://rooms.test",
			RoomName:         "podcast-x",
			ParticipantName:  "listener_1",
			ParticipantToken: "tok",
			ExpiresAt:        expires,
		})
	}))
	defer srv.Close()

	c := NewDetailsClient(srv.URL, time.Second)
	d, err := c.FetchConnectionDetails(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, "tok", d.ParticipantToken)
	assert.True(t, expires.Equal(d.ExpiresAt))

	_, err = c.FetchConnectionDetails(context.Background(), "other")
	assert.ErrorIs(t, err, ErrDetailsRequest)
	assert.Contains(t, err.Error(), "404")
}

func TestDetailsClient_RejectsIncompleteDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"serverUrl":"ws://rooms.test"}`))
	}))
	defer srv.Close()

	_, err := NewDetailsClient(srv.URL, time.Second).FetchConnectionDetails(context.Background(), "1")
	assert.ErrorIs(t, err, ErrInvalidDetails)
}

type countingFetcher struct {
	calls   int
	expires time.Time
	err     error
}

func (f *countingFetcher) FetchConnectionDetails(ctx context.Context, podcastID string) (ConnectionDetails, error) {
	f.calls++
	if f.err != nil {
		return ConnectionDetails{}, f.err
	}
	return ConnectionDetails{ServerURL: "ws://x", ParticipantToken: "t", ExpiresAt: f.expires}, nil
}

func TestCredentialsCache(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f := &countingFetcher{expires: now.Add(10 * time.Minute)}
	c := NewCredentialsCache(f, "1")
	c.now = func() time.Time { return now }

	_, err := c.ExistingOrRefresh(context.Background())
	require.NoError(t, err)
	_, err = c.ExistingOrRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)

	c.Invalidate()
	_, err = c.ExistingOrRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)

	_, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, f.calls)
}

func TestCredentialsCache_RefreshesNearExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f := &countingFetcher{expires: now.Add(RefreshMargin - time.Second)}
	c := NewCredentialsCache(f, "1")
	c.now = func() time.Time { return now }

	c.ExistingOrRefresh(context.Background())
	c.ExistingOrRefresh(context.Background())
	assert.Equal(t, 2, f.calls)
}

func TestCredentialsCache_ErrorsAreNotCached(t *testing.T) {
	f := &countingFetcher{err: errors.New("down")}
	c := NewCredentialsCache(f, "1")

	_, err := c.ExistingOrRefresh(context.Background())
	require.Error(t, err)

	f.err = nil
	f.expires = time.Now().Add(time.Hour)
	_, err = c.ExistingOrRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
}
