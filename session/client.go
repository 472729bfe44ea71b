package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrAgentStart     = errors.New("agent start failed")
	ErrDetailsRequest = errors.New("connection details request failed")
	ErrInvalidDetails = errors.New("invalid connection details")
)

// AgentRequest is the body of POST /api/agent/start. Every field is optional
// for the daemon.
type AgentRequest struct {
	PodcastID string `json:"podcast_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Topics    string `json:"topics,omitempty"`
}

// ConnectionDetails authorises one room connection.
type ConnectionDetails struct {
	ServerURL        string    `json:"serverUrl"`
	RoomName         string    `json:"roomName"`
	ParticipantName  string    `json:"participantName"`
	ParticipantToken string    `json:"participantToken"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// AgentClient talks to the local agent control daemon.
type AgentClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewAgentClient(baseURL string, timeout time.Duration) *AgentClient {
	return &AgentClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// StartAgent asks the daemon to launch the agent. Any non-2xx status is an
// error carrying the status text.
func (a *AgentClient) StartAgent(ctx context.Context, in AgentRequest) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/api/agent/start", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAgentStart, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrAgentStart, statusText(resp))
	}
	return nil
}

// DetailsClient fetches room credentials from the API server.
type DetailsClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewDetailsClient(baseURL string, timeout time.Duration) *DetailsClient {
	return &DetailsClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// FetchConnectionDetails calls GET /api/connection-details?podcast=<id>.
func (d *DetailsClient) FetchConnectionDetails(ctx context.Context, podcastID string) (ConnectionDetails, error) {
	endpoint := d.BaseURL + "/api/connection-details?podcast=" + url.QueryEscape(podcastID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ConnectionDetails{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return ConnectionDetails{}, fmt.Errorf("%w: %w", ErrDetailsRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return ConnectionDetails{}, fmt.Errorf("%w: %s", ErrDetailsRequest, statusText(resp))
	}

	var details ConnectionDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return ConnectionDetails{}, fmt.Errorf("decode connection details: %w", err)
	}
	if details.ServerURL == "" || details.ParticipantToken == "" {
		return ConnectionDetails{}, ErrInvalidDetails
	}
	return details, nil
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
