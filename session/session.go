// Package session drives one listener's connection to a podcast room: start
// the agent, then open the microphone and join the room concurrently.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

type State string

const (
	StateIdle          State = "idle"
	StateAgentStarting State = "agent_starting"
	StateConnecting    State = "connecting"
	StateConnected     State = "connected"
)

// User-visible alert titles.
const (
	AlertAgentStarted = "Voice agent started"
	AlertAgentStart   = "Failed to start voice agent"
	AlertConnect      = "There was an error connecting to the agent"
	AlertMediaDevices = "Encountered an error with your media devices"
)

var ErrSessionActive = errors.New("session already active")

type Alert struct {
	Title       string
	Description string
}

type AgentStarter interface {
	StartAgent(ctx context.Context, in AgentRequest) error
}

type Options struct {
	Podcast          AgentRequest
	PreConnectBuffer bool
	Alert            func(Alert)
	Logger           *slog.Logger
}

type Controller struct {
	agent      AgentStarter
	room       Room
	creds      *CredentialsCache
	podcast    AgentRequest
	preConnect bool
	alert      func(Alert)
	log        *slog.Logger

	mu         sync.Mutex
	state      State
	started    bool
	generation uint64
}

// New wires the controller to the room's disconnect and device error events.
func New(agent AgentStarter, room Room, creds *CredentialsCache, opts Options) *Controller {
	c := &Controller{
		agent:      agent,
		room:       room,
		creds:      creds,
		podcast:    opts.Podcast,
		preConnect: opts.PreConnectBuffer,
		alert:      opts.Alert,
		log:        opts.Logger,
		state:      StateIdle,
	}
	if c.alert == nil {
		c.alert = func(Alert) {}
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	room.OnDisconnected(c.HandleDisconnected)
	room.OnMediaDevicesError(c.HandleMediaDevicesError)
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Started is the session-started flag that selects the session view.
func (c *Controller) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Start runs one attempt. Failures are alerted and returned; there is no
// retry. Results that arrive after Teardown or a remote disconnect are dropped
// and Start returns nil.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.state = StateAgentStarting
	gen := c.generation
	c.mu.Unlock()

	err := c.agent.StartAgent(ctx, c.podcast)

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		c.log.Debug("discarding agent start result after teardown", "error", err)
		return nil
	}
	if err != nil {
		c.state = StateIdle
		c.started = false
		c.mu.Unlock()
		c.alert(Alert{Title: AlertAgentStart, Description: err.Error()})
		return fmt.Errorf("start agent: %w", err)
	}
	c.started = true
	c.state = StateConnecting
	c.mu.Unlock()
	c.alert(Alert{Title: AlertAgentStarted, Description: "Agent is now ready for conversation!"})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.room.EnableMicrophone(gctx, c.preConnect)
	})
	g.Go(func() error {
		details, err := c.creds.ExistingOrRefresh(gctx)
		if err != nil {
			return fmt.Errorf("connection details: %w", err)
		}
		return c.room.Connect(gctx, details.ServerURL, details.ParticipantToken)
	})
	err = g.Wait()

	c.mu.Lock()
	if c.generation != gen {
		// The room joined after Teardown already ran. Leave it only while no
		// newer attempt owns it.
		if err == nil && c.state == StateIdle {
			if derr := c.room.Disconnect(); derr != nil {
				c.log.Debug("room disconnect after teardown", "error", derr)
			}
		}
		c.mu.Unlock()
		c.log.Debug("discarding connect result after teardown", "error", err)
		return nil
	}
	if err != nil {
		c.state = StateIdle
		c.started = false
		c.mu.Unlock()
		if derr := c.room.Disconnect(); derr != nil {
			c.log.Debug("room disconnect after failed connect", "error", derr)
		}
		c.alert(Alert{Title: AlertConnect, Description: err.Error()})
		return fmt.Errorf("connect: %w", err)
	}
	c.state = StateConnected
	c.mu.Unlock()

	c.log.Info("session connected", "podcast_id", c.podcast.PodcastID)
	return nil
}

// HandleDisconnected resets the session after the room drops. The next Start
// fetches fresh credentials.
func (c *Controller) HandleDisconnected() {
	c.reset()
	c.creds.Invalidate()
	c.log.Info("session disconnected", "podcast_id", c.podcast.PodcastID)
}

// HandleMediaDevicesError alerts without changing state.
func (c *Controller) HandleMediaDevicesError(err error) {
	c.alert(Alert{Title: AlertMediaDevices, Description: err.Error()})
}

// Teardown ends the session when its view goes away. In-flight calls keep
// running but their outcome is ignored.
func (c *Controller) Teardown() {
	c.reset()
	c.creds.Invalidate()
	if err := c.room.Disconnect(); err != nil {
		c.log.Debug("room disconnect on teardown", "error", err)
	}
}

func (c *Controller) reset() {
	c.mu.Lock()
	c.generation++
	c.started = false
	c.state = StateIdle
	c.mu.Unlock()
}
