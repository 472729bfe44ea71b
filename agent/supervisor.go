// Package agent supervises the external conversational agent process on
// behalf of the local control endpoint.
package agent

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

var ErrNoCommand = errors.New("agent command is empty")

// StartRequest describes the podcast the agent should host. All fields are
// optional.
type StartRequest struct {
	PodcastID string `json:"podcast_id"`
	Title     string `json:"title"`
	Topics    string `json:"topics"`
}

type Status struct {
	Running   bool       `json:"running"`
	PID       int        `json:"pid,omitempty"`
	PodcastID string     `json:"podcast_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	LastExit  string     `json:"last_exit,omitempty"`
}

type Supervisor struct {
	command     []string
	stopTimeout time.Duration
	log         *slog.Logger

	Stdout io.Writer
	Stderr io.Writer

	mu        sync.Mutex
	cmd       *exec.Cmd
	done      chan struct{}
	podcastID string
	startedAt time.Time
	lastExit  string
}

// NewSupervisor splits command on whitespace into the program and its args.
func NewSupervisor(command string, stopTimeout time.Duration, log *slog.Logger) (*Supervisor, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, ErrNoCommand
	}
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		command:     fields,
		stopTimeout: stopTimeout,
		log:         log,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}, nil
}

// Start launches the agent unless one is already running, in which case it
// reports started=false and the current status.
func (s *Supervisor) Start(in StartRequest) (Status, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return s.statusLocked(), false, nil
	}

	cmd := exec.Command(s.command[0], s.command[1:]...)
	cmd.Env = append(os.Environ(),
		"PODCAST_ID="+in.PodcastID,
		"PODCAST_TITLE="+in.Title,
		"PODCAST_TOPICS="+in.Topics,
	)
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	if err := cmd.Start(); err != nil {
		return Status{}, false, fmt.Errorf("start agent %q: %w", s.command[0], err)
	}

	done := make(chan struct{})
	s.cmd = cmd
	s.done = done
	s.podcastID = in.PodcastID
	s.startedAt = time.Now()
	s.log.Info("Agent started", "pid", cmd.Process.Pid, "podcast_id", in.PodcastID)

	go s.wait(cmd, done)
	return s.statusLocked(), true, nil
}

func (s *Supervisor) wait(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()

	s.mu.Lock()
	if s.cmd == cmd {
		s.cmd = nil
		s.done = nil
	}
	result := "exit status 0"
	if err != nil {
		result = err.Error()
	}
	s.lastExit = result
	s.mu.Unlock()
	close(done)

	s.log.Info("Agent exited", "pid", cmd.Process.Pid, "result", result)
}

// Stop interrupts the agent and kills it after the stop timeout. Stopping an
// idle supervisor is a no-op.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	cmd, done := s.cmd, s.done
	s.mu.Unlock()
	if cmd == nil {
		return nil
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		// already gone, or interrupts unsupported on this platform
		cmd.Process.Kill()
	}

	select {
	case <-done:
		return nil
	case <-time.After(s.stopTimeout):
	}

	s.log.Warn("Agent ignored interrupt, killing", "pid", cmd.Process.Pid)
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill agent: %w", err)
	}
	<-done
	return nil
}

func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Supervisor) statusLocked() Status {
	st := Status{LastExit: s.lastExit}
	if s.cmd != nil {
		startedAt := s.startedAt
		st.Running = true
		st.PID = s.cmd.Process.Pid
		st.PodcastID = s.podcastID
		st.StartedAt = &startedAt
	}
	return st
}
