// Command session joins a podcast room from the terminal: it starts the agent,
// opens the microphone and stays in the room until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vnkhanh/ai-podcast-backend/config"
	"github.com/vnkhanh/ai-podcast-backend/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	podcastID := flag.String("podcast", "", "podcast id to join")
	title := flag.String("title", "", "podcast title passed to the agent")
	topics := flag.String("topics", "", "podcast topics passed to the agent")
	flag.Parse()
	if *podcastID == "" {
		fmt.Fprintln(os.Stderr, "usage: session -podcast <id> [-title t] [-topics t]")
		os.Exit(2)
	}

	os.Exit(run(cfg, session.AgentRequest{PodcastID: *podcastID, Title: *title, Topics: *topics}))
}

// run returns the process exit code once the session has been torn down.
func run(cfg *config.Config, podcast session.AgentRequest) int {
	logger := config.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	details := session.NewDetailsClient(cfg.Session.APIBaseURL, cfg.Session.RequestTimeout)
	room := session.NewWSRoom()
	dropped := make(chan struct{}, 1)

	ctrl := session.New(
		session.NewAgentClient(cfg.Agent.URL, cfg.Agent.StartTimeout),
		room,
		session.NewCredentialsCache(details, podcast.PodcastID),
		session.Options{
			Podcast:          podcast,
			PreConnectBuffer: cfg.Session.PreConnectBuffer,
			Alert: func(a session.Alert) {
				fmt.Fprintf(os.Stderr, "%s: %s\n", a.Title, a.Description)
			},
			Logger: logger,
		},
	)
	defer ctrl.Teardown()

	// the controller resets itself first; this only wakes the wait below
	room.OnDisconnected(func() {
		ctrl.HandleDisconnected()
		select {
		case dropped <- struct{}{}:
		default:
		}
	})

	if err := ctrl.Start(ctx); err != nil {
		return 1
	}
	fmt.Printf("Joined %s as %s. Press Ctrl+C to leave.\n", room.RoomName(), room.Identity())

	select {
	case <-ctx.Done():
	case <-dropped:
		fmt.Println("Disconnected from the room.")
	}
	return 0
}
