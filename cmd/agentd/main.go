// Command agentd is the local agent control endpoint. It launches the
// conversational agent process when a session starts.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vnkhanh/ai-podcast-backend/agent"
	"github.com/vnkhanh/ai-podcast-backend/config"
	"github.com/vnkhanh/ai-podcast-backend/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg.Log)

	supervisor, err := agent.NewSupervisor(cfg.Agent.Command, cfg.Agent.StopTimeout, logger)
	if err != nil {
		logger.Error("agent supervisor", "error", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: config.SplitList(cfg.CORS.AllowedOrigins),
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))
	agent.RegisterRoutes(r, &agent.Handler{Supervisor: supervisor})

	srv := &http.Server{
		Addr:              cfg.Agent.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Agent control endpoint running", "addr", cfg.Agent.Listen, "command", cfg.Agent.Command)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if err := supervisor.Stop(); err != nil {
		logger.Error("stop agent", "error", err)
	}
	logger.Info("Agent control endpoint stopped")
}
