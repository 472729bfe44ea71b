package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vnkhanh/ai-podcast-backend/cache"
	"github.com/vnkhanh/ai-podcast-backend/config"
	"github.com/vnkhanh/ai-podcast-backend/controllers"
	"github.com/vnkhanh/ai-podcast-backend/messaging"
	"github.com/vnkhanh/ai-podcast-backend/middleware"
	"github.com/vnkhanh/ai-podcast-backend/routes"
	"github.com/vnkhanh/ai-podcast-backend/services"
	"github.com/vnkhanh/ai-podcast-backend/store"
	"github.com/vnkhanh/ai-podcast-backend/utils"
	"github.com/vnkhanh/ai-podcast-backend/ws"
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

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.ValidateRoom(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []store.Option{
		store.WithLogger(logger),
		store.WithSeeding(cfg.Seed.Enabled),
	}

	var repo store.Repository
	var pinger controllers.Pinger
	switch cfg.Database.Driver {
	case "memory":
		repo = store.NewMemoryRepository()
		logger.Warn("using in-memory podcast repository")
	default:
		db, err := config.InitDB(cfg.Database)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("database handle: %w", err)
		}
		defer sqlDB.Close()
		repo = store.NewGormRepository(db)
		pinger = sqlDB
	}

	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, store.WithCache(cache.NewPodcastCache(rdb, cfg.Redis.TTL)))
		logger.Info("podcast cache enabled", "addr", cfg.Redis.Addr)
	}

	if cfg.NATS.URL != "" {
		broker, err := messaging.NewNATSBroker(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		defer broker.Close()
		opts = append(opts, store.WithBroker(broker))
		logger.Info("podcast events over NATS", "url", cfg.NATS.URL)
	}

	if cfg.Gemini.APIKey != "" {
		categorizer, err := services.NewGeminiCategorizer(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Warn("Gemini categorizer disabled", "error", err)
		} else {
			defer categorizer.Close()
			opts = append(opts, store.WithCategorizer(categorizer))
		}
	}

	podcasts := store.New(repo, opts...)
	if err := podcasts.Start(ctx); err != nil {
		return fmt.Errorf("load podcasts: %w", err)
	}
	defer podcasts.Stop()

	hub := ws.NewHub()
	unsubscribe := podcasts.Subscribe(hub.BroadcastPodcasts)
	defer unsubscribe()

	utils.StartResyncJob(ctx, cfg.Server.ResyncInterval, podcasts.Refresh)

	issuer := utils.NewRoomTokenIssuer(cfg.Room.APIKey, cfg.Room.APISecret, cfg.Room.TokenTTL)

	podcastController := &controllers.PodcastController{Store: podcasts, Rooms: hub}
	if cfg.Storage.Enabled() {
		podcastController.Images = utils.NewSupabaseImageStore(cfg.Storage.URL, cfg.Storage.Key, cfg.Storage.Bucket)
	} else {
		logger.Warn("image storage disabled: SUPABASE_URL or SUPABASE_KEY missing")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     config.SplitList(cfg.CORS.AllowedOrigins),
		AllowMethods:     config.SplitList(cfg.CORS.AllowedMethods),
		AllowHeaders:     config.SplitList(cfg.CORS.AllowedHeaders),
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.CORS.AllowCredentials,
	}))

	r = routes.SetupRouter(r, routes.Deps{
		Podcasts: podcastController,
		Connections: &controllers.ConnectionController{
			Store:     podcasts,
			Issuer:    issuer,
			ServerURL: cfg.Room.ServerURL,
		},
		Health:         &controllers.HealthController{DB: pinger, Store: podcasts, Hub: hub},
		Hub:            hub,
		RoomTokens:     issuer,
		AdminKey:       cfg.AdminKey,
		AllowedOrigins: config.SplitList(cfg.CORS.AllowedOrigins),
	})
	if cfg.AdminKey == "" {
		logger.Warn("ADMIN_KEY not set: podcast edit, upload and delete routes are open")
	}

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Podcast server is running")
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server running", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
