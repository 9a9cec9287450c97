package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/blockedby/hiring-pipeline/internal/api"
	"github.com/blockedby/hiring-pipeline/internal/config"
	"github.com/blockedby/hiring-pipeline/internal/database"
	"github.com/blockedby/hiring-pipeline/internal/hiring"
	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/migrator"
	"github.com/blockedby/hiring-pipeline/internal/nats"
	"github.com/blockedby/hiring-pipeline/internal/publisher"
	"github.com/blockedby/hiring-pipeline/internal/repository"
	"github.com/blockedby/hiring-pipeline/internal/seed"
	"github.com/blockedby/hiring-pipeline/internal/web"
	"github.com/blockedby/hiring-pipeline/migrations"
)

const (
	apiTitle       = "Hiring Pipeline API"
	apiDescription = "Jobs, applications and interviews of the hiring pipeline"
	version        = "dev"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting pipeline api")

	// 3. Setup context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 4. Connect to database and apply the schema
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if db.Driver == database.DriverPostgres {
		m, err := migrator.NewWithFS(migrations.FS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load migrations")
		}
		if err := m.Up(ctx, cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	} else if err := repository.AutoMigrate(db.GORM); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate sqlite schema")
	}

	// 5. Seed fixtures
	if cfg.SeedFile != "" {
		fixtures, err := seed.Load(cfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load seed file")
		}
		if err := fixtures.Apply(ctx, db.GORM, log); err != nil {
			log.Fatal().Err(err).Msg("failed to apply seed file")
		}
	}

	// 6. WebSocket hub
	hub := web.NewHub()
	go hub.Run()
	defer hub.Stop()

	// 7. Connect to NATS. With NATS up, dashboards are fed from the stream;
	// without it the service broadcasts to the hub directly.
	var (
		events      publisher.EventPublisher = publisher.Nop{}
		broadcaster hiring.Broadcaster       = hub
	)
	nc, err := nats.New(ctx, cfg.NatsURL, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to nats, publishing disabled")
	} else {
		defer nc.Close()
		if err := nc.EnsurePipelineStream(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure pipeline stream")
		}
		relay, err := nc.Subscribe(ctx, "pipeline-ws-relay", nats.SubjectAll, web.RelayHandler(hub))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe websocket relay")
		}
		defer relay.Stop()

		events = publisher.NewNATSPublisher(nc)
		broadcaster = nil
	}

	// 8. Backend service and API
	svc := hiring.New(db.GORM, events, broadcaster, log, hiring.Config{
		MeetingBaseURL: cfg.MeetingBaseURL,
	})

	apiServer := api.NewServer(&api.Config{
		Port:         cfg.HTTPPort,
		Title:        apiTitle,
		Description:  apiDescription,
		Version:      version,
		PublicOrigin: cfg.PublicOrigin,
	}, &api.Dependencies{
		Backend: svc,
		Stats:   svc,
		Logger:  log,
	})

	// 9. HTTP server
	server := web.NewServer(&web.Config{
		Port:           cfg.HTTPPort,
		AllowedOrigins: strings.Split(cfg.PublicOrigin, ","),
		Version:        version,
	}, hub)
	server.Mount("/api", apiServer.Mux())
	apiServer.MountDocsOn(server.Router(), apiTitle, apiDescription)

	log.Info().Int("port", cfg.HTTPPort).Msg("starting http server")
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	// 10. Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}

	log.Info().Msg("shutdown complete")
}
