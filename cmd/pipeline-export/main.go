package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blockedby/hiring-pipeline/internal/config"
	"github.com/blockedby/hiring-pipeline/internal/dashboard"
	"github.com/blockedby/hiring-pipeline/internal/export"
	"github.com/blockedby/hiring-pipeline/internal/logger"
	"github.com/blockedby/hiring-pipeline/internal/notify"
	"github.com/blockedby/hiring-pipeline/internal/remote"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	job := flag.String("job", "", "job id to export; empty exports every job")
	dir := flag.String("dir", cfg.ExportDir, "output directory")
	server := flag.Bool("server", false, "download the server-rendered document instead of rendering locally")
	flag.Parse()

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := remote.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout(), log)

	var path string
	if *server {
		path, err = downloadExport(ctx, client, *dir, *job)
	} else {
		path, err = renderExport(ctx, client, cfg, *dir, *job, log)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(path)
}

func renderExport(ctx context.Context, client *remote.Client, cfg *config.Config, dir, job string, log *logger.Logger) (string, error) {
	session := dashboard.New(client, notify.NewLogNotifier(log), log, dashboard.Config{
		Origin:     cfg.PublicOrigin,
		MessageTTL: cfg.MessageTTL,
	})
	defer session.Close()

	if err := session.Load(ctx); err != nil {
		return "", fmt.Errorf("load pipeline: %w", err)
	}
	return session.ExportFile(dir, job)
}

func downloadExport(ctx context.Context, client *remote.Client, dir, job string) (string, error) {
	body, err := client.Export(ctx, job)
	if err != nil {
		return "", err
	}
	scope := job
	if scope == "" {
		scope = export.ScopeAll
	}
	return export.WriteFile(dir, scope, time.Now(), string(body))
}
