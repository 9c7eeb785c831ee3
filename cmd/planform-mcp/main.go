package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/claude/planform/internal/config"
	"github.com/claude/planform/internal/mcp"
	"github.com/claude/planform/internal/storage"
	"github.com/claude/planform/internal/upstream"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	upstreamURL := flag.String("upstream", "", "workout backend base URL (overrides config)")
	remoteURL := flag.String("server", "", "planform server URL; when set, tools call its JSON API instead of the backend")
	flag.Parse()

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	if *remoteURL != "" {
		ds = mcp.NewHTTPClient(*remoteURL)
		log.Info("planform-mcp starting", "version", Version, "server", *remoteURL)
	} else {
		if *upstreamURL != "" {
			os.Setenv("PLANFORM_UPSTREAM_URL", *upstreamURL)
		}
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}

		ucfg := upstream.DefaultConfig()
		ucfg.Timeout = cfg.Upstream.Timeout
		local := &mcp.Local{
			Source: upstream.NewClient(cfg.Upstream.BaseURL, ucfg),
			Mode:   cfg.Form.Mode(),
			Log:    log.With("component", "controller"),
		}

		if cfg.Database.Enabled() {
			dsn := cfg.Database.Target()
			if err := storage.RunMigrations(cfg.Database.Driver, dsn); err != nil {
				log.Error("migration failed", "error", err)
				os.Exit(1)
			}
			history, err := storage.Open(context.Background(), cfg.Database.Driver, dsn)
			if err != nil {
				log.Error("failed to connect database", "error", err)
				os.Exit(1)
			}
			defer history.Close()
			local.History = history
		}

		ds = local
		log.Info("planform-mcp starting", "version", Version, "upstream", cfg.Upstream.BaseURL, "mode", local.Mode)
	}

	s := mcp.New(ds, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
