package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	planform "github.com/claude/planform"
	"github.com/claude/planform/internal/config"
	"github.com/claude/planform/internal/server"
	"github.com/claude/planform/internal/storage"
	"github.com/claude/planform/internal/upstream"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (empty for env only)")
	migrateOnly := flag.Bool("migrate-only", false, "run history migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	log.Info("planform starting", "version", Version, "upstream", cfg.Upstream.BaseURL, "mode", cfg.Form.Mode())

	// Plan history
	var history storage.Store
	if cfg.Database.Enabled() {
		dsn := cfg.Database.Target()
		if err := storage.RunMigrations(cfg.Database.Driver, dsn); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied", "driver", cfg.Database.Driver)

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		history, err = storage.Open(context.Background(), cfg.Database.Driver, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer history.Close()
		log.Info("database connected")
	} else if *migrateOnly {
		log.Error("migrate-only requires database.driver")
		os.Exit(1)
	}

	// Upstream client
	ucfg := upstream.DefaultConfig()
	ucfg.Timeout = cfg.Upstream.Timeout
	client := upstream.NewClient(cfg.Upstream.BaseURL, ucfg)

	// Create server
	srv, err := server.New(client, server.Options{
		Title:      cfg.Form.Title,
		Mode:       cfg.Form.Mode(),
		SessionTTL: cfg.Sessions.IdleTTL,
		History:    history,
	}, log)
	if err != nil {
		log.Error("failed to build server", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	// Serve embedded static assets
	static, err := fs.Sub(planform.WebFS, "web/static")
	if err != nil {
		log.Error("failed to load embedded assets", "error", err)
		os.Exit(1)
	}
	srv.SetStatic(static)

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
