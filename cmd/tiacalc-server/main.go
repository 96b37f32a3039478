// Command tiacalc-server serves the scoring API, worksheet sessions and the
// live scoring WebSocket, plus Prometheus metrics on a separate port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tiacalc/tiacalc/internal/api"
	"github.com/tiacalc/tiacalc/internal/config"
	"github.com/tiacalc/tiacalc/internal/metrics"
	"github.com/tiacalc/tiacalc/internal/store"
	"github.com/tiacalc/tiacalc/internal/ws"
	"github.com/tiacalc/tiacalc/pkg/logx"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and environment when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", logx.Error(err))
		os.Exit(1)
	}

	level, _ := logx.ParseLevel(cfg.Log.Level)
	slog.SetDefault(logx.New(os.Stdout, cfg.Log.Format, level))

	slog.Info("tiacalc-server starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"metrics_port", cfg.Server.MetricsPort,
		"worksheet_ttl", cfg.Server.WorksheetTTL,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *configPath); err != nil {
		slog.Error("tiacalc-server stopped", logx.Error(err))
		os.Exit(1)
	}
	slog.Info("tiacalc-server shut down")
}

func run(ctx context.Context, cfg *config.Config, configPath string) error {
	st := store.New(cfg.Server.WorksheetTTL)
	m := metrics.New()
	m.TrackWorksheets(st.Count)

	h := api.New(st, m, cfg.Policy.Policy(), api.Options{
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
	})
	hub := ws.New(h)
	h.Mount("/ws/score", hub)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if cfg.Server.MetricsPort != 0 {
		g.Go(func() error {
			return metrics.NewServer(fmt.Sprintf(":%d", cfg.Server.MetricsPort), m).Run(ctx)
		})
	}

	g.Go(func() error {
		st.Run(ctx)
		return nil
	})
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	if configPath != "" {
		g.Go(func() error {
			err := config.Watch(ctx, configPath, func(c *config.Config) {
				h.SetPolicy(c.Policy.Policy())
				m.PolicyReloaded()
				hub.BroadcastPolicy()
				slog.Info("policy reloaded", "tiers", len(c.Policy.Tiers))
			})
			if err != nil {
				// The server keeps the policy it started with.
				slog.Warn("config watch disabled", logx.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}
