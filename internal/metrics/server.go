package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tiacalc/tiacalc/pkg/logx"
)

const httpServerReadHeaderTimeout = 5 * time.Second

// Server exposes /metrics and a plain-text /debug/metrics dump on its own
// listener.
type Server struct {
	listenAddress string
	metrics       *Metrics
}

func NewServer(listenAddress string, m *Metrics) Server {
	return Server{
		listenAddress: listenAddress,
		metrics:       m,
	}
}

func (s Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/debug/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := s.metrics.WriteText(w); err != nil {
			slog.Error("metrics: write text", logx.Error(err))
		}
	})

	httpServer := &http.Server{
		Addr:              s.listenAddress,
		Handler:           mux,
		ReadHeaderTimeout: httpServerReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		if err := httpServer.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Error("metrics: shutdown", logx.Error(err))
		}
	}()

	slog.Info("metrics: server started", logx.FieldAddr, s.listenAddress)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: listen: %w", err)
	}

	slog.Info("metrics: server stopped")

	return nil
}
