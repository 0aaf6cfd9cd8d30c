// Command scorestream serves the HTTP API: publish a player score, read the
// schema id and read the leaderboard derived from every stored record.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/scorestream/internal/adapters/http/api"
	"github.com/okian/scorestream/internal/adapters/http/swagger"
	service "github.com/okian/scorestream/internal/app"
	"github.com/okian/scorestream/internal/config"
	"github.com/okian/scorestream/pkg/logger"
	"github.com/okian/scorestream/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("scorestream: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	log := logger.Get()
	if err := cfg.ValidateWriter(); err != nil {
		return err
	}

	svc, err := service.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}

	srv := newHTTPServer(cfg.Addr, newMux(ctx, svc, cfg))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		metrics.RunSystemCollector(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

// initLogging applies the configured format and level. An invalid level
// falls back to info.
func initLogging(cfg *config.Config) error {
	return logger.Setup(logger.Options{Format: cfg.LogFormat}, cfg.LogLevel)
}

// newMux registers the business API and the docs routes.
func newMux(ctx context.Context, deps api.Dependencies, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	var opts []api.Option
	if cfg.PublishRate > 0 {
		opts = append(opts, api.WithRateLimiter(api.NewRateLimiter(cfg.PublishRate, cfg.PublishBurst)))
	}
	api.NewServer(deps, opts...).Register(ctx, mux)
	return mux
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
