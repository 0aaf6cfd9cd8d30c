// Command publisher publishes a random score for its own address on a fixed
// interval until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/okian/scorestream/internal/adapters/http/api"
	service "github.com/okian/scorestream/internal/app"
	"github.com/okian/scorestream/internal/config"
	"github.com/okian/scorestream/pkg/logger"
	"github.com/okian/scorestream/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("publisher: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Setup(logger.Options{Format: cfg.LogFormat}, cfg.LogLevel); err != nil {
		return err
	}
	if err := cfg.ValidateWriter(); err != nil {
		return err
	}

	svc, err := service.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	pub := service.NewPublisher(svc, svc.Account(), cfg.PublishInterval())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pub.Run(gctx) })
	g.Go(func() error { return api.ServeHealth(gctx, cfg.MetricsAddr) })
	g.Go(func() error {
		metrics.RunSystemCollector(gctx)
		return nil
	})
	return g.Wait()
}
