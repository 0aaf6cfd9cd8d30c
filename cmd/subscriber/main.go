// Command subscriber polls the publisher's records, logs every distinct one
// once and forwards it to the configured observation sinks.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/scorestream/internal/adapters/http/api"
	"github.com/okian/scorestream/internal/adapters/mq/kafka"
	"github.com/okian/scorestream/internal/adapters/mq/queue"
	"github.com/okian/scorestream/internal/adapters/mq/worker"
	"github.com/okian/scorestream/internal/adapters/repository"
	service "github.com/okian/scorestream/internal/app"
	"github.com/okian/scorestream/internal/config"
	"github.com/okian/scorestream/internal/domain/dedupe"
	"github.com/okian/scorestream/pkg/logger"
	"github.com/okian/scorestream/pkg/metrics"
)

const drainTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("subscriber: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) (err error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Setup(logger.Options{Format: cfg.LogFormat}, cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Get()
	if err := cfg.ValidateReader(); err != nil {
		return err
	}

	svc, err := service.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}

	sinks, closers, err := openSinks(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			err = errors.Join(err, c.Close())
		}
	}()

	opts := []service.SubscriberOption{
		service.WithTracker(dedupe.New(dedupe.WithMaxSize(cfg.DedupeSize))),
	}
	var pool *worker.Pool
	if len(sinks) > 0 {
		q := queue.NewInMemoryQueue(queue.WithCapacity(cfg.QueueSize))
		pool = worker.NewPool(cfg.WorkerCount, q, sinks)
		pool.Start(ctx)
		opts = append(opts, service.WithQueue(q))
	}
	sub := service.NewSubscriber(svc, cfg.PollInterval(), opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sub.Run(gctx) })
	g.Go(func() error { return api.ServeHealth(gctx, cfg.MetricsAddr) })
	g.Go(func() error {
		metrics.RunSystemCollector(gctx)
		return nil
	})
	err = g.Wait()

	if pool != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if derr := pool.Shutdown(drainCtx); derr != nil {
			log.Warn(drainCtx, "observation backlog dropped", logger.Error(derr))
		}
	}
	return err
}

// openSinks builds the Kafka and Postgres sinks that are configured.
func openSinks(ctx context.Context, cfg *config.Config) ([]worker.Sink, []io.Closer, error) {
	var (
		sinks   []worker.Sink
		closers []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	if cfg.KafkaBrokers != "" {
		k, err := kafka.NewSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, k)
		closers = append(closers, k)
	}
	if cfg.PGDSN != "" {
		store, err := repository.Open(ctx, cfg.PGDSN)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, store)
		if err := store.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, store)
	}
	return sinks, closers, nil
}
