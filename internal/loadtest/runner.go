package loadtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/scorestream/internal/domain/model"
	"github.com/okian/scorestream/pkg/logger"
)

// Run executes a complete load test against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	log := logger.Get().Named("loadtest")
	start := time.Now()
	if cfg.Players < 1 {
		cfg.Players = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	log.Info(ctx, "starting load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("records", cfg.Records),
		logger.Int("players", cfg.Players),
		logger.Int("workers", cfg.Workers),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	players, err := generatePlayers(cfg.Players)
	if err != nil {
		return nil, err
	}
	recs, err := generateRecords(cfg.Records, players)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	res.Stats.Generated = len(recs)
	if err := submit(ctx, client, cfg, recs, res, log); err != nil {
		return nil, err
	}
	log.Info(ctx, "submission finished",
		logger.Int("accepted", res.Stats.Accepted),
		logger.Int("rateLimited", res.Stats.RateLimited),
		logger.Int("failed", res.Stats.Failed),
	)

	if cfg.Settle > 0 {
		log.Info(ctx, "waiting for records to settle", logger.Duration("settle", cfg.Settle))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.Settle):
		}
	}

	if res.Board, err = client.leaderboard(ctx); err != nil {
		return nil, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	res.Stats.Players = res.Board.TotalPlayers
	if res.Stats.Verified, err = verify(res.Accepted, res.Board); err != nil {
		return res, err
	}

	res.Stats.Duration = time.Since(start)
	log.Info(ctx, "load test passed",
		logger.Int("verifiedPlayers", res.Stats.Verified),
		logger.Int("boardPlayers", res.Stats.Players),
		logger.Duration("duration", res.Stats.Duration),
	)
	return res, nil
}

// submit publishes recs with cfg.Workers concurrent requests. Individual
// failures are counted, not fatal.
func submit(ctx context.Context, client *httpClient, cfg Config, recs []model.Record, res *Result, log logger.Logger) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for _, r := range recs {
		r := r
		g.Go(func() error {
			out, err := client.publish(gctx, r)

			mu.Lock()
			defer mu.Unlock()
			res.Stats.Submitted++
			switch out {
			case outcomeAccepted:
				res.Stats.Accepted++
				res.Accepted = append(res.Accepted, r)
			case outcomeRateLimited:
				res.Stats.RateLimited++
			default:
				res.Stats.Failed++
				if cfg.Verbose {
					log.Warn(gctx, "publish failed", logger.String("player", r.Player), logger.Error(err))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
