package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/okian/scorestream/internal/domain/model"
	"github.com/okian/scorestream/pkg/logger"
)

// Upper bounds (exclusive) of the generated values.
const (
	maxRandomScore    = 1000
	maxRandomPlayTime = 600
)

const defaultPublishInterval = 5 * time.Second

// Publisher periodically publishes a random score for one player.
type Publisher struct {
	svc      *Service
	player   common.Address
	interval time.Duration
	random   func(n int64) (*big.Int, error)
	logger   logger.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithRandom replaces the source of random values.
func WithRandom(fn func(n int64) (*big.Int, error)) PublisherOption {
	return func(p *Publisher) {
		if fn != nil {
			p.random = fn
		}
	}
}

// WithPublisherLogger sets the publisher's logger.
func WithPublisherLogger(l logger.Logger) PublisherOption {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPublisher publishes for player every interval. A non-positive interval
// uses five seconds.
func NewPublisher(svc *Service, player common.Address, interval time.Duration, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		svc:      svc,
		player:   player,
		interval: interval,
		random:   cryptoRandom,
		logger:   logger.Get().Named("publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.interval <= 0 {
		p.interval = defaultPublishInterval
	}
	return p
}

// PublishOnce publishes one random record and returns it with the tx hash.
func (p *Publisher) PublishOnce(ctx context.Context) (model.Record, string, error) {
	score, err := p.random(maxRandomScore)
	if err != nil {
		return model.Record{}, "", err
	}
	playTime, err := p.random(maxRandomPlayTime)
	if err != nil {
		return model.Record{}, "", err
	}
	rec := model.Record{
		Player:   p.player.Hex(),
		Score:    score.String(),
		PlayTime: playTime.String(),
	}
	hash, err := p.svc.Publish(ctx, rec)
	if err != nil {
		return rec, "", err
	}
	return rec, hash, nil
}

// Run publishes immediately and then every interval until ctx ends. Failed
// publishes are logged and the loop carries on.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info(ctx, "publisher started",
		logger.String("player", p.player.Hex()),
		logger.Duration("interval", p.interval),
	)
	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		if _, _, err := p.PublishOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error(ctx, "publish failed", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			p.logger.Info(context.Background(), "publisher stopped")
			return nil
		case <-t.C:
		}
	}
}

func cryptoRandom(n int64) (*big.Int, error) {
	return rand.Int(rand.Reader, big.NewInt(n))
}
