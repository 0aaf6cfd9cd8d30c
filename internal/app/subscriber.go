package service

import (
	"context"
	"time"

	"github.com/okian/scorestream/internal/domain/dedupe"
	"github.com/okian/scorestream/internal/domain/model"
	"github.com/okian/scorestream/pkg/logger"
	"github.com/okian/scorestream/pkg/metrics"
)

const defaultPollInterval = 3 * time.Second

// Enqueuer accepts observations for asynchronous delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, o model.Observation) bool
}

// Subscriber polls the publisher's records and reports each distinct one once.
// It owns its tracker; Run and PollOnce must not be called concurrently.
type Subscriber struct {
	svc      *Service
	tracker  *dedupe.Tracker
	queue    Enqueuer
	interval time.Duration
	now      func() time.Time
	logger   logger.Logger
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithTracker replaces the default unbounded tracker.
func WithTracker(t *dedupe.Tracker) SubscriberOption {
	return func(s *Subscriber) {
		if t != nil {
			s.tracker = t
		}
	}
}

// WithQueue forwards new observations to q.
func WithQueue(q Enqueuer) SubscriberOption {
	return func(s *Subscriber) { s.queue = q }
}

// WithClock overrides the observation timestamp source.
func WithClock(now func() time.Time) SubscriberOption {
	return func(s *Subscriber) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSubscriberLogger sets the subscriber's logger.
func WithSubscriberLogger(l logger.Logger) SubscriberOption {
	return func(s *Subscriber) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSubscriber polls svc every interval. A non-positive interval uses three
// seconds.
func NewSubscriber(svc *Service, interval time.Duration, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		svc:      svc,
		tracker:  dedupe.New(),
		interval: interval,
		now:      time.Now,
		logger:   logger.Get().Named("subscriber"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = defaultPollInterval
	}
	return s
}

// PollOnce fetches every record once and returns the ones not seen before,
// in storage order. Records without a player are returned but never queued.
func (s *Subscriber) PollOnce(ctx context.Context) ([]model.Observation, error) {
	recs, err := s.svc.Records(ctx)
	if err != nil {
		return nil, err
	}

	var fresh []model.Observation
	for _, r := range recs {
		if !s.tracker.Observe(r) {
			metrics.RecordObservationDuplicate()
			continue
		}
		metrics.RecordObservationNew()
		o := model.Observation{
			Record:    r,
			Publisher: s.svc.Publisher().Hex(),
			SchemaID:  s.svc.SchemaID().Hex(),
			SeenAt:    s.now().UTC(),
		}
		s.logger.Info(ctx, "new player score",
			logger.String("player", r.Player),
			logger.String("score", r.Score),
			logger.String("playTime", r.PlayTime),
		)
		fresh = append(fresh, o)
		// Sinks key rows by player; a playerless record is reported only.
		if r.Player == "" {
			s.logger.Debug(ctx, "observation without player not queued")
			continue
		}
		if s.queue != nil && !s.queue.Enqueue(ctx, o) {
			s.logger.Warn(ctx, "observation dropped", logger.String("player", r.Player))
		}
	}
	metrics.UpdateSeenSetSize(s.tracker.Size())
	return fresh, nil
}

// Run polls immediately and then every interval until ctx ends. A failed
// poll is logged and retried on the next tick.
func (s *Subscriber) Run(ctx context.Context) error {
	s.logger.Info(ctx, "subscriber started",
		logger.String("publisher", s.svc.Publisher().Hex()),
		logger.String("schemaId", s.svc.SchemaID().Hex()),
		logger.Duration("interval", s.interval),
		logger.Bool("boundedSeenSet", s.tracker.Bounded()),
	)
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		if _, err := s.PollOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error(ctx, "poll failed", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			s.logger.Info(context.Background(), "subscriber stopped", logger.Int("seen", s.tracker.Size()))
			return nil
		case <-t.C:
		}
	}
}
