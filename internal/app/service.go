// Package service holds the explicit service context shared by the HTTP
// server, the publisher loop and the subscriber loop: the schema, its id,
// the stream sink and source, and whose records are read.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/okian/scorestream/internal/domain/leaderboard"
	"github.com/okian/scorestream/internal/domain/model"
	"github.com/okian/scorestream/internal/domain/normalize"
	"github.com/okian/scorestream/internal/domain/schema"
	"github.com/okian/scorestream/pkg/logger"
	"github.com/okian/scorestream/pkg/metrics"
)

// StreamSink stores encoded streams and returns the transaction hash.
type StreamSink interface {
	Publish(ctx context.Context, streams []model.DataStream) (string, error)
}

// StreamSource returns the decoded field lists a publisher stored under a schema.
type StreamSource interface {
	FetchRecordsForSchema(ctx context.Context, schemaID common.Hash, publisher common.Address) ([][]model.Field, error)
}

// SchemaRegistrar registers a schema and waits for the registration to land.
type SchemaRegistrar interface {
	RegisterSchema(ctx context.Context, name, definition string, parent common.Hash) (string, error)
	WaitForReceipt(ctx context.Context, hash string) (*types.Receipt, error)
}

const streamIDPrefix = "player-"

// Service implements the API dependencies for the score stream.
type Service struct {
	schema     *schema.Schema
	schemaName string

	sink      StreamSink
	source    StreamSource
	registrar SchemaRegistrar
	publisher common.Address
	account   common.Address

	receiptTimeout time.Duration
	newStreamID    func() common.Hash

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSink sets where published records go.
func WithSink(sink StreamSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithSource sets where records are read from.
func WithSource(src StreamSource) Option {
	return func(s *Service) { s.source = src }
}

// WithRegistrar enables EnsureSchema.
func WithRegistrar(r SchemaRegistrar) Option {
	return func(s *Service) { s.registrar = r }
}

// WithPublisher sets whose records Records and Leaderboard read.
func WithPublisher(addr common.Address) Option {
	return func(s *Service) { s.publisher = addr }
}

// WithAccount sets the address transactions are signed by.
func WithAccount(addr common.Address) Option {
	return func(s *Service) { s.account = addr }
}

// WithSchemaName sets the name the schema is registered under.
func WithSchemaName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.schemaName = name
		}
	}
}

// WithReceiptTimeout bounds the wait for the schema registration receipt.
func WithReceiptTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.receiptTimeout = d
		}
	}
}

// WithStreamIDFunc overrides how stream record ids are generated.
func WithStreamIDFunc(fn func() common.Hash) Option {
	return func(s *Service) {
		if fn != nil {
			s.newStreamID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service around sch.
func New(sch *schema.Schema, opts ...Option) *Service {
	s := &Service{
		schema:         sch,
		schemaName:     schema.PlayerScoreName,
		receiptTimeout: time.Minute,
		newStreamID:    NewStreamID,
		logger:         logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStreamID returns "player-" followed by the 16 bytes of a random uuid,
// right padded into a word.
func NewStreamID() common.Hash {
	id := uuid.New()
	return common.BytesToHash(common.RightPadBytes(append([]byte(streamIDPrefix), id[:]...), common.HashLength))
}

// Schema returns the record layout.
func (s *Service) Schema() *schema.Schema { return s.schema }

// SchemaID returns the id records are published under.
func (s *Service) SchemaID() common.Hash { return s.schema.ID() }

// Publisher returns whose records are read.
func (s *Service) Publisher() common.Address { return s.publisher }

// Account returns the signing address, or the zero address when read-only.
func (s *Service) Account() common.Address { return s.account }

// EnsureSchema registers the schema if the chain does not know it yet and
// waits for the registration receipt.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if s.registrar == nil {
		return ErrNoRegistrar
	}
	hash, err := s.registrar.RegisterSchema(ctx, s.schemaName, s.schema.Definition(), common.Hash{})
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if hash == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.receiptTimeout)
	defer cancel()
	r, err := s.registrar.WaitForReceipt(ctx, hash)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	s.logger.Info(ctx, "schema registered",
		logger.String("schemaId", s.SchemaID().Hex()),
		logger.String("txHash", hash),
		logger.String("block", r.BlockNumber.String()),
	)
	return nil
}

// Publish encodes r and stores it as one stream record. Validation failures
// wrap ErrInvalidRecord; everything else comes from the sink.
func (s *Service) Publish(ctx context.Context, r model.Record) (string, error) {
	if s.sink == nil {
		return "", ErrNoSink
	}
	data, err := s.schema.EncodeRecord(r)
	if err != nil {
		if errors.Is(err, schema.ErrInvalidValue) || errors.Is(err, schema.ErrMissingField) {
			return "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		return "", err
	}
	hash, err := s.sink.Publish(ctx, []model.DataStream{{
		ID:       s.newStreamID(),
		SchemaID: s.SchemaID(),
		Data:     data,
	}})
	if err != nil {
		return "", err
	}
	s.logger.Info(ctx, "record published",
		logger.String("player", r.Player),
		logger.String("score", r.Score),
		logger.String("playTime", r.PlayTime),
		logger.String("txHash", hash),
	)
	return hash, nil
}

// Records fetches and normalizes every record the publisher has stored.
func (s *Service) Records(ctx context.Context) ([]model.Record, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	if s.publisher == (common.Address{}) {
		return nil, ErrNoPublisher
	}
	lists, err := s.source.FetchRecordsForSchema(ctx, s.SchemaID(), s.publisher)
	if err != nil {
		return nil, err
	}
	recs, err := normalize.Records(lists)
	if err != nil {
		metrics.RecordMalformedRecord()
		return nil, err
	}
	return recs, nil
}

// Leaderboard builds the ranked board from the publisher's records.
func (s *Service) Leaderboard(ctx context.Context) (model.Board, error) {
	recs, err := s.Records(ctx)
	if err != nil {
		return model.Board{}, err
	}
	board := leaderboard.Build(recs)
	metrics.UpdateLeaderboardPlayers(board.TotalPlayers)
	return board, nil
}
