package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/okian/scorestream/internal/domain/model"
	"github.com/okian/scorestream/internal/domain/schema"
	"github.com/okian/scorestream/pkg/metrics"
)

// RawFetcher returns the encoded payloads a publisher stored under a schema.
type RawFetcher interface {
	FetchRaw(ctx context.Context, schemaID common.Hash, publisher common.Address) ([][]byte, error)
}

// Source decodes stored payloads into field lists.
type Source struct {
	fetcher RawFetcher
	schema  *schema.Schema
}

// NewSource decodes what fetcher returns with s.
func NewSource(fetcher RawFetcher, s *schema.Schema) *Source {
	return &Source{fetcher: fetcher, schema: s}
}

// FetchRecordsForSchema returns one decoded field list per stored record,
// in storage order. Any failure aborts the whole fetch.
func (s *Source) FetchRecordsForSchema(ctx context.Context, schemaID common.Hash, publisher common.Address) ([][]model.Field, error) {
	if schemaID != s.schema.ID() {
		return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, schemaID.Hex())
	}
	payloads, err := s.fetcher.FetchRaw(ctx, schemaID, publisher)
	if err != nil {
		return nil, err
	}

	out := make([][]model.Field, len(payloads))
	for i, p := range payloads {
		fields, err := s.schema.Decode(p)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = fields
	}
	metrics.RecordRecordsFetched(len(out))
	return out, nil
}
