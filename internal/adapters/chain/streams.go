package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/okian/scorestream/internal/domain/model"
	"github.com/okian/scorestream/pkg/logger"
	"github.com/okian/scorestream/pkg/metrics"
)

const defaultReceiptPoll = time.Second

// StreamsClient reads and writes the data-streams contract.
type StreamsClient struct {
	backend     Backend
	contract    common.Address
	signer      *Signer
	chainID     *big.Int
	gasLimit    uint64
	receiptPoll time.Duration
	logger      logger.Logger

	mu sync.Mutex // serializes nonce allocation and send
}

// StreamsOption configures a StreamsClient.
type StreamsOption func(*StreamsClient)

// WithSigner enables the write path.
func WithSigner(s *Signer) StreamsOption {
	return func(c *StreamsClient) { c.signer = s }
}

// WithChainID pins the chain id instead of asking the node.
func WithChainID(id int64) StreamsOption {
	return func(c *StreamsClient) {
		if id > 0 {
			c.chainID = big.NewInt(id)
		}
	}
}

// WithGasLimit fixes the gas limit. Zero means eth_estimateGas.
func WithGasLimit(gas uint64) StreamsOption {
	return func(c *StreamsClient) { c.gasLimit = gas }
}

// WithReceiptPollInterval sets how often WaitForReceipt polls.
func WithReceiptPollInterval(d time.Duration) StreamsOption {
	return func(c *StreamsClient) {
		if d > 0 {
			c.receiptPoll = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) StreamsOption {
	return func(c *StreamsClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewStreamsClient binds backend to the contract at addr.
func NewStreamsClient(backend Backend, addr common.Address, opts ...StreamsOption) *StreamsClient {
	c := &StreamsClient{
		backend:     backend,
		contract:    addr,
		receiptPoll: defaultReceiptPoll,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("streams")
	}
	return c
}

// Publisher is the signer's address, or the zero address on a read-only client.
func (c *StreamsClient) Publisher() common.Address {
	if c.signer == nil {
		return common.Address{}
	}
	return c.signer.Address()
}

// FetchRaw returns every payload publisher stored under schemaID.
func (c *StreamsClient) FetchRaw(ctx context.Context, schemaID common.Hash, publisher common.Address) ([][]byte, error) {
	data, err := packGetPublisherData(schemaID, publisher)
	if err != nil {
		return nil, fmt.Errorf("fetch publisher data: %w", err)
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch publisher data: %w", err)
	}
	payloads, err := unpackBytesArray(out)
	if err != nil {
		return nil, fmt.Errorf("fetch publisher data: %w", err)
	}
	return payloads, nil
}

// IsSchemaRegistered asks the contract whether schemaID is known.
func (c *StreamsClient) IsSchemaRegistered(ctx context.Context, schemaID common.Hash) (bool, error) {
	data, err := packIsSchemaRegistered(schemaID)
	if err != nil {
		return false, fmt.Errorf("is schema registered: %w", err)
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("is schema registered: %w", err)
	}
	return unpackBool(out)
}

// RegisterSchema registers definition under name. It returns "" without
// sending a transaction when the schema is already registered.
func (c *StreamsClient) RegisterSchema(ctx context.Context, name, definition string, parent common.Hash) (string, error) {
	id := crypto.Keccak256Hash([]byte(definition))
	ok, err := c.IsSchemaRegistered(ctx, id)
	if err != nil {
		return "", err
	}
	if ok {
		c.logger.Info(ctx, "schema already registered", logger.String("schemaId", id.Hex()))
		return "", nil
	}

	data, err := packRegisterSchema(name, definition, parent)
	if err != nil {
		return "", fmt.Errorf("register schema: %w", err)
	}
	hash, err := c.send(ctx, data)
	if err != nil {
		return "", fmt.Errorf("register schema: %w", err)
	}
	c.logger.Info(ctx, "schema registration sent", logger.String("schemaId", id.Hex()), logger.String("txHash", hash))
	return hash, nil
}

// Publish stores streams in one transaction and returns its hash.
func (c *StreamsClient) Publish(ctx context.Context, streams []model.DataStream) (string, error) {
	if len(streams) == 0 {
		return "", ErrNoStreams
	}
	start := time.Now()

	data, err := packStore(streams)
	if err != nil {
		metrics.RecordPublishError()
		return "", fmt.Errorf("publish: %w", err)
	}
	hash, err := c.send(ctx, data)
	if err != nil {
		metrics.RecordPublishError()
		return "", fmt.Errorf("publish: %w", err)
	}

	metrics.RecordRecordsPublished(len(streams))
	metrics.RecordPublishLatency(float64(time.Since(start).Milliseconds()))
	c.logger.Debug(ctx, "streams published", logger.Int("count", len(streams)), logger.String("txHash", hash))
	return hash, nil
}

// WaitForReceipt polls until hash is mined or ctx ends. A reverted
// transaction returns its receipt together with ErrReverted.
func (c *StreamsClient) WaitForReceipt(ctx context.Context, hash string) (*types.Receipt, error) {
	txHash := common.HexToHash(hash)
	t := time.NewTicker(c.receiptPoll)
	defer t.Stop()
	for {
		r, err := c.backend.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && r.Status == types.ReceiptStatusSuccessful:
			return r, nil
		case err == nil:
			return r, fmt.Errorf("%w: %s", ErrReverted, hash)
		case !errors.Is(err, ethereum.NotFound):
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// send builds a legacy transaction calling the contract with data, signs it
// and submits it.
func (c *StreamsClient) send(ctx context.Context, data []byte) (string, error) {
	if c.signer == nil {
		return "", ErrNoSigner
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID == nil {
		id, err := c.backend.ChainID(ctx)
		if err != nil {
			return "", err
		}
		c.chainID = id
	}
	from := c.signer.Address()
	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", err
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", err
	}
	gas := c.gasLimit
	if gas == 0 {
		msg := ethereum.CallMsg{From: from, To: &c.contract, GasPrice: gasPrice, Data: data}
		if gas, err = c.backend.EstimateGas(ctx, msg); err != nil {
			return "", err
		}
	}

	tx, err := c.signer.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &c.contract,
		Value:    new(big.Int),
		Data:     data,
	}), c.chainID)
	if err != nil {
		return "", err
	}
	if err := c.backend.SendTransaction(ctx, tx); err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}
