// Package chain talks to an EVM node over JSON-RPC: it reads and writes the
// data-streams contract and signs the transactions it sends.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/okian/scorestream/pkg/metrics"
)

const defaultRPCTimeout = 10 * time.Second

// Backend is the part of an Ethereum node the streams client uses.
// *Client and *ethclient.Client both satisfy it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Client is an ethclient with a per-call timeout and RPC metrics.
// Safe for concurrent use.
type Client struct {
	eth     *ethclient.Client
	http    *http.Client
	timeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithRPCTimeout bounds each call. Zero keeps the default.
func WithRPCTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// Dial connects to the node at endpoint. HTTP endpoints connect lazily, so
// an unreachable node surfaces on the first call.
func Dial(ctx context.Context, endpoint string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		http:    &http.Client{},
		timeout: defaultRPCTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	rc, err := rpc.DialOptions(ctx, endpoint, rpc.WithHTTPClient(c.http))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	c.eth = ethclient.NewClient(rc)
	return c, nil
}

// Close releases the underlying connection.
func (c *Client) Close() { c.eth.Close() }

// begin bounds ctx by the call timeout and returns a func that records the
// call outcome.
func (c *Client) begin(ctx context.Context, method string) (context.Context, func(error)) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return ctx, func(err error) {
		cancel()
		status := "ok"
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			status = "error"
		}
		metrics.RecordRPCCall(method, status, float64(time.Since(start).Milliseconds()))
	}
}

// ChainID returns eth_chainId.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, done := c.begin(ctx, "eth_chainId")
	id, err := c.eth.ChainID(ctx)
	done(err)
	return id, err
}

// CallContract executes msg at block, or the latest block when nil.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	ctx, done := c.begin(ctx, "eth_call")
	out, err := c.eth.CallContract(ctx, msg, block)
	done(err)
	return out, err
}

// PendingNonceAt returns the account nonce including pending transactions.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	ctx, done := c.begin(ctx, "eth_getTransactionCount")
	n, err := c.eth.PendingNonceAt(ctx, account)
	done(err)
	return n, err
}

// SuggestGasPrice returns eth_gasPrice.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	ctx, done := c.begin(ctx, "eth_gasPrice")
	p, err := c.eth.SuggestGasPrice(ctx)
	done(err)
	return p, err
}

// EstimateGas returns eth_estimateGas for msg.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	ctx, done := c.begin(ctx, "eth_estimateGas")
	gas, err := c.eth.EstimateGas(ctx, msg)
	done(err)
	return gas, err
}

// SendTransaction submits a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	ctx, done := c.begin(ctx, "eth_sendRawTransaction")
	err := c.eth.SendTransaction(ctx, tx)
	done(err)
	return err
}

// TransactionReceipt returns the receipt for hash, or ethereum.NotFound when
// the node has none yet.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, done := c.begin(ctx, "eth_getTransactionReceipt")
	r, err := c.eth.TransactionReceipt(ctx, hash)
	done(err)
	return r, err
}
