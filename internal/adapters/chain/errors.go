package chain

import (
	"errors"

	"github.com/ethereum/go-ethereum/rpc"
)

// Sentinel kinds for chain errors.
var (
	ErrInvalidABI     = errors.New("invalid abi data")
	ErrInvalidChainID = errors.New("chain id must be positive")
	ErrInvalidKey     = errors.New("invalid private key")
	ErrNoSigner       = errors.New("no signer configured")
	ErrNoStreams      = errors.New("no data streams to publish")
	ErrReverted       = errors.New("transaction reverted")
	ErrSchemaMismatch = errors.New("schema id does not match decoder")
)

// IsRPCError reports whether err carries a JSON-RPC error object.
func IsRPCError(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}
