package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds a secp256k1 key and signs EIP-155 transactions with it.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSigner parses a 32-byte hex private key, with or without 0x.
func NewSigner(hexKey string) (*Signer, error) {
	hexKey = strings.TrimSpace(hexKey)
	if len(hexKey) >= 2 && hexKey[0] == '0' && (hexKey[1] == 'x' || hexKey[1] == 'X') {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &Signer{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address is the account the key controls.
func (s *Signer) Address() common.Address { return s.address }

// SignTx signs tx with the EIP-155 replay protection of chainID.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, ErrInvalidChainID
	}
	return types.SignTx(tx, types.NewEIP155Signer(chainID), s.key)
}
