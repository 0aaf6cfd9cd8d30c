package service

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/okian/scorestream/internal/adapters/chain"
	"github.com/okian/scorestream/internal/config"
	"github.com/okian/scorestream/internal/domain/schema"
	"github.com/okian/scorestream/pkg/logger"
)

// Bootstrap builds the Service described by cfg: JSON-RPC client, optional
// signer, streams client, schema and publisher identity. When a signer is
// configured and cfg.RegisterSchema is set, the schema is registered before
// Bootstrap returns. opts are applied after the configured ones.
func Bootstrap(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	sch, err := schema.Parse(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	contract, err := parseAddress("streams_contract", cfg.StreamsContract)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	log := logger.Get()
	rpc, err := chain.Dial(ctx, cfg.RPCURL, chain.WithRPCTimeout(cfg.RPCTimeout()))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	streamOpts := []chain.StreamsOption{
		chain.WithChainID(cfg.ChainID),
		chain.WithGasLimit(cfg.GasLimit),
		chain.WithLogger(log.Named("streams")),
	}

	var signer *chain.Signer
	if cfg.PrivateKey != "" {
		if signer, err = chain.NewSigner(cfg.PrivateKey); err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		streamOpts = append(streamOpts, chain.WithSigner(signer))
	}
	streams := chain.NewStreamsClient(rpc, contract, streamOpts...)

	var publisher, account common.Address
	if signer != nil {
		account = signer.Address()
	}
	switch {
	case cfg.PublisherWallet != "":
		if publisher, err = parseAddress("publisher_wallet", cfg.PublisherWallet); err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	default:
		publisher = account
	}

	base := []Option{
		WithSink(streams),
		WithSource(chain.NewSource(streams, sch)),
		WithRegistrar(streams),
		WithPublisher(publisher),
		WithAccount(account),
		WithSchemaName(cfg.SchemaName),
		WithReceiptTimeout(cfg.ReceiptTimeout()),
		WithLogger(log.Named("service")),
	}
	svc := New(sch, append(base, opts...)...)

	if signer != nil && cfg.RegisterSchema {
		if err := svc.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}

	svc.logger.Info(ctx, "service ready",
		logger.String("schemaId", svc.SchemaID().Hex()),
		logger.String("contract", contract.Hex()),
		logger.String("publisher", publisher.Hex()),
		logger.Bool("writable", signer != nil),
	)
	return svc, nil
}

func parseAddress(key, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%s: %w: %q", key, ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}
