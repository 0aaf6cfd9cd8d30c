// Package config defines process configuration for the scorestream
// commands and how it is loaded.
package config

import (
	"time"
)

// Config contains process configuration shared by the server, publisher and
// subscriber. Each command validates the subset it needs.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr is the HTTP API listen address, e.g. ":3000".
	Addr string `koanf:"addr"`
	// MetricsAddr is where the publisher and subscriber expose /healthz.
	MetricsAddr string `koanf:"metrics_addr"`

	// RPCURL is the chain JSON-RPC endpoint.
	RPCURL string `koanf:"rpc_url"`
	// ChainID pins the chain id; zero asks the node.
	ChainID int64 `koanf:"chain_id"`
	// StreamsContract is the data-streams contract address.
	StreamsContract string `koanf:"streams_contract"`
	// PrivateKey signs writes. Hex, with or without 0x.
	PrivateKey string `koanf:"private_key"`
	// PublisherWallet is whose records are read. The server falls back to
	// the signer's own address.
	PublisherWallet string `koanf:"publisher_wallet"`

	// Schema is the record layout; SchemaName the id it is registered under.
	Schema         string `koanf:"schema"`
	SchemaName     string `koanf:"schema_name"`
	RegisterSchema bool   `koanf:"register_schema"`

	RPCTimeoutMS     int    `koanf:"rpc_timeout_ms"`
	ReceiptTimeoutMS int    `koanf:"receipt_timeout_ms"`
	GasLimit         uint64 `koanf:"gas_limit"`

	// PublishIntervalMS paces the random publisher.
	PublishIntervalMS int `koanf:"publish_interval_ms"`
	// PollIntervalMS paces the subscriber.
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// PublishRate and PublishBurst limit POST /api/publish per client.
	PublishRate  float64 `koanf:"publish_rate"`
	PublishBurst int     `koanf:"publish_burst"`

	// DedupeSize bounds the subscriber's seen set; zero is unbounded.
	DedupeSize int `koanf:"dedupe_size"`
	// QueueSize bounds observations waiting for sink delivery.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of sink workers.
	WorkerCount int `koanf:"worker_count"`

	// KafkaBrokers is a comma-separated list; empty disables the Kafka sink.
	KafkaBrokers string `koanf:"kafka_brokers"`
	KafkaTopic   string `koanf:"kafka_topic"`
	// PGDSN enables the Postgres sink when set.
	PGDSN string `koanf:"pg_dsn"`
}

// Defaults for the Somnia dream testnet.
const (
	DefaultRPCURL  = "https://dream-rpc.somnia.network"
	DefaultChainID = 50312
)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":3000",
		MetricsAddr:       ":9090",
		RPCURL:            DefaultRPCURL,
		ChainID:           DefaultChainID,
		Schema:            "address player, uint256 score, uint256 playTime",
		SchemaName:        "player_score",
		RegisterSchema:    true,
		RPCTimeoutMS:      10_000,
		ReceiptTimeoutMS:  60_000,
		PublishIntervalMS: 5_000,
		PollIntervalMS:    3_000,
		PublishRate:       5,
		PublishBurst:      10,
		QueueSize:         10_000,
		WorkerCount:       2,
		KafkaTopic:        "player-scores",
	}
}

// RPCTimeout is RPCTimeoutMS as a duration.
func (c *Config) RPCTimeout() time.Duration { return ms(c.RPCTimeoutMS) }

// ReceiptTimeout is ReceiptTimeoutMS as a duration.
func (c *Config) ReceiptTimeout() time.Duration { return ms(c.ReceiptTimeoutMS) }

// PublishInterval is PublishIntervalMS as a duration.
func (c *Config) PublishInterval() time.Duration { return ms(c.PublishIntervalMS) }

// PollInterval is PollIntervalMS as a duration.
func (c *Config) PollInterval() time.Duration { return ms(c.PollIntervalMS) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
