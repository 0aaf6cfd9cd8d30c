package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables that steer loading itself.
const (
	EnvPrefix  = "SCORESTREAM_"
	EnvConfig  = EnvPrefix + "CONFIG"
	EnvEnvFile = EnvPrefix + "ENV_FILE"

	defaultEnvFile = ".env"
)

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New)
//  2. a dotenv file (SCORESTREAM_ENV_FILE, default .env; missing is fine)
//     which only fills variables not already set in the environment
//  3. a YAML file if SCORESTREAM_CONFIG is set
//  4. env vars with the SCORESTREAM_ prefix, e.g. SCORESTREAM_RPC_URL
func Load(_ context.Context) (*Config, error) {
	base := New()

	envFile := os.Getenv(EnvEnvFile)
	if envFile == "" {
		envFile = defaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: env file %s: %v", ErrLoadConfig, envFile, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// SCORESTREAM_RPC_URL -> rpc_url. Underscores are kept so keys stay flat.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if f := strings.ToLower(cfg.LogFormat); f != "text" && f != "json" {
		return nil, fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return &cfg, nil
}

// ValidateWriter checks what a process that signs transactions needs.
func (c *Config) ValidateWriter() error {
	if err := c.validateChain(); err != nil {
		return err
	}
	if strings.TrimSpace(c.PrivateKey) == "" {
		return fmt.Errorf("%w: private_key is required", ErrInvalidConfig)
	}
	if c.PublishRate < 0 || c.PublishBurst < 0 {
		return fmt.Errorf("%w: publish_rate and publish_burst must not be negative", ErrInvalidConfig)
	}
	if c.PublishIntervalMS <= 0 {
		return fmt.Errorf("%w: publish_interval_ms must be positive", ErrInvalidConfig)
	}
	if c.PublisherWallet != "" && !common.IsHexAddress(c.PublisherWallet) {
		return fmt.Errorf("%w: publisher_wallet %q is not an address", ErrInvalidConfig, c.PublisherWallet)
	}
	return nil
}

// ValidateReader checks what a process that only reads another
// publisher's records needs.
func (c *Config) ValidateReader() error {
	if err := c.validateChain(); err != nil {
		return err
	}
	if !common.IsHexAddress(c.PublisherWallet) {
		return fmt.Errorf("%w: publisher_wallet %q is not an address", ErrInvalidConfig, c.PublisherWallet)
	}
	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("%w: poll_interval_ms must be positive", ErrInvalidConfig)
	}
	if c.DedupeSize < 0 {
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) validateChain() error {
	if strings.TrimSpace(c.RPCURL) == "" {
		return fmt.Errorf("%w: rpc_url is required", ErrInvalidConfig)
	}
	if !common.IsHexAddress(c.StreamsContract) {
		return fmt.Errorf("%w: streams_contract %q is not an address", ErrInvalidConfig, c.StreamsContract)
	}
	if strings.TrimSpace(c.Schema) == "" {
		return fmt.Errorf("%w: schema is required", ErrInvalidConfig)
	}
	return nil
}
