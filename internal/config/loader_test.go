package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/scorestream/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

const contract = "0x6AB397FF662e42312c003175DCD76EfF69D048Fc"

var configEnvVars = []string{
	"SCORESTREAM_CONFIG", "SCORESTREAM_ENV_FILE", "SCORESTREAM_ADDR", "SCORESTREAM_RPC_URL",
	"SCORESTREAM_CHAIN_ID", "SCORESTREAM_STREAMS_CONTRACT", "SCORESTREAM_PRIVATE_KEY",
	"SCORESTREAM_PUBLISHER_WALLET", "SCORESTREAM_DEDUPE_SIZE", "SCORESTREAM_REGISTER_SCHEMA",
	"SCORESTREAM_LOG_FORMAT", "SCORESTREAM_PUBLISH_RATE", "SCORESTREAM_WORKER_COUNT",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		_ = os.Setenv("SCORESTREAM_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load the testnet defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":3000")
				convey.So(cfg.RPCURL, convey.ShouldEqual, config.DefaultRPCURL)
				convey.So(cfg.ChainID, convey.ShouldEqual, config.DefaultChainID)
				convey.So(cfg.Schema, convey.ShouldEqual, "address player, uint256 score, uint256 playTime")
				convey.So(cfg.SchemaName, convey.ShouldEqual, "player_score")
				convey.So(cfg.RegisterSchema, convey.ShouldBeTrue)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 0)
				convey.So(cfg.PollInterval().Seconds(), convey.ShouldEqual, 3)
				convey.So(cfg.PublishInterval().Seconds(), convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SCORESTREAM_ADDR", ":8080")
			_ = os.Setenv("SCORESTREAM_CHAIN_ID", "1")
			_ = os.Setenv("SCORESTREAM_DEDUPE_SIZE", "250000")
			_ = os.Setenv("SCORESTREAM_REGISTER_SCHEMA", "false")
			_ = os.Setenv("SCORESTREAM_PUBLISH_RATE", "0.5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ChainID, convey.ShouldEqual, 1)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 250000)
				convey.So(cfg.RegisterSchema, convey.ShouldBeFalse)
				convey.So(cfg.PublishRate, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeTempFile(t, "config.yaml", `
addr: ":9090"
worker_count: 24
streams_contract: "`+contract+`"
`)
			_ = os.Setenv("SCORESTREAM_CONFIG", path)
			_ = os.Setenv("SCORESTREAM_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.StreamsContract, convey.ShouldEqual, contract)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When a dotenv file is present", func() {
			path := writeTempFile(t, "test.env", "SCORESTREAM_PRIVATE_KEY=0x01\nSCORESTREAM_ADDR=:7000\n")
			_ = os.Setenv("SCORESTREAM_ENV_FILE", path)
			_ = os.Setenv("SCORESTREAM_ADDR", ":7500")
			defer func() { _ = os.Unsetenv("SCORESTREAM_PRIVATE_KEY") }()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fill unset variables only", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.PrivateKey, convey.ShouldEqual, "0x01")
				convey.So(cfg.Addr, convey.ShouldEqual, ":7500")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			path := writeTempFile(t, "bad.yaml", `invalid: yaml: content: [`)
			_ = os.Setenv("SCORESTREAM_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SCORESTREAM_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("SCORESTREAM_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown log format", func() {
			_ = os.Setenv("SCORESTREAM_LOG_FORMAT", "xml")

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestValidators(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the streams contract is missing", func() {
			cfg.PrivateKey = "0x01"
			cfg.PublisherWallet = contract

			convey.Convey("Then both roles should be rejected", func() {
				convey.So(errors.Is(cfg.ValidateWriter(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(cfg.ValidateReader(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the writer has a key and contract", func() {
			cfg.StreamsContract = contract
			cfg.PrivateKey = "0x01"

			convey.Convey("Then ValidateWriter should pass", func() {
				convey.So(cfg.ValidateWriter(), convey.ShouldBeNil)
			})

			convey.Convey("Then an invalid publisher wallet should still fail", func() {
				cfg.PublisherWallet = "alice"
				convey.So(cfg.ValidateWriter(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the writer has no key", func() {
			cfg.StreamsContract = contract

			convey.Convey("Then ValidateWriter should name the key", func() {
				err := cfg.ValidateWriter()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "private_key")
			})
		})

		convey.Convey("When the reader has a publisher", func() {
			cfg.StreamsContract = contract
			cfg.PublisherWallet = contract

			convey.Convey("Then ValidateReader should pass", func() {
				convey.So(cfg.ValidateReader(), convey.ShouldBeNil)
			})

			convey.Convey("Then a zero poll interval should fail", func() {
				cfg.PollIntervalMS = 0
				convey.So(cfg.ValidateReader(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the reader has no publisher", func() {
			cfg.StreamsContract = contract

			convey.Convey("Then ValidateReader should fail", func() {
				err := cfg.ValidateReader()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "publisher_wallet")
			})
		})
	})
}
