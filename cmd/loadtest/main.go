// Command loadtest publishes random scores through a running API server and
// checks the leaderboard it serves afterwards.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/scorestream/internal/loadtest"
	"github.com/okian/scorestream/pkg/logger"
)

// Default configuration constants.
const (
	defaultRecords = 100
	defaultPlayers = 10
	defaultTimeout = 60 * time.Second
	defaultSettle  = 10 * time.Second
	defaultLimit   = 30 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:3000", "Base URL of the service")
		records = flag.Int("records", defaultRecords, "Number of records to publish")
		players = flag.Int("players", defaultPlayers, "Number of distinct random players")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of concurrent submitters")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle  = flag.Duration("settle", defaultSettle, "Wait before reading the leaderboard back")
		format  = flag.String("log-format", logger.FormatText, "Log format: text or json")
		verbose = flag.Bool("verbose", false, "Log every failed submission")
	)
	flag.Parse()

	if err := logger.InitWithOptions(logger.Options{Format: *format}); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultLimit)
	defer cancel()

	_, err := loadtest.Run(ctx, loadtest.Config{
		BaseURL: *baseURL,
		Records: *records,
		Players: *players,
		Workers: *workers,
		Timeout: *timeout,
		Settle:  *settle,
		Verbose: *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		os.Exit(1)
	}
}
