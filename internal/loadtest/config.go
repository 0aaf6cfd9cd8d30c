// Package loadtest drives a running API server: it publishes random player
// scores concurrently, waits, then checks the served leaderboard against
// one computed locally from what was accepted.
package loadtest

import (
	"time"

	"github.com/okian/scorestream/internal/domain/model"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL string        // Base URL of the service
	Records int           // Number of records to publish
	Players int           // Number of distinct random players
	Workers int           // Number of concurrent submitters
	Timeout time.Duration // HTTP request timeout
	Settle  time.Duration // Wait between publishing and reading back
	Verbose bool          // Log every failed submission
}

// Stats holds run statistics.
type Stats struct {
	Generated   int
	Submitted   int
	Accepted    int
	RateLimited int
	Failed      int
	Players     int
	Verified    int
	Duration    time.Duration
}

// Result is what a run produced.
type Result struct {
	Stats    Stats
	Accepted []model.Record
	Board    model.Board
}
