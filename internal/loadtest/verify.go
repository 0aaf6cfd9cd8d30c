package loadtest

import (
	"errors"
	"fmt"

	"github.com/okian/scorestream/internal/domain/leaderboard"
	"github.com/okian/scorestream/internal/domain/model"
)

// ErrMismatch marks a served leaderboard that disagrees with what was published.
var ErrMismatch = errors.New("leaderboard mismatch")

// verify checks board against the accepted records. The board may hold
// players from earlier runs, so only the players published here are
// compared. It returns the number of players verified.
func verify(accepted []model.Record, board model.Board) (int, error) {
	if board.TotalPlayers != len(board.Leaderboard) {
		return 0, fmt.Errorf("%w: totalPlayers %d, %d entries", ErrMismatch, board.TotalPlayers, len(board.Leaderboard))
	}
	served := make(map[string]model.Entry, len(board.Leaderboard))
	for i, e := range board.Leaderboard {
		if e.Rank != i+1 {
			return 0, fmt.Errorf("%w: entry %d has rank %d", ErrMismatch, i, e.Rank)
		}
		if i > 0 && model.CompareUint(e.Score, board.Leaderboard[i-1].Score) > 0 {
			return 0, fmt.Errorf("%w: entry %d outranks entry %d", ErrMismatch, i, i-1)
		}
		if _, dup := served[e.Player]; dup {
			return 0, fmt.Errorf("%w: %s listed twice", ErrMismatch, e.Player)
		}
		served[e.Player] = e
	}

	want := leaderboard.Compute(accepted)
	for _, w := range want {
		got, ok := served[w.Player]
		if !ok {
			return 0, fmt.Errorf("%w: %s missing", ErrMismatch, w.Player)
		}
		// Earlier runs may have left a higher score for the same player.
		if model.CompareUint(got.Score, w.Score) < 0 {
			return 0, fmt.Errorf("%w: %s best score %s, want at least %s", ErrMismatch, w.Player, got.Score, w.Score)
		}
	}
	return len(want), nil
}
