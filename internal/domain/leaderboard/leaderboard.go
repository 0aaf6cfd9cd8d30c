// Package leaderboard derives a ranked best-score-per-player board from a
// batch of records. It is a pure function of its input and is recomputed on
// every query.
package leaderboard

import (
	"math/big"
	"sort"

	"github.com/okian/scorestream/internal/domain/model"
)

// candidate pairs a kept record with its parsed score.
type candidate struct {
	rec   model.Record
	score *big.Int
}

// Compute keeps the highest score per player and ranks players by that score,
// descending. Records with an empty player are skipped.
//
// Ties: the first record seen for a player is kept unless a later one is
// strictly greater, and players with equal scores keep first-seen order.
func Compute(records []model.Record) []model.Entry {
	best := make(map[string]int, len(records))
	kept := make([]candidate, 0, len(records))

	for _, rec := range records {
		if rec.Player == "" {
			continue
		}
		score := parseScore(rec.Score)
		idx, ok := best[rec.Player]
		if !ok {
			best[rec.Player] = len(kept)
			kept = append(kept, candidate{rec: rec, score: score})
			continue
		}
		if score.Cmp(kept[idx].score) > 0 {
			kept[idx] = candidate{rec: rec, score: score}
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score.Cmp(kept[j].score) > 0
	})

	entries := make([]model.Entry, len(kept))
	for i, c := range kept {
		entries[i] = model.Entry{
			Rank:     i + 1,
			Player:   c.rec.Player,
			Score:    c.score.String(),
			PlayTime: c.rec.PlayTime,
		}
	}
	return entries
}

// Build wraps Compute in the API read shape.
func Build(records []model.Record) model.Board {
	entries := Compute(records)
	return model.Board{TotalPlayers: len(entries), Leaderboard: entries}
}

// parseScore treats anything that is not an unsigned integer as zero; records
// reaching here have already been normalized.
func parseScore(s string) *big.Int {
	n, err := model.ToUint(s)
	if err != nil {
		return new(big.Int)
	}
	return n
}
