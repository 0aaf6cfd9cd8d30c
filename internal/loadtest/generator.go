package loadtest

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/okian/scorestream/internal/domain/model"
)

// Upper bounds (exclusive) of generated values.
const (
	maxScore    = 1000
	maxPlayTime = 600
)

// generatePlayers returns n random addresses.
func generatePlayers(n int) ([]string, error) {
	players := make([]string, n)
	for i := range players {
		var b [common.AddressLength]byte
		if _, err := rand.Read(b[:]); err != nil {
			return nil, fmt.Errorf("generate player: %w", err)
		}
		players[i] = common.BytesToAddress(b[:]).Hex()
	}
	return players, nil
}

// generateRecords spreads n random records over players round-robin.
func generateRecords(n int, players []string) ([]model.Record, error) {
	recs := make([]model.Record, n)
	for i := range recs {
		score, err := randomUint(maxScore)
		if err != nil {
			return nil, err
		}
		playTime, err := randomUint(maxPlayTime)
		if err != nil {
			return nil, err
		}
		recs[i] = model.Record{Player: players[i%len(players)], Score: score, PlayTime: playTime}
	}
	return recs, nil
}

func randomUint(n int64) (string, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return "", fmt.Errorf("random value: %w", err)
	}
	return v.String(), nil
}
