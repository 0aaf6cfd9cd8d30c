// Package model contains domain models passed between layers.
package model

import "github.com/ethereum/go-ethereum/common"

// Record is one decoded player score observation. Score and PlayTime hold
// canonical decimal strings so values wider than 64 bits survive intact.
type Record struct {
	Player   string `json:"player"`
	Score    string `json:"score"`
	PlayTime string `json:"playTime"`
}

// Entry is one leaderboard row. Rank is 1-based.
type Entry struct {
	Rank     int    `json:"rank"`
	Player   string `json:"player"`
	Score    string `json:"score"`
	PlayTime string `json:"playTime"`
}

// Board is the leaderboard read shape served by GET /api/data.
type Board struct {
	TotalPlayers int     `json:"totalPlayers"`
	Leaderboard  []Entry `json:"leaderboard"`
}

// DataStream is one encoded record addressed to the streams contract.
type DataStream struct {
	ID       common.Hash
	SchemaID common.Hash
	Data     []byte
}
