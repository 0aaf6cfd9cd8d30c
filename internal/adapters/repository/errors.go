package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNoDSN       = errors.New("postgres dsn empty")
	ErrEmptyPlayer = errors.New("observation has no player")
)
