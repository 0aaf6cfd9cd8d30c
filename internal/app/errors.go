package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrInvalidRecord  = errors.New("invalid record")
	ErrInvalidAddress = errors.New("invalid address")
	ErrNoSink         = errors.New("no stream sink configured")
	ErrNoSource       = errors.New("no stream source configured")
	ErrNoRegistrar    = errors.New("no schema registrar configured")
	ErrNoPublisher    = errors.New("no publisher address configured")
)
