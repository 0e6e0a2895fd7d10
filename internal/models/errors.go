package models

import "errors"

var (
	// ErrNotFound — vault, approval set, or proof payload does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — a vault is already configured for this wallet.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidConfig — vault configuration failed validation; never persisted.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAlreadyReleased — the vault was released earlier (or by a concurrent
	// caller); a benign outcome, normalized by the release dispatcher.
	ErrAlreadyReleased = errors.New("vault already released")

	// ErrUpstreamUnavailable — payload gateway, mailer, or chain RPC failed.
	// Release follow-ups that hit this stay retryable; the released flag is
	// never reverted because of it.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
