package provider

import "errors"

var (
	ErrProviderUnavailable = errors.New("wallet provider not available")
	ErrRequestConflict     = errors.New("a connection request is already pending, open your wallet extension to resolve it")
	ErrNoAccounts          = errors.New("no wallet accounts were returned")
	// ErrProvider wraps any other provider-side failure, keeping the original
	// message.
	ErrProvider = errors.New("wallet provider error")
)
