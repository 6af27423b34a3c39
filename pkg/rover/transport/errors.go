package transport

import "errors"

var (
	// ErrNotConfigured indicates the port is used before Configure.
	ErrNotConfigured = errors.New("not configured")
	// ErrAlreadyConfigured indicates Configure is called twice.
	ErrAlreadyConfigured = errors.New("already configured")
	// ErrClosed indicates the port has been closed.
	ErrClosed = errors.New("closed")
	// ErrReadTimeout indicates nothing is received before the read deadline.
	ErrReadTimeout = errors.New("read timeout")
)
