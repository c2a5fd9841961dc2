// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides small shared helpers for classifying network
// errors at the transport boundary.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal stream termination:
// EOF, closed connection, broken pipe, or connection reset. An SCTP stream
// that is reset by the peer or closed locally surfaces io.EOF (or
// net.ErrClosed when the socket underneath went away first) to the reader
// that was blocked on it. These are the expected outcome of teardown and
// should not be reported to error handlers or logged as failures.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
