// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datachannel

// State is the lifecycle state of a Channel. It only moves forward through
// Connecting → Open → Closing → Closed, with one exception: a transport
// read failure jumps directly to Closed.
type State uint32

const (
	// StateConnecting is the initial state: the channel exists as a
	// configuration object but no transport is attached.
	StateConnecting State = iota + 1

	// StateOpen means a stream is attached and Send/SendText may be used.
	StateOpen

	// StateClosing means Close has been requested but the stream has not
	// yet confirmed closure.
	StateClosing

	// StateClosed is terminal. All further sends are rejected.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
