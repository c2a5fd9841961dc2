// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datachannel

import "errors"

var (
	// ErrTransportNotEstablished is returned by Open when the session has
	// no usable SCTP association yet.
	ErrTransportNotEstablished = errors.New("transport not established")

	// ErrClosedPipe is returned by Send and SendText when the channel is
	// not open, either because Open has not completed or because the
	// channel has been closed.
	ErrClosedPipe = errors.New("read/write on closed channel")

	// ErrDetachNotEnabled is returned by Detach when the channel was not
	// constructed with Options.DetachStreams.
	ErrDetachNotEnabled = errors.New("detach is not enabled for this channel")

	// ErrDetachBeforeOpened is returned by Detach when no stream has been
	// attached yet.
	ErrDetachBeforeOpened = errors.New("detach called before the channel opened")
)
