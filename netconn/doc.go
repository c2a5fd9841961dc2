// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netconn adapts the data channel stack to the net.Conn world.
//
// [Conn] wraps a detached datachannel.Stream as a net.Conn so detached
// channels can feed code written against standard connections (HTTP,
// io.Copy pipelines). Deadline support uses timer-based cancellation: when
// a deadline fires the underlying stream is closed, unblocking any pending
// Read or Write; once that happens the conn is permanently broken.
//
// [DialUDP] and [ListenUDP] carry an SCTP association over a plain UDP
// socket. The dial side is a connected socket; the listen side latches onto
// whichever peer sends the first datagram and then behaves as a connected
// conn, discarding traffic from other sources.
package netconn
