// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package datachannel implements the application-facing side of a WebRTC
// data channel: an ordered/unordered, reliable/partially-reliable message
// endpoint multiplexed over a single SCTP association.
//
// A [Channel] is created with [New] before any networking exists and starts
// in [StateConnecting]. Handlers may be registered and the buffered-amount
// low threshold configured while in that state; everything requested before
// the transport exists is replayed onto the stream when it appears.
// [Channel.Open] attaches the channel to a [Session] (the SCTP transport
// collaborator): it translates the channel's reliability configuration into
// a DCEP channel type and reliability parameter, allocates a stream
// identifier if none was negotiated out-of-band, dials the stream, and
// completes the transition to [StateOpen].
//
// In the default operating mode a background delivery loop reads inbound
// messages from the stream and invokes the registered OnMessage handler.
// The handler is awaited before the next read, so a slow handler throttles
// inbound delivery for that channel; there is no internal queue between the
// transport and the application. When the stream fails, the loop moves the
// channel to [StateClosed] before any callback fires, reports the cause via
// OnError unless it is a normal close, and then fires OnClose exactly once.
//
// The alternate detach mode ([Options.DetachStreams]) hands the raw
// [Stream] to the caller via [Channel.Detach] for direct I/O. The delivery
// loop is never started for a detached channel; the two modes are mutually
// exclusive for the life of the channel.
//
// The session package provides the production [Session] implementation on
// top of pion/sctp, and the netconn package wraps a detached [Stream] as a
// net.Conn.
package datachannel
