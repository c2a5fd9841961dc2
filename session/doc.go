// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session provides the production SCTP transport behind a data
// channel: a [Session] owns one pion/sctp association and the stream
// identifier space on top of it, and implements datachannel.Session.
//
// A Session is created with the DTLS role the encapsulating transport
// negotiated and attached to a datagram-semantics net.Conn with
// [Session.Start]. The role decides both sides of the association handshake
// (client or server) and the identifier parity rule from RFC 8832: the DTLS
// client dials even stream identifiers, the server odd ones. Identifier 0,
// although even, is never handed out; the channel layer uses 0 as the
// "unassigned" sentinel.
//
// Outbound streams are dialed with [Session.OpenStream] (normally via
// datachannel.Channel.Open); inbound streams announced by the peer are
// collected with [Session.AcceptStream] and handed to a channel via
// Attach.
package session
