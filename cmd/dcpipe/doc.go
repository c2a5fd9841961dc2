// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// dcpipe pipes stdin and stdout over a single data channel between two
// peers across UDP. One side listens, the other dials:
//
//	dcpipe --listen 127.0.0.1:5000
//	dcpipe --dial 127.0.0.1:5000
//
// The dialing side acts as the DTLS client of the association and opens
// the channel; the listening side accepts it. In the default handler mode,
// stdin lines are sent as text messages and inbound messages are printed
// to stdout. With --detach the raw stream is detached and wrapped as a
// net.Conn, and stdin/stdout are copied byte-for-byte.
package main
