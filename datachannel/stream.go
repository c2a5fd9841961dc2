// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datachannel

// ChannelType identifies the DCEP channel type negotiated for a stream,
// carrying both the ordering and the partial-reliability policy. The values
// are the wire encoding from RFC 8832; the high bit selects unordered
// delivery.
type ChannelType byte

const (
	ChannelTypeReliable                       ChannelType = 0x00
	ChannelTypeReliableUnordered              ChannelType = 0x80
	ChannelTypePartialReliableRexmit          ChannelType = 0x01
	ChannelTypePartialReliableRexmitUnordered ChannelType = 0x81
	ChannelTypePartialReliableTimed           ChannelType = 0x02
	ChannelTypePartialReliableTimedUnordered  ChannelType = 0x82
)

// Channel priority values from RFC 8832. Streams dialed by this package
// always use PriorityNormal.
const (
	PriorityBelowNormal uint16 = 128
	PriorityNormal      uint16 = 256
	PriorityHigh        uint16 = 512
	PriorityExtraHigh   uint16 = 1024
)

// StreamConfig carries the parameters for dialing a stream on the
// association: the negotiated channel type and reliability parameter plus
// the channel's identifying attributes for the DCEP open message.
type StreamConfig struct {
	ChannelType          ChannelType
	Priority             uint16
	ReliabilityParameter uint32
	Label                string
	Protocol             string
	Negotiated           bool
}

// Stream is one multiplexed sub-channel within the association, carrying
// this channel's bytes. pion's *datachannel.DataChannel satisfies it; tests
// substitute in-process fakes.
//
// ReadDataChannel blocks until a message arrives, filling payload and
// returning the message length and whether the message is text. It returns
// an error when the stream terminates. WriteDataChannel queues a binary or
// text message and returns the number of bytes accepted.
type Stream interface {
	ReadDataChannel(payload []byte) (int, bool, error)
	WriteDataChannel(payload []byte, isString bool) (int, error)
	Close() error
	BufferedAmount() uint64
	BufferedAmountLowThreshold() uint64
	SetBufferedAmountLowThreshold(threshold uint64)
	OnBufferedAmountLow(handler func())
}

// Session is the SCTP transport collaborator that owns the association and
// the stream-identifier space. The Channel consumes it during Open and
// never stores more than one.
type Session interface {
	// Established reports whether the underlying association exists and
	// is usable for dialing streams.
	Established() bool

	// AllocateStreamID reserves an unused stream identifier according to
	// the negotiated DTLS role.
	AllocateStreamID() (uint16, error)

	// OpenStream dials a new stream with the given identifier on the
	// association.
	OpenStream(id uint16, config StreamConfig) (Stream, error)
}
