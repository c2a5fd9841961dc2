// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datachannel

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Parameters configures a Channel at construction. All fields are immutable
// after New.
type Parameters struct {
	// Label distinguishes this channel from others on the same
	// association. Labels are not required to be unique.
	Label string

	// Protocol names the sub-protocol carried on the channel, if any.
	Protocol string

	// Ordered selects in-order delivery. False permits out-of-order
	// delivery.
	Ordered bool

	// MaxPacketLifeTime bounds the time window, in milliseconds, during
	// which transmissions and retransmissions may occur in unreliable
	// mode. Mutually exclusive with MaxRetransmits.
	MaxPacketLifeTime uint16

	// MaxRetransmits bounds the number of retransmissions attempted in
	// unreliable mode. Mutually exclusive with MaxPacketLifeTime.
	MaxRetransmits uint16

	// Negotiated is true when both peers agreed on the channel identifier
	// out-of-band, skipping in-band DCEP negotiation.
	Negotiated bool

	// ID pre-assigns the stream identifier for negotiated channels. Zero
	// means the identifier is allocated from the session at open time.
	ID uint16
}

// Options selects the channel's operating mode. The value is snapshotted at
// construction: changing the owning context's configuration after a channel
// exists does not affect it.
type Options struct {
	// DetachStreams enables detach mode: Detach hands the raw stream to
	// the caller and the built-in delivery loop is never started.
	// Combining detached and handler-driven channels on one channel is
	// not supported.
	DetachStreams bool
}

// Channel is a bidirectional message endpoint multiplexed over an SCTP
// association. It is created before any networking exists and attached to
// its transport by Open. All methods are safe for concurrent use.
type Channel struct {
	statsID  string
	label    string
	protocol string

	ordered           bool
	maxPacketLifeTime uint16
	maxRetransmits    uint16
	negotiated        bool
	detachStreams     bool

	logger *slog.Logger

	// id holds the stream identifier in uint16 range; zero means
	// unassigned. Written at most once, 0 → nonzero.
	id    atomic.Uint32
	state atomic.Uint32

	detachRequested            atomic.Bool
	bufferedAmountLowThreshold atomic.Uint64

	// handlers is shared with the delivery loop.
	handlers *handlerSet

	// mu guards the write-once session and stream references and the
	// loopDone handle. Neither reference is ever cleared; channel reuse
	// after close is not supported.
	mu       sync.Mutex
	session  Session
	stream   Stream
	loopDone chan struct{}
}

// New creates a Channel in StateConnecting before the networking is set up.
// The logger may not be nil; pass slog.New against io.Discard to silence
// diagnostics.
func New(params Parameters, options Options, logger *slog.Logger) *Channel {
	channel := &Channel{
		statsID:           fmt.Sprintf("DataChannel-%d", time.Now().UnixNano()),
		label:             params.Label,
		protocol:          params.Protocol,
		ordered:           params.Ordered,
		maxPacketLifeTime: params.MaxPacketLifeTime,
		maxRetransmits:    params.MaxRetransmits,
		negotiated:        params.Negotiated,
		detachStreams:     options.DetachStreams,
		logger:            logger,
		handlers:          &handlerSet{},
	}
	channel.id.Store(uint32(params.ID))
	channel.state.Store(uint32(StateConnecting))
	return channel
}

// Open attaches the channel to the session's SCTP association. It is
// idempotent: once a session reference is stored, further calls succeed
// without side effects, which protects against duplicate opens from
// concurrent renegotiation paths.
//
// Open requires an established association, negotiates the DCEP channel
// type from the reliability configuration, allocates a stream identifier
// when none was pre-assigned, dials the stream, and replays any
// buffered-amount-low threshold and handler that were registered while the
// channel was still connecting. It then completes the open transition: the
// channel moves to StateOpen, a pending OnOpen handler fires, and in
// non-detach mode the delivery loop starts.
func (c *Channel) Open(session Session) error {
	if !session.Established() {
		return ErrTransportNotEstablished
	}

	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return nil
	}
	c.session = session
	c.mu.Unlock()

	channelType, reliabilityParameter := negotiateReliability(c.ordered, c.maxPacketLifeTime, c.maxRetransmits)

	if c.ID() == 0 {
		id, err := session.AllocateStreamID()
		if err != nil {
			return fmt.Errorf("allocating stream identifier: %w", err)
		}
		c.setID(id)
	}

	stream, err := session.OpenStream(c.ID(), StreamConfig{
		ChannelType:          channelType,
		Priority:             PriorityNormal,
		ReliabilityParameter: reliabilityParameter,
		Label:                c.label,
		Protocol:             c.protocol,
		Negotiated:           c.negotiated,
	})
	if err != nil {
		return fmt.Errorf("dialing stream %d: %w", c.ID(), err)
	}

	c.Attach(stream)
	return nil
}

// Attach completes the open transition with an externally established
// stream, for channels whose stream was accepted from the remote peer
// rather than dialed. It replays configuration requested while the channel
// was connecting, stores the stream reference, moves the channel to
// StateOpen, fires a pending OnOpen handler, and starts the delivery loop
// in non-detach mode. Attach is a no-op when a stream is already attached.
func (c *Channel) Attach(stream Stream) {
	c.mu.Lock()
	if c.stream != nil {
		c.mu.Unlock()
		return
	}

	// Both the dialed and the accepted stream arrive here, so this is
	// the single point where the threshold and low-watermark handler
	// registered before any stream existed are replayed.
	stream.SetBufferedAmountLowThreshold(c.bufferedAmountLowThreshold.Load())
	if handler := c.handlers.takeBufferedAmountLow(); handler != nil {
		stream.OnBufferedAmountLow(handler)
	}

	c.stream = stream
	var loopDone chan struct{}
	if !c.detachStreams {
		loopDone = make(chan struct{})
		c.loopDone = loopDone
	}
	c.mu.Unlock()

	c.setState(StateOpen)

	if handler := c.handlers.takeOpen(); handler != nil {
		handler()
		c.checkDetachAfterOpen()
	}

	if loopDone != nil {
		go readLoop(stream, &c.state, c.handlers, c.logger, loopDone)
	}
}

// checkDetachAfterOpen warns when detach mode is enabled but the open
// handler returned without calling Detach. A detached channel must be
// detached from OnOpen so that no delivery is missed; the miss is a
// diagnostic, not an error.
func (c *Channel) checkDetachAfterOpen() {
	if c.detachStreams && !c.detachRequested.Load() {
		c.logger.Warn("detach mode is enabled but Detach was not called, call Detach from the OnOpen handler",
			"label", c.label,
			"statsID", c.statsID,
		)
	}
}

// OnOpen registers the handler invoked once when the underlying transport
// is established. If the channel is already open, the handler is invoked
// immediately, exactly once, within this call. Registration replaces any
// previously registered open handler.
//
// The handler is stored before the state check so a registration racing
// the open transition is never lost: either the open transition takes the
// handler from the slot, or this call observes StateOpen and takes it back
// to fire it. The at-most-once guarantee holds because only one taker wins.
func (c *Channel) OnOpen(handler func()) {
	c.handlers.setOpen(handler)
	if c.State() == StateOpen {
		if pending := c.handlers.takeOpen(); pending != nil {
			pending()
			c.checkDetachAfterOpen()
		}
	}
}

// OnClose registers the handler invoked when the underlying transport is
// closed. Registration replaces any previous handler.
func (c *Channel) OnClose(handler func()) {
	c.handlers.setClose(handler)
}

// OnMessage registers the handler invoked for each inbound message, in the
// order the stream delivered them. The delivery loop waits for the handler
// to return before reading the next message. Registration replaces any
// previous handler. OnMessage handlers never run for detached channels.
func (c *Channel) OnMessage(handler func(Message)) {
	c.handlers.setMessage(handler)
}

// OnError registers the handler invoked when the underlying transport
// fails. Normal stream closure is not reported as an error. Registration
// replaces any previous handler.
func (c *Channel) OnError(handler func(error)) {
	c.handlers.setError(handler)
}

// OnBufferedAmountLow registers the handler invoked when the number of
// buffered outgoing bytes falls to or below the configured threshold after
// having been above it. When the channel is already open the handler is
// registered directly on the stream; otherwise it is held and replayed at
// open time.
func (c *Channel) OnBufferedAmountLow(handler func()) {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()

	if stream != nil {
		stream.OnBufferedAmountLow(handler)
		return
	}
	c.handlers.setBufferedAmountLow(handler)
}

// Send queues a binary message to the peer and returns the number of bytes
// accepted. It fails with ErrClosedPipe unless the channel state is open.
// Open having returned is not sufficient: only StateOpen guarantees the
// send is accepted.
func (c *Channel) Send(payload []byte) (int, error) {
	stream, err := c.openStream()
	if err != nil {
		return 0, err
	}
	return stream.WriteDataChannel(payload, false)
}

// SendText queues a text message to the peer and returns the number of
// bytes accepted. It fails with ErrClosedPipe unless the channel is open.
func (c *Channel) SendText(message string) (int, error) {
	stream, err := c.openStream()
	if err != nil {
		return 0, err
	}
	return stream.WriteDataChannel([]byte(message), true)
}

func (c *Channel) openStream() (Stream, error) {
	if c.State() != StateOpen {
		return nil, ErrClosedPipe
	}
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return nil, ErrClosedPipe
	}
	return stream, nil
}

// Close closes the channel. It may be called regardless of which peer
// created the channel and is idempotent: closing a closed channel succeeds
// with no effect. Close moves the channel to StateClosing and requests
// closure of the underlying stream; the terminal transition to StateClosed
// is confirmed by the delivery loop (or the peer's close acknowledgment).
// Closing the stream also unblocks a delivery loop waiting in a read, so
// teardown does not have to wait for the transport to notice.
func (c *Channel) Close() error {
	if c.State() == StateClosed {
		return nil
	}

	c.setState(StateClosing)

	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return nil
	}
	return stream.Close()
}

// Detach hands the raw stream to the caller for direct I/O and disables
// handler-driven delivery for this channel. The channel must have been
// constructed with Options.DetachStreams (ErrDetachNotEnabled otherwise)
// and must already have a stream attached (ErrDetachBeforeOpened). Call
// Detach from the OnOpen handler so no inbound data races the handoff.
func (c *Channel) Detach() (Stream, error) {
	if !c.detachStreams {
		return nil, ErrDetachNotEnabled
	}

	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return nil, ErrDetachBeforeOpened
	}

	c.detachRequested.Store(true)
	return stream, nil
}

// Done returns a channel closed when the delivery loop has exited, after
// the terminal close/error fan-out completed. It returns nil for channels
// in detach mode or not yet opened.
func (c *Channel) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loopDone
}

// BufferedAmount returns the number of outgoing bytes queued on the stream
// and not yet handed to the transport, or 0 before the channel is open.
func (c *Channel) BufferedAmount() uint64 {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return 0
	}
	return stream.BufferedAmount()
}

// BufferedAmountLowThreshold returns the threshold at which the buffered
// amount is considered low. Before the channel is open, it returns the
// cached value so that configuration requested while connecting remains
// observable.
func (c *Channel) BufferedAmountLowThreshold() uint64 {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return c.bufferedAmountLowThreshold.Load()
	}
	return stream.BufferedAmountLowThreshold()
}

// SetBufferedAmountLowThreshold updates the low-watermark threshold. The
// cached value is always updated and remains the source of truth for
// values requested before open; when the channel is open the threshold is
// additionally pushed to the stream immediately.
func (c *Channel) SetBufferedAmountLowThreshold(threshold uint64) {
	c.bufferedAmountLowThreshold.Store(threshold)

	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream != nil {
		stream.SetBufferedAmountLowThreshold(threshold)
	}
}

// Label returns the channel's label.
func (c *Channel) Label() string { return c.label }

// Protocol returns the name of the sub-protocol used with this channel.
func (c *Channel) Protocol() string { return c.protocol }

// Ordered reports whether the channel delivers messages in order.
func (c *Channel) Ordered() bool { return c.ordered }

// MaxPacketLifeTime returns the unreliable-mode transmission window in
// milliseconds, or 0 when unset.
func (c *Channel) MaxPacketLifeTime() uint16 { return c.maxPacketLifeTime }

// MaxRetransmits returns the unreliable-mode retransmission cap, or 0 when
// unset.
func (c *Channel) MaxRetransmits() uint16 { return c.maxRetransmits }

// Negotiated reports whether the channel identifier was agreed out-of-band.
func (c *Channel) Negotiated() bool { return c.negotiated }

// ID returns the channel's stream identifier, or 0 while unassigned. Once
// set to a nonzero value it never changes.
func (c *Channel) ID() uint16 { return uint16(c.id.Load()) }

// State returns the channel's lifecycle state.
func (c *Channel) State() State { return State(c.state.Load()) }

// StatsID returns the opaque identifier generated at construction for
// correlating this channel in diagnostics.
func (c *Channel) StatsID() string { return c.statsID }

func (c *Channel) setID(id uint16) {
	c.id.CompareAndSwap(0, uint32(id))
}

func (c *Channel) setState(state State) {
	c.state.Store(uint32(state))
}
