// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netconn

import (
	"net"
	"sync"
	"time"

	"github.com/logist322/webrtc/datachannel"
)

// Conn wraps a detached data channel stream as a net.Conn. Reads surface
// one inbound message at a time (text and binary alike, as raw bytes);
// writes are sent as binary messages. SCTP preserves message boundaries,
// so callers that need a byte stream should layer their own framing, as
// they would over any message-oriented transport.
type Conn struct {
	stream     datachannel.Stream
	localLabel string
	peerLabel  string

	// Deadline state. A fired deadline closes the stream to unblock
	// pending I/O, after which the conn is permanently broken.
	mu             sync.Mutex
	readTimer      *time.Timer
	writeTimer     *time.Timer
	deadlineClosed bool
}

var _ net.Conn = (*Conn)(nil)

// NewConn wraps a detached stream as a net.Conn. localLabel and peerLabel
// identify the endpoints in the synthetic addresses.
func NewConn(stream datachannel.Stream, localLabel, peerLabel string) *Conn {
	return &Conn{
		stream:     stream,
		localLabel: localLabel,
		peerLabel:  peerLabel,
	}
}

func (c *Conn) Read(buffer []byte) (int, error) {
	n, _, err := c.stream.ReadDataChannel(buffer)
	return n, err
}

func (c *Conn) Write(buffer []byte) (int, error) {
	return c.stream.WriteDataChannel(buffer, false)
}

func (c *Conn) Close() error {
	c.mu.Lock()
	c.stopTimersLocked()
	c.mu.Unlock()
	return c.stream.Close()
}

// LocalAddr returns a synthetic address identifying the local endpoint.
func (c *Conn) LocalAddr() net.Addr {
	return &streamAddr{label: c.localLabel}
}

// RemoteAddr returns a synthetic address identifying the remote endpoint.
func (c *Conn) RemoteAddr() net.Addr {
	return &streamAddr{label: c.peerLabel}
}

// SetDeadline sets both read and write deadlines. A zero value clears them.
func (c *Conn) SetDeadline(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setReadDeadlineLocked(deadline)
	c.setWriteDeadlineLocked(deadline)
	return nil
}

// SetReadDeadline sets the read deadline. When it fires, pending reads
// return an error. A zero value clears the deadline.
func (c *Conn) SetReadDeadline(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setReadDeadlineLocked(deadline)
	return nil
}

// SetWriteDeadline sets the write deadline. When it fires, pending writes
// return an error. A zero value clears the deadline.
func (c *Conn) SetWriteDeadline(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setWriteDeadlineLocked(deadline)
	return nil
}

func (c *Conn) setReadDeadlineLocked(deadline time.Time) {
	if c.readTimer != nil {
		c.readTimer.Stop()
		c.readTimer = nil
	}
	if deadline.IsZero() || c.deadlineClosed {
		return
	}
	duration := time.Until(deadline)
	if duration <= 0 {
		c.closeFromDeadlineLocked()
		return
	}
	c.readTimer = time.AfterFunc(duration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.closeFromDeadlineLocked()
	})
}

func (c *Conn) setWriteDeadlineLocked(deadline time.Time) {
	if c.writeTimer != nil {
		c.writeTimer.Stop()
		c.writeTimer = nil
	}
	if deadline.IsZero() || c.deadlineClosed {
		return
	}
	duration := time.Until(deadline)
	if duration <= 0 {
		c.closeFromDeadlineLocked()
		return
	}
	c.writeTimer = time.AfterFunc(duration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.closeFromDeadlineLocked()
	})
}

// closeFromDeadlineLocked closes the underlying stream to unblock pending
// I/O. Must be called with c.mu held.
func (c *Conn) closeFromDeadlineLocked() {
	if c.deadlineClosed {
		return
	}
	c.deadlineClosed = true
	c.stream.Close()
}

func (c *Conn) stopTimersLocked() {
	if c.readTimer != nil {
		c.readTimer.Stop()
		c.readTimer = nil
	}
	if c.writeTimer != nil {
		c.writeTimer.Stop()
		c.writeTimer = nil
	}
}

// streamAddr is a synthetic net.Addr for data channel connections.
type streamAddr struct {
	label string
}

func (a *streamAddr) Network() string { return "webrtc" }
func (a *streamAddr) String() string  { return a.label }
