// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netconn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// errNoPeer is returned by UDPConn I/O before AwaitPeer has latched a
// remote address.
var errNoPeer = errors.New("no peer latched, call AwaitPeer first")

// maxDatagramSize bounds a single inbound UDP datagram.
const maxDatagramSize = 65535

// DialUDP opens a connected UDP socket from localAddr (may be empty for an
// ephemeral port) to remoteAddr, suitable for carrying an SCTP association
// as the connecting side.
func DialUDP(localAddr, remoteAddr string) (net.Conn, error) {
	var local *net.UDPAddr
	if localAddr != "" {
		resolved, err := net.ResolveUDPAddr("udp", localAddr)
		if err != nil {
			return nil, fmt.Errorf("resolving local address %q: %w", localAddr, err)
		}
		local = resolved
	}
	remote, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving remote address %q: %w", remoteAddr, err)
	}
	conn, err := net.DialUDP("udp", local, remote)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", remoteAddr, err)
	}
	return conn, nil
}

// ListenUDP opens an unconnected UDP socket on localAddr. The returned
// UDPConn becomes usable for connected-style I/O after AwaitPeer latches
// the first remote sender.
func ListenUDP(localAddr string) (*UDPConn, error) {
	local, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving local address %q: %w", localAddr, err)
	}
	socket, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", localAddr, err)
	}
	return &UDPConn{socket: socket}, nil
}

// UDPConn presents an unconnected UDP socket as a connected net.Conn by
// latching onto the first peer that sends a datagram. Datagrams from other
// sources are discarded after the latch. This is the accepting side of an
// SCTP-over-UDP association; the first datagram (the peer's INIT) is
// buffered by AwaitPeer and handed to the first Read so the handshake is
// not lost.
type UDPConn struct {
	socket *net.UDPConn

	mu      sync.Mutex
	peer    *net.UDPAddr
	pending []byte
}

var _ net.Conn = (*UDPConn)(nil)

// AwaitPeer blocks until the first datagram arrives and latches its sender
// as the connection's peer. It returns the context's error if ctx is done
// first. AwaitPeer must complete before Read or Write are used.
func (c *UDPConn) AwaitPeer(ctx context.Context) error {
	// latchMu orders the cancellation callback against a successful
	// latch: once latched is set and the deadline cleared, a late
	// callback must not re-arm a past deadline on the socket.
	var latchMu sync.Mutex
	latched := false
	stop := context.AfterFunc(ctx, func() {
		latchMu.Lock()
		defer latchMu.Unlock()
		if latched {
			return
		}
		c.socket.SetReadDeadline(time.Now())
	})
	defer stop()

	buffer := make([]byte, maxDatagramSize)
	n, addr, err := c.socket.ReadFromUDP(buffer)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("waiting for peer: %w", err)
	}

	c.mu.Lock()
	c.peer = addr
	c.pending = append([]byte(nil), buffer[:n]...)
	c.mu.Unlock()

	latchMu.Lock()
	latched = true
	c.socket.SetReadDeadline(time.Time{})
	latchMu.Unlock()
	return nil
}

func (c *UDPConn) Read(buffer []byte) (int, error) {
	c.mu.Lock()
	peer := c.peer
	if len(c.pending) > 0 {
		n := copy(buffer, c.pending)
		c.pending = nil
		c.mu.Unlock()
		return n, nil
	}
	c.mu.Unlock()
	if peer == nil {
		return 0, errNoPeer
	}

	for {
		n, addr, err := c.socket.ReadFromUDP(buffer)
		if err != nil {
			return 0, err
		}
		if !addr.IP.Equal(peer.IP) || addr.Port != peer.Port {
			// Stranger traffic; not our peer.
			continue
		}
		return n, nil
	}
}

func (c *UDPConn) Write(buffer []byte) (int, error) {
	c.mu.Lock()
	peer := c.peer
	c.mu.Unlock()
	if peer == nil {
		return 0, errNoPeer
	}
	return c.socket.WriteToUDP(buffer, peer)
}

func (c *UDPConn) Close() error {
	return c.socket.Close()
}

func (c *UDPConn) LocalAddr() net.Addr {
	return c.socket.LocalAddr()
}

// RemoteAddr returns the latched peer address, or nil before AwaitPeer
// completes.
func (c *UDPConn) RemoteAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peer == nil {
		return nil
	}
	return c.peer
}

func (c *UDPConn) SetDeadline(deadline time.Time) error {
	return c.socket.SetDeadline(deadline)
}

func (c *UDPConn) SetReadDeadline(deadline time.Time) error {
	return c.socket.SetReadDeadline(deadline)
}

func (c *UDPConn) SetWriteDeadline(deadline time.Time) error {
	return c.socket.SetWriteDeadline(deadline)
}
