// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	pionchannel "github.com/pion/datachannel"
	"github.com/pion/sctp"

	"github.com/logist322/webrtc/datachannel"
)

// Role is the DTLS role negotiated by the encapsulating transport. It
// selects the association handshake side and the stream identifier parity.
type Role int

const (
	// RoleClient acted as the DTLS client and uses even stream
	// identifiers.
	RoleClient Role = iota

	// RoleServer acted as the DTLS server and uses odd stream
	// identifiers.
	RoleServer
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleServer:
		return "server"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyStarted is returned by Start when the association has
	// already been established.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNotEstablished is returned by stream operations before Start
	// has completed.
	ErrNotEstablished = errors.New("association not established")

	// ErrNoAvailableStreamID is returned when the 16-bit identifier
	// space for this role is exhausted.
	ErrNoAvailableStreamID = errors.New("no stream identifier available")
)

// maxStreamID is the largest SCTP stream identifier.
const maxStreamID = 65535

// Config configures a Session.
type Config struct {
	// Role is the DTLS role of this side.
	Role Role

	// Logger receives session diagnostics and, bridged, the pion sctp
	// and datachannel logs. May not be nil.
	Logger *slog.Logger
}

// Session adapts one SCTP association to the datachannel.Session interface
// and tracks which stream identifiers are in use on it. All methods are
// safe for concurrent use.
type Session struct {
	role    Role
	logger  *slog.Logger
	factory *loggerFactory

	// mu guards the write-once association and the identifier set.
	mu          sync.Mutex
	association *sctp.Association
	usedIDs     map[uint16]struct{}
}

// Compile-time collaborator checks.
var (
	_ datachannel.Session = (*Session)(nil)
	_ datachannel.Stream  = (*pionchannel.DataChannel)(nil)
)

// New creates a Session for the given role. The session is unusable until
// Start establishes the association.
func New(config Config) *Session {
	return &Session{
		role:    config.Role,
		logger:  config.Logger,
		factory: &loggerFactory{logger: config.Logger},
		usedIDs: make(map[uint16]struct{}),
	}
}

// Start establishes the SCTP association over conn, which must preserve
// datagram boundaries (a connected UDP socket, a DTLS connection, or an
// in-process datagram pipe). The handshake side follows the session role:
// the DTLS client initiates, the server responds. Start blocks until the
// handshake completes and may be called once; later calls fail with
// ErrAlreadyStarted.
func (s *Session) Start(conn net.Conn) error {
	s.mu.Lock()
	if s.association != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.mu.Unlock()

	config := sctp.Config{
		NetConn:       conn,
		LoggerFactory: s.factory,
	}

	var association *sctp.Association
	var err error
	switch s.role {
	case RoleClient:
		association, err = sctp.Client(config)
	default:
		association, err = sctp.Server(config)
	}
	if err != nil {
		return fmt.Errorf("establishing association as %s: %w", s.role, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.association != nil {
		// Lost a Start race; keep the first association.
		association.Close()
		return ErrAlreadyStarted
	}
	s.association = association

	s.logger.Info("SCTP association established", "role", s.role.String())
	return nil
}

// Established reports whether the association exists and streams can be
// dialed.
func (s *Session) Established() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.association != nil
}

// AllocateStreamID reserves the lowest unused stream identifier of this
// role's parity: even for the DTLS client, odd for the server. Identifier 0
// is reserved as the channel layer's "unassigned" sentinel, so client
// allocation starts at 2.
func (s *Session) AllocateStreamID() (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uint32(1)
	if s.role == RoleClient {
		id = 2
	}
	for ; id <= maxStreamID; id += 2 {
		if _, used := s.usedIDs[uint16(id)]; !used {
			s.usedIDs[uint16(id)] = struct{}{}
			return uint16(id), nil
		}
	}
	return 0, ErrNoAvailableStreamID
}

// ReserveStreamID marks an identifier as in use without dialing it, for
// channels whose identifier was negotiated out-of-band.
func (s *Session) ReserveStreamID(id uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usedIDs[id] = struct{}{}
}

// OpenStream dials a stream with the given identifier on the association,
// announcing it to the peer with the DCEP parameters in config.
func (s *Session) OpenStream(id uint16, config datachannel.StreamConfig) (datachannel.Stream, error) {
	s.mu.Lock()
	association := s.association
	s.usedIDs[id] = struct{}{}
	s.mu.Unlock()
	if association == nil {
		return nil, ErrNotEstablished
	}

	stream, err := pionchannel.Dial(association, id, &pionchannel.Config{
		ChannelType:          pionchannel.ChannelType(config.ChannelType),
		Priority:             config.Priority,
		ReliabilityParameter: config.ReliabilityParameter,
		Label:                config.Label,
		Protocol:             config.Protocol,
		Negotiated:           config.Negotiated,
		LoggerFactory:        s.factory,
	})
	if err != nil {
		return nil, fmt.Errorf("dialing stream %d: %w", id, err)
	}

	s.logger.Debug("stream dialed",
		"id", id,
		"label", config.Label,
		"channelType", fmt.Sprintf("%#x", byte(config.ChannelType)),
	)
	return stream, nil
}

// AcceptStream blocks until the peer announces a new stream on the
// association and returns it together with its stream identifier. The
// identifier is recorded as in use. The returned stream is typically handed
// to a connecting Channel via Attach.
func (s *Session) AcceptStream() (datachannel.Stream, uint16, error) {
	s.mu.Lock()
	association := s.association
	s.mu.Unlock()
	if association == nil {
		return nil, 0, ErrNotEstablished
	}

	stream, err := pionchannel.Accept(association, &pionchannel.Config{
		LoggerFactory: s.factory,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("accepting stream: %w", err)
	}

	id := stream.StreamIdentifier()
	s.mu.Lock()
	s.usedIDs[id] = struct{}{}
	s.mu.Unlock()

	s.logger.Debug("stream accepted", "id", id)
	return stream, id, nil
}

// Close shuts down the association. Streams dialed on it fail and their
// channels observe the closure through their delivery loops.
func (s *Session) Close() error {
	s.mu.Lock()
	association := s.association
	s.mu.Unlock()
	if association == nil {
		return nil
	}
	return association.Close()
}
