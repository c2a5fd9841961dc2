// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pion/transport/v4/dpipe"

	"github.com/logist322/webrtc/datachannel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSession_AllocateStreamIDParity(t *testing.T) {
	t.Run("client allocates even starting at 2", func(t *testing.T) {
		session := New(Config{Role: RoleClient, Logger: discardLogger()})
		for _, want := range []uint16{2, 4, 6} {
			id, err := session.AllocateStreamID()
			if err != nil {
				t.Fatalf("AllocateStreamID: %v", err)
			}
			if id != want {
				t.Errorf("allocated %d, want %d", id, want)
			}
		}
	})

	t.Run("server allocates odd starting at 1", func(t *testing.T) {
		session := New(Config{Role: RoleServer, Logger: discardLogger()})
		for _, want := range []uint16{1, 3, 5} {
			id, err := session.AllocateStreamID()
			if err != nil {
				t.Fatalf("AllocateStreamID: %v", err)
			}
			if id != want {
				t.Errorf("allocated %d, want %d", id, want)
			}
		}
	})
}

func TestSession_AllocateSkipsReserved(t *testing.T) {
	session := New(Config{Role: RoleClient, Logger: discardLogger()})
	session.ReserveStreamID(2)
	session.ReserveStreamID(4)

	id, err := session.AllocateStreamID()
	if err != nil {
		t.Fatalf("AllocateStreamID: %v", err)
	}
	if id != 6 {
		t.Errorf("allocated %d, want 6 (2 and 4 reserved)", id)
	}
}

func TestSession_AllocateExhaustion(t *testing.T) {
	session := New(Config{Role: RoleServer, Logger: discardLogger()})
	for id := uint32(1); id <= maxStreamID; id += 2 {
		session.ReserveStreamID(uint16(id))
	}
	if _, err := session.AllocateStreamID(); !errors.Is(err, ErrNoAvailableStreamID) {
		t.Fatalf("AllocateStreamID error = %v, want ErrNoAvailableStreamID", err)
	}
}

func TestSession_NotEstablishedBeforeStart(t *testing.T) {
	session := New(Config{Role: RoleClient, Logger: discardLogger()})
	if session.Established() {
		t.Error("Established() = true before Start")
	}
	if _, _, err := session.AcceptStream(); !errors.Is(err, ErrNotEstablished) {
		t.Errorf("AcceptStream error = %v, want ErrNotEstablished", err)
	}
	if _, err := session.OpenStream(2, datachannel.StreamConfig{}); !errors.Is(err, ErrNotEstablished) {
		t.Errorf("OpenStream error = %v, want ErrNotEstablished", err)
	}
	if err := session.Close(); err != nil {
		t.Errorf("Close before Start: %v", err)
	}
}

// startPair establishes a client and a server session over an in-process
// datagram pipe.
func startPair(t *testing.T) (*Session, *Session) {
	t.Helper()

	connClient, connServer := dpipe.Pipe()
	client := New(Config{Role: RoleClient, Logger: discardLogger()})
	server := New(Config{Role: RoleServer, Logger: discardLogger()})

	started := make(chan error, 2)
	go func() { started <- client.Start(connClient) }()
	go func() { started <- server.Start(connServer) }()
	for index := 0; index < 2; index++ {
		select {
		case err := <-started:
			if err != nil {
				t.Fatalf("Start: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("association handshake timed out")
		}
	}

	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func TestSession_StartTwice(t *testing.T) {
	client, _ := startPair(t)
	conn, _ := dpipe.Pipe()
	if err := client.Start(conn); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start error = %v, want ErrAlreadyStarted", err)
	}
}

// TestSession_EndToEnd exercises the full path: a channel opened on the
// client session, accepted and attached on the server session, messages in
// both directions, and close propagation to the peer.
func TestSession_EndToEnd(t *testing.T) {
	client, server := startPair(t)
	logger := discardLogger()

	outbound := datachannel.New(datachannel.Parameters{
		Label:    "echo",
		Protocol: "test",
		Ordered:  true,
	}, datachannel.Options{}, logger)

	fromServer := make(chan datachannel.Message, 1)
	outbound.OnMessage(func(msg datachannel.Message) { fromServer <- msg })

	if err := outbound.Open(client); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := outbound.ID(); got != 2 {
		t.Errorf("outbound ID = %d, want the client's first identifier 2", got)
	}

	stream, id, err := server.AcceptStream()
	if err != nil {
		t.Fatalf("AcceptStream: %v", err)
	}
	if id != outbound.ID() {
		t.Errorf("accepted stream id = %d, want %d", id, outbound.ID())
	}

	inbound := datachannel.New(datachannel.Parameters{Label: "echo"}, datachannel.Options{}, logger)
	fromClient := make(chan datachannel.Message, 1)
	peerClosed := make(chan struct{})
	inbound.OnMessage(func(msg datachannel.Message) { fromClient <- msg })
	inbound.OnClose(func() { close(peerClosed) })
	inbound.Attach(stream)

	if _, err := outbound.SendText("ping"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	select {
	case msg := <-fromClient:
		if string(msg.Data) != "ping" || !msg.IsString {
			t.Errorf("server received %q (text=%v), want text ping", msg.Data, msg.IsString)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server never received the client's message")
	}

	if _, err := inbound.Send([]byte("pong")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case msg := <-fromServer:
		if string(msg.Data) != "pong" || msg.IsString {
			t.Errorf("client received %q (text=%v), want binary pong", msg.Data, msg.IsString)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("client never received the server's message")
	}

	if err := outbound.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-peerClosed:
	case <-time.After(10 * time.Second):
		t.Fatal("peer never observed the close")
	}
	if got := inbound.State(); got != datachannel.StateClosed {
		t.Errorf("peer state = %v after close, want %v", got, datachannel.StateClosed)
	}
}
