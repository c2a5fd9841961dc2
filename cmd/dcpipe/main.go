// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/logist322/webrtc/datachannel"
	"github.com/logist322/webrtc/lib/netutil"
	"github.com/logist322/webrtc/netconn"
	"github.com/logist322/webrtc/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dcpipe: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	listenAddr        string
	dialAddr          string
	label             string
	protocol          string
	unordered         bool
	maxRetransmits    uint16
	maxPacketLifeTime uint16
	detach            bool
	logLevel          string
}

func run() error {
	var opts options

	flagSet := pflag.NewFlagSet("dcpipe", pflag.ContinueOnError)
	flagSet.StringVar(&opts.listenAddr, "listen", "", "listen for a peer on this UDP address")
	flagSet.StringVar(&opts.dialAddr, "dial", "", "dial a listening peer at this UDP address")
	flagSet.StringVar(&opts.label, "label", "dcpipe", "data channel label")
	flagSet.StringVar(&opts.protocol, "protocol", "", "data channel sub-protocol")
	flagSet.BoolVar(&opts.unordered, "unordered", false, "allow out-of-order delivery")
	flagSet.Uint16Var(&opts.maxRetransmits, "max-retransmits", 0, "partial reliability: retransmission cap")
	flagSet.Uint16Var(&opts.maxPacketLifeTime, "max-packet-lifetime", 0, "partial reliability: transmission window in ms")
	flagSet.BoolVar(&opts.detach, "detach", false, "detach the stream and copy bytes instead of messages")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if err := validate(opts); err != nil {
		return err
	}

	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	channel, transport, err := establish(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer transport.Close()

	if opts.detach {
		stream, err := channel.Detach()
		if err != nil {
			return fmt.Errorf("detaching: %w", err)
		}
		return copyBytes(ctx, netconn.NewConn(stream, "dcpipe/local", "dcpipe/peer"))
	}
	return pumpMessages(ctx, channel)
}

func validate(opts options) error {
	if (opts.listenAddr == "") == (opts.dialAddr == "") {
		return errors.New("exactly one of --listen and --dial is required")
	}
	if opts.maxRetransmits != 0 && opts.maxPacketLifeTime != 0 {
		return errors.New("--max-retransmits and --max-packet-lifetime are mutually exclusive")
	}
	return nil
}

// establish brings up the UDP socket, the SCTP association, and the data
// channel. The dialing side opens the channel; the listening side accepts
// the peer's stream and attaches it.
func establish(ctx context.Context, opts options, logger *slog.Logger) (*datachannel.Channel, *session.Session, error) {
	params := datachannel.Parameters{
		Label:             opts.label,
		Protocol:          opts.protocol,
		Ordered:           !opts.unordered,
		MaxRetransmits:    opts.maxRetransmits,
		MaxPacketLifeTime: opts.maxPacketLifeTime,
	}
	channelOptions := datachannel.Options{DetachStreams: opts.detach}

	if opts.dialAddr != "" {
		conn, err := netconn.DialUDP("", opts.dialAddr)
		if err != nil {
			return nil, nil, err
		}

		transport := session.New(session.Config{Role: session.RoleClient, Logger: logger})
		if err := transport.Start(conn); err != nil {
			conn.Close()
			return nil, nil, err
		}

		channel := datachannel.New(params, channelOptions, logger)
		if err := channel.Open(transport); err != nil {
			transport.Close()
			return nil, nil, err
		}
		logger.Info("channel open", "label", channel.Label(), "id", channel.ID())
		return channel, transport, nil
	}

	listener, err := netconn.ListenUDP(opts.listenAddr)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("waiting for a peer", "address", listener.LocalAddr().String())
	if err := listener.AwaitPeer(ctx); err != nil {
		listener.Close()
		return nil, nil, err
	}

	transport := session.New(session.Config{Role: session.RoleServer, Logger: logger})
	if err := transport.Start(listener); err != nil {
		listener.Close()
		return nil, nil, err
	}

	stream, id, err := transport.AcceptStream()
	if err != nil {
		transport.Close()
		return nil, nil, err
	}

	channel := datachannel.New(params, channelOptions, logger)
	channel.Attach(stream)
	logger.Info("channel accepted", "label", channel.Label(), "id", id)
	return channel, transport, nil
}

// pumpMessages runs handler mode: stdin lines out as text messages,
// inbound messages to stdout.
func pumpMessages(ctx context.Context, channel *datachannel.Channel) error {
	closed := make(chan struct{})
	failed := make(chan error, 1)
	channel.OnClose(func() { close(closed) })
	channel.OnError(func(err error) {
		select {
		case failed <- err:
		default:
		}
	})
	channel.OnMessage(func(msg datachannel.Message) {
		os.Stdout.Write(msg.Data)
		if msg.IsString {
			os.Stdout.Write([]byte("\n"))
		}
	})

	scanned := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if _, err := channel.SendText(scanner.Text()); err != nil {
				scanned <- err
				return
			}
		}
		scanned <- scanner.Err()
	}()

	select {
	case <-ctx.Done():
		return channel.Close()
	case <-closed:
		return nil
	case err := <-failed:
		return fmt.Errorf("channel failed: %w", err)
	case err := <-scanned:
		if err != nil && !errors.Is(err, datachannel.ErrClosedPipe) {
			return err
		}
		return channel.Close()
	}
}

// copyBytes runs detach mode: raw byte copies between stdio and the
// detached stream.
func copyBytes(ctx context.Context, conn net.Conn) error {
	done := make(chan error, 2)
	go func() {
		_, err := io.Copy(os.Stdout, conn)
		done <- err
	}()
	go func() {
		_, err := io.Copy(conn, os.Stdin)
		done <- err
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-done:
	}
	conn.Close()
	if err != nil && !netutil.IsExpectedCloseError(err) {
		return err
	}
	return nil
}

func newLogger(level string) (*slog.Logger, error) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})), nil
}
