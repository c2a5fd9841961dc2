// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datachannel

import (
	"log/slog"
	"sync/atomic"

	"github.com/logist322/webrtc/lib/netutil"
)

// maxMessageSize is the largest inbound message the delivery loop accepts.
// 65535 bytes is the practical ceiling for data channel messages across
// browser implementations.
const maxMessageSize = 65535

// readLoop is the per-channel delivery loop, run as its own goroutine for
// the life of the stream in non-detach mode. It takes the stream, the state
// word, and the handler set rather than the Channel: it owns only what it
// needs to deliver events, so it can drain a final error/close notification
// after the application has let go of the Channel.
//
// Each iteration blocks in ReadDataChannel and hands the message to the
// OnMessage handler, waiting for the handler to return before reading
// again. That is the backpressure mechanism: there is no queue between the
// stream and the application. On read failure the loop stores StateClosed
// before dispatching anything, so any observer that sees a close or error
// callback begin also sees the channel closed, then fires OnError (unless
// the failure is a normal close) and OnClose in that order, closes done,
// and exits. The loop never restarts.
func readLoop(stream Stream, state *atomic.Uint32, handlers *handlerSet, logger *slog.Logger, done chan<- struct{}) {
	defer close(done)

	buffer := make([]byte, maxMessageSize)
	for {
		length, isString, err := stream.ReadDataChannel(buffer)
		if err != nil {
			state.Store(uint32(StateClosed))
			if !netutil.IsExpectedCloseError(err) {
				logger.Debug("delivery loop terminated by read failure", "error", err)
				handlers.dispatchError(err)
			}
			handlers.dispatchClose()
			return
		}

		payload := make([]byte, length)
		copy(payload, buffer[:length])
		handlers.dispatchMessage(Message{Data: payload, IsString: isString})
	}
}
