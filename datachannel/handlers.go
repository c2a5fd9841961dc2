// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datachannel

import "sync"

// Message is one inbound message delivered to the OnMessage handler. Data
// is sized to exactly the bytes received and owned by the receiver.
type Message struct {
	Data     []byte
	IsString bool
}

// handlerSet is the single-slot registry for the channel's five event
// handlers. Each slot holds at most one handler; registration replaces any
// previous occupant. Each slot has its own lock so that delivery on one
// slot never blocks registration on another, and delivery always sees the
// handler registered most recently. Dispatch with an empty slot is a no-op.
//
// The delivery loop holds a reference to the handlerSet independently of
// the Channel, so close/error/message fan-out keeps working even when the
// application has dropped the Channel itself.
type handlerSet struct {
	openMu sync.Mutex
	open   func()

	closeMu sync.Mutex
	close   func()

	messageMu sync.Mutex
	message   func(Message)

	errorMu sync.Mutex
	error   func(error)

	lowMu sync.Mutex
	low   func()
}

// setOpen stores the open handler for later, and takeOpen removes and
// returns it. The open handler is at-most-once: whoever takes it owns the
// single invocation.
func (h *handlerSet) setOpen(handler func()) {
	h.openMu.Lock()
	defer h.openMu.Unlock()
	h.open = handler
}

func (h *handlerSet) takeOpen() func() {
	h.openMu.Lock()
	defer h.openMu.Unlock()
	handler := h.open
	h.open = nil
	return handler
}

func (h *handlerSet) setClose(handler func()) {
	h.closeMu.Lock()
	defer h.closeMu.Unlock()
	h.close = handler
}

func (h *handlerSet) dispatchClose() {
	h.closeMu.Lock()
	defer h.closeMu.Unlock()
	if h.close != nil {
		h.close()
	}
}

func (h *handlerSet) setMessage(handler func(Message)) {
	h.messageMu.Lock()
	defer h.messageMu.Unlock()
	h.message = handler
}

func (h *handlerSet) dispatchMessage(msg Message) {
	h.messageMu.Lock()
	defer h.messageMu.Unlock()
	if h.message != nil {
		h.message(msg)
	}
}

func (h *handlerSet) setError(handler func(error)) {
	h.errorMu.Lock()
	defer h.errorMu.Unlock()
	h.error = handler
}

func (h *handlerSet) dispatchError(err error) {
	h.errorMu.Lock()
	defer h.errorMu.Unlock()
	if h.error != nil {
		h.error(err)
	}
}

// setBufferedAmountLow stores the low-watermark handler while no stream
// exists yet; takeBufferedAmountLow removes it for replay onto the stream
// at open time.
func (h *handlerSet) setBufferedAmountLow(handler func()) {
	h.lowMu.Lock()
	defer h.lowMu.Unlock()
	h.low = handler
}

func (h *handlerSet) takeBufferedAmountLow() func() {
	h.lowMu.Lock()
	defer h.lowMu.Unlock()
	handler := h.low
	h.low = nil
	return handler
}
