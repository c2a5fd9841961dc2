// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datachannel

import (
	"errors"
	"testing"
	"time"
)

func TestHandlerSet_ReplaceSemantics(t *testing.T) {
	handlers := &handlerSet{}

	firstRan := false
	secondRan := false
	handlers.setMessage(func(Message) { firstRan = true })
	handlers.setMessage(func(Message) { secondRan = true })

	handlers.dispatchMessage(Message{Data: []byte("x")})
	if firstRan {
		t.Error("replaced handler ran")
	}
	if !secondRan {
		t.Error("last-registered handler did not run")
	}
}

func TestHandlerSet_EmptySlotIsNoOp(t *testing.T) {
	handlers := &handlerSet{}
	handlers.dispatchMessage(Message{Data: []byte("x")})
	handlers.dispatchClose()
	handlers.dispatchError(errors.New("boom"))
}

func TestHandlerSet_TakeOpenClearsSlot(t *testing.T) {
	handlers := &handlerSet{}
	handlers.setOpen(func() {})

	if handlers.takeOpen() == nil {
		t.Fatal("takeOpen returned nil for an occupied slot")
	}
	if handlers.takeOpen() != nil {
		t.Fatal("takeOpen returned a handler twice")
	}
}

// Slots lock independently: delivery blocked in one slot's handler must not
// prevent registration on another slot.
func TestHandlerSet_SlotsAreIndependent(t *testing.T) {
	handlers := &handlerSet{}

	entered := make(chan struct{})
	release := make(chan struct{})
	handlers.setMessage(func(Message) {
		close(entered)
		<-release
	})

	go handlers.dispatchMessage(Message{Data: []byte("x")})
	<-entered

	registered := make(chan struct{})
	go func() {
		handlers.setClose(func() {})
		handlers.setError(func(error) {})
		close(registered)
	}()

	select {
	case <-registered:
	case <-time.After(time.Second):
		t.Fatal("registering on other slots blocked behind a message delivery")
	}
	close(release)
}

// Registering on the same slot during delivery waits for the delivery to
// finish; dispatch and registration are mutually exclusive per slot.
func TestHandlerSet_SameSlotIsSerialized(t *testing.T) {
	handlers := &handlerSet{}

	entered := make(chan struct{})
	release := make(chan struct{})
	handlers.setMessage(func(Message) {
		close(entered)
		<-release
	})

	delivered := make(chan struct{})
	go func() {
		handlers.dispatchMessage(Message{Data: []byte("x")})
		close(delivered)
	}()
	<-entered

	registered := make(chan struct{})
	go func() {
		handlers.setMessage(func(Message) {})
		close(registered)
	}()

	select {
	case <-registered:
		t.Fatal("same-slot registration completed while delivery was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-delivered
	select {
	case <-registered:
	case <-time.After(time.Second):
		t.Fatal("same-slot registration never completed after delivery finished")
	}
}
