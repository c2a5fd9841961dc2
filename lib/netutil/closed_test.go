// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
)

func TestIsExpectedCloseError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"EOF", io.EOF, true},
		{"wrapped EOF", fmt.Errorf("reading stream: %w", io.EOF), true},
		{"closed connection", net.ErrClosed, true},
		{"broken pipe", syscall.EPIPE, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"unexpected EOF", io.ErrUnexpectedEOF, false},
		{"refused", syscall.ECONNREFUSED, false},
		{"generic", errors.New("association aborted"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsExpectedCloseError(tc.err); got != tc.want {
				t.Errorf("IsExpectedCloseError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
