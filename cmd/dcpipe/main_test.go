// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "testing"

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		opts    options
		wantErr bool
	}{
		{"listen only", options{listenAddr: ":5000"}, false},
		{"dial only", options{dialAddr: "host:5000"}, false},
		{"neither", options{}, true},
		{"both", options{listenAddr: ":5000", dialAddr: "host:5000"}, true},
		{"both reliability caps", options{dialAddr: "host:5000", maxRetransmits: 3, maxPacketLifeTime: 2500}, true},
		{"one reliability cap", options{dialAddr: "host:5000", maxRetransmits: 3}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate(tc.opts)
			if (err != nil) != tc.wantErr {
				t.Errorf("validate(%+v) error = %v, wantErr %v", tc.opts, err, tc.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := newLogger(level); err != nil {
			t.Errorf("newLogger(%q): %v", level, err)
		}
	}
	if _, err := newLogger("loud"); err == nil {
		t.Error("newLogger accepted an unknown level")
	}
}
