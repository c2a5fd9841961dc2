// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"log/slog"

	"github.com/pion/logging"
)

// loggerFactory bridges the pion LoggerFactory interface onto slog so the
// sctp and datachannel internals log through the same destination as the
// rest of the process.
type loggerFactory struct {
	logger *slog.Logger
}

var _ logging.LoggerFactory = (*loggerFactory)(nil)

func (f *loggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &leveledLogger{logger: f.logger.With("scope", scope)}
}

// leveledLogger maps pion's leveled calls onto slog levels. Trace has no
// slog equivalent and is folded into Debug.
type leveledLogger struct {
	logger *slog.Logger
}

func (l *leveledLogger) Trace(msg string) { l.logger.Debug(msg) }
func (l *leveledLogger) Tracef(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *leveledLogger) Debug(msg string) { l.logger.Debug(msg) }
func (l *leveledLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *leveledLogger) Info(msg string) { l.logger.Info(msg) }
func (l *leveledLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *leveledLogger) Warn(msg string) { l.logger.Warn(msg) }
func (l *leveledLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *leveledLogger) Error(msg string) { l.logger.Error(msg) }
func (l *leveledLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
