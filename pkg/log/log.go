// Copyright 2016 ETH Zurich
// Copyright 2026 The relayshim Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is the structured logging facade used across the repository.
// Log calls take a message followed by alternating key/value pairs:
//
//	log.Debug("Dropping packet", "reason", reason, "ifid", ifID)
//
// The backing implementation is zap. Setup configures the console sink and an
// optional rotating log file.
package log

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/relayshim/relayshim/pkg/private/serrors"
)

// Level of a log entry.
type Level zapcore.Level

const (
	DebugLevel = Level(zapcore.DebugLevel)
	InfoLevel  = Level(zapcore.InfoLevel)
	ErrorLevel = Level(zapcore.ErrorLevel)
)

// Logger describes the logger interface.
type Logger interface {
	New(ctx ...any) Logger
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Enabled(lvl Level) bool
}

var (
	zapLogger   = zap.NewNop()
	globalLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	fileSink    *lumberjack.Logger
)

// Setup configures the root logger according to cfg. It may be called more
// than once; a previously opened log file is closed.
func Setup(cfg Config, opts ...Option) error {
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return serrors.Wrap("validating log config", err)
	}
	o := applyOptions(opts)

	lvl, err := parseLevel(cfg.Console.Level)
	if err != nil {
		return err
	}
	globalLevel.SetLevel(lvl)

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(cfg.Console.Format), zapcore.Lock(os.Stderr), globalLevel),
	}
	if fileSink != nil {
		fileSink.Close()
		fileSink = nil
	}
	if cfg.File.Path != "" {
		fileLvl, err := parseLevel(cfg.File.Level)
		if err != nil {
			return err
		}
		fileSink = &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.Size,
			MaxAge:     cfg.File.MaxAge,
			MaxBackups: cfg.File.MaxBackups,
		}
		cores = append(cores, zapcore.NewCore(
			newEncoder(cfg.File.Format), zapcore.AddSync(fileSink), fileLvl))
	}
	zapOpts := append([]zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}, o.zapOptions()...)
	zapLogger = zap.New(zapcore.NewTee(cores...), zapOpts...)
	zap.ReplaceGlobals(zapLogger)
	return nil
}

func newEncoder(format string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "json" {
		return zapcore.NewJSONEncoder(encCfg)
	}
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encCfg)
}

func parseLevel(s string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return lvl, serrors.Wrap("parsing log level", err, "level", s)
	}
	return lvl, nil
}

// Flush writes buffered entries to the sinks.
func Flush() {
	_ = zapLogger.Sync()
}

// HandlePanic catches panics in the calling goroutine, logs them and
// re-panics. Use it as the first deferred call of every goroutine.
func HandlePanic() {
	if msg := recover(); msg != nil {
		zapLogger.Error("Panic", zap.Any("msg", msg), zap.ByteString("stack", debug.Stack()))
		Flush()
		panic(msg)
	}
}

// Debug logs at debug level.
func Debug(msg string, ctx ...any) {
	zapLogger.Debug(msg, convertCtx(ctx)...)
}

// Info logs at info level.
func Info(msg string, ctx ...any) {
	zapLogger.Info(msg, convertCtx(ctx)...)
}

// Error logs at error level.
func Error(msg string, ctx ...any) {
	zapLogger.Error(msg, convertCtx(ctx)...)
}

// New creates a logger with the given context.
func New(ctx ...any) Logger {
	return &logger{logger: zapLogger.With(convertCtx(ctx)...)}
}

// Root returns the root logger. It's a logger without any context.
func Root() Logger {
	return &logger{logger: zapLogger}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return &logger{logger: zap.NewNop()}
}

// SafeNewLogger creates a logger from parent with the given context. A nil
// parent yields nil, which the nil-safe helpers below accept.
func SafeNewLogger(parent Logger, ctx ...any) Logger {
	if parent == nil {
		return nil
	}
	return parent.New(ctx...)
}

// SafeDebug logs at debug level if l is non-nil.
func SafeDebug(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Debug(msg, ctx...)
	}
}

// SafeInfo logs at info level if l is non-nil.
func SafeInfo(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Info(msg, ctx...)
	}
}

// SafeError logs at error level if l is non-nil.
func SafeError(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Error(msg, ctx...)
	}
}

type logger struct {
	logger *zap.Logger
}

func (l *logger) New(ctx ...any) Logger {
	return &logger{logger: l.logger.With(convertCtx(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...any) {
	l.logger.Debug(msg, convertCtx(ctx)...)
}

func (l *logger) Info(msg string, ctx ...any) {
	l.logger.Info(msg, convertCtx(ctx)...)
}

func (l *logger) Error(msg string, ctx ...any) {
	l.logger.Error(msg, convertCtx(ctx)...)
}

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(zapcore.Level(lvl))
}

func (l *logger) WithOptions(opts ...zap.Option) Logger {
	return &logger{logger: l.logger.WithOptions(opts...)}
}

func convertCtx(ctx []any) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		key, ok := ctx[i].(string)
		if !ok {
			key = fmt.Sprint(ctx[i])
		}
		fields = append(fields, zap.Any(key, ctx[i+1]))
	}
	return fields
}
