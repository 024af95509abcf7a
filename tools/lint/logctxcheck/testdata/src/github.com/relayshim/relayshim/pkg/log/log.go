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

package log

import "context"

type Logger interface {
	New(ctx ...any) Logger
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

type Span struct {
	Logger Logger
}

func (s Span) New(ctx ...any) Logger        { return s }
func (s Span) Debug(msg string, ctx ...any) {}
func (s Span) Info(msg string, ctx ...any)  {}
func (s Span) Error(msg string, ctx ...any) {}

func Debug(msg string, ctx ...any) {}
func Info(msg string, ctx ...any)  {}
func Error(msg string, ctx ...any) {}

func New(ctx ...any) Logger { return nil }
func Root() Logger          { return nil }

func FromCtx(ctx context.Context) Logger { return nil }

func WithLabels(ctx context.Context, labels ...any) (context.Context, Logger) {
	return ctx, nil
}

func SafeInfo(l Logger, msg string, ctx ...any)  {}
func SafeError(l Logger, msg string, ctx ...any) {}
