// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package logger is the structured-logging facade used across the runtime,
// scheduler and orchestration layers. It wraps zap, keyed by a module and a
// role so every component logs with the same two-field identity the teacher
// uses for its subsystems (e.g. "Master"/"MasterController").
package logger

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log attribute.
type Field = zap.Field

// Logger is the narrow logging surface components depend on.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type logger struct {
	z *zap.Logger
}

func (l *logger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *logger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *logger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *logger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }
func (l *logger) With(fields ...Field) Logger {
	return &logger{z: l.z.With(fields...)}
}

var (
	mu   sync.RWMutex
	base *zap.Logger
)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		z = zap.NewNop()
	}
	base = z
}

// ReplaceGlobal swaps the zap logger backing every Logger returned by
// GetLogger from this point onward. Intended for test setup.
func ReplaceGlobal(z *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = z
}

// GetLogger returns a Logger scoped to (module, role), e.g.
// GetLogger("Scheduler", "AsyncWorker").
func GetLogger(module, role string) Logger {
	mu.RLock()
	b := base
	mu.RUnlock()
	return &logger{z: b.With(zap.String("module", module), zap.String("role", role))}
}

// String builds a string field.
func String(key, val string) Field { return zap.String(key, val) }

// Int builds an int field.
func Int(key string, val int) Field { return zap.Int(key, val) }

// Uint64 builds a uint64 field.
func Uint64(key string, val uint64) Field { return zap.Uint64(key, val) }

// Duration builds a duration field.
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }

// Error builds an error field.
func Error(err error) Field { return zap.Error(err) }

// Stack builds a stack-trace field, captured at the call site.
func Stack() Field { return zap.Stack("stack") }

// Any builds a field from an arbitrary value.
func Any(key string, val interface{}) Field { return zap.Any(key, val) }
