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

// Package testkit provides minimal action.Spawner implementations for
// exercising the action-graph runtime in tests without pulling in the
// full work-stealing scheduler. GoroutineSpawner starts one goroutine per
// Spawn and its Handle joins it, mirroring the join-handle shape
// scheduler/asyncsched exposes in production; MockScheduler queues
// spawned futures and runs them on the calling goroutine.
package testkit

import (
	"context"
	"sync"

	"github.com/lindb/taskflow/action"
)

// GoroutineSpawner runs every spawned Future on its own goroutine. It has
// no concurrency limit and no work-stealing, so it is unsuitable for
// production use, but it gives action-composite tests a real concurrent
// Spawner without depending on scheduler/asyncsched.
type GoroutineSpawner struct{}

// NewGoroutineSpawner constructs a GoroutineSpawner.
func NewGoroutineSpawner() *GoroutineSpawner { return &GoroutineSpawner{} }

// Spawn implements action.Spawner.
func (s *GoroutineSpawner) Spawn(ctx context.Context, f action.Future) action.Handle {
	h := &goroutineHandle{done: make(chan struct{}), abort: make(chan struct{})}
	go func() {
		defer close(h.done)
		runCtx, cancel := context.WithCancel(ctx)
		go func() {
			select {
			case <-h.abort:
				cancel()
			case <-runCtx.Done():
			}
		}()
		defer cancel()
		h.result = f(runCtx)
	}()
	return h
}

type goroutineHandle struct {
	done      chan struct{}
	abort     chan struct{}
	abortOnce sync.Once
	result    *action.ExecError
}

// Await implements action.Handle.
func (h *goroutineHandle) Await(ctx context.Context) *action.ExecError {
	select {
	case <-h.done:
		return h.result
	case <-ctx.Done():
		return action.Internal(ctx.Err())
	}
}

// Abort implements action.Handle.
func (h *goroutineHandle) Abort() {
	h.abortOnce.Do(func() { close(h.abort) })
}
