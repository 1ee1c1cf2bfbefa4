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

package testkit

import (
	"context"
	"errors"
	"sync"

	"github.com/lindb/taskflow/action"
)

// ErrQueueDrained is returned by a MockScheduler Handle's Await when the
// queue ran dry before the awaited task ever ran - it was spawned on a
// scheduler no one drove, or it was dropped by a test that never called
// Step/Drain.
var ErrQueueDrained = errors.New("testkit: mock scheduler queue drained before awaited task ran")

type taskState int

const (
	taskPending taskState = iota
	taskRunning
	taskDone
)

type queuedTask struct {
	f      action.Future
	ctx    context.Context
	cancel context.CancelFunc
	state  taskState
	result *action.ExecError
}

// MockScheduler is a single-goroutine, deterministic action.Spawner: Spawn
// records its Future into a FIFO queue instead of starting a goroutine,
// and Step/Drain run queued tasks synchronously on the calling goroutine
// in the order they were spawned. Composite actions (Sequence,
// Concurrency, Graph) can therefore be driven through a fixed,
// repeatable interleaving in tests, with no OS thread involved.
//
// A Handle's Await drives the queue itself when its own task has not run
// yet, so composites that spawn children and immediately await them (as
// Concurrency does) still complete without a separate test-side pump;
// Step/Drain exist for tests that want to control or observe the
// interleaving directly, e.g. asserting everything is queued before
// anything runs.
type MockScheduler struct {
	mu    sync.Mutex
	queue []*queuedTask
}

// NewMockScheduler constructs an empty MockScheduler.
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{}
}

// Spawn implements action.Spawner.
func (s *MockScheduler) Spawn(ctx context.Context, f action.Future) action.Handle {
	runCtx, cancel := context.WithCancel(ctx)
	t := &queuedTask{f: f, ctx: runCtx, cancel: cancel}
	s.mu.Lock()
	s.queue = append(s.queue, t)
	s.mu.Unlock()
	return &mockHandle{sched: s, task: t}
}

// Step runs the oldest not-yet-run task in the queue to completion and
// reports whether a task ran. Tasks enqueued by the task it just ran
// become eligible for the next Step call.
func (s *MockScheduler) Step() bool {
	s.mu.Lock()
	var next *queuedTask
	for _, t := range s.queue {
		if t.state == taskPending {
			next = t
			break
		}
	}
	if next == nil {
		s.mu.Unlock()
		return false
	}
	next.state = taskRunning
	s.mu.Unlock()

	result := next.f(next.ctx)

	s.mu.Lock()
	next.result = result
	next.state = taskDone
	s.mu.Unlock()
	return true
}

// Drain runs Step until the queue has no pending task left, including
// tasks spawned while draining, and reports how many tasks ran.
func (s *MockScheduler) Drain() int {
	n := 0
	for s.Step() {
		n++
	}
	return n
}

// Pending reports how many spawned tasks have not yet started running.
func (s *MockScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.queue {
		if t.state == taskPending {
			n++
		}
	}
	return n
}

type mockHandle struct {
	sched *MockScheduler
	task  *queuedTask
}

// Await implements action.Handle: if the task has not run yet, it steps
// the scheduler's queue until the task completes, so the awaiting caller
// never blocks forever waiting on a thread that does not exist.
func (h *mockHandle) Await(ctx context.Context) *action.ExecError {
	for {
		h.sched.mu.Lock()
		state := h.task.state
		result := h.task.result
		h.sched.mu.Unlock()

		if state == taskDone {
			return result
		}
		if err := ctx.Err(); err != nil {
			return action.Internal(err)
		}
		if !h.sched.Step() {
			return action.Internal(ErrQueueDrained)
		}
	}
}

// Abort implements action.Handle: it cancels the task's context, observed
// cooperatively whenever the task's Future next runs (or is currently
// running). A task that already completed is unaffected.
func (h *mockHandle) Abort() {
	h.task.cancel()
}
