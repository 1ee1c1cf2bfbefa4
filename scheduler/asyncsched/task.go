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

package asyncsched

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/lindb/taskflow/action"
)

// taskState is the state word every spawned task owns, per §4.D.
type taskState uint32

const (
	stateIdle taskState = iota
	stateNotified
	stateRunning
	stateComplete
	stateCancelled
)

// task wraps one action.Future as a schedulable unit of work. Futures
// here run to completion once dispatched rather than being incrementally
// polled - Go has no resumable-coroutine primitive to poll against - so
// the state word's Idle/Notified/Running/Complete/Cancelled lifecycle
// tracks dispatch and outcome rather than literal poll-by-poll progress;
// see DESIGN.md for the mapping from §4.D's poll-return
// vocabulary (Done/Notified/Pending) onto this model.
type task struct {
	id          uint64
	fn          action.Future
	runCtx      context.Context
	state       atomic.Uint32
	ownerWorker int // -1 if spawned off-worker (global queue origin)
	createTime  time.Time

	mu     sync.Mutex
	done   chan struct{}
	result *action.ExecError
	ran    bool
}

func newTask(id uint64, fn action.Future, owner int) *task {
	return &task{id: id, fn: fn, ownerWorker: owner, done: make(chan struct{}), createTime: time.Now()}
}

// run executes the task's future against ctx, unless it was aborted
// before ever being dispatched.
func (t *task) run(ctx context.Context) {
	if taskState(t.state.Load()) == stateCancelled {
		t.finish(action.Internal(context.Canceled))
		return
	}
	t.state.Store(uint32(stateRunning))
	result := t.fn(ctx)
	t.finish(result)
}

func (t *task) finish(result *action.ExecError) {
	t.mu.Lock()
	if t.ran {
		t.mu.Unlock()
		return
	}
	t.ran = true
	t.result = result
	t.mu.Unlock()
	t.state.Store(uint32(stateComplete))
	close(t.done)
}

// joinHandle is the action.Handle returned by Scheduler.Spawn.
type joinHandle struct {
	t      *task
	cancel context.CancelFunc
}

// Await implements action.Handle.
func (h *joinHandle) Await(ctx context.Context) *action.ExecError {
	select {
	case <-h.t.done:
		h.t.mu.Lock()
		defer h.t.mu.Unlock()
		return h.t.result
	case <-ctx.Done():
		return action.Internal(ctx.Err())
	}
}

// Abort implements action.Handle: it sets the Cancelled bit and wakes
// the task. If the task has not yet been dispatched, its next run
// resolves immediately without invoking the wrapped future at all. If
// it is already running, Go cannot preempt it mid-call; Abort cancels
// the context the future was invoked with so a future that itself
// observes ctx.Done() can unwind cooperatively, matching §4.D's "wakes
// the task" half of the contract even though forced preemption is not
// possible.
func (h *joinHandle) Abort() {
	h.t.state.CompareAndSwap(uint32(stateIdle), uint32(stateCancelled))
	h.t.state.CompareAndSwap(uint32(stateNotified), uint32(stateCancelled))
	if h.cancel != nil {
		h.cancel()
	}
}
