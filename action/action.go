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

// Package action holds the composable action-graph runtime: the Action
// contract every leaf (Invoke/Trigger/Sync) and composite
// (Sequence/Concurrency/LocalGraph/IfElse/Select/Catch) implements, plus
// the reusable-future and reusable-vector pools composites use to bound
// their fan-out without unbounded per-execution allocation.
package action

import "context"

// Future is produced by an Action's TryExecute and represents one
// in-flight execution. Running it blocks the calling goroutine until the
// action resolves or ctx is canceled; composites spawn Futures as tasks
// on a Spawner (see Spawner) rather than calling them inline, so
// suspension happens at the scheduler, not inside this function value.
type Future func(ctx context.Context) *ExecError

// Spawner is the narrow scheduler surface composite actions depend on:
// "run this future somewhere, hand me back something I can await".
// scheduler/asyncsched.Scheduler and the deterministic mock runtime in
// internal/testkit both implement it.
type Spawner interface {
	Spawn(ctx context.Context, f Future) Handle
}

// Handle is a join handle for a spawned Future: awaiting it blocks until
// the task completes, is aborted, or ctx is canceled.
type Handle interface {
	// Await blocks until the task resolves and returns its ExecError (nil
	// on success). A non-nil internal error distinct from ExecError
	// indicates the join itself failed (task panicked, was aborted); that
	// is surfaced as a KindInternal ExecError by callers.
	Await(ctx context.Context) *ExecError
	// Abort requests cooperative cancellation; observed at the task's next
	// poll point, it does not preempt already-running user code.
	Abort()
}

// Action is a composable unit producing a Future on demand. Every
// TryExecute call must be independent of prior calls once the previous
// Future has resolved and its Handle (if any) released back to the
// action's pool.
type Action interface {
	// TryExecute acquires a Future from the action's reusable pool and
	// returns it ready to run. Returns ErrNoFreeFuture if the action's
	// maximum concurrent-execution budget is exhausted.
	TryExecute() (Future, error)
	// Name identifies the action kind for debugging/printing, e.g.
	// "Sequence", "Concurrency", "LocalGraphAction".
	Name() string
}

// Base is embedded by every leaf/composite action; it carries the
// identifying Tag and the bound reusable-future pool sizing every
// TryExecute draws from.
type Base struct {
	Tag  Tag
	Pool *FuturePool
}

// Acquire satisfies the common "acquire from my pool" half of Action;
// embedders supply buildFn to produce the Future body for this execution,
// then define their own zero-arg TryExecute calling this.
func (b *Base) Acquire(buildFn func() Future) (Future, error) {
	return b.Pool.Next(buildFn)
}
