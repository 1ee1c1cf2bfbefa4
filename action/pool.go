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

package action

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// FuturePool is a fixed-capacity collection of reusable Future slots. It
// bounds the number of concurrent in-flight executions of the action that
// owns it: Next fails with ErrNoFreeFuture rather than growing, so a
// Program that sizes its pools correctly at build time never allocates a
// new slot on the hot path (§4.G, §8 property 1).
//
// The "reuse" in Go terms is slot accounting, not memory reuse of the
// Future closure itself - the underlying scheduler (golang goroutines)
// already makes closure reuse unnecessary for correctness; what must stay
// bounded is the count of simultaneously-live executions, which is what
// Next/release enforce via a weighted semaphore sized to capacity.
type FuturePool struct {
	sem *semaphore.Weighted
	cap int
}

// NewFuturePool creates a pool sized for capacity concurrent executions.
func NewFuturePool(capacity int) *FuturePool {
	if capacity < 1 {
		capacity = 1
	}
	return &FuturePool{sem: semaphore.NewWeighted(int64(capacity)), cap: capacity}
}

// Capacity returns the pool's fixed capacity.
func (p *FuturePool) Capacity() int { return p.cap }

// Next reserves a slot and wraps buildFn's Future so the slot is released
// back to the pool exactly once, when the Future returns, whether it
// succeeds or fails. A Future that is never run keeps its slot reserved;
// there is no separate release path for it.
func (p *FuturePool) Next(buildFn func() Future) (Future, error) {
	if !p.sem.TryAcquire(1) {
		return nil, ErrNoFreeFuture
	}

	inner := buildFn()
	var once sync.Once
	release := func() {
		once.Do(func() { p.sem.Release(1) })
	}
	return func(ctx context.Context) *ExecError {
		defer release()
		return inner(ctx)
	}, nil
}

// VecPool is the Vec<T>-pool analogue used by composite actions to back
// fixed-length children-future collections (Concurrency's handle slice,
// Select's case slice) without growing a new slice per execution.
type VecPool[T any] struct {
	mu     sync.Mutex
	slots  [][]T
	maxLen int
}

// NewVecPool creates a pool of capacity slices, each pre-allocated to
// maxLen so appends up to maxLen within a single execution never grow the
// backing array.
func NewVecPool[T any](capacity, maxLen int) *VecPool[T] {
	if capacity < 1 {
		capacity = 1
	}
	slots := make([][]T, capacity)
	for i := range slots {
		slots[i] = make([]T, 0, maxLen)
	}
	return &VecPool[T]{slots: slots, maxLen: maxLen}
}

// Next reserves one of the pool's backing slices (truncated to length 0)
// and a release function that returns it to the pool. Returns
// ErrNoSpaceLeft if every slot is currently checked out.
func (p *VecPool[T]) Next() (slice []T, release func(), err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.slots)
	if n == 0 {
		return nil, nil, ErrNoSpaceLeft
	}
	s := p.slots[n-1]
	p.slots = p.slots[:n-1]
	var once sync.Once
	rel := func() {
		once.Do(func() {
			p.mu.Lock()
			p.slots = append(p.slots, s[:0])
			p.mu.Unlock()
		})
	}
	return s[:0], rel, nil
}
