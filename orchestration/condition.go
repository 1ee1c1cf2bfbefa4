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

package orchestration

import (
	"context"
	"sync"

	"github.com/lindb/taskflow/action"
)

// Condition is a registrable IfElse predicate. It exists as its own
// interface (rather than registering a bare action.Condition directly) so
// a Design can register either flavor the original implementation
// distinguished: a Shared condition reads state that is safe to read
// without synchronization (atomics, immutable captured values), while a
// Guarded condition wraps explicitly mutable state behind a lock.
type Condition interface {
	Evaluate(ctx context.Context) bool
}

// AsActionCondition adapts a registered Condition to the action.Condition
// function type NewIfElse expects.
func AsActionCondition(c Condition) action.Condition { return c.Evaluate }

// conditionFunc adapts a plain function to Condition.
type conditionFunc func(ctx context.Context) bool

func (f conditionFunc) Evaluate(ctx context.Context) bool { return f(ctx) }

// Shared wraps fn as a Condition with no locking of its own - the caller
// is asserting fn only reads state that is already safe for concurrent
// access (e.g. an atomic.Bool, a value captured at Design build time and
// never mutated again).
func Shared(fn func(ctx context.Context) bool) Condition { return conditionFunc(fn) }

// GuardedCondition is a Condition over explicitly mutable state, read and
// written under a lock. Use this when the condition's outcome depends on
// state that changes after registration (e.g. a feature flag toggled at
// runtime by an Invoke action elsewhere in the Program).
type GuardedCondition struct {
	mu  sync.RWMutex
	val bool
}

// Guarded creates a GuardedCondition starting at initial.
func Guarded(initial bool) *GuardedCondition {
	return &GuardedCondition{val: initial}
}

// Set assigns the condition's current value.
func (g *GuardedCondition) Set(v bool) {
	g.mu.Lock()
	g.val = v
	g.mu.Unlock()
}

// Evaluate implements Condition.
func (g *GuardedCondition) Evaluate(context.Context) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.val
}
