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

import "context"

// Concurrency spawns every child on its Spawner and awaits all of them.
// All children always run to completion (or cancellation) regardless of
// sibling failures - no branch is aborted because another failed. If more
// than one child fails, Concurrency reports the error of the
// last-registered failing branch, per the composite's documented error
// policy; callers that need every failure should wrap children in their
// own Catch.
type Concurrency struct {
	Base
	name     string
	spawner  Spawner
	children []Action
	handles  *VecPool[Handle]
}

// NewConcurrency builds a Concurrency action. capacity bounds concurrent
// Concurrency executions; spawner is the scheduler surface used to fan
// out children.
func NewConcurrency(tag Tag, capacity int, spawner Spawner, children ...Action) *Concurrency {
	return &Concurrency{
		Base:     Base{Tag: tag, Pool: NewFuturePool(capacity)},
		name:     "Concurrency",
		spawner:  spawner,
		children: children,
		handles:  NewVecPool[Handle](capacity, len(children)),
	}
}

// Name implements Action.
func (c *Concurrency) Name() string { return c.name }

// TryExecute implements Action.
func (c *Concurrency) TryExecute() (Future, error) {
	return c.Acquire(func() Future {
		return func(ctx context.Context) *ExecError {
			slots, release, err := c.handles.Next()
			if err != nil {
				return Internal(err)
			}
			defer release()

			for _, child := range c.children {
				future, ferr := child.TryExecute()
				if ferr != nil {
					slots = append(slots, nil)
					continue
				}
				slots = append(slots, c.spawner.Spawn(ctx, future))
			}

			var last *ExecError
			for _, h := range slots {
				if h == nil {
					last = Internal(ErrNoFreeFuture)
					continue
				}
				if execErr := h.Await(ctx); execErr != nil {
					last = execErr
				}
			}
			return last
		}
	})
}
