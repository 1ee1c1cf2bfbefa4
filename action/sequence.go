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

// Sequence runs its children one after another, in registration order, on
// the calling goroutine - no spawn occurs for a Sequence's own steps,
// mirroring an ordered pipeline rather than fan-out. The first child to
// fail stops the sequence immediately; later children never run.
type Sequence struct {
	Base
	name     string
	children []Action
}

// NewSequence builds a Sequence action. capacity bounds the number of
// concurrently in-flight Sequence executions (its own reusable-future
// pool), independent of len(children).
func NewSequence(tag Tag, capacity int, children ...Action) *Sequence {
	return &Sequence{
		Base:     Base{Tag: tag, Pool: NewFuturePool(capacity)},
		name:     "Sequence",
		children: children,
	}
}

// Name implements Action.
func (s *Sequence) Name() string { return s.name }

// TryExecute implements Action.
func (s *Sequence) TryExecute() (Future, error) {
	return s.Acquire(func() Future {
		return func(ctx context.Context) *ExecError {
			for _, child := range s.children {
				future, err := child.TryExecute()
				if err != nil {
					return Internal(err)
				}
				if execErr := future(ctx); execErr != nil {
					return execErr
				}
				if ctx.Err() != nil {
					return Internal(ctx.Err())
				}
			}
			return nil
		}
	})
}
