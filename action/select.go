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

// Select spawns every child and resolves with whichever one completes
// first, success or failure. Every other child's Handle is Aborted and
// never awaited - their eventual result, if any, is discarded. Select
// resolves with the winner's own result, so a failing winner's ExecError
// surfaces; it also fails with a KindInternal error if every child is
// unspawnable (pool exhaustion) or ctx is canceled before any child
// finishes. A losing branch's ExecError never surfaces.
type Select struct {
	Base
	name     string
	spawner  Spawner
	children []Action
	handles  *VecPool[selectSlot]
}

// selectSlot pairs a spawned Handle with the child index it belongs to,
// so the loser-abort pass can skip the winner even when some children
// failed to spawn and left gaps in the slot list.
type selectSlot struct {
	idx    int
	handle Handle
}

// NewSelect builds a Select action.
func NewSelect(tag Tag, capacity int, spawner Spawner, children ...Action) *Select {
	return &Select{
		Base:     Base{Tag: tag, Pool: NewFuturePool(capacity)},
		name:     "Select",
		spawner:  spawner,
		children: children,
		handles:  NewVecPool[selectSlot](capacity, len(children)),
	}
}

// Name implements Action.
func (s *Select) Name() string { return s.name }

type selectResult struct {
	idx int
	err *ExecError
}

// TryExecute implements Action.
func (s *Select) TryExecute() (Future, error) {
	return s.Acquire(func() Future {
		return func(ctx context.Context) *ExecError {
			slots, release, err := s.handles.Next()
			if err != nil {
				return Internal(err)
			}
			defer release()

			raceCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			resultCh := make(chan selectResult, len(s.children))
			for idx, child := range s.children {
				future, ferr := child.TryExecute()
				if ferr != nil {
					continue
				}
				h := s.spawner.Spawn(raceCtx, future)
				slots = append(slots, selectSlot{idx: idx, handle: h})
				go func(i int, handle Handle) {
					execErr := handle.Await(raceCtx)
					select {
					case resultCh <- selectResult{idx: i, err: execErr}:
					case <-raceCtx.Done():
					}
				}(idx, h)
			}

			if len(slots) == 0 {
				return Internal(ErrNoFreeFuture)
			}

			var winner selectResult
			select {
			case winner = <-resultCh:
			case <-ctx.Done():
				for _, slot := range slots {
					slot.handle.Abort()
				}
				return Internal(ctx.Err())
			}

			cancel()
			for _, slot := range slots {
				if slot.idx != winner.idx {
					slot.handle.Abort()
				}
			}
			return winner.err
		}
	})
}
