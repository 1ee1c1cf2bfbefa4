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

// Condition decides, at execution time, which of IfElse's two branches
// runs. Unlike a Switch's route-key condition it returns a plain bool:
// IfElse only ever has two possible branches, each built ahead of time.
type Condition func(ctx context.Context) bool

// IfElse runs exactly one of two children, chosen by Condition at every
// execution. The branch not taken never has TryExecute called on it -
// its Future is never built nor polled, matching the exclusive-branch
// invariant.
type IfElse struct {
	Base
	name      string
	condition Condition
	then      Action
	els       Action
}

// NewIfElse builds an IfElse action. els may be nil, in which case a
// false Condition simply resolves successfully without running anything.
func NewIfElse(tag Tag, capacity int, condition Condition, then, els Action) *IfElse {
	return &IfElse{
		Base:      Base{Tag: tag, Pool: NewFuturePool(capacity)},
		name:      "IfElse",
		condition: condition,
		then:      then,
		els:       els,
	}
}

// Name implements Action.
func (i *IfElse) Name() string { return i.name }

// TryExecute implements Action.
func (i *IfElse) TryExecute() (Future, error) {
	return i.Acquire(func() Future {
		return func(ctx context.Context) *ExecError {
			branch := i.els
			if i.condition(ctx) {
				branch = i.then
			}
			if branch == nil {
				return nil
			}
			future, err := branch.TryExecute()
			if err != nil {
				return Internal(err)
			}
			return future(ctx)
		}
	})
}
