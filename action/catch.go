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
	"fmt"
)

// Handler is the simple observe-only shape: it sees the intercepted error
// but cannot change the Catch's result, which stays the original error. It
// cannot run further child work of its own.
type Handler func(ctx context.Context, err *ExecError)

// RecoverableHandler is the richer recovery shape: it can run an Action in
// response to the intercepted error and its outcome replaces the original
// error.
type RecoverableHandler func(ctx context.Context, err *ExecError) Action

// Catch wraps a single child action and intercepts any ExecError whose
// Kind matches Filter. Exactly one of Handler or RecoverableHandler must
// be set - constructing a Catch with both or neither is a design-time
// error, matching the "exactly one handler" invariant.
type Catch struct {
	Base
	name      string
	child     Action
	filter    Filter
	handler   Handler
	recoverFn RecoverableHandler
}

// NewCatch builds a Catch that simply observes a matching error via
// handler; the Catch itself still resolves with the original error after
// handler runs (handler cannot recover, only observe).
func NewCatch(tag Tag, capacity int, filter Filter, child Action, handler Handler) (*Catch, error) {
	if filter.IsEmpty() {
		return nil, fmt.Errorf("action: Catch filter must not be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("action: Catch requires a handler")
	}
	return &Catch{
		Base:    Base{Tag: tag, Pool: NewFuturePool(capacity)},
		name:    "Catch",
		child:   child,
		filter:  filter,
		handler: handler,
	}, nil
}

// NewRecoverableCatch builds a Catch whose recoverFn may run a recovery
// Action in place of the failed child; the recovery action's own outcome
// becomes the Catch's result.
func NewRecoverableCatch(tag Tag, capacity int, filter Filter, child Action, recoverFn RecoverableHandler) (*Catch, error) {
	if filter.IsEmpty() {
		return nil, fmt.Errorf("action: Catch filter must not be empty")
	}
	if recoverFn == nil {
		return nil, fmt.Errorf("action: Catch requires a recover function")
	}
	return &Catch{
		Base:      Base{Tag: tag, Pool: NewFuturePool(capacity)},
		name:      "Catch",
		child:     child,
		filter:    filter,
		recoverFn: recoverFn,
	}, nil
}

// Name implements Action.
func (c *Catch) Name() string { return c.name }

// TryExecute implements Action.
func (c *Catch) TryExecute() (Future, error) {
	return c.Acquire(func() Future {
		return func(ctx context.Context) *ExecError {
			future, err := c.child.TryExecute()
			if err != nil {
				return Internal(err)
			}
			execErr := future(ctx)
			if execErr == nil || !c.filter.Matches(execErr) {
				return execErr
			}

			if c.handler != nil {
				c.handler(ctx, execErr)
				return execErr
			}

			recovery := c.recoverFn(ctx, execErr)
			if recovery == nil {
				return execErr
			}
			recoveryFuture, rerr := recovery.TryExecute()
			if rerr != nil {
				return Internal(rerr)
			}
			return recoveryFuture(ctx)
		}
	})
}
