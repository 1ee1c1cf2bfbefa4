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

package action_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindb/taskflow/action"
)

// leaf builds a minimal Action from a plain function body, for composite tests.
type leaf struct {
	action.Base
	name string
	run  func(ctx context.Context) *action.ExecError
}

func newLeaf(name string, capacity int, run func(ctx context.Context) *action.ExecError) *leaf {
	return &leaf{
		Base: action.Base{Tag: action.NewTag(name), Pool: action.NewFuturePool(capacity)},
		name: name,
		run:  run,
	}
}

func (l *leaf) Name() string { return l.name }

func (l *leaf) TryExecute() (action.Future, error) {
	return l.Acquire(func() action.Future {
		return l.run
	})
}

func ok() *action.ExecError { return nil }

func TestSequence_RunsInOrderAndStopsOnFirstFailure(t *testing.T) {
	var order []string
	step := func(name string, fail bool) *leaf {
		return newLeaf(name, 1, func(context.Context) *action.ExecError {
			order = append(order, name)
			if fail {
				return action.UserError(7)
			}
			return ok()
		})
	}

	a := step("a", false)
	b := step("b", true)
	c := step("c", false)

	seq := action.NewSequence(action.NewTag("seq"), 1, a, b, c)

	future, err := seq.TryExecute()
	require.NoError(t, err)

	execErr := future(context.Background())
	require.NotNil(t, execErr)
	assert.Equal(t, action.KindUserError, execErr.Kind)
	assert.Equal(t, uint64(7), execErr.Code)
	assert.Equal(t, []string{"a", "b"}, order, "c must never run after b fails")
}

func TestSequence_AllSucceed(t *testing.T) {
	var order []string
	step := func(name string) *leaf {
		return newLeaf(name, 1, func(context.Context) *action.ExecError {
			order = append(order, name)
			return ok()
		})
	}

	seq := action.NewSequence(action.NewTag("seq"), 1, step("a"), step("b"), step("c"))
	future, err := seq.TryExecute()
	require.NoError(t, err)
	assert.Nil(t, future(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSequence_PoolExhaustion(t *testing.T) {
	seq := action.NewSequence(action.NewTag("seq"), 1, newLeaf("a", 1, func(context.Context) *action.ExecError { return ok() }))

	_, err := seq.TryExecute()
	require.NoError(t, err)

	_, err = seq.TryExecute()
	assert.ErrorIs(t, err, action.ErrNoFreeFuture)
}
