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

func TestCatch_EmptyFilterIsRejected(t *testing.T) {
	child := newLeaf("child", 1, func(context.Context) *action.ExecError { return ok() })
	_, err := action.NewCatch(action.NewTag("catch"), 1, action.Filter(0), child, func(context.Context, *action.ExecError) {})
	assert.Error(t, err)
}

func TestCatch_HandlerObservesButDoesNotRecover(t *testing.T) {
	var observed *action.ExecError
	child := newLeaf("child", 1, func(context.Context) *action.ExecError { return action.UserError(3) })

	c, err := action.NewCatch(action.NewTag("catch"), 1, action.FilterUserErrors, child, func(_ context.Context, execErr *action.ExecError) {
		observed = execErr
	})
	require.NoError(t, err)

	future, err := c.TryExecute()
	require.NoError(t, err)
	execErr := future(context.Background())
	require.NotNil(t, execErr)
	assert.Equal(t, uint64(3), execErr.Code)
	require.NotNil(t, observed)
	assert.Equal(t, uint64(3), observed.Code)
}

func TestCatch_NonMatchingFilterPassesThrough(t *testing.T) {
	called := false
	child := newLeaf("child", 1, func(context.Context) *action.ExecError { return action.NonRecoverable() })

	c, err := action.NewCatch(action.NewTag("catch"), 1, action.FilterUserErrors, child, func(context.Context, *action.ExecError) {
		called = true
	})
	require.NoError(t, err)

	future, err := c.TryExecute()
	require.NoError(t, err)
	execErr := future(context.Background())
	require.NotNil(t, execErr)
	assert.Equal(t, action.KindNonRecoverableFailure, execErr.Kind)
	assert.False(t, called, "handler must not fire for a Kind outside its Filter")
}

func TestRecoverableCatch_RunsRecoveryAction(t *testing.T) {
	child := newLeaf("child", 1, func(context.Context) *action.ExecError { return action.UserError(9) })
	recovery := newLeaf("recovery", 1, func(context.Context) *action.ExecError { return ok() })

	c, err := action.NewRecoverableCatch(action.NewTag("catch"), 1, action.FilterUserErrors, child,
		func(context.Context, *action.ExecError) action.Action { return recovery })
	require.NoError(t, err)

	future, err := c.TryExecute()
	require.NoError(t, err)
	assert.Nil(t, future(context.Background()))
}

func TestRecoverableCatch_NilRecoveryKeepsOriginalError(t *testing.T) {
	child := newLeaf("child", 1, func(context.Context) *action.ExecError { return action.UserError(9) })

	c, err := action.NewRecoverableCatch(action.NewTag("catch"), 1, action.FilterUserErrors, child,
		func(context.Context, *action.ExecError) action.Action { return nil })
	require.NoError(t, err)

	future, err := c.TryExecute()
	require.NoError(t, err)
	execErr := future(context.Background())
	require.NotNil(t, execErr)
	assert.Equal(t, uint64(9), execErr.Code)
}
