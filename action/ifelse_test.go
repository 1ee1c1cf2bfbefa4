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

func TestIfElse_TakesThenBranchAndNeverBuildsElse(t *testing.T) {
	els := newLeaf("else", 1, func(context.Context) *action.ExecError { return ok() })
	then := newLeaf("then", 1, func(context.Context) *action.ExecError { return ok() })

	ifElse := action.NewIfElse(action.NewTag("ifelse"), 1, func(context.Context) bool { return true }, then, els)

	future, err := ifElse.TryExecute()
	require.NoError(t, err)
	assert.Nil(t, future(context.Background()))

	// els's own pool must still have a free slot - its TryExecute was never
	// called, so it never consumed its single capacity slot.
	elseFuture, elseErr := els.TryExecute()
	require.NoError(t, elseErr)
	assert.NotNil(t, elseFuture)
}

func TestIfElse_TakesElseBranch(t *testing.T) {
	var ran string
	then := newLeaf("then", 1, func(context.Context) *action.ExecError { ran = "then"; return ok() })
	els := newLeaf("else", 1, func(context.Context) *action.ExecError { ran = "else"; return ok() })

	ifElse := action.NewIfElse(action.NewTag("ifelse"), 1, func(context.Context) bool { return false }, then, els)

	future, err := ifElse.TryExecute()
	require.NoError(t, err)
	assert.Nil(t, future(context.Background()))
	assert.Equal(t, "else", ran)
}

func TestIfElse_NilElseBranchResolvesOK(t *testing.T) {
	then := newLeaf("then", 1, func(context.Context) *action.ExecError { return ok() })
	ifElse := action.NewIfElse(action.NewTag("ifelse"), 1, func(context.Context) bool { return false }, then, nil)

	future, err := ifElse.TryExecute()
	require.NoError(t, err)
	assert.Nil(t, future(context.Background()))
}
