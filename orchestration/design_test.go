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

package orchestration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/orchestration"
)

func noopGenerator(orchestration.Resolver) (action.Action, error) {
	return nil, nil
}

func TestDesign_RegisterInvokeSucceedsWithinCapacity(t *testing.T) {
	d := orchestration.NewDesign(2)
	err := d.RegisterInvoke(action.NewTag("a"), noopGenerator, nil)
	require.NoError(t, err)
}

func TestDesign_RegisterFailsOnDuplicateTag(t *testing.T) {
	d := orchestration.NewDesign(4)
	tag := action.NewTag("dup")
	require.NoError(t, d.RegisterInvoke(tag, noopGenerator, nil))
	err := d.RegisterInvoke(tag, noopGenerator, nil)
	assert.ErrorIs(t, err, orchestration.ErrDuplicateTag)
}

func TestDesign_RegisterFailsAcrossRegistryKinds(t *testing.T) {
	d := orchestration.NewDesign(4)
	tag := action.NewTag("shared-tag")
	require.NoError(t, d.RegisterInvoke(tag, noopGenerator, nil))
	err := d.RegisterEvent(tag, orchestration.NewLocalCreator(1))
	assert.ErrorIs(t, err, orchestration.ErrDuplicateTag)
}

func TestDesign_RegisterFailsWhenCapacityExhausted(t *testing.T) {
	d := orchestration.NewDesign(1)
	require.NoError(t, d.RegisterInvoke(action.NewTag("a"), noopGenerator, nil))
	err := d.RegisterInvoke(action.NewTag("b"), noopGenerator, nil)
	assert.ErrorIs(t, err, orchestration.ErrRegistrationFull)
}

func TestDesign_RegisterCondition(t *testing.T) {
	d := orchestration.NewDesign(4)
	cond := orchestration.Shared(func(context.Context) bool { return true })
	require.NoError(t, d.RegisterCondition(action.NewTag("cond"), cond))
}

func TestGuardedCondition_SetChangesEvaluateResult(t *testing.T) {
	g := orchestration.Guarded(false)
	assert.False(t, g.Evaluate(context.Background()))
	g.Set(true)
	assert.True(t, g.Evaluate(context.Background()))
}
