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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/internal/testkit"
)

func TestConcurrency_AllChildrenRunEvenWhenOneFails(t *testing.T) {
	var mu sync.Mutex
	ran := map[string]bool{}
	mark := func(name string, delay time.Duration, fail bool) *leaf {
		return newLeaf(name, 1, func(context.Context) *action.ExecError {
			time.Sleep(delay)
			mu.Lock()
			ran[name] = true
			mu.Unlock()
			if fail {
				return action.NonRecoverable()
			}
			return ok()
		})
	}

	spawner := testkit.NewGoroutineSpawner()
	conc := action.NewConcurrency(action.NewTag("conc"), 1, spawner,
		mark("a", 5*time.Millisecond, false),
		mark("b", 1*time.Millisecond, true),
		mark("c", 5*time.Millisecond, false),
	)

	future, err := conc.TryExecute()
	require.NoError(t, err)
	execErr := future(context.Background())
	require.NotNil(t, execErr)
	assert.Equal(t, action.KindNonRecoverableFailure, execErr.Kind)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, ran["a"])
	assert.True(t, ran["b"])
	assert.True(t, ran["c"], "sibling c must run to completion despite b failing")
}

func TestConcurrency_AllSucceed(t *testing.T) {
	spawner := testkit.NewGoroutineSpawner()
	conc := action.NewConcurrency(action.NewTag("conc"), 1, spawner,
		newLeaf("a", 1, func(context.Context) *action.ExecError { return ok() }),
		newLeaf("b", 1, func(context.Context) *action.ExecError { return ok() }),
	)

	future, err := conc.TryExecute()
	require.NoError(t, err)
	assert.Nil(t, future(context.Background()))
}
