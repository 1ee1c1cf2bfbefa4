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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/event"
	"github.com/lindb/taskflow/orchestration"
	"github.com/lindb/taskflow/runtime"
	"github.com/lindb/taskflow/scheduler/dedicated"
)

func newTestRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	rt, err := runtime.NewBuilder().
		WithStartupTimeout(2 * time.Second).
		AddEngine(runtime.EngineConfig{
			Name:          "main",
			Workers:       2,
			TaskQueueSize: 32,
			TickDuration:  time.Millisecond,
			DedicatedWorkers: []runtime.DedicatedWorkerSpec{
				{ID: dedicated.WorkerID("pinned-0"), QueueSize: 4},
			},
		}).
		Build()
	require.NoError(t, err)
	t.Cleanup(rt.Shutdown)
	return rt
}

func TestDeployment_ValidateReportsUnboundEvents(t *testing.T) {
	d := orchestration.NewDesign(4)
	tag := action.NewTag("needs-binding")
	require.NoError(t, d.RegisterEvent(tag, nil))

	dep := orchestration.NewDeployment(newTestRuntime(t)).AddDesign(d)
	unbound := dep.Validate()
	require.Len(t, unbound, 1)
	assert.True(t, unbound[0].Equal(tag))
}

func TestDeployment_BindResolvesPreviouslyUnboundEvent(t *testing.T) {
	d := orchestration.NewDesign(4)
	tag := action.NewTag("e")
	require.NoError(t, d.RegisterEvent(tag, nil))

	dep := orchestration.NewDeployment(newTestRuntime(t)).AddDesign(d)
	require.NoError(t, dep.Bind(tag, orchestration.NewLocalCreator(1)))
	assert.Empty(t, dep.Validate())
}

func TestDeployment_BindFailsForUnregisteredTag(t *testing.T) {
	dep := orchestration.NewDeployment(newTestRuntime(t)).AddDesign(orchestration.NewDesign(4))
	err := dep.Bind(action.NewTag("ghost"), orchestration.NewLocalCreator(1))
	assert.ErrorIs(t, err, orchestration.ErrUnknownTag)
}

func TestDeployment_MaterializeFailsForUnknownInvoke(t *testing.T) {
	dep := orchestration.NewDeployment(newTestRuntime(t)).AddDesign(orchestration.NewDesign(4))
	_, err := dep.Materialize(action.NewTag("ghost"))
	assert.ErrorIs(t, err, orchestration.ErrUnknownTag)
}

func TestDeployment_MaterializeFailsWhileEventUnbound(t *testing.T) {
	d := orchestration.NewDesign(4)
	eventTag := action.NewTag("unbound-event")
	require.NoError(t, d.RegisterEvent(eventTag, nil))
	runTag := action.NewTag("run")
	require.NoError(t, d.RegisterInvoke(runTag, noopGenerator, nil))

	dep := orchestration.NewDeployment(newTestRuntime(t)).AddDesign(d)
	_, err := dep.Materialize(runTag)
	assert.Error(t, err)
}

// triggerGenerator builds an invoke generator producing a Trigger action
// over the resolver-provided notifier for eventTag.
func triggerGenerator(invokeTag, eventTag action.Tag) orchestration.InvokeGenerator {
	return func(r orchestration.Resolver) (action.Action, error) {
		notifier, err := r.Notifier(eventTag)
		if err != nil {
			return nil, err
		}
		return event.NewTrigger(invokeTag, 1, notifier), nil
	}
}

func syncGenerator(invokeTag, eventTag action.Tag) orchestration.InvokeGenerator {
	return func(r orchestration.Resolver) (action.Action, error) {
		listener, err := r.Listener(eventTag)
		if err != nil {
			return nil, err
		}
		return event.NewSync(invokeTag, 1, listener), nil
	}
}

func TestDeployment_MaterializeTriggerAndSyncRendezvousAfterBind(t *testing.T) {
	eventTag := action.NewTag("handoff")
	d := orchestration.NewDesign(8)
	require.NoError(t, d.RegisterEvent(eventTag, nil))
	require.NoError(t, d.RegisterInvoke(action.NewTag("trigger"), triggerGenerator(action.NewTag("trigger"), eventTag), nil))
	require.NoError(t, d.RegisterInvoke(action.NewTag("sync"), syncGenerator(action.NewTag("sync"), eventTag), nil))

	rt := newTestRuntime(t)
	dep := orchestration.NewDeployment(rt).AddDesign(d)
	require.NoError(t, dep.Bind(eventTag, orchestration.NewLocalCreator(1)))

	syncAction, err := dep.Materialize(action.NewTag("sync"))
	require.NoError(t, err)
	triggerAction, err := dep.Materialize(action.NewTag("trigger"))
	require.NoError(t, err)

	syncFuture, err := syncAction.TryExecute()
	require.NoError(t, err)
	syncHandle := rt.Spawn(context.Background(), syncFuture)

	triggerFuture, err := triggerAction.TryExecute()
	require.NoError(t, err)
	triggerHandle := rt.Spawn(context.Background(), triggerFuture)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Nil(t, triggerHandle.Await(ctx))
	assert.Nil(t, syncHandle.Await(ctx))
}

func TestDeployment_SpawnerResolvesDedicatedWorkerPin(t *testing.T) {
	rt := newTestRuntime(t)
	dep := orchestration.NewDeployment(rt).AddDesign(orchestration.NewDesign(4))

	pin := &orchestration.WorkerPin{Engine: "main", Dedicated: dedicated.WorkerID("pinned-0")}
	spawner, err := dep.Spawner(pin)
	require.NoError(t, err)

	var ran atomic.Bool
	handle := spawner.Spawn(context.Background(), func(ctx context.Context) *action.ExecError {
		ran.Store(true)
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Nil(t, handle.Await(ctx))
	assert.True(t, ran.Load())
}

func TestDeployment_SpawnerFailsForUnknownEngine(t *testing.T) {
	rt := newTestRuntime(t)
	dep := orchestration.NewDeployment(rt).AddDesign(orchestration.NewDesign(4))

	_, err := dep.Spawner(&orchestration.WorkerPin{Engine: "missing"})
	assert.Error(t, err)
}

func TestDeployment_MaterializeProgramRunsResolvedRunAction(t *testing.T) {
	rt := newTestRuntime(t)
	d := orchestration.NewDesign(4)

	var iterations int32
	runTag := action.NewTag("run")
	require.NoError(t, d.RegisterInvoke(runTag, func(orchestration.Resolver) (action.Action, error) {
		return &countingLeaf{
			Base: action.Base{Tag: runTag, Pool: action.NewFuturePool(4)},
			fn:   func() { atomic.AddInt32(&iterations, 1) },
		}, nil
	}, nil))

	dep := orchestration.NewDeployment(rt).AddDesign(d)
	p, err := dep.MaterializeProgram(orchestration.ProgramSpec{Name: "p", Run: runTag})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	execErr := p.RunN(ctx, 3)
	assert.Nil(t, execErr)
	assert.EqualValues(t, 3, atomic.LoadInt32(&iterations))
}

// countingLeaf is a minimal Action used only by this test file.
type countingLeaf struct {
	action.Base
	fn func()
}

func (c *countingLeaf) Name() string { return "counting" }

func (c *countingLeaf) TryExecute() (action.Future, error) {
	return c.Acquire(func() action.Future {
		return func(context.Context) *action.ExecError {
			c.fn()
			return nil
		}
	})
}
