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

package program_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/event"
	"github.com/lindb/taskflow/metrics"
	"github.com/lindb/taskflow/program"
	"github.com/lindb/taskflow/scheduler/asyncsched"
)

// leaf builds a minimal Action from a plain function body.
type leaf struct {
	action.Base
	name string
	run  func(ctx context.Context) *action.ExecError
}

func newLeaf(name string, run func(ctx context.Context) *action.ExecError) *leaf {
	return &leaf{
		Base: action.Base{Tag: action.NewTag(name), Pool: action.NewFuturePool(4)},
		name: name,
		run:  run,
	}
}

func (l *leaf) Name() string { return l.name }

func (l *leaf) TryExecute() (action.Future, error) {
	return l.Acquire(func() action.Future { return l.run })
}

func newTestSpawner(t *testing.T) *asyncsched.Scheduler {
	t.Helper()
	s := asyncsched.New(asyncsched.Config{Workers: 2, TaskQueueSize: 32, TickDuration: time.Millisecond}, nil, nil)
	s.Start()
	t.Cleanup(func() {
		s.Stop()
		s.Wait()
	})
	return s
}

func TestProgram_RunNExecutesExactlyNIterations(t *testing.T) {
	spawner := newTestSpawner(t)
	var count int32
	run := newLeaf("run", func(context.Context) *action.ExecError {
		atomic.AddInt32(&count, 1)
		return nil
	})

	p := program.New(program.Config{Name: "p1", Run: run}, spawner, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := p.RunN(ctx, 5)
	assert.Nil(t, err)
	assert.EqualValues(t, 5, atomic.LoadInt32(&count))
}

func TestProgram_StartActionErrorPreventsRunAndStop(t *testing.T) {
	spawner := newTestSpawner(t)
	var runCalled, stopCalled int32
	start := newLeaf("start", func(context.Context) *action.ExecError { return action.UserError(1) })
	run := newLeaf("run", func(context.Context) *action.ExecError {
		atomic.AddInt32(&runCalled, 1)
		return nil
	})
	stop := newLeaf("stop", func(context.Context) *action.ExecError {
		atomic.AddInt32(&stopCalled, 1)
		return nil
	})

	p := program.New(program.Config{Name: "p2", Run: run, Start: start, Stop: stop}, spawner, nil)
	err := p.RunN(context.Background(), 3)

	require.NotNil(t, err)
	assert.Equal(t, action.KindUserError, err.Kind)
	assert.EqualValues(t, 0, atomic.LoadInt32(&runCalled))
	assert.EqualValues(t, 0, atomic.LoadInt32(&stopCalled))
}

func TestProgram_RunErrorStopsLoopAndRunsStopAction(t *testing.T) {
	spawner := newTestSpawner(t)
	var iterations, stopCalled int32
	run := newLeaf("run", func(context.Context) *action.ExecError {
		n := atomic.AddInt32(&iterations, 1)
		if n == 3 {
			return action.UserError(42)
		}
		return nil
	})
	stop := newLeaf("stop", func(context.Context) *action.ExecError {
		atomic.AddInt32(&stopCalled, 1)
		return nil
	})

	p := program.New(program.Config{Name: "p3", Run: run, Stop: stop}, spawner, nil)
	err := p.Run(context.Background())

	require.NotNil(t, err)
	assert.Equal(t, uint64(42), err.Code)
	assert.EqualValues(t, 3, atomic.LoadInt32(&iterations))
	assert.EqualValues(t, 1, atomic.LoadInt32(&stopCalled))
}

func TestProgram_ShutdownSyncStopsLoopBeforeNextIteration(t *testing.T) {
	spawner := newTestSpawner(t)
	evt := event.NewLocal(1)
	notifier := evt.NewNotifier()
	listener := evt.NewListener()
	shutdown := event.NewSync(action.NewTag("shutdown"), 1, listener)

	var iterations int32
	var mu sync.Mutex
	var stopObserved int
	run := newLeaf("run", func(context.Context) *action.ExecError {
		atomic.AddInt32(&iterations, 1)
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	stop := newLeaf("stop", func(context.Context) *action.ExecError {
		mu.Lock()
		stopObserved++
		mu.Unlock()
		return nil
	})

	p := program.New(program.Config{Name: "p4", Run: run, Stop: stop, Shutdown: shutdown}, spawner, nil)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = notifier.Send(context.Background())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := p.Run(ctx)

	assert.Nil(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, stopObserved)
	assert.Greater(t, atomic.LoadInt32(&iterations), int32(0))
}

func TestProgram_CycleSleepsRemainderBetweenIterations(t *testing.T) {
	spawner := newTestSpawner(t)
	var timestamps []time.Time
	var mu sync.Mutex
	run := newLeaf("run", func(context.Context) *action.ExecError {
		mu.Lock()
		timestamps = append(timestamps, time.Now())
		mu.Unlock()
		return nil
	})

	p := program.New(program.Config{Name: "p5", Run: run}, spawner, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	const cycle = 40 * time.Millisecond
	err := p.RunNCycle(ctx, 3, cycle)
	require.Nil(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, timestamps, 3)
	assert.GreaterOrEqual(t, timestamps[1].Sub(timestamps[0]), cycle-5*time.Millisecond)
	assert.GreaterOrEqual(t, timestamps[2].Sub(timestamps[1]), cycle-5*time.Millisecond)
}

func TestProgram_MeteredVariantRecordsIterationStatistics(t *testing.T) {
	spawner := newTestSpawner(t)
	reg := prometheus.NewRegistry()
	stats := metrics.NewProgramStatistics(reg, "metered")

	run := newLeaf("run", func(context.Context) *action.ExecError { return nil })
	p := program.New(program.Config{Name: "p6", Run: run}, spawner, stats)

	err := p.RunNMetered(context.Background(), 4)
	assert.Nil(t, err)

	mf, gatherErr := reg.Gather()
	require.NoError(t, gatherErr)
	assert.NotEmpty(t, mf)
}

func TestProgram_NonMeteredVariantIgnoresConfiguredStatistics(t *testing.T) {
	spawner := newTestSpawner(t)
	reg := prometheus.NewRegistry()
	stats := metrics.NewProgramStatistics(reg, "unmetered")

	run := newLeaf("run", func(context.Context) *action.ExecError { return nil })
	p := program.New(program.Config{Name: "p7", Run: run}, spawner, stats)

	err := p.RunN(context.Background(), 4)
	assert.Nil(t, err)
	assert.Equal(t, float64(0), stats.Iterations.Get())
}
