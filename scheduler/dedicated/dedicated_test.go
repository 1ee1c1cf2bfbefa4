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

package dedicated_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/scheduler/dedicated"
)

func TestScheduler_SpawnOnUnknownWorkerFails(t *testing.T) {
	s := dedicated.NewScheduler(4)
	_, err := s.SpawnOn(context.Background(), "missing", func(ctx context.Context) *action.ExecError { return nil })
	assert.ErrorIs(t, err, dedicated.ErrUnknownWorker)
}

func TestScheduler_AddWorkerRejectsDuplicate(t *testing.T) {
	s := dedicated.NewScheduler(4)
	require.NoError(t, s.AddWorker("w1"))
	assert.ErrorIs(t, s.AddWorker("w1"), dedicated.ErrDuplicateWorker)
}

func TestScheduler_TasksRunExclusivelyOnNamedWorker(t *testing.T) {
	s := dedicated.NewScheduler(8)
	require.NoError(t, s.AddWorker("gpu-0"))
	s.Start()
	defer func() {
		s.Stop()
		s.Wait()
	}()

	var mu sync.Mutex
	var executions []int
	const n = 20
	handles := make([]action.Handle, n)
	for i := 0; i < n; i++ {
		h, err := s.SpawnOn(context.Background(), "gpu-0", func(ctx context.Context) *action.ExecError {
			mu.Lock()
			executions = append(executions, 1)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		handles[i] = h
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, h := range handles {
		require.Nil(t, h.Await(ctx))
	}
	assert.Len(t, executions, n)
}

func TestScheduler_PendingTasksDrainOnStop(t *testing.T) {
	s := dedicated.NewScheduler(8)
	require.NoError(t, s.AddWorker("w1"))
	s.Start()

	var ran int
	var mu sync.Mutex
	const n = 5
	handles := make([]action.Handle, n)
	for i := 0; i < n; i++ {
		h, err := s.SpawnOn(context.Background(), "w1", func(ctx context.Context) *action.ExecError {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		handles[i] = h
	}

	s.Stop()
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, n, ran)
}

func TestScheduler_AbortCancelsRunContext(t *testing.T) {
	s := dedicated.NewScheduler(4)
	require.NoError(t, s.AddWorker("w1"))
	s.Start()
	defer func() {
		s.Stop()
		s.Wait()
	}()

	started := make(chan struct{})
	observed := make(chan error, 1)
	h, err := s.SpawnOn(context.Background(), "w1", func(ctx context.Context) *action.ExecError {
		close(started)
		<-ctx.Done()
		observed <- ctx.Err()
		return action.Internal(ctx.Err())
	})
	require.NoError(t, err)

	<-started
	h.Abort()

	select {
	case err := <-observed:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("task never observed context cancellation")
	}
}
