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

package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/lindb/taskflow/metrics"
)

func TestSchedulerStatistics_GaugeRoundTripsThroughGet(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := metrics.NewSchedulerStatistics(reg, "main")

	s.WorkersAlive.Incr()
	s.WorkersAlive.Incr()
	s.WorkersAlive.Decr()
	assert.Equal(t, float64(1), s.WorkersAlive.Get())
}

func TestSchedulerStatistics_CountersAndHistogramDoNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := metrics.NewSchedulerStatistics(reg, "main")

	s.TasksConsumed.Incr()
	s.TasksStolen.Add(3)
	s.TasksWaitingTime.UpdateDuration(5 * time.Millisecond)
	s.TasksExecutingTime.UpdateSince(time.Now().Add(-time.Millisecond))

	mf, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, mf)
}

func TestNewSchedulerStatistics_DuplicateEngineNamesDoNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		metrics.NewSchedulerStatistics(reg, "dup")
		metrics.NewSchedulerStatistics(reg, "dup")
	})
}

func TestProgramStatistics_IterationsAndErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := metrics.NewProgramStatistics(reg, "demo")

	s.Iterations.Incr()
	s.IterationDuration.UpdateDuration(time.Millisecond)
	s.Errors.Incr()
	s.Shutdowns.Incr()

	mf, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, mf)
}

func TestNewSchedulerStatistics_NilRegistererSkipsRegistration(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.NewSchedulerStatistics(nil, "unregistered")
	})
}
