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

// Package metrics exposes the scheduler's and the program driver's
// runtime statistics as Prometheus collectors: counters for task and
// worker lifecycle events, gauges for point-in-time counts, and
// histograms for iteration/wait/execution timings.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Counter wraps a prometheus.Counter with the Incr() call-site shape
// used throughout the scheduler and program packages.
type Counter struct {
	c prometheus.Counter
}

func newCounter(opts prometheus.CounterOpts) *Counter {
	return &Counter{c: prometheus.NewCounter(opts)}
}

// Incr increments the counter by one.
func (c *Counter) Incr() { c.c.Inc() }

// Add increments the counter by delta.
func (c *Counter) Add(delta float64) { c.c.Add(delta) }

// Get reads the counter's current total back out.
func (c *Counter) Get() float64 {
	m := &dto.Metric{}
	_ = c.c.Write(m)
	return m.GetCounter().GetValue()
}

func (c *Counter) collector() prometheus.Collector { return c.c }

// Gauge wraps a prometheus.Gauge, adding Get for the read-back call
// sites that branch on the current value (e.g. worker-pool sizing
// decisions).
type Gauge struct {
	g prometheus.Gauge
}

func newGauge(opts prometheus.GaugeOpts) *Gauge {
	return &Gauge{g: prometheus.NewGauge(opts)}
}

// Incr increments the gauge by one.
func (g *Gauge) Incr() { g.g.Inc() }

// Decr decrements the gauge by one.
func (g *Gauge) Decr() { g.g.Dec() }

// Set assigns the gauge's current value.
func (g *Gauge) Set(v float64) { g.g.Set(v) }

// Get reads the gauge's current value back out.
func (g *Gauge) Get() float64 {
	m := &dto.Metric{}
	_ = g.g.Write(m)
	return m.GetGauge().GetValue()
}

func (g *Gauge) collector() prometheus.Collector { return g.g }

// Histogram wraps a prometheus.Histogram with duration-oriented
// convenience methods matching the teacher's BoundHistogram call sites.
type Histogram struct {
	h prometheus.Histogram
}

func newHistogram(opts prometheus.HistogramOpts) *Histogram {
	return &Histogram{h: prometheus.NewHistogram(opts)}
}

// UpdateDuration records d, in seconds.
func (h *Histogram) UpdateDuration(d time.Duration) { h.h.Observe(d.Seconds()) }

// UpdateSince records the elapsed time since start, in seconds.
func (h *Histogram) UpdateSince(start time.Time) { h.h.Observe(time.Since(start).Seconds()) }

func (h *Histogram) collector() prometheus.Collector { return h.h }

// SchedulerStatistics is the statistics bundle one asyncsched.Scheduler
// (or dedicated.Scheduler) is constructed with, mirroring the teacher's
// *metrics.ConcurrentStatistics field on internal/concurrent.Pool.
type SchedulerStatistics struct {
	WorkersAlive       *Gauge
	WorkersCreated     *Counter
	WorkersKilled      *Counter
	TasksConsumed      *Counter
	TasksRejected      *Counter
	TasksStolen        *Counter
	TasksPanic         *Counter
	TasksWaitingTime   *Histogram
	TasksExecutingTime *Histogram
}

// NewSchedulerStatistics creates a SchedulerStatistics bundle and
// registers every collector under reg with the given engine name as a
// constant "engine" label.
func NewSchedulerStatistics(reg prometheus.Registerer, engine string) *SchedulerStatistics {
	labels := prometheus.Labels{"engine": engine}
	s := &SchedulerStatistics{
		WorkersAlive:       newGauge(prometheus.GaugeOpts{Namespace: namespace, Subsystem: subsystem, Name: "workers_alive", ConstLabels: labels}),
		WorkersCreated:     newCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: "workers_created_total", ConstLabels: labels}),
		WorkersKilled:      newCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: "workers_killed_total", ConstLabels: labels}),
		TasksConsumed:      newCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: "tasks_consumed_total", ConstLabels: labels}),
		TasksRejected:      newCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: "tasks_rejected_total", ConstLabels: labels}),
		TasksStolen:        newCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: "tasks_stolen_total", ConstLabels: labels}),
		TasksPanic:         newCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: "tasks_panic_total", ConstLabels: labels}),
		TasksWaitingTime:   newHistogram(prometheus.HistogramOpts{Namespace: namespace, Subsystem: subsystem, Name: "task_waiting_seconds", ConstLabels: labels, Buckets: prometheus.DefBuckets}),
		TasksExecutingTime: newHistogram(prometheus.HistogramOpts{Namespace: namespace, Subsystem: subsystem, Name: "task_executing_seconds", ConstLabels: labels, Buckets: prometheus.DefBuckets}),
	}
	if reg != nil {
		register(reg,
			s.WorkersAlive.collector(), s.WorkersCreated.collector(), s.WorkersKilled.collector(),
			s.TasksConsumed.collector(), s.TasksRejected.collector(), s.TasksStolen.collector(),
			s.TasksPanic.collector(), s.TasksWaitingTime.collector(), s.TasksExecutingTime.collector(),
		)
	}
	return s
}

// ProgramStatistics is the statistics bundle one program.Program is
// constructed with: per-iteration timing, cycle overrun count,
// and error/shutdown counters.
type ProgramStatistics struct {
	Iterations        *Counter
	IterationDuration *Histogram
	CycleOverruns     *Counter
	Errors            *Counter
	Shutdowns         *Counter
}

// NewProgramStatistics creates a ProgramStatistics bundle and registers
// it under reg with the given program name as a constant "program" label.
func NewProgramStatistics(reg prometheus.Registerer, program string) *ProgramStatistics {
	labels := prometheus.Labels{"program": program}
	s := &ProgramStatistics{
		Iterations:        newCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: "program", Name: "iterations_total", ConstLabels: labels}),
		IterationDuration: newHistogram(prometheus.HistogramOpts{Namespace: namespace, Subsystem: "program", Name: "iteration_seconds", ConstLabels: labels, Buckets: prometheus.DefBuckets}),
		CycleOverruns:     newCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: "program", Name: "cycle_overruns_total", ConstLabels: labels}),
		Errors:            newCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: "program", Name: "errors_total", ConstLabels: labels}),
		Shutdowns:         newCounter(prometheus.CounterOpts{Namespace: namespace, Subsystem: "program", Name: "shutdowns_total", ConstLabels: labels}),
	}
	if reg != nil {
		register(reg,
			s.Iterations.collector(), s.IterationDuration.collector(),
			s.CycleOverruns.collector(), s.Errors.collector(), s.Shutdowns.collector(),
		)
	}
	return s
}

const (
	namespace = "taskflow"
	subsystem = "scheduler"
)

// register registers each collector, silently skipping ones already
// registered under reg - statistics bundles are commonly constructed
// per engine/program instance in tests, and duplicate registration
// against a shared default registry should not panic test suites.
func register(reg prometheus.Registerer, collectors ...prometheus.Collector) {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				continue
			}
		}
	}
}
