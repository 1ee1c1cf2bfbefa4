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

// Package runtime implements the runtime facade (§4.F): a Builder that
// enumerates engines, a Runtime that owns their lifecycle, and the
// block_on/spawn/enter_engine operations user code and the program
// driver (§4.J) call against it.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/internal/iodriver"
	"github.com/lindb/taskflow/internal/timewheel"
	"github.com/lindb/taskflow/metrics"
	"github.com/lindb/taskflow/pkg/logger"
	"github.com/lindb/taskflow/scheduler/asyncsched"
	"github.com/lindb/taskflow/scheduler/dedicated"
)

// SchedPolicy is the OS scheduler policy requested for an engine's
// worker threads. Go's runtime does not expose per-goroutine OS
// scheduling policy or priority, so these values are recorded on
// EngineConfig and surfaced for an operator/deployment layer to apply
// at the process level (e.g. via taskset/chrt wrapping the binary);
// see DESIGN.md for why this is not enforced in-process.
type SchedPolicy uint8

const (
	SchedOther SchedPolicy = iota
	SchedFifo
	SchedRoundRobin
)

// DedicatedWorkerSpec configures one named dedicated worker belonging
// to an engine.
type DedicatedWorkerSpec struct {
	ID        dedicated.WorkerID
	QueueSize int
}

// EngineConfig configures one engine: its async worker pool plus zero
// or more dedicated workers, per §4.F.
type EngineConfig struct {
	Name             string
	Workers          int
	TaskQueueSize    int
	ThreadPriority   *int
	CPUAffinity      []int
	StackSize        int
	SchedPolicy      SchedPolicy
	DedicatedWorkers []DedicatedWorkerSpec

	TimeWheelSlots    int
	TimeWheelCapacity int
	TickDuration      time.Duration

	// Registerer, if set, registers this engine's SchedulerStatistics
	// under it, labeled with the engine's Name.
	Registerer prometheus.Registerer
}

// Engine bundles one async scheduler with its optional dedicated
// workers, time driver, and I/O driver.
type Engine struct {
	cfg       EngineConfig
	async     *asyncsched.Scheduler
	dedicated *dedicated.Scheduler
	timeWheel *timewheel.Wheel
	ioDriver  *iodriver.Driver
	stats     *metrics.SchedulerStatistics
}

// Name returns the engine's configured name.
func (e *Engine) Name() string { return e.cfg.Name }

// Stats returns the engine's scheduler statistics bundle, or nil if no
// Registerer was configured.
func (e *Engine) Stats() *metrics.SchedulerStatistics { return e.stats }

// Spawner returns the engine's async scheduler as an action.Spawner.
func (e *Engine) Spawner() action.Spawner { return e.async }

// SpawnOnDedicated pins fn to the named dedicated worker.
func (e *Engine) SpawnOnDedicated(ctx context.Context, id dedicated.WorkerID, fn action.Future) (action.Handle, error) {
	if e.dedicated == nil {
		return nil, fmt.Errorf("runtime: engine %q has no dedicated workers", e.cfg.Name)
	}
	return e.dedicated.SpawnOn(ctx, id, fn)
}

// TimeWheel exposes the engine's time driver for components that need to
// register raw timeouts directly.
func (e *Engine) TimeWheel() *timewheel.Wheel { return e.timeWheel }

// IODriver exposes the engine's I/O driver.
func (e *Engine) IODriver() *iodriver.Driver { return e.ioDriver }

func (e *Engine) start(readyTimeout time.Duration) error {
	e.async.Start()
	if e.dedicated != nil {
		e.dedicated.Start()
	}
	return waitReadyWithTimeout(readyTimeout, e.async.WaitReady, dedicatedWaitReady(e.dedicated))
}

func dedicatedWaitReady(d *dedicated.Scheduler) func() {
	if d == nil {
		return func() {}
	}
	return d.WaitReady
}

// waitReadyWithTimeout runs every waiter concurrently and fails if any
// has not reported ready within timeout - the build() startup barrier.
func waitReadyWithTimeout(timeout time.Duration, waiters ...func()) error {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(len(waiters))
	for _, w := range waiters {
		w := w
		go func() {
			defer wg.Done()
			w()
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrStartupBarrierTimeout
	}
}

func (e *Engine) stop() {
	e.async.Stop()
	if e.dedicated != nil {
		e.dedicated.Stop()
	}
	e.async.Wait()
	if e.dedicated != nil {
		e.dedicated.Wait()
	}
}

// ErrStartupBarrierTimeout is returned by Builder.Build if any engine's
// workers fail to report ready before the startup barrier's deadline.
var ErrStartupBarrierTimeout = errors.New("runtime: startup barrier timed out")

// ErrNoSuchEngine is returned when an operation names an engine the
// Runtime was not built with.
var ErrNoSuchEngine = errors.New("runtime: no such engine")

// ErrDuplicateEngine is returned by Builder.AddEngine for a name
// already registered.
var ErrDuplicateEngine = errors.New("runtime: duplicate engine name")

// Builder enumerates engines before Build spins up their threads.
type Builder struct {
	configs      []EngineConfig
	readyTimeout time.Duration
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{readyTimeout: 5 * time.Second}
}

// WithStartupTimeout overrides the default 5s startup-barrier deadline.
func (b *Builder) WithStartupTimeout(d time.Duration) *Builder {
	b.readyTimeout = d
	return b
}

// AddEngine registers one engine configuration. The first engine added
// becomes the Runtime's default engine.
func (b *Builder) AddEngine(cfg EngineConfig) *Builder {
	b.configs = append(b.configs, cfg)
	return b
}

// Build spins up every configured engine's threads, returning a Runtime
// only once all have signaled readiness via the startup barrier, or an
// error if any engine is misconfigured or fails to start in time.
func (b *Builder) Build() (*Runtime, error) {
	if len(b.configs) == 0 {
		return nil, errors.New("runtime: builder has no engines configured")
	}

	r := &Runtime{
		engines: make(map[string]*Engine, len(b.configs)),
		log:     logger.GetLogger("runtime", "runtime"),
	}

	for i, cfg := range b.configs {
		if cfg.Name == "" {
			return nil, fmt.Errorf("runtime: engine at index %d has no name", i)
		}
		if _, exists := r.engines[cfg.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEngine, cfg.Name)
		}

		slots := cfg.TimeWheelSlots
		if slots <= 0 {
			slots = 512
		}
		capacity := cfg.TimeWheelCapacity
		if capacity <= 0 {
			capacity = 4096
		}

		e := &Engine{
			cfg:       cfg,
			timeWheel: timewheel.New(slots, capacity),
			ioDriver:  iodriver.New(iodriver.NewMemSelector()),
		}
		if cfg.Registerer != nil {
			e.stats = metrics.NewSchedulerStatistics(cfg.Registerer, cfg.Name)
		}
		e.async = asyncsched.New(asyncsched.Config{
			Workers:       cfg.Workers,
			TaskQueueSize: cfg.TaskQueueSize,
			TickDuration:  cfg.TickDuration,
			Stats:         e.stats,
		}, e.timeWheel, e.ioDriver)

		if len(cfg.DedicatedWorkers) > 0 {
			d := dedicated.NewScheduler(cfg.TaskQueueSize)
			for _, dw := range cfg.DedicatedWorkers {
				if err := d.AddWorker(dw.ID); err != nil {
					return nil, err
				}
			}
			e.dedicated = d
		}

		if i == 0 {
			r.defaultEngine = cfg.Name
		}
		r.engines[cfg.Name] = e
	}

	for name, e := range r.engines {
		if err := e.start(b.readyTimeout); err != nil {
			return nil, fmt.Errorf("runtime: engine %q: %w", name, err)
		}
	}

	return r, nil
}

// Runtime owns every built engine's lifecycle.
type Runtime struct {
	mu            sync.Mutex
	engines       map[string]*Engine
	defaultEngine string
	log           logger.Logger
	closed        bool
}

// Engine returns the named engine, or false if no such engine exists.
func (r *Runtime) Engine(name string) (*Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.engines[name]
	return e, ok
}

// DefaultEngine returns the first engine the Builder was given.
func (r *Runtime) DefaultEngine() *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engines[r.defaultEngine]
}

// Spawn enqueues future on the default engine and returns its
// JoinHandle.
func (r *Runtime) Spawn(ctx context.Context, future action.Future) action.Handle {
	return r.DefaultEngine().Spawner().Spawn(ctx, future)
}

// SpawnOnDedicated enqueues future on the named dedicated worker of the
// default engine.
func (r *Runtime) SpawnOnDedicated(ctx context.Context, id dedicated.WorkerID, future action.Future) (action.Handle, error) {
	return r.DefaultEngine().SpawnOnDedicated(ctx, id, future)
}

// EnterEngine blocks the calling goroutine, driving future to
// completion on the named engine. The "park on a condvar woken by the
// future's completion waker" mechanism §4.F describes is, in this
// model, the JoinHandle's done channel - Await already blocks exactly
// that way, so EnterEngine is directly Spawn-then-Await.
func (r *Runtime) EnterEngine(ctx context.Context, engineName string, future action.Future) (*action.ExecError, error) {
	e, ok := r.Engine(engineName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchEngine, engineName)
	}
	handle := e.Spawner().Spawn(ctx, future)
	return handle.Await(ctx), nil
}

// BlockOn is EnterEngine against the default engine.
func (r *Runtime) BlockOn(ctx context.Context, future action.Future) *action.ExecError {
	handle := r.Spawn(ctx, future)
	return handle.Await(ctx)
}

// Shutdown requests every engine's workers to stop, unparks them, and
// joins all threads - the runtime facade's Drop equivalent.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	engines := make([]*Engine, 0, len(r.engines))
	for _, e := range r.engines {
		engines = append(engines, e)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(engines))
	for _, e := range engines {
		e := e
		go func() {
			defer wg.Done()
			e.stop()
		}()
	}
	wg.Wait()
}
