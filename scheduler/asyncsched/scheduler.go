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

// Package asyncsched implements the multi-threaded, work-stealing
// cooperative scheduler (§4.D): a global injector queue, one bounded
// local queue per worker, steal-half rebalancing, periodic ticks into
// the time and I/O drivers, and the task state word / JoinHandle pair
// every spawn returns.
package asyncsched

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/internal/iodriver"
	"github.com/lindb/taskflow/internal/timewheel"
	"github.com/lindb/taskflow/internal/workerstate"
	"github.com/lindb/taskflow/metrics"
	"github.com/lindb/taskflow/pkg/logger"
)

const (
	// driverTickInterval is "every N ticks" from §4.D step 1 (power of
	// two, as the spec requires).
	driverTickInterval = 64
	// globalDrainInterval is "every M ticks" from §4.D step 2.
	globalDrainInterval = 32
	// globalDrainBatch bounds how much of the global queue a single
	// drain pulls into a worker's local queue.
	globalDrainBatch = 16
)

type ctxKey struct{}

// workerFromContext reports the originating worker index for ctx, and
// whether ctx was produced by a worker's own poll loop at all - used to
// implement "spawn to the calling worker's local queue if the spawner
// is a worker, else the global queue".
func workerFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(ctxKey{})
	if v == nil {
		return 0, false
	}
	return v.(int), true
}

// Config holds one engine's worker-pool parameters (§6).
type Config struct {
	Workers       int
	TaskQueueSize int
	// TickDuration maps the time driver's abstract Tick unit to wall
	// clock time; defaults to 1ms.
	TickDuration time.Duration
	// Stats is optional; when set, worker and task lifecycle events are
	// reported to it. Nil is safe - every call site guards it.
	Stats *metrics.SchedulerStatistics
}

// Scheduler is one async engine: a pool of worker goroutines sharing a
// global queue, each with its own local queue, time driver, and I/O
// driver. It implements action.Spawner.
type Scheduler struct {
	cfg        Config
	global     *globalQueue
	locals     []*localQueue
	states     []*workerstate.Worker
	timeDriver *timewheel.Wheel
	ioDriver   *iodriver.Driver
	log        logger.Logger

	nextTaskID atomic.Uint64
	cursor     atomic.Uint64 // round-robin pointer for sibling notification

	epoch time.Time

	wg       sync.WaitGroup
	readyWG  sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a Scheduler with cfg.Workers local queues, backed by
// timeDriver and ioDriver (both may be nil, in which case the
// corresponding tick work is skipped - useful for tests that only
// exercise queueing/stealing).
func New(cfg Config, timeDriver *timewheel.Wheel, ioDriver *iodriver.Driver) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.TaskQueueSize < 1 {
		cfg.TaskQueueSize = 256
	}
	if cfg.TickDuration <= 0 {
		cfg.TickDuration = time.Millisecond
	}
	s := &Scheduler{
		cfg:        cfg,
		global:     newGlobalQueue(),
		timeDriver: timeDriver,
		ioDriver:   ioDriver,
		log:        logger.GetLogger("scheduler", "async"),
		stopCh:     make(chan struct{}),
		epoch:      time.Now(),
	}
	for i := 0; i < cfg.Workers; i++ {
		s.locals = append(s.locals, newLocalQueue(cfg.TaskQueueSize))
		s.states = append(s.states, workerstate.New())
	}
	return s
}

// Start launches one goroutine per configured worker. Callers should
// call Stop to request shutdown and Wait to join.
func (s *Scheduler) Start() {
	s.readyWG.Add(s.cfg.Workers)
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.runWorker(i)
	}
}

// WaitReady blocks until every worker goroutine has entered its poll
// loop - the readiness barrier §4.F's build() relies on.
func (s *Scheduler) WaitReady() { s.readyWG.Wait() }

// Stop requests every worker to shut down and unparks any that are
// sleeping. It does not block; call Wait to join.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		for _, st := range s.states {
			st.Stop()
		}
	})
}

// Wait blocks until every worker goroutine has exited.
func (s *Scheduler) Wait() { s.wg.Wait() }

// Spawn implements action.Spawner: it places fn in the calling worker's
// local queue if ctx identifies one, else the global queue, and
// notifies a sibling worker so the new task is picked up promptly.
func (s *Scheduler) Spawn(ctx context.Context, fn action.Future) action.Handle {
	id := s.nextTaskID.Inc()
	owner, isWorker := workerFromContext(ctx)
	if !isWorker {
		owner = -1
	}

	runCtx, cancel := context.WithCancel(ctx)
	t := newTask(id, fn, owner)
	handle := &joinHandle{t: t, cancel: cancel}
	// runCtx threads the originating worker index through to any nested
	// Spawn call the future itself makes, preserving locality.
	if isWorker {
		runCtx = context.WithValue(runCtx, ctxKey{}, owner)
	}
	t.runCtx = runCtx

	s.enqueue(t)
	s.notifySibling()
	return handle
}

func (s *Scheduler) enqueue(t *task) {
	if t.ownerWorker >= 0 && t.ownerWorker < len(s.locals) {
		if s.locals[t.ownerWorker].PushBack(t) {
			return
		}
	}
	s.global.Push(t)
}

func (s *Scheduler) notifySibling() {
	n := uint64(len(s.states))
	if n == 0 {
		return
	}
	idx := s.cursor.Inc() % n
	s.states[idx].Notify()
}

// runWorker is one worker's poll cycle, implementing §4.D's five steps.
func (s *Scheduler) runWorker(idx int) {
	defer s.wg.Done()
	local := s.locals[idx]
	state := s.states[idx]
	var tick uint64

	if s.cfg.Stats != nil {
		s.cfg.Stats.WorkersAlive.Incr()
		s.cfg.Stats.WorkersCreated.Incr()
		defer func() {
			s.cfg.Stats.WorkersAlive.Decr()
			s.cfg.Stats.WorkersKilled.Incr()
		}()
	}

	s.readyWG.Done()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		tick++
		if tick%driverTickInterval == 0 {
			s.driveTimers()
			if s.ioDriver != nil {
				_ = s.ioDriver.ProcessIO(0)
			}
		}
		if tick%globalDrainInterval == 0 {
			for _, batch := range s.global.DrainBatch(globalDrainBatch) {
				local.PushBack(batch)
			}
		}

		if t := local.PopFront(); t != nil {
			s.dispatch(idx, t)
			continue
		}
		if t := s.global.Pop(); t != nil {
			s.dispatch(idx, t)
			continue
		}
		if t := s.stealFrom(idx); t != nil {
			s.dispatch(idx, t)
			s.notifySibling()
			continue
		}

		if !state.BeginSearch() {
			continue
		}
		if s.parkUntilWork(idx, state) {
			return
		}
	}
}

// nowTick converts wall-clock time to the time driver's abstract Tick
// unit.
func (s *Scheduler) nowTick() timewheel.Tick {
	return timewheel.Tick(time.Since(s.epoch) / s.cfg.TickDuration)
}

func (s *Scheduler) tickToTime(t timewheel.Tick) time.Time {
	return s.epoch.Add(time.Duration(t) * s.cfg.TickDuration)
}

func (s *Scheduler) driveTimers() {
	if s.timeDriver == nil {
		return
	}
	s.timeDriver.ProcessTimeouts(s.nowTick())
}

func (s *Scheduler) dispatch(_ int, t *task) {
	if s.cfg.Stats != nil {
		s.cfg.Stats.TasksWaitingTime.UpdateSince(t.createTime)
		start := time.Now()
		t.run(t.runCtx)
		s.cfg.Stats.TasksExecutingTime.UpdateSince(start)
		s.cfg.Stats.TasksConsumed.Incr()
		return
	}
	t.run(t.runCtx)
}

// stealFrom picks a random start index and takes up to half of each
// victim's queue in turn until one yields work, per §4.D step 4.
func (s *Scheduler) stealFrom(self int) *task {
	n := len(s.locals)
	if n < 2 {
		return nil
	}
	start := rand.Intn(n) //nolint:gosec // work-stealing victim choice, not security-sensitive
	for i := 0; i < n; i++ {
		victim := (start + i) % n
		if victim == self {
			continue
		}
		stolen := s.locals[victim].StealHalf()
		if len(stolen) == 0 {
			continue
		}
		if s.cfg.Stats != nil {
			s.cfg.Stats.TasksStolen.Add(float64(len(stolen)))
		}
		first := stolen[0]
		for _, t := range stolen[1:] {
			s.locals[self].PushBack(t)
		}
		return first
	}
	return nil
}

// parkUntilWork executes the §4.C parking protocol for one worker,
// returning true if the worker should exit (shutdown observed).
func (s *Scheduler) parkUntilWork(idx int, state *workerstate.Worker) bool {
	var deadline time.Time
	if s.timeDriver != nil {
		if next, ok := s.timeDriver.NextProcessTime(); ok {
			deadline = s.tickToTime(next)
		}
	}
	reason := state.Park(deadline, time.Now)
	return reason == workerstate.WokeShuttingDown
}
