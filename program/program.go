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

// Package program implements the cyclic Program driver (§4.J): a named
// root run action, optional start/stop actions, and an optional
// shutdown Sync bound to a shutdown event, driven by run/run_n/
// run_cycle/run_n_cycle and their metered variants.
package program

import (
	"context"
	"time"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/metrics"
	"github.com/lindb/taskflow/pkg/logger"
)

// Config describes one Program: its name, root run action, optional
// start/stop actions with a stop timeout budget, and an optional
// shutdown Sync action bound to a shutdown event.
type Config struct {
	Name        string
	Run         action.Action
	Start       action.Action
	Stop        action.Action
	StopTimeout time.Duration
	// Shutdown, if set, must be an action.Action built over a Sync (see
	// event.NewSync) - its future resolving races every run iteration and
	// takes precedence once it fires.
	Shutdown action.Action
}

// Program drives Config.Run cyclically against a Spawner, honoring the
// start/stop/shutdown lifecycle described in §4.J.
type Program struct {
	cfg     Config
	spawner action.Spawner
	stats   *metrics.ProgramStatistics
	log     logger.Logger
}

// New creates a Program. stats may be nil - every call site guards it,
// and the plain (non-metered) run methods never touch it even if set.
func New(cfg Config, spawner action.Spawner, stats *metrics.ProgramStatistics) *Program {
	return &Program{
		cfg:     cfg,
		spawner: spawner,
		stats:   stats,
		log:     logger.GetLogger("program", cfg.Name),
	}
}

// Run executes the start action, then the run action repeatedly until
// the shutdown Sync fires or a run iteration errors, then the stop
// action; it does not record iteration metrics even if stats is set.
func (p *Program) Run(ctx context.Context) *action.ExecError {
	return p.drive(ctx, 0, 0, false)
}

// RunN runs at most n iterations of the run action.
func (p *Program) RunN(ctx context.Context, n int) *action.ExecError {
	return p.drive(ctx, n, 0, false)
}

// RunCycle runs unboundedly, sleeping out the remainder of cycle after
// each iteration that finishes early.
func (p *Program) RunCycle(ctx context.Context, cycle time.Duration) *action.ExecError {
	return p.drive(ctx, 0, cycle, false)
}

// RunNCycle combines RunN and RunCycle.
func (p *Program) RunNCycle(ctx context.Context, n int, cycle time.Duration) *action.ExecError {
	return p.drive(ctx, n, cycle, false)
}

// RunMetered is Run, additionally recording iteration counts/durations
// into the Program's configured statistics. Run has no cycle, so no
// cycle overruns are recorded.
func (p *Program) RunMetered(ctx context.Context) *action.ExecError {
	return p.drive(ctx, 0, 0, true)
}

// RunNMetered is RunN with metrics recording.
func (p *Program) RunNMetered(ctx context.Context, n int) *action.ExecError {
	return p.drive(ctx, n, 0, true)
}

// RunCycleMetered is RunCycle with metrics recording.
func (p *Program) RunCycleMetered(ctx context.Context, cycle time.Duration) *action.ExecError {
	return p.drive(ctx, 0, cycle, true)
}

// RunNCycleMetered is RunNCycle with metrics recording.
func (p *Program) RunNCycleMetered(ctx context.Context, n int, cycle time.Duration) *action.ExecError {
	return p.drive(ctx, n, cycle, true)
}

// drive implements the §4.J algorithm. maxIterations <= 0 means
// unbounded; cycle <= 0 means no cycle-duration sleep.
func (p *Program) drive(ctx context.Context, maxIterations int, cycle time.Duration, metered bool) *action.ExecError {
	shutdownCh, shutdownResult := p.armShutdown(ctx)

	if p.cfg.Start != nil {
		if err := p.runToCompletion(ctx, p.cfg.Start); err != nil {
			return err
		}
	}

	iteration := 0
	for maxIterations <= 0 || iteration < maxIterations {
		select {
		case <-shutdownCh:
			return p.finish(ctx, *shutdownResult)
		default:
		}

		iterStart := time.Now()
		runErr, shutdownWon := p.raceOneIteration(ctx, shutdownCh)
		if shutdownWon {
			return p.finish(ctx, *shutdownResult)
		}
		if metered && p.stats != nil {
			p.stats.Iterations.Incr()
			p.stats.IterationDuration.UpdateSince(iterStart)
		}
		if runErr != nil {
			if metered && p.stats != nil {
				p.stats.Errors.Incr()
			}
			return p.finish(ctx, runErr)
		}

		if cycle > 0 {
			ctxErr, shutdownWon := p.sleepRemainder(ctx, iterStart, cycle, shutdownCh, metered)
			if shutdownWon {
				return p.finish(ctx, *shutdownResult)
			}
			if ctxErr != nil {
				return p.finish(ctx, ctxErr)
			}
		}
		iteration++
	}

	return p.finish(ctx, nil)
}

// armShutdown resolves the optional shutdown Sync future once and
// starts a goroutine that awaits it exactly one time, closing shutdownCh
// when it resolves. Every loop iteration races against shutdownCh
// instead of re-awaiting the handle, since Program exits the moment the
// shutdown Sync first fires, never starting another run iteration.
func (p *Program) armShutdown(ctx context.Context) (<-chan struct{}, **action.ExecError) {
	result := new(*action.ExecError)
	if p.cfg.Shutdown == nil {
		// No shutdown action configured: return a channel that never
		// closes, so every race always waits for the run side instead.
		return make(chan struct{}), result
	}

	ch := make(chan struct{})
	future, err := p.cfg.Shutdown.TryExecute()
	if err != nil {
		immediate := action.Internal(err)
		*result = immediate
		close(ch)
		return ch, result
	}
	handle := p.spawner.Spawn(ctx, future)
	go func() {
		r := handle.Await(ctx)
		*result = r
		close(ch)
		p.log.Info("shutdown signal observed")
	}()
	return ch, result
}

// raceOneIteration obtains the run action's next future, spawns it, and
// awaits either its completion or shutdownCh closing, whichever comes
// first - the §4.J "run or shutdown" race.
func (p *Program) raceOneIteration(ctx context.Context, shutdownCh <-chan struct{}) (runErr *action.ExecError, shutdownWon bool) {
	future, err := p.cfg.Run.TryExecute()
	if err != nil {
		return action.Internal(err), false
	}
	handle := p.spawner.Spawn(ctx, future)

	runDone := make(chan *action.ExecError, 1)
	go func() { runDone <- handle.Await(ctx) }()

	select {
	case <-shutdownCh:
		handle.Abort()
		return nil, true
	case result := <-runDone:
		return result, false
	}
}

// sleepRemainder sleeps out whatever is left of cycle after an
// iteration that finished early, racing against shutdownCh and ctx
// cancellation.
func (p *Program) sleepRemainder(ctx context.Context, iterStart time.Time, cycle time.Duration, shutdownCh <-chan struct{}, metered bool) (ctxErr *action.ExecError, shutdownWon bool) {
	elapsed := time.Since(iterStart)
	if elapsed >= cycle {
		if metered && p.stats != nil {
			p.stats.CycleOverruns.Incr()
		}
		return nil, false
	}
	timer := time.NewTimer(cycle - elapsed)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil, false
	case <-shutdownCh:
		return nil, true
	case <-ctx.Done():
		return action.Internal(ctx.Err()), false
	}
}

// finish runs the stop action (if any) to completion and combines its
// result with loopErr: the loop's own error or nil (shutdown fired, or
// the iteration budget was exhausted) takes precedence, but the stop
// action always runs to completion first regardless, and its own error
// surfaces only when the loop itself ended cleanly. This is a deliberate
// reading of §4.J step 4's "return its result": an uncaught error from
// the run action must not be masked by a successful stop action.
func (p *Program) finish(ctx context.Context, loopErr *action.ExecError) *action.ExecError {
	if p.cfg.Stop == nil {
		return loopErr
	}

	stopCtx := ctx
	if p.cfg.StopTimeout > 0 {
		var cancel context.CancelFunc
		stopCtx, cancel = context.WithTimeout(ctx, p.cfg.StopTimeout)
		defer cancel()
	}
	stopErr := p.runToCompletion(stopCtx, p.cfg.Stop)
	if stopErr != nil {
		p.log.Warn("stop action returned an error", logger.Error(stopErr))
	}
	if loopErr != nil {
		return loopErr
	}
	return stopErr
}

func (p *Program) runToCompletion(ctx context.Context, a action.Action) *action.ExecError {
	future, err := a.TryExecute()
	if err != nil {
		return action.Internal(err)
	}
	handle := p.spawner.Spawn(ctx, future)
	return handle.Await(ctx)
}
