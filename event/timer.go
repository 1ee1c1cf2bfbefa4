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

package event

import (
	"context"
	"sync"
	"time"

	"github.com/lindb/taskflow/pkg/logger"
)

// Timer synthesizes cycle-boundary signals: only Sync is meaningful on a
// Timer event, there is no Trigger side. The first Receive aligns the
// phase to one cycle past an internal epoch; every later call resolves at
// the next boundary. A caller that falls behind (elapsed ticks beyond
// what was expected) is caught up immediately rather than made to wait
// through every missed boundary.
type Timer struct {
	mu            sync.Mutex
	cycle         time.Duration
	epoch         time.Time
	expectedTicks uint64
	started       bool
	log           logger.Logger
}

// NewTimer creates a Timer event synthesizing a signal every cycle.
func NewTimer(cycle time.Duration) *Timer {
	return &Timer{cycle: cycle, log: logger.GetLogger("event", "timer")}
}

// Listener returns the Listener view of this Timer for binding to a Sync
// action.
func (t *Timer) Listener() Listener { return t }

// Receive implements Listener: it blocks until the next cycle boundary,
// or returns immediately (after advancing the internal expectation) if
// the caller is already behind schedule.
func (t *Timer) Receive(ctx context.Context) error {
	t.mu.Lock()
	if !t.started {
		t.epoch = time.Now()
		t.started = true
		t.expectedTicks = 1
	} else {
		t.expectedTicks++
	}
	target := t.epoch.Add(time.Duration(t.expectedTicks) * t.cycle)
	t.mu.Unlock()

	now := time.Now()
	if !now.Before(target) {
		t.catchUp(now)
		return nil
	}

	wait := target.Sub(now)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Timer) catchUp(now time.Time) {
	elapsedTicks := uint64(now.Sub(t.epoch) / t.cycle)

	t.mu.Lock()
	defer t.mu.Unlock()
	if elapsedTicks > t.expectedTicks {
		t.log.Warn("timer missed ticks, catching up",
			logger.Uint64("expectedTicks", t.expectedTicks),
			logger.Uint64("elapsedTicks", elapsedTicks),
		)
		t.expectedTicks = elapsedTicks
	}
}
