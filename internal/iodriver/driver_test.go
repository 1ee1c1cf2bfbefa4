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

package iodriver_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lindb/taskflow/internal/iodriver"
)

func TestDriver_WakesRegistrationOnReadiness(t *testing.T) {
	sel := iodriver.NewMemSelector()
	d := iodriver.New(sel)

	var observed iodriver.Readiness
	reg, err := d.AddIOSource("conn-1", iodriver.Readable, func(r iodriver.Readiness) {
		observed = r
	})
	require.NoError(t, err)

	sel.MarkReady(reg.ID(), iodriver.Readable)
	require.NoError(t, d.ProcessIO(time.Second))
	assert.Equal(t, iodriver.Readable, observed)
}

func TestDriver_RemoveDefersReleaseToNextPoll(t *testing.T) {
	sel := iodriver.NewMemSelector()
	d := iodriver.New(sel)

	calls := 0
	reg, err := d.AddIOSource("conn-1", iodriver.Readable, func(iodriver.Readiness) { calls++ })
	require.NoError(t, err)

	// An event for this registration is already in flight when Remove is
	// called - the in-flight poll must still be able to resolve it.
	sel.MarkReady(reg.ID(), iodriver.Readable)
	require.NoError(t, d.RemoveIOSource(reg))
	require.NoError(t, d.ProcessIO(time.Second))
	assert.Equal(t, 1, calls)

	// The slot is now actually released; a stale event for the same id
	// is silently dropped rather than re-invoking the waker.
	sel.MarkReady(reg.ID(), iodriver.Readable)
	err = d.ProcessIO(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDriver_PollTimeoutWithNoEvents(t *testing.T) {
	sel := iodriver.NewMemSelector()
	d := iodriver.New(sel)

	err := d.ProcessIO(10 * time.Millisecond)
	assert.ErrorIs(t, err, iodriver.ErrPollTimeout)
}

func TestDriver_UnparkerBreaksBlockedPoll(t *testing.T) {
	sel := iodriver.NewMemSelector()
	d := iodriver.New(sel)
	unparker := d.Unparker()

	start := time.Now()
	go func() {
		time.Sleep(10 * time.Millisecond)
		unparker.Unpark()
	}()

	err := d.ProcessIO(time.Hour)
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestDriver_EventsProcessedInAscendingIDOrderOnTies(t *testing.T) {
	sel := iodriver.NewMemSelector()
	d := iodriver.New(sel)

	var order []string
	// regB is registered (and so assigned an identifier) before regA.
	regB, err := d.AddIOSource("b", iodriver.Readable, func(iodriver.Readiness) { order = append(order, "b") })
	require.NoError(t, err)
	regA, err := d.AddIOSource("a", iodriver.Readable, func(iodriver.Readiness) { order = append(order, "a") })
	require.NoError(t, err)

	// Mark regA ready first, regB second - the driver must still resolve
	// ties by ascending identifier, not by MarkReady call order.
	sel.MarkReady(regA.ID(), iodriver.Readable)
	sel.MarkReady(regB.ID(), iodriver.Readable)
	require.NoError(t, d.ProcessIO(time.Second))

	require.True(t, regB.ID() < regA.ID())
	assert.Equal(t, []string{"b", "a"}, order)
}
