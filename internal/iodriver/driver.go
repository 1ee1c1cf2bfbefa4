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

// Package iodriver implements the I/O driver (§4.B): a thin wrapper
// around a pluggable readiness Selector that turns raw readiness events
// into waker callbacks, with the deregister-at-next-poll discipline the
// selector needs to stay correct under in-flight polls.
package iodriver

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Interest is a bitmask of readiness kinds a registration cares about.
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
)

// Readiness is a bitmask of the readiness kinds observed for an event.
type Readiness uint8

// Identifier is the opaque handle a Selector hands back for a
// registered source; it survives exactly as long as the Registration
// that owns it.
type Identifier uint64

// Event is one readiness observation returned by Selector.Poll.
type Event struct {
	ID        Identifier
	Readiness Readiness
}

// Selector is the readiness-polling primitive the driver wraps. A real
// deployment backs this with the platform's native poller (epoll,
// kqueue, IOCP); Driver itself is agnostic to which.
type Selector interface {
	Register(source any, interest Interest) (Identifier, error)
	Deregister(id Identifier) error
	// Poll blocks for up to timeout waiting for readiness events, or
	// returns earlier if ctx is done or Wake is called. A timeout <= 0
	// means poll without blocking.
	Poll(ctx context.Context, timeout time.Duration) ([]Event, error)
	// Wake unblocks a goroutine currently inside Poll.
	Wake()
}

// ErrPollTimeout is returned by Driver.ProcessIO when the selector's
// poll deadline elapsed with no events observed.
var ErrPollTimeout = errors.New("iodriver: poll timed out")

type registration struct {
	id       Identifier
	source   any
	interest Interest
	waker    func(Readiness)
}

// Registration is the drop-to-deregister handle returned by
// AddIOSource.
type Registration struct {
	driver *Driver
	reg    *registration
}

// ID returns the identifier the selector assigned this registration.
func (r *Registration) ID() Identifier { return r.reg.id }

// Driver wraps a Selector, translating raw readiness events into waker
// invocations and deferring slot release across the deregister/next-poll
// boundary described in §4.B.
type Driver struct {
	selector Selector

	mu             sync.Mutex
	registrations  map[Identifier]*registration
	pendingRelease []Identifier
}

// New wraps selector in a Driver.
func New(selector Selector) *Driver {
	return &Driver{
		selector:      selector,
		registrations: make(map[Identifier]*registration),
	}
}

// AddIOSource registers source for the given interest and returns a
// Registration whose waker fires on every observed readiness event. On
// selector error the reservation is released and not left dangling.
func (d *Driver) AddIOSource(source any, interest Interest, waker func(Readiness)) (*Registration, error) {
	id, err := d.selector.Register(source, interest)
	if err != nil {
		return nil, err
	}

	reg := &registration{id: id, source: source, interest: interest, waker: waker}
	d.mu.Lock()
	d.registrations[id] = reg
	d.mu.Unlock()

	return &Registration{driver: d, reg: reg}, nil
}

// RemoveIOSource deregisters reg from the selector immediately, but only
// schedules the bookkeeping slot for release at the *next* ProcessIO
// call - the poll currently in flight (if any) may still surface an
// event for this identifier, and the slot must still be resolvable when
// that happens.
func (d *Driver) RemoveIOSource(reg *Registration) error {
	if err := d.selector.Deregister(reg.reg.id); err != nil {
		return err
	}
	d.mu.Lock()
	d.pendingRelease = append(d.pendingRelease, reg.reg.id)
	d.mu.Unlock()
	return nil
}

// ProcessIO polls the selector for up to timeout, waking the
// registration for every observed event. The events of one poll are
// dispatched in ascending Identifier order, whatever order the selector
// returned them in. Internal wakeup events carry Identifier 0 and are
// always filtered, never dispatched to a waker.
func (d *Driver) ProcessIO(timeout time.Duration) error {
	d.mu.Lock()
	toRelease := d.pendingRelease
	d.pendingRelease = nil
	d.mu.Unlock()
	// Slots removed before this call stay resolvable for this poll's
	// events and are released once it has been dispatched.
	defer func() {
		d.mu.Lock()
		for _, id := range toRelease {
			delete(d.registrations, id)
		}
		d.mu.Unlock()
	}()

	ctx := context.Background()
	events, err := d.selector.Poll(ctx, timeout)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return ErrPollTimeout
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].ID < events[j].ID })

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ev := range events {
		if ev.ID == 0 {
			continue // internal wakeup marker, not a real registration
		}
		reg, ok := d.registrations[ev.ID]
		if !ok {
			continue // deregistered between poll submission and this pass
		}
		reg.waker(ev.Readiness)
	}
	return nil
}

// Unparker returns a handle that unblocks a blocked ProcessIO call,
// used to break a worker's park loop when §4.C needs to hand it fresh
// work.
func (d *Driver) Unparker() *Unparker {
	return &Unparker{selector: d.selector}
}

// Unparker is the handle returned by Driver.Unparker.
type Unparker struct {
	selector Selector
}

// Unpark wakes a goroutine currently blocked inside ProcessIO.
func (u *Unparker) Unpark() { u.selector.Wake() }
