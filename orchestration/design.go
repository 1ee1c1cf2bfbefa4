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

// Package orchestration implements the Design/Deployment registration
// database (§3 "Registration database (per Design)", §4.K, §9
// "Deployment binding"): Tag-keyed maps of invoke generators, event
// records, and IfElse conditions, plus the binding phase that patches
// symbolic events to concrete creators and materializes bound actions.
package orchestration

import (
	"errors"
	"sync"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/scheduler/dedicated"
)

var (
	// ErrRegistrationFull is returned when a Design's fixed
	// registration_capacity is exhausted.
	ErrRegistrationFull = errors.New("orchestration: design registration capacity exhausted")
	// ErrDuplicateTag is returned when a Tag is registered twice, even
	// across the three registries (an invoke Tag and an event Tag must
	// not collide).
	ErrDuplicateTag = errors.New("orchestration: tag already registered")
	// ErrUnknownTag is returned when a Tag is looked up without having
	// been registered.
	ErrUnknownTag = errors.New("orchestration: unknown tag")
)

// WorkerPin records where a registered invoke should run: the named
// engine, and optionally a specific dedicated worker inside it. A nil
// WorkerPin means "the default engine's async pool, no pinning".
type WorkerPin struct {
	Engine    string
	Dedicated dedicated.WorkerID
}

// InvokeGenerator is the "clonable invoke generator" of §3: a closure
// producing an action.Action bound to its registering Tag. It receives a
// Resolver so it can look up events and conditions registered elsewhere
// in the same Deployment by Tag, deferring that lookup until Deployment
// binding has completed.
type InvokeGenerator func(r Resolver) (action.Action, error)

type invokeRegistration struct {
	tag Tag
	gen InvokeGenerator
	pin *WorkerPin
}

type eventRegistration struct {
	tag     Tag
	creator EventCreator // nil until bound by Deployment.Bind
}

// Tag is re-exported so callers of this package don't need a second
// import just to name one.
type Tag = action.Tag

// Design is a fixed-capacity registration database: Tag -> invoke
// generator, Tag -> event record, Tag -> condition. Capacities are fixed
// at construction and never grow at runtime (§3).
type Design struct {
	mu         sync.Mutex
	capacity   int
	size       int
	invokes    map[uint64]*invokeRegistration
	events     map[uint64]*eventRegistration
	conditions map[uint64]Condition
}

// NewDesign creates a Design whose combined invoke/event/condition
// registrations may never exceed capacity.
func NewDesign(capacity int) *Design {
	if capacity < 1 {
		capacity = 1
	}
	return &Design{
		capacity:   capacity,
		invokes:    make(map[uint64]*invokeRegistration, capacity),
		events:     make(map[uint64]*eventRegistration, capacity),
		conditions: make(map[uint64]Condition, capacity),
	}
}

// Capacity returns the Design's fixed registration_capacity.
func (d *Design) Capacity() int { return d.capacity }

func (d *Design) reserve(tag Tag) error {
	if d.size >= d.capacity {
		return ErrRegistrationFull
	}
	if _, ok := d.invokes[tag.Hash()]; ok {
		return ErrDuplicateTag
	}
	if _, ok := d.events[tag.Hash()]; ok {
		return ErrDuplicateTag
	}
	if _, ok := d.conditions[tag.Hash()]; ok {
		return ErrDuplicateTag
	}
	d.size++
	return nil
}

// RegisterInvoke registers gen under tag, optionally pinned to a worker.
func (d *Design) RegisterInvoke(tag Tag, gen InvokeGenerator, pin *WorkerPin) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.reserve(tag); err != nil {
		return err
	}
	d.invokes[tag.Hash()] = &invokeRegistration{tag: tag, gen: gen, pin: pin}
	return nil
}

// RegisterEvent registers a design event record under tag. creator may be
// nil: an unbound symbolic event record that a Deployment must patch
// before the Design's program is materialized (§9 "Deployment binding").
func (d *Design) RegisterEvent(tag Tag, creator EventCreator) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.reserve(tag); err != nil {
		return err
	}
	d.events[tag.Hash()] = &eventRegistration{tag: tag, creator: creator}
	return nil
}

// RegisterCondition registers a Condition under tag for IfElse lookup.
func (d *Design) RegisterCondition(tag Tag, cond Condition) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.reserve(tag); err != nil {
		return err
	}
	d.conditions[tag.Hash()] = cond
	return nil
}

func (d *Design) invoke(tag Tag) (*invokeRegistration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.invokes[tag.Hash()]
	return r, ok
}

func (d *Design) condition(tag Tag) (Condition, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.conditions[tag.Hash()]
	return c, ok
}

// unboundEvents returns every event record this Design registered that
// has not yet been given a creator, for Deployment.Validate.
func (d *Design) unboundEvents() []Tag {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Tag
	for _, e := range d.events {
		if e.creator == nil {
			out = append(out, e.tag)
		}
	}
	return out
}

// bindEvent patches the creator slot for tag if this Design registered
// that event tag. Returns true if a match was found (and patched).
func (d *Design) bindEvent(tag Tag, creator EventCreator) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.events[tag.Hash()]
	if !ok {
		return false
	}
	e.creator = creator
	return true
}

func (d *Design) event(tag Tag) (*eventRegistration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.events[tag.Hash()]
	return e, ok
}

