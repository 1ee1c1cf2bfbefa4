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

package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/event"
	"github.com/lindb/taskflow/runtime"
	"github.com/lindb/taskflow/scheduler/dedicated"
)

// Resolver is what an InvokeGenerator uses to look up event
// notifiers/listeners and conditions registered anywhere in the
// Deployment it is being materialized under, by Tag.
type Resolver interface {
	Notifier(tag Tag) (event.Notifier, error)
	Listener(tag Tag) (event.Listener, error)
	Condition(tag Tag) (Condition, error)
	// Spawner resolves the action.Spawner a nested Invoke should hand its
	// own children to (e.g. a Concurrency built inside a generator that
	// wants its branches to also honor worker pinning).
	Spawner(pin *WorkerPin) (action.Spawner, error)
}

// Deployment binds the symbolic event records of one or more Designs to
// concrete EventCreators and materializes bound invokes into runnable
// action.Actions against a live runtime.Runtime (§9 "Deployment
// binding"). Binding walks every attached Design; this is intentionally
// allowed to be ambiguous across Designs (the same Tag registered as an
// unbound event in two Designs is patched by one Bind call), but
// Validate fails if any attached Design still has an unbound event when
// the Deployment is materialized.
type Deployment struct {
	mu      sync.Mutex
	designs []*Design
	rt      *runtime.Runtime
}

// NewDeployment creates a Deployment materializing actions against rt.
func NewDeployment(rt *runtime.Runtime) *Deployment {
	return &Deployment{rt: rt}
}

// AddDesign attaches design to the Deployment and returns the Deployment
// for chaining.
func (d *Deployment) AddDesign(design *Design) *Deployment {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.designs = append(d.designs, design)
	return d
}

// Bind patches the creator slot of every attached Design's event record
// matching tag. Returns ErrUnknownTag if no Design registered that tag as
// an event.
func (d *Deployment) Bind(tag Tag, creator EventCreator) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	bound := false
	for _, design := range d.designs {
		if design.bindEvent(tag, creator) {
			bound = true
		}
	}
	if !bound {
		return fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	return nil
}

// Validate reports every event Tag, across all attached Designs, that is
// still unbound. A Deployment with a non-empty result must not be
// materialized - §9 requires binding to fail loudly rather than run a
// Program with a symbolic event that was never wired to a real creator.
func (d *Deployment) Validate() []Tag {
	d.mu.Lock()
	defer d.mu.Unlock()
	var unbound []Tag
	for _, design := range d.designs {
		unbound = append(unbound, design.unboundEvents()...)
	}
	return unbound
}

// Materialize resolves the invoke registered under tag in any attached
// Design and builds its action.Action by calling its InvokeGenerator with
// this Deployment as Resolver. Returns ErrUnknownTag if no Design
// registered tag as an invoke, or the generator's own error otherwise.
func (d *Deployment) Materialize(tag Tag) (action.Action, error) {
	if unbound := d.Validate(); len(unbound) > 0 {
		return nil, fmt.Errorf("orchestration: %d event(s) unbound, first %s", len(unbound), unbound[0])
	}
	reg, ok := d.findInvoke(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	return reg.gen(d)
}

func (d *Deployment) findInvoke(tag Tag) (*invokeRegistration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, design := range d.designs {
		if reg, ok := design.invoke(tag); ok {
			return reg, true
		}
	}
	return nil, false
}

func (d *Deployment) findEvent(tag Tag) (*eventRegistration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, design := range d.designs {
		if reg, ok := design.event(tag); ok {
			return reg, true
		}
	}
	return nil, false
}

// Notifier implements Resolver.
func (d *Deployment) Notifier(tag Tag) (event.Notifier, error) {
	reg, ok := d.findEvent(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	if reg.creator == nil {
		return nil, fmt.Errorf("orchestration: event %s not bound to a creator", tag)
	}
	return reg.creator.CreateNotifier()
}

// Listener implements Resolver.
func (d *Deployment) Listener(tag Tag) (event.Listener, error) {
	reg, ok := d.findEvent(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	if reg.creator == nil {
		return nil, fmt.Errorf("orchestration: event %s not bound to a creator", tag)
	}
	return reg.creator.CreateListener()
}

// Condition implements Resolver.
func (d *Deployment) Condition(tag Tag) (Condition, error) {
	d.mu.Lock()
	designs := append([]*Design(nil), d.designs...)
	d.mu.Unlock()
	for _, design := range designs {
		if c, ok := design.condition(tag); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
}

// Spawner implements Resolver: it resolves pin against this Deployment's
// runtime.Runtime, defaulting to the runtime's default engine.
func (d *Deployment) Spawner(pin *WorkerPin) (action.Spawner, error) {
	if pin == nil {
		return d.rt.DefaultEngine().Spawner(), nil
	}
	eng, ok := d.rt.Engine(pin.Engine)
	if !ok {
		return nil, fmt.Errorf("orchestration: no such engine %q for worker pin", pin.Engine)
	}
	if pin.Dedicated == "" {
		return eng.Spawner(), nil
	}
	return &dedicatedSpawner{engine: eng, id: pin.Dedicated}, nil
}

// dedicatedSpawner adapts Engine.SpawnOnDedicated - which can fail if the
// named worker doesn't exist - to the error-free action.Spawner contract
// composite actions expect, by surfacing the SpawnOn error as an already
// resolved, failed Handle rather than a panic or a changed interface.
type dedicatedSpawner struct {
	engine *runtime.Engine
	id     dedicated.WorkerID
}

func (s *dedicatedSpawner) Spawn(ctx context.Context, f action.Future) action.Handle {
	handle, err := s.engine.SpawnOnDedicated(ctx, s.id, f)
	if err != nil {
		return &failedHandle{err: action.Internal(err)}
	}
	return handle
}

// failedHandle is an action.Handle that is already resolved with err -
// used when resolving a WorkerPin fails at spawn time rather than at
// Deployment build time (the named dedicated worker can, in principle,
// be added to an engine after a Design is registered against it).
type failedHandle struct {
	err *action.ExecError
}

func (h *failedHandle) Await(context.Context) *action.ExecError { return h.err }
func (h *failedHandle) Abort()                                  {}
