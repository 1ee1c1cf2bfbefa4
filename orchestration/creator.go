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
	"errors"
	"time"

	"github.com/lindb/taskflow/event"
)

// EventKind distinguishes the three creator flavors a design event record
// can be bound to (§6 "Event types for deployment binding").
type EventKind uint8

const (
	EventKindLocal EventKind = iota
	EventKindGlobal
	EventKindTimer
)

func (k EventKind) String() string {
	switch k {
	case EventKindLocal:
		return "Local"
	case EventKindGlobal:
		return "Global"
	case EventKindTimer:
		return "Timer"
	default:
		return "Unknown"
	}
}

// ErrNoTriggerSide is returned by a Timer creator's CreateNotifier: a
// Timer event synthesizes its own boundary signals and has no send side.
var ErrNoTriggerSide = errors.New("orchestration: timer event has no trigger side")

// EventCreator is the polymorphic {Local, Global, Timer} producer named
// in §3's event-record data model: it hands out Notifier/Listener pairs
// on demand, all backed by the same underlying event instance so a
// Trigger and a Sync bound to the same Tag actually rendezvous.
type EventCreator interface {
	Kind() EventKind
	CreateNotifier() (event.Notifier, error)
	CreateListener() (event.Listener, error)
}

type localCreator struct {
	ev *event.Local
}

// NewLocalCreator creates an EventCreator backed by a Local broadcast
// channel of the given per-listener buffer capacity.
func NewLocalCreator(capacity int) EventCreator {
	return &localCreator{ev: event.NewLocal(capacity)}
}

func (c *localCreator) Kind() EventKind { return EventKindLocal }

func (c *localCreator) CreateNotifier() (event.Notifier, error) {
	return c.ev.NewNotifier(), nil
}

func (c *localCreator) CreateListener() (event.Listener, error) {
	return c.ev.NewListener(), nil
}

type globalCreator struct {
	g *event.Global
}

// NewGlobalCreator wraps an externally-supplied notifier/listener pair
// (the opaque IPC collaborator named in §1/§6) as an EventCreator.
func NewGlobalCreator(notifier event.GlobalNotifier, listener event.GlobalListener) EventCreator {
	return &globalCreator{g: event.NewGlobal(notifier, listener)}
}

func (c *globalCreator) Kind() EventKind { return EventKindGlobal }

func (c *globalCreator) CreateNotifier() (event.Notifier, error) {
	if n := c.g.Notifier(); n != nil {
		return n, nil
	}
	return nil, errors.New("orchestration: global creator has no notifier side")
}

func (c *globalCreator) CreateListener() (event.Listener, error) {
	if l := c.g.Listener(); l != nil {
		return l, nil
	}
	return nil, errors.New("orchestration: global creator has no listener side")
}

type timerCreator struct {
	t *event.Timer
}

// NewTimerCreator creates an EventCreator synthesizing a cycle-boundary
// signal every cycle. Only its Listener side is meaningful (§4.I).
func NewTimerCreator(cycle time.Duration) EventCreator {
	return &timerCreator{t: event.NewTimer(cycle)}
}

func (c *timerCreator) Kind() EventKind { return EventKindTimer }

func (c *timerCreator) CreateNotifier() (event.Notifier, error) {
	return nil, ErrNoTriggerSide
}

func (c *timerCreator) CreateListener() (event.Listener, error) {
	return c.t.Listener(), nil
}
