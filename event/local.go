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

// Package event implements the event plane: Local broadcast channels,
// an adapter over an externally-provided Global (IPC) notifier/listener
// pair, and the phase-aligned Timer cycle source. All three flavors
// produce Trigger and Sync actions with identical external behavior.
package event

import (
	"context"
	"errors"
	"sync"

	"github.com/lindb/taskflow/action"
)

// Notifier is the narrow send-side primitive a Trigger action wraps.
type Notifier interface {
	Send(ctx context.Context) error
}

// Listener is the narrow receive-side primitive a Sync action wraps.
// Receive returns ErrNotifiersGone if every Notifier sharing this
// Listener's event has been dropped and nothing is buffered.
type Listener interface {
	Receive(ctx context.Context) error
}

// Local is a bounded multi-producer multi-consumer broadcast channel of
// signal values (no payload - Trigger/Sync only care about occurrence).
// Each Listener has its own ring buffer of capacity K; a Notifier's Send
// is visible to every Listener that existed at send time. A Listener that
// falls more than K sends behind loses the oldest buffered values
// (lossy broadcast) rather than blocking the sender.
type Local struct {
	mu        sync.Mutex
	capacity  int
	listeners []*localListener
	notifiers int
}

// NewLocal creates a Local event with the given per-listener buffer
// capacity. capacity must be at least 1.
func NewLocal(capacity int) *Local {
	if capacity < 1 {
		capacity = 1
	}
	return &Local{capacity: capacity}
}

// NewNotifier returns a new sender bound to this event.
func (l *Local) NewNotifier() *LocalNotifier {
	l.mu.Lock()
	l.notifiers++
	l.mu.Unlock()
	return &LocalNotifier{event: l}
}

// NewListener registers and returns a new receiver bound to this event.
// Only sends issued after NewListener returns are observed by it.
func (l *Local) NewListener() *LocalListener {
	ll := &localListener{capacity: l.capacity}
	ll.cond = sync.NewCond(&ll.mu)
	l.mu.Lock()
	l.listeners = append(l.listeners, ll)
	l.mu.Unlock()
	return &LocalListener{inner: ll}
}

func (l *Local) broadcast() {
	l.mu.Lock()
	listeners := make([]*localListener, len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	for _, ll := range listeners {
		ll.push()
	}
}

func (l *Local) notifierCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.notifiers
}

func (l *Local) dropNotifier() {
	l.mu.Lock()
	l.notifiers--
	l.mu.Unlock()
}

// localListener is a ring buffer of pending signals guarded by a
// sync.Cond so Receive can block until a signal arrives or ctx is done.
type localListener struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	pending  int
	closed   bool
}

func (ll *localListener) push() {
	ll.mu.Lock()
	if ll.pending < ll.capacity {
		ll.pending++
	}
	// else: buffer full, oldest value is implicitly dropped since pending
	// already saturates at capacity - the count itself is the queue depth
	// for a payload-less signal.
	ll.cond.Broadcast()
	ll.mu.Unlock()
}

func (ll *localListener) closeAll() {
	ll.mu.Lock()
	ll.closed = true
	ll.cond.Broadcast()
	ll.mu.Unlock()
}

func (ll *localListener) receive(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ll.mu.Lock()
			ll.cond.Broadcast()
			ll.mu.Unlock()
		case <-done:
		}
	}()

	ll.mu.Lock()
	defer ll.mu.Unlock()
	for ll.pending == 0 && !ll.closed {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ll.cond.Wait()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if ll.pending > 0 {
		ll.pending--
		return nil
	}
	return ErrNotifiersGone
}

// LocalNotifier is the send handle returned by Local.NewNotifier.
type LocalNotifier struct {
	event    *Local
	released bool
	mu       sync.Mutex
}

// Send implements Notifier: unless ctx is already done (then it returns
// ctx.Err()), it broadcasts to every current Listener and succeeds.
func (n *LocalNotifier) Send(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	n.event.broadcast()
	return nil
}

// Release marks this notifier gone; once every notifier on an event has
// been released, pending-empty Listeners observe ErrNotifiersGone.
func (n *LocalNotifier) Release() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.released {
		return
	}
	n.released = true
	n.event.dropNotifier()
	if n.event.notifierCount() == 0 {
		n.event.mu.Lock()
		listeners := make([]*localListener, len(n.event.listeners))
		copy(listeners, n.event.listeners)
		n.event.mu.Unlock()
		for _, ll := range listeners {
			ll.closeAll()
		}
	}
}

// LocalListener is the receive handle returned by Local.NewListener.
type LocalListener struct {
	inner *localListener
}

// Receive implements Listener.
func (l *LocalListener) Receive(ctx context.Context) error {
	return l.inner.receive(ctx)
}

// ErrNotifiersGone is returned by Receive when every Notifier on the
// event has been released and no signal remains buffered.
var ErrNotifiersGone = errors.New("event: all notifiers dropped, channel empty")

// NewTrigger wraps notifier in an Action whose Future succeeds iff Send
// succeeds.
func NewTrigger(tag action.Tag, capacity int, notifier Notifier) action.Action {
	return &triggerAction{
		Base:     action.Base{Tag: tag, Pool: action.NewFuturePool(capacity)},
		notifier: notifier,
	}
}

type triggerAction struct {
	action.Base
	notifier Notifier
}

func (t *triggerAction) Name() string { return "Trigger" }

func (t *triggerAction) TryExecute() (action.Future, error) {
	return t.Acquire(func() action.Future {
		return func(ctx context.Context) *action.ExecError {
			if err := t.notifier.Send(ctx); err != nil {
				return action.Internal(err)
			}
			return nil
		}
	})
}

// NewSync wraps listener in an Action whose Future succeeds on receipt of
// one signal and fails NonRecoverable if every notifier is gone.
func NewSync(tag action.Tag, capacity int, listener Listener) action.Action {
	return &syncAction{
		Base:     action.Base{Tag: tag, Pool: action.NewFuturePool(capacity)},
		listener: listener,
	}
}

type syncAction struct {
	action.Base
	listener Listener
}

func (s *syncAction) Name() string { return "Sync" }

func (s *syncAction) TryExecute() (action.Future, error) {
	return s.Acquire(func() action.Future {
		return func(ctx context.Context) *action.ExecError {
			err := s.listener.Receive(ctx)
			if err == nil {
				return nil
			}
			if errors.Is(err, ErrNotifiersGone) {
				return action.NonRecoverable()
			}
			return action.Internal(err)
		}
	})
}
