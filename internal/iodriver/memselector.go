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

package iodriver

import (
	"context"
	"sync"
	"time"
)

// MemSelector is an in-process reference Selector: sources are opaque
// values keyed by an assigned Identifier, and readiness is injected
// explicitly via MarkReady rather than observed from a real OS poller.
// It is the seam a platform-native poller (epoll/kqueue/IOCP) would
// implement Selector behind in a production deployment; MemSelector lets
// the rest of the runtime (and its tests) exercise the exact same
// Driver/Registration contract without one.
type MemSelector struct {
	mu       sync.Mutex
	nextID   Identifier
	sources  map[Identifier]any
	pending  []Event
	readyCh  chan struct{}
	wakeCh   chan struct{}
}

// NewMemSelector creates an empty MemSelector.
func NewMemSelector() *MemSelector {
	return &MemSelector{
		sources: make(map[Identifier]any),
		readyCh: make(chan struct{}, 1),
		wakeCh:  make(chan struct{}, 1),
	}
}

// Register implements Selector.
func (m *MemSelector) Register(source any, _ Interest) (Identifier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.sources[id] = source
	return id, nil
}

// Deregister implements Selector.
func (m *MemSelector) Deregister(id Identifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sources, id)
	return nil
}

// MarkReady injects a readiness event for id, as if the underlying
// platform poller had observed it. Safe to call concurrently with Poll.
func (m *MemSelector) MarkReady(id Identifier, readiness Readiness) {
	m.mu.Lock()
	m.pending = append(m.pending, Event{ID: id, Readiness: readiness})
	m.mu.Unlock()
	select {
	case m.readyCh <- struct{}{}:
	default:
	}
}

// Poll implements Selector.
func (m *MemSelector) Poll(ctx context.Context, timeout time.Duration) ([]Event, error) {
	m.mu.Lock()
	if len(m.pending) > 0 {
		events := m.pending
		m.pending = nil
		m.mu.Unlock()
		return events, nil
	}
	m.mu.Unlock()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-m.readyCh:
	case <-m.wakeCh:
		return []Event{{ID: 0}}, nil // internal wakeup marker, filtered by Driver
	case <-deadline:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.pending
	m.pending = nil
	return events, nil
}

// Wake implements Selector.
func (m *MemSelector) Wake() {
	select {
	case m.wakeCh <- struct{}{}:
	default:
	}
}
