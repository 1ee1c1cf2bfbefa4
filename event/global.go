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

import "context"

// GlobalNotifier is an opaque external (IPC) send primitive supplied by
// the deployment's collaborator - a message queue, a shared-memory
// doorbell, whatever the host application wires in. taskflow only needs
// the Notifier contract from it.
type GlobalNotifier interface {
	Notifier
}

// GlobalListener is the opaque external receive-side counterpart to
// GlobalNotifier.
type GlobalListener interface {
	Listener
}

// Global adapts an externally-provided notifier/listener pair into the
// same Trigger/Sync action surface Local produces - the action tree
// never needs to know which event flavor backs a given Tag.
type Global struct {
	notifier GlobalNotifier
	listener GlobalListener
}

// NewGlobal wraps an external notifier/listener pair. Either may be nil
// if this end of the event only ever triggers or only ever syncs.
func NewGlobal(notifier GlobalNotifier, listener GlobalListener) *Global {
	return &Global{notifier: notifier, listener: listener}
}

// Notifier returns the wrapped send-side primitive, or nil if this Global
// was constructed without one.
func (g *Global) Notifier() Notifier {
	if g.notifier == nil {
		return nil
	}
	return g.notifier
}

// Listener returns the wrapped receive-side primitive, or nil if this
// Global was constructed without one.
func (g *Global) Listener() Listener {
	if g.listener == nil {
		return nil
	}
	return g.listener
}

// noopGlobal is a GlobalNotifier/GlobalListener that never fires - used
// only in tests and as a documented placeholder for a deployment slot
// not yet wired to a real collaborator.
type noopGlobal struct{}

// NewNoopGlobalNotifier returns a GlobalNotifier whose Send succeeds
// without external effect, unless ctx is already done, in which case it
// returns ctx.Err().
func NewNoopGlobalNotifier() GlobalNotifier { return noopGlobal{} }

// NewNoopGlobalListener returns a GlobalListener whose Receive blocks
// until ctx is done.
func NewNoopGlobalListener() GlobalListener { return noopGlobal{} }

func (noopGlobal) Send(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (noopGlobal) Receive(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
