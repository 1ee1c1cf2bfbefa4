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

// Package scenario implements the test-scenario harness named in §6: a
// tree of named scenario groups addressed by a dotted
// "group.subgroup.scenario" path, each leaf exercising one runtime/
// orchestration behavior against a caller-supplied runtime.Runtime and
// an optional scenario-specific "test" JSON payload.
package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lindb/taskflow/runtime"
)

// Scenario is one runnable leaf of the harness tree.
type Scenario interface {
	// Name is this scenario's final path segment, e.g. "single_sequence".
	Name() string
	// Run executes the scenario against rt, using test (nil if the
	// --input document carried no "test" key) for scenario-specific
	// parameters. A non-nil error fails the CLI invocation.
	Run(ctx context.Context, rt *runtime.Runtime, test json.RawMessage) error
}

// Func adapts a plain function into a Scenario.
type Func struct {
	FuncName string
	FuncRun  func(ctx context.Context, rt *runtime.Runtime, test json.RawMessage) error
}

func (f Func) Name() string { return f.FuncName }

func (f Func) Run(ctx context.Context, rt *runtime.Runtime, test json.RawMessage) error {
	return f.FuncRun(ctx, rt, test)
}

// Group is a named node in the scenario tree, holding leaf Scenarios
// and/or nested Groups, addressed by dotted path.
type Group struct {
	name      string
	scenarios []Scenario
	groups    []*Group
}

// NewGroup builds a Group from its leaves and nested subgroups.
func NewGroup(name string, scenarios []Scenario, groups []*Group) *Group {
	return &Group{name: name, scenarios: scenarios, groups: groups}
}

// Name returns the group's own path segment.
func (g *Group) Name() string { return g.name }

// Find resolves a dotted path (e.g. "orchestration.sequence.single") to
// the Scenario it names, descending through nested Groups one segment
// at a time.
func (g *Group) Find(path string) (Scenario, error) {
	segments := strings.Split(path, ".")
	return g.find(segments)
}

func (g *Group) find(segments []string) (Scenario, error) {
	if len(segments) == 1 {
		for _, s := range g.scenarios {
			if s.Name() == segments[0] {
				return s, nil
			}
		}
		return nil, fmt.Errorf("scenario: no scenario %q in group %q", segments[0], g.name)
	}
	for _, sub := range g.groups {
		if sub.name == segments[0] {
			return sub.find(segments[1:])
		}
	}
	return nil, fmt.Errorf("scenario: no group %q under %q", segments[0], g.name)
}
