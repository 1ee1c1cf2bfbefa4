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

// Package config decodes the runtime engine configuration named in §6:
// the "runtime" JSON key of the scenario CLI's --input document, either a
// single engine object or an array of them. No filesystem loading is
// implemented here (a Non-goal carried from spec.md) - callers own
// reading the JSON document; this package only unmarshals and validates
// it and converts the result into runtime.EngineConfig values.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/lindb/taskflow/runtime"
)

// ThreadScheduler is the OS scheduler policy requested for an engine's
// worker threads, per §6's thread_scheduler field.
type ThreadScheduler string

const (
	SchedulerFifo       ThreadScheduler = "fifo"
	SchedulerRoundRobin ThreadScheduler = "round_robin"
	SchedulerOther      ThreadScheduler = "other"
)

func (s ThreadScheduler) toRuntime() runtime.SchedPolicy {
	switch s {
	case SchedulerFifo:
		return runtime.SchedFifo
	case SchedulerRoundRobin:
		return runtime.SchedRoundRobin
	default:
		return runtime.SchedOther
	}
}

// CPUSet decodes §6's thread_affinity field, which is either a bare
// integer or a JSON array of integers.
type CPUSet []int

func (s *CPUSet) UnmarshalJSON(data []byte) error {
	var single int
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []int{single}
		return nil
	}
	var many []int
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("config: thread_affinity must be an integer or an array of integers: %w", err)
	}
	*s = many
	return nil
}

// Engine is one engine's §6 configuration. Name is not named by §6's
// field table but is required to address an engine through
// runtime.Runtime once built; an engine without one has its name
// defaulted positionally (see Runtime.EngineConfigs).
type Engine struct {
	Name            string          `json:"name,omitempty"`
	Workers         int             `json:"workers" validate:"required,min=1"`
	TaskQueueSize   int             `json:"task_queue_size" validate:"required,min=1"`
	ThreadPriority  *int            `json:"thread_priority,omitempty"`
	ThreadAffinity  CPUSet          `json:"thread_affinity,omitempty"`
	ThreadStackSize int             `json:"thread_stack_size,omitempty" validate:"omitempty,min=0"`
	ThreadScheduler ThreadScheduler `json:"thread_scheduler,omitempty" validate:"omitempty,oneof=fifo round_robin other"`
}

// ToEngineConfig converts one validated Engine into a runtime.EngineConfig.
func (e Engine) ToEngineConfig() runtime.EngineConfig {
	return runtime.EngineConfig{
		Name:           e.Name,
		Workers:        e.Workers,
		TaskQueueSize:  e.TaskQueueSize,
		ThreadPriority: e.ThreadPriority,
		CPUAffinity:    []int(e.ThreadAffinity),
		StackSize:      e.ThreadStackSize,
		SchedPolicy:    e.ThreadScheduler.toRuntime(),
	}
}

// Runtime is the decoded form of §6's "runtime" JSON key: either one
// engine object or an array of them.
type Runtime struct {
	Engines []Engine
}

// UnmarshalJSON accepts either a single engine object or a JSON array of
// engine objects, per §6.
func (r *Runtime) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("config: empty runtime configuration")
	}
	if trimmed[0] == '[' {
		var many []Engine
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		r.Engines = many
		return nil
	}
	var single Engine
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	r.Engines = []Engine{single}
	return nil
}

// Validate runs struct-tag validation over every engine and rejects
// duplicate (or, after defaulting, colliding) engine names.
func (r *Runtime) Validate() error {
	if len(r.Engines) == 0 {
		return fmt.Errorf("config: runtime configuration names no engines")
	}
	v := validator.New()
	for i := range r.Engines {
		if err := v.Struct(&r.Engines[i]); err != nil {
			return fmt.Errorf("config: engine[%d]: %w", i, err)
		}
	}
	seen := make(map[string]bool, len(r.Engines))
	for i, e := range r.Engines {
		name := e.Name
		if name == "" {
			name = defaultEngineName(i)
		}
		if seen[name] {
			return fmt.Errorf("config: duplicate engine name %q", name)
		}
		seen[name] = true
	}
	return nil
}

// EngineConfigs converts every engine into a runtime.EngineConfig,
// defaulting unnamed engines to "engine-<index>" so runtime.Builder's
// name-uniqueness requirement is always satisfiable from valid config.
func (r *Runtime) EngineConfigs() []runtime.EngineConfig {
	out := make([]runtime.EngineConfig, len(r.Engines))
	for i, e := range r.Engines {
		cfg := e.ToEngineConfig()
		if cfg.Name == "" {
			cfg.Name = defaultEngineName(i)
		}
		out[i] = cfg
	}
	return out
}

func defaultEngineName(index int) string {
	return fmt.Sprintf("engine-%d", index)
}
