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
	"fmt"
	"time"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/metrics"
	"github.com/lindb/taskflow/program"
)

// ProgramSpec names the invoke Tags that make up one Program (§3 "a root
// run action, optional start and stop actions ..., optional shutdown Sync
// action"), deferring actual action construction to Deployment.Materialize.
// A zero Tag in Start/Stop/Shutdown means that phase is absent.
type ProgramSpec struct {
	Name        string
	Run         Tag
	Start       Tag
	Stop        Tag
	StopTimeout time.Duration
	Shutdown    Tag
	Stats       *metrics.ProgramStatistics
}

// MaterializeProgram resolves every Tag in spec through this Deployment
// and assembles a program.Program, spawning the root Run action through
// the Spawner its registration's WorkerPin resolves to (§4.K "program
// materialization"). Returns an error if any named Tag is not registered,
// any Design event is still unbound, or the Run invoke's WorkerPin names
// an engine this Deployment's Runtime doesn't have.
func (d *Deployment) MaterializeProgram(spec ProgramSpec) (*program.Program, error) {
	run, err := d.Materialize(spec.Run)
	if err != nil {
		return nil, fmt.Errorf("orchestration: materializing run action for program %q: %w", spec.Name, err)
	}

	var start, stop, shutdown action.Action
	if !spec.Start.IsZero() {
		if start, err = d.Materialize(spec.Start); err != nil {
			return nil, fmt.Errorf("orchestration: materializing start action for program %q: %w", spec.Name, err)
		}
	}
	if !spec.Stop.IsZero() {
		if stop, err = d.Materialize(spec.Stop); err != nil {
			return nil, fmt.Errorf("orchestration: materializing stop action for program %q: %w", spec.Name, err)
		}
	}
	if !spec.Shutdown.IsZero() {
		if shutdown, err = d.Materialize(spec.Shutdown); err != nil {
			return nil, fmt.Errorf("orchestration: materializing shutdown action for program %q: %w", spec.Name, err)
		}
	}

	runReg, _ := d.findInvoke(spec.Run)
	spawner, err := d.Spawner(runReg.pin)
	if err != nil {
		return nil, fmt.Errorf("orchestration: resolving worker pin for program %q: %w", spec.Name, err)
	}

	return program.New(program.Config{
		Name:        spec.Name,
		Run:         run,
		Start:       start,
		Stop:        stop,
		StopTimeout: spec.StopTimeout,
		Shutdown:    shutdown,
	}, spawner, spec.Stats), nil
}
