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

package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/orchestration"
	"github.com/lindb/taskflow/runtime"
	"github.com/lindb/taskflow/scenario"
)

// concurrencyScenario fans n logging leaves out on a Concurrency action
// and checks every branch ran - the Go counterpart of
// orchestration_concurrency::SingleConcurrency/MultipleConcurrency.
type concurrencyScenario struct {
	name     string
	branches int
}

func (s concurrencyScenario) Name() string { return s.name }

func (s concurrencyScenario) Run(ctx context.Context, rt *runtime.Runtime, _ json.RawMessage) error {
	var ran int32

	design := orchestration.NewDesign(1)
	runTag := action.NewTag(s.name + ".run")
	if err := design.RegisterInvoke(runTag, func(r orchestration.Resolver) (action.Action, error) {
		spawner, err := r.Spawner(nil)
		if err != nil {
			return nil, err
		}
		branches := make([]action.Action, s.branches)
		for i := 0; i < s.branches; i++ {
			branchTag := action.NewTag(fmt.Sprintf("%s.branch%d", s.name, i))
			branches[i] = newLoggingLeaf(branchTag, branchTag.String(), func(context.Context) *action.ExecError {
				atomic.AddInt32(&ran, 1)
				return nil
			})
		}
		return action.NewConcurrency(runTag, 4, spawner, branches...), nil
	}, nil); err != nil {
		return err
	}

	dep := orchestration.NewDeployment(rt).AddDesign(design)
	prog, err := dep.MaterializeProgram(orchestration.ProgramSpec{Name: s.name, Run: runTag})
	if err != nil {
		return err
	}
	if execErr := prog.RunN(ctx, 1); execErr != nil {
		return execErr
	}
	if int(atomic.LoadInt32(&ran)) != s.branches {
		return fmt.Errorf("scenario %s: expected %d branches to run, got %d", s.name, s.branches, ran)
	}
	return nil
}

// ConcurrencyGroup builds the "concurrency" scenario group.
func ConcurrencyGroup() *scenario.Group {
	return scenario.NewGroup("concurrency", []scenario.Scenario{
		concurrencyScenario{name: "single_concurrency", branches: 1},
		concurrencyScenario{name: "multiple_concurrency", branches: 4},
	}, nil)
}
