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

// sequenceScenario runs a Sequence of n logging leaves once and checks
// that the number of steps run equals the step count - the Go counterpart of
// orchestration_sequence::SingleSequence/NestedSequence.
type sequenceScenario struct {
	name  string
	steps int
}

func (s sequenceScenario) Name() string { return s.name }

func (s sequenceScenario) Run(ctx context.Context, rt *runtime.Runtime, _ json.RawMessage) error {
	var next int32

	design := orchestration.NewDesign(1)
	runTag := action.NewTag(s.name + ".run")
	if err := design.RegisterInvoke(runTag, func(orchestration.Resolver) (action.Action, error) {
		steps := make([]action.Action, s.steps)
		for i := 0; i < s.steps; i++ {
			stepTag := action.NewTag(fmt.Sprintf("%s.step%d", s.name, i))
			steps[i] = newLoggingLeaf(stepTag, stepTag.String(), func(context.Context) *action.ExecError {
				atomic.AddInt32(&next, 1)
				return nil
			})
		}
		return action.NewSequence(runTag, 4, steps...), nil
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
	if int(atomic.LoadInt32(&next)) != s.steps {
		return fmt.Errorf("scenario %s: expected %d steps to run, got %d", s.name, s.steps, next)
	}
	return nil
}

// SequenceGroup builds the "sequence" scenario group.
func SequenceGroup() *scenario.Group {
	return scenario.NewGroup("sequence", []scenario.Scenario{
		sequenceScenario{name: "single_sequence", steps: 1},
		sequenceScenario{name: "nested_sequence", steps: 3},
	}, nil)
}
