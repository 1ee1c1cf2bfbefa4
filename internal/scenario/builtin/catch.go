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

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/orchestration"
	"github.com/lindb/taskflow/runtime"
	"github.com/lindb/taskflow/scenario"
)

// sequenceUserErrorScenario wraps a failing Sequence step in a
// non-recovering Catch and checks the original UserError still surfaces -
// the Go counterpart of
// orchestration_user_error_catch::CatchSequenceUserError.
type sequenceUserErrorScenario struct{}

func (sequenceUserErrorScenario) Name() string { return "sequence_user_error" }

func (sequenceUserErrorScenario) Run(ctx context.Context, rt *runtime.Runtime, _ json.RawMessage) error {
	const userErrCode = 7
	var observed *action.ExecError

	design := orchestration.NewDesign(1)
	runTag := action.NewTag("catch.sequence_user_error.run")
	if err := design.RegisterInvoke(runTag, func(orchestration.Resolver) (action.Action, error) {
		failing := newLoggingLeaf(action.NewTag("catch.sequence_user_error.fail"), "fail", func(context.Context) *action.ExecError {
			return action.UserError(userErrCode)
		})
		seq := action.NewSequence(action.NewTag("catch.sequence_user_error.seq"), 4, failing)
		return action.NewCatch(runTag, 4, action.FilterUserErrors, seq, func(_ context.Context, err *action.ExecError) {
			observed = err
		})
	}, nil); err != nil {
		return err
	}

	dep := orchestration.NewDeployment(rt).AddDesign(design)
	prog, err := dep.MaterializeProgram(orchestration.ProgramSpec{Name: "sequence_user_error", Run: runTag})
	if err != nil {
		return err
	}

	execErr := prog.RunN(ctx, 1)
	if execErr == nil || execErr.Kind != action.KindUserError || execErr.Code != userErrCode {
		return fmt.Errorf("scenario sequence_user_error: expected UserError(%d) to surface, got %v", userErrCode, execErr)
	}
	if observed == nil || observed.Code != userErrCode {
		return fmt.Errorf("scenario sequence_user_error: catch handler never observed the error")
	}
	return nil
}

// recoverableCatchScenario wraps a failing branch in a recoverable Catch
// whose recovery action succeeds, and checks the Program as a whole sees
// no error - the Go counterpart of
// orchestration_user_error_catch::CatchDoubleRecoverableUserError (single
// handler variant; Go's Catch rejects attaching two handlers to one
// Catch at construction time, enforcing §7's "two catch handlers" rule
// structurally rather than as a separate runtime check).
type recoverableCatchScenario struct{}

func (recoverableCatchScenario) Name() string { return "recoverable_catch" }

func (recoverableCatchScenario) Run(ctx context.Context, rt *runtime.Runtime, _ json.RawMessage) error {
	var recovered bool

	design := orchestration.NewDesign(1)
	runTag := action.NewTag("catch.recoverable.run")
	if err := design.RegisterInvoke(runTag, func(orchestration.Resolver) (action.Action, error) {
		failing := newLoggingLeaf(action.NewTag("catch.recoverable.fail"), "fail", func(context.Context) *action.ExecError {
			return action.UserError(1)
		})
		recovery := newLoggingLeaf(action.NewTag("catch.recoverable.recover"), "recover", func(context.Context) *action.ExecError {
			recovered = true
			return nil
		})
		return action.NewRecoverableCatch(runTag, 4, action.FilterUserErrors, failing, func(context.Context, *action.ExecError) action.Action {
			return recovery
		})
	}, nil); err != nil {
		return err
	}

	dep := orchestration.NewDeployment(rt).AddDesign(design)
	prog, err := dep.MaterializeProgram(orchestration.ProgramSpec{Name: "recoverable_catch", Run: runTag})
	if err != nil {
		return err
	}

	if execErr := prog.RunN(ctx, 1); execErr != nil {
		return fmt.Errorf("scenario recoverable_catch: expected recovery to clear the error, got %v", execErr)
	}
	if !recovered {
		return fmt.Errorf("scenario recoverable_catch: recovery action never ran")
	}
	return nil
}

// CatchGroup builds the "catch" scenario group.
func CatchGroup() *scenario.Group {
	return scenario.NewGroup("catch", []scenario.Scenario{
		sequenceUserErrorScenario{},
		recoverableCatchScenario{},
	}, nil)
}
