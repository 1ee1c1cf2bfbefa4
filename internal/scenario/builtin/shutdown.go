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
	"time"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/orchestration"
	"github.com/lindb/taskflow/runtime"
	"github.com/lindb/taskflow/scenario"
)

// singleShutdownScenario runs a Program with a shutdown Sync bound to a
// Local event, triggers shutdown from outside after a short delay, and
// checks the program stopped before its run count grew unbounded - the
// Go counterpart of orchestration_shutdown::SingleProgramSingleShutdown.
type singleShutdownScenario struct{}

func (singleShutdownScenario) Name() string { return "single_program_single_shutdown" }

func (singleShutdownScenario) Run(ctx context.Context, rt *runtime.Runtime, _ json.RawMessage) error {
	shutdownTag := action.NewTag("shutdown.single.shutdown_event")
	design := orchestration.NewDesign(2)
	if err := design.RegisterEvent(shutdownTag, nil); err != nil {
		return err
	}

	var runCount int32
	runTag := action.NewTag("shutdown.single.run")
	if err := design.RegisterInvoke(runTag, func(orchestration.Resolver) (action.Action, error) {
		return newLoggingLeaf(runTag, runTag.String(), func(context.Context) *action.ExecError {
			atomic.AddInt32(&runCount, 1)
			time.Sleep(5 * time.Millisecond)
			return nil
		}), nil
	}, nil); err != nil {
		return err
	}

	dep := orchestration.NewDeployment(rt).AddDesign(design)
	creator := orchestration.NewLocalCreator(1)
	if err := dep.Bind(shutdownTag, creator); err != nil {
		return err
	}
	notifier, err := creator.CreateNotifier()
	if err != nil {
		return err
	}

	prog, err := dep.MaterializeProgram(orchestration.ProgramSpec{
		Name:     "single_shutdown",
		Run:      runTag,
		Shutdown: shutdownTag,
	})
	if err != nil {
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = notifier.Send(shutdownCtx)
	}()

	if execErr := prog.Run(shutdownCtx); execErr != nil {
		return execErr
	}
	if atomic.LoadInt32(&runCount) == 0 {
		return fmt.Errorf("scenario single_program_single_shutdown: run action never executed before shutdown")
	}
	return nil
}

// shutdownBeforeStartScenario arms a shutdown event that has already
// fired before Program.Run begins and checks the run action never
// executes - the Go counterpart of
// orchestration_shutdown::ShutdownBeforeStart.
type shutdownBeforeStartScenario struct{}

func (shutdownBeforeStartScenario) Name() string { return "shutdown_before_start" }

func (shutdownBeforeStartScenario) Run(ctx context.Context, rt *runtime.Runtime, _ json.RawMessage) error {
	shutdownTag := action.NewTag("shutdown.before_start.shutdown_event")
	design := orchestration.NewDesign(2)
	if err := design.RegisterEvent(shutdownTag, nil); err != nil {
		return err
	}

	var ran int32
	runTag := action.NewTag("shutdown.before_start.run")
	if err := design.RegisterInvoke(runTag, func(orchestration.Resolver) (action.Action, error) {
		return newLoggingLeaf(runTag, runTag.String(), func(context.Context) *action.ExecError {
			atomic.AddInt32(&ran, 1)
			return nil
		}), nil
	}, nil); err != nil {
		return err
	}

	creator := orchestration.NewLocalCreator(1)
	dep := orchestration.NewDeployment(rt).AddDesign(design)
	if err := dep.Bind(shutdownTag, creator); err != nil {
		return err
	}

	notifier, err := creator.CreateNotifier()
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := notifier.Send(sendCtx); err != nil {
		return err
	}

	prog, err := dep.MaterializeProgram(orchestration.ProgramSpec{
		Name:     "shutdown_before_start",
		Run:      runTag,
		Shutdown: shutdownTag,
	})
	if err != nil {
		return err
	}

	runCtx, runCancel := context.WithTimeout(ctx, time.Second)
	defer runCancel()
	if execErr := prog.Run(runCtx); execErr != nil {
		return execErr
	}
	if atomic.LoadInt32(&ran) != 0 {
		return fmt.Errorf("scenario shutdown_before_start: run action executed despite pre-fired shutdown")
	}
	return nil
}

// ShutdownGroup builds the "shutdown" scenario group.
func ShutdownGroup() *scenario.Group {
	return scenario.NewGroup("shutdown", []scenario.Scenario{
		singleShutdownScenario{},
		shutdownBeforeStartScenario{},
	}, nil)
}
