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
	"github.com/lindb/taskflow/event"
	"github.com/lindb/taskflow/orchestration"
	"github.com/lindb/taskflow/runtime"
	"github.com/lindb/taskflow/scenario"
)

// triggerSyncScenario binds one Local event and runs a Trigger program
// against a Sync program concurrently, checking both reach a clean
// rendezvous - the Go counterpart of
// orchestration_trigger_sync::OneTriggerOneSyncTwoPrograms.
type triggerSyncScenario struct {
	name     string
	syncs    int
	capacity int
}

func (s triggerSyncScenario) Name() string { return s.name }

func (s triggerSyncScenario) Run(ctx context.Context, rt *runtime.Runtime, _ json.RawMessage) error {
	eventTag := action.NewTag(s.name + ".event")
	design := orchestration.NewDesign(2 + s.syncs)
	if err := design.RegisterEvent(eventTag, nil); err != nil {
		return err
	}

	triggerTag := action.NewTag(s.name + ".trigger")
	if err := design.RegisterInvoke(triggerTag, func(r orchestration.Resolver) (action.Action, error) {
		notifier, err := r.Notifier(eventTag)
		if err != nil {
			return nil, err
		}
		return event.NewTrigger(triggerTag, 4, notifier), nil
	}, nil); err != nil {
		return err
	}

	syncTags := make([]action.Tag, s.syncs)
	for i := 0; i < s.syncs; i++ {
		i := i
		tag := action.NewTag(fmt.Sprintf("%s.sync%d", s.name, i))
		syncTags[i] = tag
		if err := design.RegisterInvoke(tag, func(r orchestration.Resolver) (action.Action, error) {
			listener, err := r.Listener(eventTag)
			if err != nil {
				return nil, err
			}
			return event.NewSync(tag, 4, listener), nil
		}, nil); err != nil {
			return err
		}
	}

	dep := orchestration.NewDeployment(rt).AddDesign(design)
	if err := dep.Bind(eventTag, orchestration.NewLocalCreator(s.capacity)); err != nil {
		return err
	}

	syncPrograms := make([]interface {
		RunN(ctx context.Context, n int) *action.ExecError
	}, s.syncs)
	for i, tag := range syncTags {
		prog, err := dep.MaterializeProgram(orchestration.ProgramSpec{Name: tag.String(), Run: tag})
		if err != nil {
			return err
		}
		syncPrograms[i] = prog
	}
	triggerProg, err := dep.MaterializeProgram(orchestration.ProgramSpec{Name: s.name + ".trigger", Run: triggerTag})
	if err != nil {
		return err
	}

	errs := make(chan *action.ExecError, 1+s.syncs)
	for _, p := range syncPrograms {
		p := p
		go func() { errs <- p.RunN(ctx, 1) }()
	}
	go func() { errs <- triggerProg.RunN(ctx, 1) }()

	for i := 0; i < 1+s.syncs; i++ {
		if execErr := <-errs; execErr != nil {
			return execErr
		}
	}
	return nil
}

// TriggerSyncGroup builds the "trigger_sync" scenario group.
func TriggerSyncGroup() *scenario.Group {
	return scenario.NewGroup("trigger_sync", []scenario.Scenario{
		triggerSyncScenario{name: "one_trigger_one_sync", syncs: 1, capacity: 2},
		triggerSyncScenario{name: "one_trigger_two_syncs", syncs: 2, capacity: 2},
	}, nil)
}
