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

import "github.com/lindb/taskflow/scenario"

// Root builds the top-level "orchestration" scenario group, mirroring
// orchestration_scenario_group's shape: one group per composite/event
// behavior, each holding its own leaf scenarios.
func Root() *scenario.Group {
	return scenario.NewGroup("orchestration", nil, []*scenario.Group{
		SequenceGroup(),
		ConcurrencyGroup(),
		TriggerSyncGroup(),
		DedicatedWorkerGroup(),
		ShutdownGroup(),
		CatchGroup(),
		GraphGroup(),
	})
}
