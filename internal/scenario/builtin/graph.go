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
	"github.com/lindb/taskflow/scheduler/dedicated"
)

// graphInput names which topology buildGraph should assemble.
type graphInput struct {
	GraphName string `json:"graph_name"`
}

// buildGraph assembles one of the named LocalGraph topologies from
// GraphBuilder.AddNode/AddEdges - the Go counterpart of
// GraphHandler::choose_graph. GraphBuilder reports construction mistakes
// (self-loops, duplicate edges, out-of-range node ids, too few nodes) as
// panics rather than errors since they are programmer errors, not
// runtime conditions; buildGraph recovers them into a plain error so the
// negative scenarios below can assert on it like any other failure.
func buildGraph(name string, runTag action.Tag, spawner action.Spawner) (g *action.Graph, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("graph %s: %v", name, r)
		}
	}()

	b := action.NewGraphBuilder()
	node := func(label string) action.NodeID {
		return b.AddNode(newLoggingLeaf(action.NewTag("graph."+name+"."+label), label, nil))
	}

	switch name {
	case "two_nodes":
		n0, n1 := node("node0"), node("node1")
		b.AddEdges(n0, n1)
	case "no_edges":
		node("node1")
		node("node0")
	case "one_node":
		node("node0")
	case "empty_edges":
		n0, n1, n2 := node("node0"), node("node1"), node("node2")
		b.AddEdges(n0)
		b.AddEdges(n1)
		b.AddEdges(n2)
	case "multiple_edges":
		n0, n1, n2, n3, n4 := node("node0"), node("node1"), node("node2"), node("node3"), node("node4")
		b.AddEdges(n0, n1, n2, n3, n4)
		b.AddEdges(n1, n3)
		b.AddEdges(n2, n3, n4)
		b.AddEdges(n3, n4)
	case "cube":
		n0, n1, n2, n3 := node("node0"), node("node1"), node("node2"), node("node3")
		n4, n5, n6, n7 := node("node4"), node("node5"), node("node6"), node("node7")
		b.AddEdges(n0, n1, n2, n4)
		b.AddEdges(n1, n3, n5)
		b.AddEdges(n2, n3, n6)
		b.AddEdges(n3, n7)
		b.AddEdges(n4, n5, n6)
		b.AddEdges(n5, n7)
		b.AddEdges(n6, n7)
	case "parallel_flows":
		n0, n1, n2 := node("node0"), node("node1"), node("node2")
		n3, n4, n5 := node("node3"), node("node4"), node("node5")
		b.AddEdges(n0, n1)
		b.AddEdges(n1, n2)
		b.AddEdges(n3, n4)
		b.AddEdges(n4, n5)
	case "loop":
		n0, n1 := node("node0"), node("node1")
		b.AddEdges(n0, n1)
		b.AddEdges(n1, n0)
	case "self_loop":
		n0, n1 := node("node0"), node("node1")
		b.AddEdges(n0, n1)
		b.AddEdges(n1, n1)
	case "not_enough_nodes":
		n0 := node("node0")
		b.AddEdges(n0, action.NodeID(1))
	case "invalid_node":
		n0, n1 := node("node0"), node("node1")
		b.AddEdges(action.NodeID(2), n0, n1)
	case "invalid_edge":
		n0, n1 := node("node0"), node("node1")
		b.AddEdges(n0, n1, action.NodeID(2))
	case "duplicated_edge":
		n0, n1, n2 := node("node0"), node("node1"), node("node2")
		b.AddEdges(n0, n1)
		b.AddEdges(n1, n2, n2)
	default:
		return nil, fmt.Errorf("graph %s: unknown graph name", name)
	}

	return b.Build(runTag, 4, spawner)
}

// graphProgramScenario materializes and runs one named graph topology
// once - the Go counterpart of orchestration_graph::GraphProgram,
// covering both the positive topologies (two_nodes, no_edges, one_node,
// empty_edges, multiple_edges, cube, parallel_flows) and the negative
// construction failures (loop, self_loop, not_enough_nodes, invalid_node,
// invalid_edge, duplicated_edge).
type graphProgramScenario struct{}

func (graphProgramScenario) Name() string { return "graph_program" }

func (graphProgramScenario) Run(ctx context.Context, rt *runtime.Runtime, test json.RawMessage) error {
	var in graphInput
	if len(test) > 0 {
		if err := json.Unmarshal(test, &in); err != nil {
			return fmt.Errorf("scenario graph_program: decoding test input: %w", err)
		}
	}
	if in.GraphName == "" {
		return fmt.Errorf("scenario graph_program: \"graph_name\" is required in the test input")
	}

	design := orchestration.NewDesign(1)
	runTag := action.NewTag("graph." + in.GraphName + ".run")
	if err := design.RegisterInvoke(runTag, func(r orchestration.Resolver) (action.Action, error) {
		spawner, err := r.Spawner(nil)
		if err != nil {
			return nil, err
		}
		return buildGraph(in.GraphName, runTag, spawner)
	}, nil); err != nil {
		return err
	}

	dep := orchestration.NewDeployment(rt).AddDesign(design)
	prog, err := dep.MaterializeProgram(orchestration.ProgramSpec{Name: "graph_program", Run: runTag})
	if err != nil {
		return err
	}
	if execErr := prog.RunN(ctx, 1); execErr != nil {
		return execErr
	}
	return nil
}

// dedicatedGraphScenario builds a six-node chain graph whose every
// invoke is pinned to the same dedicated worker and runs it once - the
// Go counterpart of orchestration_graph::DedicatedGraph.
type dedicatedGraphScenario struct{}

func (dedicatedGraphScenario) Name() string { return "dedicated_graph" }

func (dedicatedGraphScenario) Run(ctx context.Context, _ *runtime.Runtime, _ json.RawMessage) error {
	const workerID = dedicated.WorkerID("dedicated_worker_0")

	localRt, err := runtime.NewBuilder().
		AddEngine(runtime.EngineConfig{
			Name:          "dedicated-graph",
			Workers:       1,
			TaskQueueSize: 8,
			DedicatedWorkers: []runtime.DedicatedWorkerSpec{
				{ID: workerID, QueueSize: 8},
			},
		}).
		Build()
	if err != nil {
		return fmt.Errorf("scenario dedicated_graph: building runtime: %w", err)
	}
	defer localRt.Shutdown()

	design := orchestration.NewDesign(1)
	runTag := action.NewTag("dedicated_graph.run")
	pin := &orchestration.WorkerPin{Engine: "dedicated-graph", Dedicated: workerID}
	if err := design.RegisterInvoke(runTag, func(r orchestration.Resolver) (action.Action, error) {
		// Every node spawns through this one Spawner, so pinning it to
		// the dedicated worker pins the whole chain to that worker -
		// the Go counterpart of binding sync1..sync5 individually.
		spawner, err := r.Spawner(pin)
		if err != nil {
			return nil, err
		}
		b := action.NewGraphBuilder()
		n0 := b.AddNode(newLoggingLeaf(action.NewTag("dedicated_graph.node0"), "node0", nil))
		nodes := make([]action.NodeID, 5)
		for i := range nodes {
			tag := action.NewTag(fmt.Sprintf("dedicated_graph.sync%d", i+1))
			nodes[i] = b.AddNode(newLoggingLeaf(tag, tag.String(), nil))
		}
		b.AddEdges(n0, nodes[0])
		for i := 0; i < len(nodes)-1; i++ {
			b.AddEdges(nodes[i], nodes[i+1])
		}
		return b.Build(runTag, 4, spawner)
	}, nil); err != nil {
		return err
	}

	dep := orchestration.NewDeployment(localRt).AddDesign(design)
	prog, err := dep.MaterializeProgram(orchestration.ProgramSpec{Name: "dedicated_graph", Run: runTag})
	if err != nil {
		return err
	}
	if execErr := prog.RunN(ctx, 1); execErr != nil {
		return execErr
	}
	return nil
}

// GraphGroup builds the "graphs" scenario group.
func GraphGroup() *scenario.Group {
	return scenario.NewGroup("graphs", []scenario.Scenario{
		graphProgramScenario{},
		dedicatedGraphScenario{},
	}, nil)
}
