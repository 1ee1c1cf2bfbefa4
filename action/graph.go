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

package action

import (
	"context"
	"fmt"
)

// NodeID identifies a node within a GraphBuilder/Graph.
type NodeID int

type graphNodeSpec struct {
	action      Action
	edges       []NodeID
	inputDegree int
}

// GraphBuilder assembles a DAG of actions: nodes added with AddNode,
// dependencies declared with AddEdges (an edge from a to b means b
// depends on a and only runs once a has completed successfully). Build
// topologically sorts the graph and fails if it contains a cycle.
type GraphBuilder struct {
	nodes []*graphNodeSpec
}

// NewGraphBuilder creates an empty builder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{}
}

// AddNode registers action as a new node and returns its NodeID.
func (b *GraphBuilder) AddNode(action Action) NodeID {
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, &graphNodeSpec{action: action})
	return id
}

// AddEdges declares that every node in to depends on node from: from must
// complete successfully before any of them runs. Panics on an invalid
// node id, a self-loop, or a duplicate edge - these are construction-time
// programmer errors, not runtime conditions.
func (b *GraphBuilder) AddEdges(from NodeID, to ...NodeID) *GraphBuilder {
	if len(b.nodes) < 2 {
		panic("action: graph requires at least two nodes to add edges")
	}
	if int(from) < 0 || int(from) >= len(b.nodes) {
		panic("action: invalid node id")
	}
	seen := make(map[NodeID]struct{}, len(to))
	for _, t := range to {
		if t == from {
			panic("action: self-loop edges are not allowed")
		}
		if int(t) < 0 || int(t) >= len(b.nodes) {
			panic("action: invalid edge id")
		}
		if _, dup := seen[t]; dup {
			panic("action: duplicate edges are not allowed")
		}
		for _, existing := range b.nodes[from].edges {
			if existing == t {
				panic("action: duplicate edges are not allowed")
			}
		}
		seen[t] = struct{}{}
	}

	b.nodes[from].edges = append(b.nodes[from].edges, to...)
	for _, t := range to {
		b.nodes[t].inputDegree++
	}
	return b
}

// Build topologically sorts the graph (Kahn's algorithm) and returns the
// resulting Graph action. Returns an error if no nodes were added or the
// graph contains a cycle.
func (b *GraphBuilder) Build(tag Tag, capacity int, spawner Spawner) (*Graph, error) {
	if len(b.nodes) == 0 {
		return nil, fmt.Errorf("action: graph has no nodes")
	}

	n := len(b.nodes)
	indegree := make([]int, n)
	queue := make([]int, 0, n)
	for i, node := range b.nodes {
		indegree[i] = node.inputDegree
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		order = append(order, idx)
		for _, to := range b.nodes[idx].edges {
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, int(to))
			}
		}
	}
	if len(order) != n {
		return nil, fmt.Errorf("action: graph contains a cycle")
	}

	newIndex := make([]int, n)
	for newID, oldID := range order {
		newIndex[oldID] = newID
	}

	sorted := make([]*graphNodeSpec, n)
	for newID, oldID := range order {
		spec := b.nodes[oldID]
		rewritten := make([]NodeID, len(spec.edges))
		for i, e := range spec.edges {
			rewritten[i] = NodeID(newIndex[e])
		}
		sorted[newID] = &graphNodeSpec{
			action:      spec.action,
			edges:       rewritten,
			inputDegree: spec.inputDegree,
		}
	}

	return &Graph{
		Base:    Base{Tag: tag, Pool: NewFuturePool(capacity)},
		name:    "LocalGraphAction",
		spawner: spawner,
		nodes:   sorted,
	}, nil
}

// Graph executes a DAG of actions: a node is spawned once every node it
// depends on has completed successfully. Independent nodes run
// concurrently. If a node fails, its dependents never spawn, but sibling
// branches already running are never canceled. When more than one node
// fails, Graph resolves with the error of the highest-indexed failing
// node in topological order.
type Graph struct {
	Base
	name    string
	spawner Spawner
	nodes   []*graphNodeSpec
}

// Name implements Action.
func (g *Graph) Name() string { return g.name }

type graphDone struct {
	idx int
	err *ExecError
}

// TryExecute implements Action.
func (g *Graph) TryExecute() (Future, error) {
	return g.Acquire(func() Future {
		return func(ctx context.Context) *ExecError {
			n := len(g.nodes)
			futures := make([]Future, n)
			for i, node := range g.nodes {
				future, err := node.action.TryExecute()
				if err != nil {
					return Internal(err)
				}
				futures[i] = future
			}

			indegree := make([]int, n)
			for i, node := range g.nodes {
				indegree[i] = node.inputDegree
			}

			doneCh := make(chan graphDone, n)
			pending := 0

			spawn := func(idx int) {
				pending++
				h := g.spawner.Spawn(ctx, futures[idx])
				go func() {
					execErr := h.Await(ctx)
					doneCh <- graphDone{idx: idx, err: execErr}
				}()
			}

			for i := range g.nodes {
				if indegree[i] == 0 {
					spawn(i)
				}
			}

			var worst *ExecError
			worstIdx := -1
			for pending > 0 {
				msg := <-doneCh
				pending--
				if msg.err != nil {
					if msg.idx >= worstIdx {
						worst = msg.err
						worstIdx = msg.idx
					}
					continue
				}
				for _, to := range g.nodes[msg.idx].edges {
					indegree[to]--
					if indegree[to] == 0 {
						spawn(int(to))
					}
				}
			}
			return worst
		}
	})
}
