// Package graph builds and validates the dependency DAG of a mission's
// steps. It detects cycles with DFS color marking, produces deterministic
// topological orders with Kahn's algorithm, and answers readiness queries
// for the scheduler.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/straylight-ai/wintermute/internal/mission"
	"github.com/straylight-ai/wintermute/internal/types"
)

// Graph is the immutable dependency DAG of a mission. Step identity is the
// declaration index, which keeps ordering deterministic for equal-priority
// scheduling decisions.
type Graph struct {
	steps []mission.MissionStep

	// index maps step id to declaration index.
	index map[string]int

	// dependents[i] lists the indexes of steps that depend on step i,
	// in declaration order.
	dependents [][]int

	// dependencies[i] lists the indexes step i depends on, in
	// declaration order of the depends_on list.
	dependencies [][]int
}

// Build constructs the dependency graph for the given steps. It rejects
// duplicate step ids, dependencies on undeclared steps, and cyclic
// dependency chains.
func Build(steps []mission.MissionStep) (*Graph, error) {
	g := &Graph{
		steps:        steps,
		index:        make(map[string]int, len(steps)),
		dependents:   make([][]int, len(steps)),
		dependencies: make([][]int, len(steps)),
	}

	for i, step := range steps {
		if _, exists := g.index[step.ID]; exists {
			return nil, types.NewError(types.GRAPH_DUPLICATE_STEP,
				fmt.Sprintf("step id %q is declared more than once", step.ID))
		}
		g.index[step.ID] = i
	}

	for i, step := range steps {
		for _, dep := range step.DependsOn {
			j, ok := g.index[dep]
			if !ok {
				return nil, types.NewError(types.GRAPH_MISSING_DEPENDENCY,
					fmt.Sprintf("step %q depends on undeclared step %q", step.ID, dep))
			}
			g.dependencies[i] = append(g.dependencies[i], j)
			g.dependents[j] = append(g.dependents[j], i)
		}
	}

	if cycle := g.detectCycle(); len(cycle) > 0 {
		return nil, types.NewError(types.GRAPH_CYCLE_DETECTED,
			fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")))
	}

	for i := range g.dependents {
		sort.Ints(g.dependents[i])
	}

	return g, nil
}

// Len returns the number of steps in the graph.
func (g *Graph) Len() int {
	return len(g.steps)
}

// Step returns the step at declaration index i.
func (g *Graph) Step(i int) *mission.MissionStep {
	return &g.steps[i]
}

// IndexOf returns the declaration index of the step with the given id,
// or -1 when unknown.
func (g *Graph) IndexOf(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Dependencies returns the declaration indexes step i depends on.
func (g *Graph) Dependencies(i int) []int {
	return g.dependencies[i]
}

// Dependents returns the declaration indexes of steps depending on step i.
func (g *Graph) Dependents(i int) []int {
	return g.dependents[i]
}

// detectCycle runs DFS with color marking over the dependency edges.
// Colors: white (0) = unvisited, gray (1) = in-progress, black (2) = done.
// Returns the step ids forming a cycle, or nil when the graph is acyclic.
func (g *Graph) detectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(g.steps))
	parent := make([]int, len(g.steps))
	for i := range parent {
		parent[i] = -1
	}

	var dfs func(i int) []int
	dfs = func(i int) []int {
		color[i] = gray

		for _, j := range g.dependencies[i] {
			if color[j] == white {
				parent[j] = i
				if cycle := dfs(j); cycle != nil {
					return cycle
				}
			} else if color[j] == gray {
				// Back edge: walk parents back to j to recover the path.
				cycle := []int{j}
				for cur := i; cur != j; cur = parent[cur] {
					cycle = append([]int{cur}, cycle...)
				}
				return append([]int{j}, cycle...)
			}
		}

		color[i] = black
		return nil
	}

	for i := range g.steps {
		if color[i] == white {
			if cycle := dfs(i); cycle != nil {
				ids := make([]string, len(cycle))
				for k, idx := range cycle {
					ids[k] = g.steps[idx].ID
				}
				return ids
			}
		}
	}

	return nil
}

// TopologicalSort returns the step ids in a valid execution order using
// Kahn's algorithm. Ties between ready steps break by declaration order,
// so the result is deterministic for a given mission.
func (g *Graph) TopologicalSort() []string {
	inDegree := make([]int, len(g.steps))
	for i := range g.steps {
		inDegree[i] = len(g.dependencies[i])
	}

	queue := []int{}
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]string, 0, len(g.steps))
	for len(queue) > 0 {
		sort.Ints(queue)
		cur := queue[0]
		queue = queue[1:]
		order = append(order, g.steps[cur].ID)

		for _, next := range g.dependents[cur] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	// Build rejects cyclic graphs, so every step is always emitted.
	return order
}
