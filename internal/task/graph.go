package task

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

type node struct {
	name string
	deps []string
	run  func(ctx context.Context) error
}

// Graph runs named steps once all of their dependencies have finished.
// Independent steps of the same level run concurrently.
type Graph struct {
	nodes map[string]node
	order []string
}

func NewGraph() *Graph {
	return &Graph{nodes: map[string]node{}}
}

func (g *Graph) Add(name string, run func(ctx context.Context) error, deps ...string) {
	if _, exists := g.nodes[name]; !exists {
		g.order = append(g.order, name)
	}
	g.nodes[name] = node{name: name, deps: deps, run: run}
}

// Levels groups the steps so that every step only depends on steps of
// earlier levels.
func (g *Graph) Levels() ([][]string, error) {
	indegree := map[string]int{}
	dependents := map[string][]string{}
	for _, name := range g.order {
		n := g.nodes[name]
		indegree[name] += 0
		for _, dep := range n.deps {
			if _, ok := g.nodes[dep]; !ok {
				return nil, fmt.Errorf("step %s depends on unknown step %s", name, dep)
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var current []string
	for _, name := range g.order {
		if indegree[name] == 0 {
			current = append(current, name)
		}
	}

	var levels [][]string
	visited := 0
	for len(current) > 0 {
		levels = append(levels, current)
		visited += len(current)
		var next []string
		for _, name := range current {
			for _, dependent := range dependents[name] {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		slices.Sort(next)
		current = next
	}
	if visited != len(g.order) {
		var stuck []string
		for name, n := range indegree {
			if n > 0 {
				stuck = append(stuck, name)
			}
		}
		slices.Sort(stuck)
		return nil, fmt.Errorf("step dependencies contain a cycle through %s", strings.Join(stuck, ", "))
	}
	return levels, nil
}

// Run executes every level in order and stops at the first failing step.
func (g *Graph) Run(ctx context.Context) error {
	levels, err := g.Levels()
	if err != nil {
		return err
	}
	for _, level := range levels {
		group, groupCtx := errgroup.WithContext(ctx)
		for _, name := range level {
			n := g.nodes[name]
			group.Go(func() error {
				if err := n.run(groupCtx); err != nil {
					return fmt.Errorf("%s: %w", n.name, err)
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
	}
	return nil
}
