package dataflow

import "sort"

// graph holds the adjacency structure of one dataflow task. Pins are
// resolved to their owning components so paths between pins become
// edges between components.
type graph struct {
	order       []string // component ids in declaration order
	adjacency   map[string][]string
	indegree    map[string]int
	inputOwner  map[string]string // input pin id -> component id
	outputOwner map[string]string // output pin id -> component id
	paths       []Path
}

// buildGraph maps a task's paths onto component adjacency and
// in-degree counts. Every component starts at in-degree zero; paths
// whose endpoints cannot be resolved to known pins are ignored.
func buildGraph(task *Task) *graph {
	g := &graph{
		adjacency:   make(map[string][]string),
		indegree:    make(map[string]int),
		inputOwner:  make(map[string]string),
		outputOwner: make(map[string]string),
		paths:       task.Paths,
	}
	for _, c := range task.Components {
		if c.ID == "" {
			continue
		}
		g.order = append(g.order, c.ID)
		g.indegree[c.ID] = 0
		for _, p := range c.Inputs {
			if p.ID != "" {
				g.inputOwner[p.ID] = c.ID
			}
		}
		for _, p := range c.Outputs {
			if p.ID != "" {
				g.outputOwner[p.ID] = c.ID
			}
		}
	}
	for _, path := range task.Paths {
		src, srcOK := g.outputOwner[path.From]
		dst, dstOK := g.inputOwner[path.To]
		if srcOK && dstOK {
			g.adjacency[src] = append(g.adjacency[src], dst)
			g.indegree[dst]++
		}
	}
	return g
}

// roots returns the ids with in-degree zero, in declaration order, so
// the walk is deterministic.
func (g *graph) roots() []string {
	var roots []string
	for _, id := range g.order {
		if g.indegree[id] == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// upstream returns the component feeding the given input pin. Only the
// first matching path counts; inputs normally have a single producer.
func (g *graph) upstream(inputPin string) (string, bool) {
	for _, path := range g.paths {
		if path.To == inputPin {
			src, ok := g.outputOwner[path.From]
			return src, ok
		}
	}
	return "", false
}

// stalled returns the ids still carrying positive in-degree after a
// walk, sorted for stable error messages. A non-empty result means the
// task graph has a cycle.
func (g *graph) stalled() []string {
	var ids []string
	for id, deg := range g.indegree {
		if deg > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
