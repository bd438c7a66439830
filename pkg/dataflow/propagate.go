package dataflow

import (
	"fmt"
	"strings"

	"github.com/tracelens-labs/tracelens/pkg/sqlprov"
)

// Options configures a Propagator.
type Options struct {
	// Resolver analyzes source and lookup queries. Nil creates one
	// with Vars wired in.
	Resolver *sqlprov.Resolver
	// Vars resolves package variables, both for variables holding
	// whole queries and @[Namespace::Name] references inside SQL.
	Vars sqlprov.VarResolver
}

// Propagator walks dataflow task graphs in topological order and emits
// lineage rows at destinations. Not safe for concurrent use; the
// resolver cache is instance-scoped.
type Propagator struct {
	resolver *sqlprov.Resolver
	vars     sqlprov.VarResolver
}

// NewPropagator builds a propagator from opts.
func NewPropagator(opts Options) *Propagator {
	r := opts.Resolver
	if r == nil {
		r = sqlprov.NewResolver(sqlprov.Options{Vars: opts.Vars})
	}
	return &Propagator{resolver: r, vars: opts.Vars}
}

// taskState is the working state of one task walk.
type taskState struct {
	lineage map[string][]Entry
	byID    map[string]*Component
	origins map[string]*sourceOutline // source component id -> outline
	graph   *graph
	names   *nameIndex // inputs of the component currently processed
}

// Task propagates one dataflow task and returns its lineage rows. A
// cyclic graph returns an error wrapping ErrCycle and no rows.
func (p *Propagator) Task(task *Task) ([]Row, error) {
	rows, _, err := p.propagateTask(task)
	return rows, err
}

// Package propagates every task in a package and derives the unused
// column report and quality summary. Failures are collected per task;
// sibling tasks keep their rows.
func (p *Propagator) Package(pkg *Package) *Result {
	res := &Result{Package: pkg.Name}
	components := 0
	var outlines []*sourceOutline
	for _, task := range pkg.Tasks {
		components += len(task.Components)
		rows, taskOutlines, err := p.propagateTask(task)
		if err != nil {
			res.Errors = append(res.Errors, TaskError{Task: task.Name, Err: err})
			continue
		}
		res.Rows = append(res.Rows, rows...)
		outlines = append(outlines, taskOutlines...)
	}
	res.Unused = unusedColumns(outlines, res.Rows)
	res.Summary = Summarize(res.Rows)
	res.Summary.Components = components
	for _, u := range res.Unused {
		res.Summary.Unused += len(u.Columns)
	}
	return res
}

// propagateTask runs Kahn's algorithm over one task. Sources seed the
// lineage map, transforms mint records for new ids, destinations emit
// rows. Components never dequeued after the walk indicate a cycle.
func (p *Propagator) propagateTask(task *Task) ([]Row, []*sourceOutline, error) {
	g := buildGraph(task)
	st := &taskState{
		lineage: make(map[string][]Entry),
		byID:    make(map[string]*Component, len(task.Components)),
		origins: make(map[string]*sourceOutline),
		graph:   g,
	}
	for _, c := range task.Components {
		if c.ID != "" {
			st.byID[c.ID] = c
		}
	}

	// Analyze source queries up front so destination fallbacks can
	// consult them even when lineage ids are stale.
	var outlines []*sourceOutline
	for _, c := range task.Components {
		switch c.Kind {
		case KindSource, KindLookup, KindFileSource:
			o := p.outline(c)
			st.origins[c.ID] = o
			outlines = append(outlines, o)
		}
	}

	var rows []Row
	queue := g.roots()
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		comp := st.byID[id]
		visited++

		switch comp.Kind {
		case KindSource, KindLookup, KindFileSource:
			seedSource(st, comp)
		case KindDestination:
			rows = append(rows, p.sink(st, comp)...)
		default:
			st.names = newNameIndex(comp)
			rule := ruleFor(comp.Kind)
			for _, pin := range comp.Outputs {
				for k, col := range pin.Columns {
					if col.LineageID == "" {
						continue
					}
					if _, claimed := st.lineage[col.LineageID]; claimed {
						continue
					}
					if entries, mint := rule.mint(st, comp, pin, k, col); mint {
						st.lineage[col.LineageID] = entries
					}
				}
			}
		}

		for _, next := range g.adjacency[id] {
			g.indegree[next]--
			if g.indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited < len(st.byID) {
		return nil, outlines, fmt.Errorf("%w: stalled at %s", ErrCycle, strings.Join(g.stalled(), ", "))
	}
	return rows, outlines, nil
}

// seedSource records the origin of every source output column the
// component's outline explains, one single-entry list per lineage id.
func seedSource(st *taskState, comp *Component) {
	o, ok := st.origins[comp.ID]
	if !ok {
		return
	}
	for _, pin := range comp.Outputs {
		if isErrorPin(pin) {
			continue
		}
		for _, col := range pin.Columns {
			if col.LineageID == "" {
				continue
			}
			origin, ok := o.aliasMatch(col.Name)
			if !ok {
				continue
			}
			st.lineage[col.LineageID] = []Entry{{
				Component:  comp.Name,
				Table:      origin.Table,
				Column:     origin.Column,
				Expression: origin.Expression,
				Type:       origin.DataType,
			}}
		}
	}
}

// sink emits one row per upstream origin of every column arriving at a
// destination. Columns whose id was never recorded fall back to
// name-based matching against the pin's single producer.
func (p *Propagator) sink(st *taskState, comp *Component) []Row {
	target := comp.Table
	if target == "" {
		target = comp.Connection
	}
	if target == "" {
		target = "N/A"
	}

	var rows []Row
	for _, pin := range comp.Inputs {
		for _, col := range pin.Columns {
			targetCol := col.TargetName
			if targetCol == "" {
				targetCol = col.CachedName
			}
			if targetCol == "" {
				targetCol = col.Name
			}

			if entries, traced := st.lineage[col.LineageID]; traced {
				for _, e := range entries {
					rows = append(rows, Row{
						SourceComponent:      e.Component,
						SourceTable:          e.Table,
						SourceColumn:         e.Column,
						SourceType:           e.Type,
						Expression:           e.Expression,
						DestinationComponent: comp.Name,
						DestinationTable:     target,
						DestinationColumn:    targetCol,
						DestinationType:      col.DataType,
					})
				}
				continue
			}
			if targetCol == "" {
				continue
			}
			if row, ok := p.nameFallback(st, comp, pin, col, targetCol, target); ok {
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// nameFallback traces a destination column with no recorded lineage
// id. When the pin's producer is a source whose outline carries a
// same-named column, the row is tagged "(Name Match)"; when that
// source reads a whole table without SQL, the column is assumed to
// exist there and the row is marked inferred.
func (p *Propagator) nameFallback(st *taskState, comp *Component, pin Pin, col Column, targetCol, target string) (Row, bool) {
	upID, ok := st.graph.upstream(pin.ID)
	if !ok {
		return Row{}, false
	}
	o, ok := st.origins[upID]
	if !ok {
		return Row{}, false
	}
	up := st.byID[upID]
	if origin, ok := o.aliasFold(targetCol); ok {
		return Row{
			SourceComponent:      up.Name,
			SourceTable:          origin.Table,
			SourceColumn:         origin.Column,
			SourceType:           origin.DataType,
			Expression:           origin.Expression + " (Name Match)",
			DestinationComponent: comp.Name,
			DestinationTable:     target,
			DestinationColumn:    targetCol,
			DestinationType:      col.DataType,
		}, true
	}
	if o.comp.Table != "" && o.query == "" {
		return Row{
			SourceComponent:      up.Name,
			SourceTable:          o.comp.Table,
			SourceColumn:         targetCol,
			SourceType:           "Inferred",
			Expression:           "Inferred (Stale Package)",
			DestinationComponent: comp.Name,
			DestinationTable:     target,
			DestinationColumn:    targetCol,
			DestinationType:      col.DataType,
		}, true
	}
	return Row{}, false
}
