package pipefunc

import (
	"fmt"
	"sort"

	"github.com/pipedag-dev/pipedag/pkg/mapspec"
	"github.com/pipedag-dev/pipedag/pkg/toposort"
)

// Generation is one layer of a Pipeline's topological ordering.
// Generation 0 holds the root argument names that seed the run; every
// later generation holds the PipeFuncs whose inputs are fully satisfied
// by earlier generations.
type Generation struct {
	RootArgs []string
	Funcs    []*PipeFunc
}

// Pipeline is an immutable DAG of PipeFuncs wired together by shared
// parameter/output names.
type Pipeline struct {
	funcs        []*PipeFunc
	outputToFunc map[string]*PipeFunc
	graph        *toposort.Graph
	mapspecNames map[string]struct{}
	defaults     map[string]any
	generations  []Generation
}

// NewPipeline builds a Pipeline from funcs, validating that no two
// functions claim the same output name and that the resulting dependency
// graph is acyclic.
func NewPipeline(funcs []*PipeFunc) (*Pipeline, error) {
	p := &Pipeline{
		funcs:        funcs,
		outputToFunc: make(map[string]*PipeFunc, len(funcs)),
		graph:        toposort.NewGraph(),
		mapspecNames: make(map[string]struct{}),
		defaults:     make(map[string]any),
	}

	for _, f := range funcs {
		for _, name := range f.OutputNames {
			if existing, ok := p.outputToFunc[name]; ok {
				return nil, fmt.Errorf("%w: %q claimed by both %q and %q",
					ErrDuplicateOutput, name, existing.Name, f.Name)
			}

			p.outputToFunc[name] = f
		}

		p.graph.AddNode(f.Name)
	}

	var specs []*mapspec.MapSpec

	for _, f := range funcs {
		for _, param := range f.Parameters {
			producer, ok := p.outputToFunc[param]
			if ok {
				p.graph.AddEdge(producer.Name, f.Name)
			}
		}

		if f.MapSpec != nil {
			specs = append(specs, f.MapSpec)

			for _, name := range f.MapSpec.Parameters() {
				p.mapspecNames[name] = struct{}{}
			}

			for _, name := range f.MapSpec.OutputNames() {
				p.mapspecNames[name] = struct{}{}
			}
		}

		for param, value := range f.Defaults {
			p.defaults[param] = value
		}
	}

	err := mapspec.ValidateConsistentAxes(specs)
	if err != nil {
		return nil, err
	}

	err = p.detectCycle()
	if err != nil {
		return nil, err
	}

	p.generations = p.computeGenerations()

	return p, nil
}

// detectCycle returns ErrCyclicGraph with the offending cycle if the
// function dependency graph is not acyclic.
func (p *Pipeline) detectCycle() error {
	_, ok := p.graph.Toposort()
	if ok {
		return nil
	}

	for _, f := range p.funcs {
		cycle := p.graph.FindCycle(f.Name)
		if len(cycle) > 0 {
			return fmt.Errorf("%w: %v", ErrCyclicGraph, cycle)
		}
	}

	return ErrCyclicGraph
}

// computeGenerations layers the function graph by dependency depth:
// generation 0 is the sorted set of root argument names; generation k+1
// holds every function whose producer dependencies are all satisfied by
// generations <= k.
func (p *Pipeline) computeGenerations() []Generation {
	generations := []Generation{{RootArgs: p.RootArgs(nil)}}

	placed := make(map[string]bool, len(p.funcs))
	remaining := make([]*PipeFunc, len(p.funcs))
	copy(remaining, p.funcs)

	for len(remaining) > 0 {
		var layer []*PipeFunc

		for _, f := range remaining {
			if p.dependenciesSatisfied(f, placed) {
				layer = append(layer, f)
			}
		}

		sort.Slice(layer, func(i, j int) bool { return layer[i].Name < layer[j].Name })

		for _, f := range layer {
			placed[f.Name] = true
		}

		remaining = removeAll(remaining, layer)

		generations = append(generations, Generation{Funcs: layer})
	}

	return generations
}

func (p *Pipeline) dependenciesSatisfied(f *PipeFunc, placed map[string]bool) bool {
	for _, parent := range p.graph.FindParents(f.Name) {
		if !placed[parent] {
			return false
		}
	}

	return true
}

func removeAll(funcs, remove []*PipeFunc) []*PipeFunc {
	skip := make(map[string]bool, len(remove))
	for _, f := range remove {
		skip[f.Name] = true
	}

	kept := funcs[:0:0]

	for _, f := range funcs {
		if !skip[f.Name] {
			kept = append(kept, f)
		}
	}

	return kept
}

// TopologicalGenerations returns the pipeline's layered execution order.
func (p *Pipeline) TopologicalGenerations() []Generation {
	return p.generations
}

// OutputToFunc returns the producer of name, or ErrUnknownOutput.
func (p *Pipeline) OutputToFunc(name string) (*PipeFunc, error) {
	f, ok := p.outputToFunc[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, name)
	}

	return f, nil
}

// RootArgs returns the union of root argument names reachable from
// outputName, or from every output in the pipeline if outputName is nil.
func (p *Pipeline) RootArgs(outputName *string) []string {
	var targets []*PipeFunc

	if outputName == nil {
		targets = p.funcs
	} else {
		f, ok := p.outputToFunc[*outputName]
		if ok {
			targets = []*PipeFunc{f}
		}
	}

	seen := make(map[string]struct{})

	for _, f := range targets {
		p.collectRootArgs(f, seen, make(map[string]bool))
	}

	args := make([]string, 0, len(seen))
	for name := range seen {
		args = append(args, name)
	}

	sort.Strings(args)

	return args
}

func (p *Pipeline) collectRootArgs(f *PipeFunc, seen map[string]struct{}, visiting map[string]bool) {
	if visiting[f.Name] {
		return
	}

	visiting[f.Name] = true

	for _, param := range f.Parameters {
		producer, ok := p.outputToFunc[param]
		if !ok {
			seen[param] = struct{}{}

			continue
		}

		p.collectRootArgs(producer, seen, visiting)
	}
}

// MapspecNames returns the set of parameter names referenced by any
// function's mapspec, as either an input or an output.
func (p *Pipeline) MapspecNames() map[string]struct{} {
	return p.mapspecNames
}

// Defaults returns the merged default values declared across every
// function in the pipeline.
func (p *Pipeline) Defaults() map[string]any {
	return p.defaults
}

// Mapspecs returns the mapspec of every function that declares one, in
// topological order.
func (p *Pipeline) Mapspecs() []*mapspec.MapSpec {
	specs := make([]*mapspec.MapSpec, 0, len(p.funcs))

	for _, gen := range p.generations[1:] {
		for _, f := range gen.Funcs {
			if f.MapSpec != nil {
				specs = append(specs, f.MapSpec)
			}
		}
	}

	return specs
}

// Funcs returns every function in the pipeline, in the order supplied to
// NewPipeline.
func (p *Pipeline) Funcs() []*PipeFunc {
	return p.funcs
}
