package pipeline

import "strings"

// Stage represents one stage of an aggregation pipeline.
// Stages are immutable plan nodes; a Pipeline never executes here, it is
// only inspected by the planner.
type Stage interface {
	// Name returns the stage's operator name, e.g. "$group".
	Name() string

	// String returns a string representation of the stage.
	String() string
}

// Pipeline is an ordered sequence of stages. It is owned by the caller and
// read-only to the planner.
type Pipeline struct {
	stages []Stage
}

func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Stages returns the stage sequence. Callers must not mutate it.
func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// Empty returns true if the pipeline has no stages.
func (p *Pipeline) Empty() bool {
	return len(p.stages) == 0
}

func (p *Pipeline) String() string {
	parts := make([]string, len(p.stages))
	for i, s := range p.stages {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
