package pipeline

import "fmt"

// OpaqueStage stands in for any stage kind the planner does not model
// ($unwind, $lookup, $facet, ...). It may transform documents arbitrarily,
// so encountering one breaks shard key tracing; it does not by itself force
// the whole merge onto a single node.
type OpaqueStage struct {
	name string
}

func NewOpaqueStage(name string) *OpaqueStage {
	return &OpaqueStage{name: name}
}

func (s *OpaqueStage) Name() string {
	return s.name
}

func (s *OpaqueStage) String() string {
	return fmt.Sprintf("{%s: ...}", s.name)
}
