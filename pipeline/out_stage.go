package pipeline

import (
	"fmt"

	"mit.edu/dsg/goshard/common"
)

type WriteMode int

const (
	// WriteModeInsert inserts the result documents into the existing target
	// collection, preserving its options and shard key.
	WriteModeInsert WriteMode = iota
	// WriteModeReplaceCollection atomically replaces the target collection
	// with the result set. The replacement is always created unsharded, so
	// there is no routing table to exchange against.
	WriteModeReplaceCollection
)

func (m WriteMode) String() string {
	switch m {
	case WriteModeInsert:
		return "insertDocuments"
	case WriteModeReplaceCollection:
		return "replaceCollection"
	}
	return "unknown"
}

// OutStage writes the pipeline's result to a target collection. It must be
// the final stage of a pipeline; the planner consults it only for the target
// namespace and the write mode.
type OutStage struct {
	target common.Namespace
	mode   WriteMode
}

func NewOutStage(target common.Namespace, mode WriteMode) *OutStage {
	common.Assert(!target.IsEmpty(), "$out requires a target namespace")
	return &OutStage{target: target, mode: mode}
}

// Target returns the destination namespace.
func (s *OutStage) Target() common.Namespace {
	return s.target
}

// Mode returns the write mode.
func (s *OutStage) Mode() WriteMode {
	return s.mode
}

func (s *OutStage) Name() string {
	return "$out"
}

func (s *OutStage) String() string {
	return fmt.Sprintf("{$out: {to: %q, mode: %q}}", s.target.String(), s.mode.String())
}
