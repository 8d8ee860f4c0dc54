package pipeline

import (
	"fmt"
	"strings"

	"mit.edu/dsg/goshard/common"
)

// Accumulator is one aggregated output field of a group stage, like
// {count: {$sum: 1}}. Accumulator expressions are always opaque to the
// planner; they exist so that a stage prints faithfully and so that
// projection stages downstream have real field names to reference.
type Accumulator struct {
	Name string
	Expr *ComputedExpr
}

// GroupStage groups documents by a key expression, producing one output
// document per distinct key under the output field "_id".
//
// The doingMerge flag marks the cluster-side half of a split group: its
// inputs are each shard's locally pre-aggregated partial groups, which
// already carry the final "_id" value. That property is what makes a merging
// group a valid exchange split point.
type GroupStage struct {
	key          GroupKey
	accumulators []Accumulator
	doingMerge   bool
}

func NewGroupStage(key GroupKey, doingMerge bool, accumulators ...Accumulator) *GroupStage {
	common.Assert(key != nil, "group stage requires a key")
	return &GroupStage{
		key:          key,
		accumulators: accumulators,
		doingMerge:   doingMerge,
	}
}

// Key returns the group key expression shape.
func (s *GroupStage) Key() GroupKey {
	return s.key
}

// DoingMerge returns true if this group merges partial per-shard groups.
func (s *GroupStage) DoingMerge() bool {
	return s.doingMerge
}

// Accumulators returns the aggregated output fields.
func (s *GroupStage) Accumulators() []Accumulator {
	return s.accumulators
}

func (s *GroupStage) Name() string {
	return "$group"
}

func (s *GroupStage) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "{$group: {_id: %s", s.key.String())
	for _, acc := range s.accumulators {
		fmt.Fprintf(&b, ", %s: %s", acc.Name, acc.Expr.String())
	}
	if s.doingMerge {
		b.WriteString(", $doingMerge: true")
	}
	b.WriteString("}}")
	return b.String()
}
