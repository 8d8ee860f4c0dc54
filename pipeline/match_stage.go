package pipeline

import (
	"fmt"
	"strings"
)

// MatchStage filters documents by a predicate. The predicate itself is
// opaque to the planner; what matters for tracing is that $match never
// renames or restructures fields, so every field name survives it.
type MatchStage struct {
	predicate string
}

func NewMatchStage(predicate string) *MatchStage {
	return &MatchStage{predicate: predicate}
}

func (s *MatchStage) Name() string {
	return "$match"
}

func (s *MatchStage) String() string {
	return fmt.Sprintf("{$match: %s}", s.predicate)
}

// SortField is one component of a sort order.
type SortField struct {
	Field      string
	Descending bool
}

// SortStage reorders documents. Ordering does not move or rename any field,
// so $sort is transparent to shard key tracing.
type SortStage struct {
	fields []SortField
}

func NewSortStage(fields ...SortField) *SortStage {
	return &SortStage{fields: fields}
}

func (s *SortStage) Fields() []SortField {
	return s.fields
}

func (s *SortStage) Name() string {
	return "$sort"
}

func (s *SortStage) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		dir := 1
		if f.Descending {
			dir = -1
		}
		parts[i] = fmt.Sprintf("%s: %d", f.Field, dir)
	}
	return fmt.Sprintf("{$sort: {%s}}", strings.Join(parts, ", "))
}
