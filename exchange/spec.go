package exchange

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"mit.edu/dsg/goshard/catalog"
	"mit.edu/dsg/goshard/common"
)

type Policy int

const (
	// PolicyRange partitions documents by comparing the split-point key
	// against per-shard range tables. It is the only policy this planner
	// produces.
	PolicyRange Policy = iota
)

func (p Policy) String() string {
	switch p {
	case PolicyRange:
		return "range"
	}
	return "unknown"
}

// Range is one translated chunk range, expressed over the split-point key
// pattern: the bounds are the destination chunk's bounds unchanged, carried
// positionally against Spec.KeyPattern. Min is inclusive, Max exclusive.
type Range struct {
	Min []common.Value
	Max []common.Value
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", formatBound(r.Min), formatBound(r.Max))
}

func formatBound(bound []common.Value) string {
	parts := make([]string, len(bound))
	for i, v := range bound {
		parts[i] = v.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Spec describes a provably correct exchange: how to partition documents at
// the split point so that each one lands on the shard that owns its ultimate
// destination range. It is constructed once per planning call and immutable
// afterwards.
type Spec struct {
	Policy Policy

	// KeyPattern is the destination shard key translated to split-point
	// field names, in destination key order, duplicates preserved.
	KeyPattern catalog.KeyPattern

	// Epoch identifies the routing table snapshot the ranges were computed
	// against.
	Epoch uuid.UUID

	// Partitions maps each owning shard to its translated ranges, each list
	// in ascending range order.
	Partitions map[string][]Range
}

func (s *Spec) String() string {
	shards := make([]string, 0, len(s.Partitions))
	for shard := range s.Partitions {
		shards = append(shards, shard)
	}
	sort.Strings(shards)

	var b strings.Builder
	fmt.Fprintf(&b, "Exchange(policy=%s, key=%s", s.Policy, s.KeyPattern)
	for _, shard := range shards {
		ranges := make([]string, len(s.Partitions[shard]))
		for i, r := range s.Partitions[shard] {
			ranges[i] = r.String()
		}
		fmt.Fprintf(&b, ", %s=[%s]", shard, strings.Join(ranges, " "))
	}
	b.WriteString(")")
	return b.String()
}
