package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/btree"
	"mit.edu/dsg/goshard/common"
)

// KeyPattern is the ordered list of field names a collection is sharded by.
// Duplicate field names are legal: a pattern like {_id, _id} partitions on
// one physical value used in two key positions.
type KeyPattern []string

func (kp KeyPattern) String() string {
	parts := make([]string, len(kp))
	for i, f := range kp {
		parts[i] = f + ": 1"
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Chunk is one contiguous range of the shard key space and the shard that
// owns it. Min is inclusive, Max is exclusive. Bounds are positional: the
// i-th value corresponds to the i-th field of the collection's key pattern.
type Chunk struct {
	Min   []common.Value `json:"min"`
	Max   []common.Value `json:"max"`
	Shard string         `json:"shard"`
}

func (c Chunk) String() string {
	return fmt.Sprintf("[%s, %s) -> %s", formatBound(c.Min), formatBound(c.Max), c.Shard)
}

func formatBound(bound []common.Value) string {
	parts := make([]string, len(bound))
	for i, v := range bound {
		parts[i] = v.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// compareBounds compares two chunk bounds positionally, most significant
// field first.
func compareBounds(a []common.Value, b []common.Value) int {
	common.Assert(len(a) == len(b), "comparing bounds of different arity")
	for i := range a {
		if cmp := a[i].Compare(b[i]); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// RoutingTable is an immutable snapshot of a sharded collection's chunk
// distribution: disjoint, contiguous ranges collectively covering the whole
// key space from MinKey to MaxKey, each owned by exactly one shard.
//
// The epoch identifies the distribution snapshot; two tables with the same
// epoch describe the same chunk layout.
type RoutingTable struct {
	epoch uuid.UUID
	arity int
	tree  *btree.BTreeG[Chunk]
}

// NewRoutingTable validates a chunk distribution and builds the snapshot.
// Chunks may be supplied in any order; the table keeps them sorted by range
// start. Returns InvalidRoutingTableError if the chunks do not form a
// gapless, non-overlapping cover of [MinKey, MaxKey).
func NewRoutingTable(epoch uuid.UUID, arity int, chunks []Chunk) (*RoutingTable, error) {
	if arity < 1 {
		return nil, invalidRoutingTable("key pattern must have at least one field")
	}
	if len(chunks) == 0 {
		return nil, invalidRoutingTable("routing table must have at least one chunk")
	}

	tree := btree.NewBTreeG(func(a, b Chunk) bool {
		return compareBounds(a.Min, b.Min) < 0
	})
	for _, c := range chunks {
		if len(c.Min) != arity || len(c.Max) != arity {
			return nil, invalidRoutingTable("chunk %s bounds do not match key arity %d", c, arity)
		}
		if c.Shard == "" {
			return nil, invalidRoutingTable("chunk %s has no owning shard", c)
		}
		if compareBounds(c.Min, c.Max) >= 0 {
			return nil, invalidRoutingTable("chunk %s is empty or inverted", c)
		}
		if _, replaced := tree.Set(c); replaced {
			return nil, invalidRoutingTable("two chunks start at %s", formatBound(c.Min))
		}
	}

	rt := &RoutingTable{epoch: epoch, arity: arity, tree: tree}
	if err := rt.validateCover(); err != nil {
		return nil, err
	}
	return rt, nil
}

// validateCover walks the sorted chunks once, checking that the first chunk
// starts at the global minimum, each chunk starts exactly where the previous
// one ended, and the last chunk ends at the global maximum.
func (rt *RoutingTable) validateCover() error {
	var prev *Chunk
	var err error
	rt.tree.Scan(func(c Chunk) bool {
		if prev == nil {
			if compareBounds(c.Min, rt.minBound()) != 0 {
				err = invalidRoutingTable("first chunk %s does not start at MinKey", c)
				return false
			}
		} else if cmp := compareBounds(prev.Max, c.Min); cmp != 0 {
			if cmp < 0 {
				err = invalidRoutingTable("gap between %s and %s", *prev, c)
			} else {
				err = invalidRoutingTable("overlap between %s and %s", *prev, c)
			}
			return false
		}
		cur := c
		prev = &cur
		return true
	})
	if err != nil {
		return err
	}
	if compareBounds(prev.Max, rt.maxBound()) != 0 {
		err = invalidRoutingTable("last chunk %s does not end at MaxKey", *prev)
	}
	return err
}

func (rt *RoutingTable) minBound() []common.Value {
	bound := make([]common.Value, rt.arity)
	for i := range bound {
		bound[i] = common.MinKey()
	}
	return bound
}

func (rt *RoutingTable) maxBound() []common.Value {
	bound := make([]common.Value, rt.arity)
	for i := range bound {
		bound[i] = common.MaxKey()
	}
	return bound
}

// Epoch returns the snapshot identifier of this chunk distribution.
func (rt *RoutingTable) Epoch() uuid.UUID {
	return rt.epoch
}

// Arity returns the number of fields in the shard key.
func (rt *RoutingTable) Arity() int {
	return rt.arity
}

// NumChunks returns the number of chunks.
func (rt *RoutingTable) NumChunks() int {
	return rt.tree.Len()
}

// Chunks returns the chunks in ascending range order.
func (rt *RoutingTable) Chunks() []Chunk {
	out := make([]Chunk, 0, rt.tree.Len())
	rt.tree.Scan(func(c Chunk) bool {
		out = append(out, c)
		return true
	})
	return out
}

// OwnerOf returns the shard owning the chunk that contains the given key.
// The key must have the table's arity.
func (rt *RoutingTable) OwnerOf(key []common.Value) string {
	common.Assert(len(key) == rt.arity, "key arity mismatch: got %d, want %d", len(key), rt.arity)

	// The owning chunk is the last one whose Min <= key. The cover invariant
	// guarantees such a chunk exists and that key < its Max.
	var owner string
	rt.tree.Descend(Chunk{Min: key}, func(c Chunk) bool {
		common.Assert(compareBounds(key, c.Max) < 0, "cover invariant violated at %s", c)
		owner = c.Shard
		return false
	})
	common.Assert(owner != "", "no chunk contains %s", formatBound(key))
	return owner
}

func (rt *RoutingTable) String() string {
	chunks := rt.Chunks()
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.String()
	}
	return fmt.Sprintf("RoutingTable(epoch=%s, chunks=[%s])", rt.epoch, strings.Join(parts, "; "))
}

func invalidRoutingTable(format string, args ...any) error {
	return common.GoShardError{
		Code:      common.InvalidRoutingTableError,
		ErrString: fmt.Sprintf(format, args...),
	}
}
