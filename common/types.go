package common

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Type int8

const (
	// For uninitialized Values
	DefaultType Type = iota
	MinKeyType
	NullType
	IntType
	StringType
	MaxKeyType
)

func (t Type) String() string {
	switch t {
	case MinKeyType:
		return "minKey"
	case NullType:
		return "null"
	case IntType:
		return "int"
	case StringType:
		return "string"
	case MaxKeyType:
		return "maxKey"
	}
	return "unknown"
}

// Value represents a single shard key component: either a concrete datum
// (int or string) or one of the key-space sentinels.
//
// Values have a total order across types, mirroring the canonical sort order
// of the source documents: MinKey < null < ints < strings < MaxKey. Chunk
// boundaries rely on this cross-type ordering; the minimum chunk of a routing
// table starts at MinKey and the maximum chunk ends at MaxKey regardless of
// the concrete type the collection actually stores in the key field.
//
// Values are immutable and safe to copy; renaming the field that holds a
// value never changes where the value sorts.
type Value struct {
	t             Type
	underlyingInt int64
	underlyingStr string
}

// MinKey returns the sentinel that sorts before every possible value.
func MinKey() Value {
	return Value{t: MinKeyType}
}

// MaxKey returns the sentinel that sorts after every possible value.
func MaxKey() Value {
	return Value{t: MaxKeyType}
}

// NewNullValue creates a null Value. Null is a real, storable datum here
// (a group key of a constant null produces it), not an absence marker.
func NewNullValue() Value {
	return Value{t: NullType}
}

// NewIntValue creates a new integer Value.
func NewIntValue(v int64) Value {
	return Value{t: IntType, underlyingInt: v}
}

// NewStringValue creates a new string Value.
func NewStringValue(v string) Value {
	return Value{t: StringType, underlyingStr: v}
}

// IsNil returns true if the Value is uninitialized.
func (v Value) IsNil() bool {
	return v.t == DefaultType
}

// Type returns the type of the Value.
func (v Value) Type() Type {
	return v.t
}

// IntValue returns the underlying integer.
func (v Value) IntValue() int64 {
	Assert(v.t == IntType, "type mismatch in IntValue")
	return v.underlyingInt
}

// StringValue returns the underlying string.
func (v Value) StringValue() string {
	Assert(v.t == StringType, "type mismatch in StringValue")
	return v.underlyingStr
}

// typeRank orders the types themselves: sentinels bracket all concrete data.
func (t Type) typeRank() int {
	switch t {
	case MinKeyType:
		return 0
	case NullType:
		return 1
	case IntType:
		return 2
	case StringType:
		return 3
	case MaxKeyType:
		return 4
	}
	panic("comparing uninitialized value")
}

// Compare compares two Values.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
// Values of different types compare by type rank (MinKey < null < int < string < MaxKey).
func (v Value) Compare(other Value) int {
	if r1, r2 := v.t.typeRank(), other.t.typeRank(); r1 != r2 {
		if r1 < r2 {
			return -1
		}
		return 1
	}

	switch v.t {
	case MinKeyType, NullType, MaxKeyType:
		return 0
	case IntType:
		if v.underlyingInt < other.underlyingInt {
			return -1
		}
		if v.underlyingInt > other.underlyingInt {
			return 1
		}
		return 0
	case StringType:
		if v.underlyingStr < other.underlyingStr {
			return -1
		}
		if v.underlyingStr > other.underlyingStr {
			return 1
		}
		return 0
	}
	panic("unreachable")
}

func (v Value) String() string {
	switch v.t {
	case MinKeyType:
		return "MinKey"
	case NullType:
		return "null"
	case IntType:
		return strconv.FormatInt(v.underlyingInt, 10)
	case StringType:
		return fmt.Sprintf("%q", v.underlyingStr)
	case MaxKeyType:
		return "MaxKey"
	}
	return "<nil>"
}

// Sentinels follow the extended-JSON convention so that persisted routing
// tables round-trip unambiguously: {"$minKey":1} and {"$maxKey":1}.
var (
	minKeyJSON = []byte(`{"$minKey":1}`)
	maxKeyJSON = []byte(`{"$maxKey":1}`)
	nullJSON   = []byte(`null`)
)

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.t {
	case MinKeyType:
		return minKeyJSON, nil
	case NullType:
		return nullJSON, nil
	case IntType:
		return json.Marshal(v.underlyingInt)
	case StringType:
		return json.Marshal(v.underlyingStr)
	case MaxKeyType:
		return maxKeyJSON, nil
	}
	return nil, fmt.Errorf("cannot marshal uninitialized value")
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = NewNullValue()
	case float64:
		*v = NewIntValue(int64(x))
	case string:
		*v = NewStringValue(x)
	case map[string]any:
		if _, ok := x["$minKey"]; ok {
			*v = MinKey()
			return nil
		}
		if _, ok := x["$maxKey"]; ok {
			*v = MaxKey()
			return nil
		}
		return fmt.Errorf("unrecognized value object: %s", string(data))
	default:
		return fmt.Errorf("unsupported value literal: %s", string(data))
	}
	return nil
}
