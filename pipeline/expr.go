package pipeline

import (
	"fmt"
	"strings"

	"mit.edu/dsg/goshard/common"
)

// FieldExpr classifies how an output field of a projection-like stage (or a
// group key) derives its value. The exchange planner only ever needs one
// capability from an expression: "is this a pure rename, and of what?". The
// closed set below captures exactly that, so callers can type-switch instead
// of walking a full expression tree.
type FieldExpr interface {
	// String returns a string representation of the expression.
	String() string

	fieldExpr()
}

// FieldRef reads another field's value unchanged, like '$word' or
// '$_id.country'. Only a top-level reference is a provable pure rename; a
// dotted reference reaches into a larger structure and may not preserve the
// value's identity (the parent could be an array).
type FieldRef struct {
	path string
}

func NewFieldRef(path string) *FieldRef {
	common.Assert(path != "", "empty field reference")
	return &FieldRef{path: path}
}

// Path returns the referenced field path without the leading '$'.
func (e *FieldRef) Path() string {
	return e.path
}

// IsTopLevel returns true if the reference names a whole top-level field
// rather than a sub-path of one.
func (e *FieldRef) IsTopLevel() bool {
	return !strings.Contains(e.path, ".")
}

func (e *FieldRef) String() string {
	return "$" + e.path
}

func (e *FieldRef) fieldExpr() {}

// ConstantExpr yields the same value for every input document.
type ConstantExpr struct {
	val common.Value
}

func NewConstantExpr(val common.Value) *ConstantExpr {
	return &ConstantExpr{val: val}
}

func (e *ConstantExpr) Value() common.Value {
	return e.val
}

func (e *ConstantExpr) String() string {
	return e.val.String()
}

func (e *ConstantExpr) fieldExpr() {}

// ComputedExpr is any expression the planner does not model: arithmetic,
// accumulators, conditionals, array operators. It is opaque; tracing a
// shard key through one always fails.
type ComputedExpr struct {
	repr string
}

func NewComputedExpr(repr string) *ComputedExpr {
	return &ComputedExpr{repr: repr}
}

func (e *ComputedExpr) String() string {
	return e.repr
}

func (e *ComputedExpr) fieldExpr() {}

// GroupKey is the shape of a group stage's key expression, narrowed to the
// three cases the planner distinguishes: a single field reference, a
// document of named sub-keys, or anything else.
type GroupKey interface {
	String() string

	groupKey()
}

// FieldGroupKey groups by one referenced field: {_id: '$x'}.
type FieldGroupKey struct {
	ref *FieldRef
}

func NewFieldGroupKey(ref *FieldRef) *FieldGroupKey {
	return &FieldGroupKey{ref: ref}
}

func (k *FieldGroupKey) Ref() *FieldRef {
	return k.ref
}

func (k *FieldGroupKey) String() string {
	return k.ref.String()
}

func (k *FieldGroupKey) groupKey() {}

// DocumentGroupKey groups by a compound document key:
// {_id: {region: '$region', country: '$country'}}. Sub-key order is
// preserved for display but lookups are by name.
type DocumentGroupKey struct {
	order  []string
	fields map[string]FieldExpr
}

func NewDocumentGroupKey(fields ...ProjectedField) *DocumentGroupKey {
	k := &DocumentGroupKey{
		order:  make([]string, 0, len(fields)),
		fields: make(map[string]FieldExpr, len(fields)),
	}
	for _, f := range fields {
		common.Assert(f.Expr != nil, "nil expression for sub-key '%s'", f.Name)
		if _, dup := k.fields[f.Name]; dup {
			panic(fmt.Sprintf("duplicate sub-key '%s' in group key", f.Name))
		}
		k.order = append(k.order, f.Name)
		k.fields[f.Name] = f.Expr
	}
	return k
}

// SubKey returns the expression for a named sub-key, if present.
func (k *DocumentGroupKey) SubKey(name string) (FieldExpr, bool) {
	expr, ok := k.fields[name]
	return expr, ok
}

func (k *DocumentGroupKey) String() string {
	parts := make([]string, len(k.order))
	for i, name := range k.order {
		parts[i] = fmt.Sprintf("%s: %s", name, k.fields[name].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (k *DocumentGroupKey) groupKey() {}

// ExprGroupKey is a group key of any other shape: a literal constant or a
// computed expression. The planner never partitions on one.
type ExprGroupKey struct {
	expr FieldExpr
}

func NewExprGroupKey(expr FieldExpr) *ExprGroupKey {
	return &ExprGroupKey{expr: expr}
}

func (k *ExprGroupKey) String() string {
	return k.expr.String()
}

func (k *ExprGroupKey) groupKey() {}
