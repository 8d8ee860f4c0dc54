package exchange

import (
	"strings"

	"mit.edu/dsg/goshard/catalog"
	"mit.edu/dsg/goshard/pipeline"
)

// walkBackwardsTrackingShardKey traces each destination shard key field
// backwards through the merge stages to the split point, proving at every
// step that the field's value survives unchanged under a different (or the
// same) name. The walk carries one pending name per key field, in
// destination key order; duplicates are traced independently and preserved.
//
// The fold is all-or-nothing: the first field whose provenance cannot be
// proven a pure rename kills the whole attempt. A field we cannot prove
// could be an array or a computed value, and partitioning on it would
// silently misroute documents.
func walkBackwardsTrackingShardKey(stages []pipeline.Stage, shardKey catalog.KeyPattern) (catalog.KeyPattern, bool) {
	pending := make(catalog.KeyPattern, len(shardKey))
	copy(pending, shardKey)

	for i := len(stages) - 1; i >= 0; i-- {
		switch s := stages[i].(type) {
		case *pipeline.MatchStage, *pipeline.SortStage:
			// Filtering and reordering never move a field.
		case *pipeline.ProjectionStage:
			if !traceThroughProjection(s, pending) {
				return nil, false
			}
		case *pipeline.GroupStage:
			if s.DoingMerge() {
				// Split point: the inputs are per-shard partial groups that
				// already carry the final "_id" value, so pending names are
				// checked against the key shape but kept unchanged. Nothing
				// earlier than the merging group is in scope.
				if !checkMergingGroupKey(s, pending) {
					return nil, false
				}
				return pending, true
			}
			// A non-merging group runs wholly on the merging node; the
			// exchange would sit in front of it, so the key resolves through
			// its key expression and the walk continues.
			if !traceThroughGroup(s, pending) {
				return nil, false
			}
		default:
			// Unknown stages may restructure documents arbitrarily.
			return nil, false
		}
	}
	// No merging group: the split point is the front of the pipeline.
	return pending, true
}

// traceThroughProjection maps every pending name across one $project or
// $addFields stage, from the stage's output name space to its input name
// space.
func traceThroughProjection(stage *pipeline.ProjectionStage, pending catalog.KeyPattern) bool {
	for i, name := range pending {
		if strings.Contains(name, ".") {
			// The stage could reshape the parent of a nested field; proving
			// the sub-path survives is beyond syntactic rename tracking.
			return false
		}
		expr, defined := stage.ExprFor(name)
		if !defined {
			if stage.PreservesUnreferenced() || name == "_id" {
				// $addFields passes unreferenced fields through, and an
				// inclusion $project keeps "_id" unless told otherwise.
				continue
			}
			return false
		}
		ref, isRef := expr.(*pipeline.FieldRef)
		if !isRef || !ref.IsTopLevel() {
			// A constant, a computed expression, or a dotted reference like
			// '$_id.country' is not a provable rename: the referent's parent
			// could be an array, and the "rename" would then do far more
			// than move a value.
			return false
		}
		pending[i] = ref.Path()
	}
	return true
}

// checkMergingGroupKey validates that every pending field is an output of
// the merging group's key, with a key shape simple enough to prove. Pending
// names are not rewritten; see walkBackwardsTrackingShardKey.
func checkMergingGroupKey(stage *pipeline.GroupStage, pending catalog.KeyPattern) bool {
	for _, name := range pending {
		if _, ok := groupKeyReferent(stage.Key(), name); !ok {
			return false
		}
	}
	return true
}

// traceThroughGroup resolves every pending field through a non-merging
// group's key expression to the field it references in the group's input.
func traceThroughGroup(stage *pipeline.GroupStage, pending catalog.KeyPattern) bool {
	for i, name := range pending {
		referent, ok := groupKeyReferent(stage.Key(), name)
		if !ok {
			return false
		}
		pending[i] = referent
	}
	return true
}

// groupKeyReferent resolves one group output field name against the group's
// key expression. "_id" resolves through a single-field key reference;
// "_id.<sub>" resolves through a document key's named sub-reference. Any
// other name is an accumulator output, and any other key shape (a literal,
// a computed expression, a dotted reference) is unprovable.
func groupKeyReferent(key pipeline.GroupKey, name string) (string, bool) {
	if name == "_id" {
		k, ok := key.(*pipeline.FieldGroupKey)
		if !ok || !k.Ref().IsTopLevel() {
			return "", false
		}
		return k.Ref().Path(), true
	}
	if sub, isSub := strings.CutPrefix(name, "_id."); isSub {
		doc, isDoc := key.(*pipeline.DocumentGroupKey)
		if !isDoc || strings.Contains(sub, ".") {
			return "", false
		}
		expr, defined := doc.SubKey(sub)
		if !defined {
			return "", false
		}
		ref, isRef := expr.(*pipeline.FieldRef)
		if !isRef || !ref.IsTopLevel() {
			return "", false
		}
		return ref.Path(), true
	}
	return "", false
}
