package exchange

import (
	"context"

	"mit.edu/dsg/goshard/catalog"
	"mit.edu/dsg/goshard/common"
	"mit.edu/dsg/goshard/pipeline"
)

// PartitionResolver is the single metadata question the planner asks of the
// sharding catalog. *catalog.Catalog satisfies it.
type PartitionResolver interface {
	ResolvePartitionInfo(ctx context.Context, ns common.Namespace) (*catalog.PartitionInfo, error)
}

// CheckIfEligibleForExchange decides whether the merge half of an
// aggregation that writes to a sharded collection can bypass the single
// merging node: if the destination shard key is provably reachable from data
// available at the split point, every partial result can be routed directly
// to the shard that will own it.
//
// A nil spec with a nil error is the ordinary negative answer and is
// expected for many pipelines. The only error this function produces itself
// is NamespaceNotFound, when the write target's database does not exist;
// catalog faults propagate untranslated.
//
// The pipeline is read-only to this call, and the catalog is consulted
// exactly once; the returned spec is computed against that one snapshot.
func CheckIfEligibleForExchange(ctx context.Context, mergePipe *pipeline.Pipeline, resolver PartitionResolver) (*Spec, error) {
	stages := mergePipe.Stages()
	if len(stages) == 0 {
		return nil, nil
	}
	out, endsInOut := stages[len(stages)-1].(*pipeline.OutStage)
	if !endsInOut {
		return nil, nil
	}
	if out.Mode() != pipeline.WriteModeInsert {
		// Replacing a collection recreates it unsharded; there is no routing
		// table to exchange against until the write completes.
		return nil, nil
	}

	info, err := resolver.ResolvePartitionInfo(ctx, out.Target())
	if err != nil {
		return nil, err
	}
	if !info.Exists {
		// The $out will create a new, unsharded collection itself.
		return nil, nil
	}
	if !info.Sharded {
		return nil, nil
	}

	mergeStages := stages[:len(stages)-1]
	if needsSingleMerger(mergeStages) {
		return nil, nil
	}

	keyPattern, ok := walkBackwardsTrackingShardKey(mergeStages, info.KeyPattern)
	if !ok {
		return nil, nil
	}
	return buildSpec(keyPattern, info.Routing), nil
}

// needsSingleMerger reports whether any stage forces every candidate
// document onto one node before it can run. A global $limit or $skip must
// see the full converged stream to know what to cut.
func needsSingleMerger(stages []pipeline.Stage) bool {
	for _, s := range stages {
		switch s.(type) {
		case *pipeline.LimitStage, *pipeline.SkipStage:
			return true
		}
	}
	return false
}

// buildSpec translates the destination's chunk table into the split-point
// name space. The translation is purely positional: boundary values carry
// over unchanged (renaming a field never changes where its value sorts), and
// the resolved key pattern supplies the names. Chunks arrive in ascending
// range order, so each shard's range list is ordered for free.
func buildSpec(keyPattern catalog.KeyPattern, routing *catalog.RoutingTable) *Spec {
	partitions := make(map[string][]Range)
	for _, chunk := range routing.Chunks() {
		partitions[chunk.Shard] = append(partitions[chunk.Shard], Range{
			Min: chunk.Min,
			Max: chunk.Max,
		})
	}
	return &Spec{
		Policy:     PolicyRange,
		KeyPattern: keyPattern,
		Epoch:      routing.Epoch(),
		Partitions: partitions,
	}
}
