package goshard

import (
	"context"
	"os"

	"mit.edu/dsg/goshard/catalog"
	"mit.edu/dsg/goshard/common"
	"mit.edu/dsg/goshard/exchange"
	"mit.edu/dsg/goshard/pipeline"
)

// GoShard is the top-level container for the cluster planning layer: the
// sharding catalog plus the exchange planner that consults it.
type GoShard struct {
	Catalog  *catalog.Catalog
	Provider catalog.PersistenceProvider
}

// NewGoShard opens (or initializes) a catalog persisted under catalogDir.
func NewGoShard(catalogDir string) (*GoShard, error) {
	if err := os.MkdirAll(catalogDir, 0755); err != nil {
		return nil, err
	}

	provider := catalog.NewDiskCatalogManager(catalogDir)
	cat, err := catalog.NewCatalog(provider)
	if err != nil {
		return nil, err
	}

	return &GoShard{
		Catalog:  cat,
		Provider: provider,
	}, nil
}

// NewEphemeralGoShard creates a cluster whose catalog lives only in memory.
func NewEphemeralGoShard() *GoShard {
	provider := catalog.NewMemCatalogManager()
	cat, err := catalog.NewCatalog(provider)
	common.Assert(err == nil, "empty in-memory catalog cannot fail to load: %v", err)

	return &GoShard{
		Catalog:  cat,
		Provider: provider,
	}
}

// CheckIfEligibleForExchange plans an exchange for the given merge pipeline
// against this cluster's catalog. See exchange.CheckIfEligibleForExchange.
func (g *GoShard) CheckIfEligibleForExchange(ctx context.Context, mergePipe *pipeline.Pipeline) (*exchange.Spec, error) {
	return exchange.CheckIfEligibleForExchange(ctx, mergePipe, g.Catalog)
}
