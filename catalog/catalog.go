package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"mit.edu/dsg/goshard/common"
)

// Catalog is the cluster's sharding metadata service: which databases and
// collections exist, which collections are sharded, by what key pattern, and
// how their chunks are distributed across shards.
//
// For simplicity, the catalog is serialized as a single JSON blob. In a
// production cluster this metadata lives on a dedicated config server
// replica set and every lookup is a network round trip; here the round trip
// collapses to a map access, but the call shape (context-aware, snapshot
// semantics) is preserved so callers are written against the real contract.
//
// Resolution answers are point-in-time snapshots: a caller holding a
// *PartitionInfo keeps seeing the chunk distribution it resolved, even if a
// concurrent DDL operation reshapes the catalog afterwards. Each routing
// table carries an epoch identifying its snapshot.
type Catalog struct {
	mu sync.Mutex // guards catalogState and dbMap across DDL

	catalogState

	// In-memory structures for fast lookups
	dbMap map[string]*Database

	// resolved caches immutable per-namespace resolution snapshots. DDL on a
	// namespace invalidates its entry; readers never block on the DDL lock.
	resolved *xsync.MapOf[string, *PartitionInfo]
}

// Collection is the per-collection metadata record. Unsharded collections
// carry no key pattern and no chunks.
type Collection struct {
	Name       string     `json:"name"`
	Sharded    bool       `json:"sharded"`
	KeyPattern KeyPattern `json:"key_pattern,omitempty"`
	Epoch      uuid.UUID  `json:"epoch,omitempty"`
	Chunks     []Chunk    `json:"chunks,omitempty"`

	routing *RoutingTable
}

// Database groups collections under a database name.
type Database struct {
	Name        string        `json:"name"`
	Collections []*Collection `json:"collections"`

	collMap map[string]*Collection
}

// PartitionInfo is the planner-facing answer for one namespace: whether the
// collection exists, whether it is sharded, and if so its key pattern and
// chunk distribution. The struct is immutable once returned.
type PartitionInfo struct {
	Exists     bool
	Sharded    bool
	KeyPattern KeyPattern
	Routing    *RoutingTable
}

// PersistenceProvider abstracts how the catalog is saved to and loaded from disk.
type PersistenceProvider interface {
	LoadCatalogState() (json string, err error)
	SaveCatalogState(json string) error
}

type catalogState struct {
	Databases []*Database `json:"databases"`
}

func (c *Catalog) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, _ := json.MarshalIndent(&c.catalogState, "", "  ")
	return string(b)
}

func (c *Catalog) toJSON() (string, error) {
	b, err := json.MarshalIndent(&c.catalogState, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Catalog) fromJSON(jsonData string) error {
	if err := json.Unmarshal([]byte(jsonData), &c.catalogState); err != nil {
		return err
	}
	for _, db := range c.Databases {
		db.collMap = make(map[string]*Collection)
		c.dbMap[db.Name] = db
		for _, coll := range db.Collections {
			if coll.Sharded {
				routing, err := NewRoutingTable(coll.Epoch, len(coll.KeyPattern), coll.Chunks)
				if err != nil {
					return fmt.Errorf("collection %s.%s: %w", db.Name, coll.Name, err)
				}
				coll.routing = routing
			}
			db.collMap[coll.Name] = coll
		}
	}
	return nil
}

// NewCatalog initializes a catalog. It attempts to load existing state
// from the provider; if no state exists, it starts with an empty cluster.
func NewCatalog(provider PersistenceProvider) (*Catalog, error) {
	result := &Catalog{
		catalogState: catalogState{
			Databases: make([]*Database, 0),
		},
		dbMap:    make(map[string]*Database),
		resolved: xsync.NewMapOf[string, *PartitionInfo](),
	}

	jsonData, err := provider.LoadCatalogState()
	if errors.Is(err, os.ErrNotExist) {
		// Start from scratch
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	if err = result.fromJSON(jsonData); err != nil {
		// Parsing errors are fatal system errors, usually indicating corruption
		return nil, fmt.Errorf("failed to parse catalog state: %v", err)
	}

	return result, nil
}

// persist serializes the current state through the provider.
// Must be called with c.mu held.
func (c *Catalog) persist(provider PersistenceProvider) error {
	jsonData, err := c.toJSON()
	if err != nil {
		return err
	}
	return provider.SaveCatalogState(jsonData)
}

// CreateDatabase registers a new, empty database. If a database with that
// name already exists, it returns DuplicateNamespaceError.
func (c *Catalog) CreateDatabase(name string, provider PersistenceProvider) (*Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.dbMap[name]; exists {
		return nil, common.GoShardError{
			Code:      common.DuplicateNamespaceError,
			ErrString: fmt.Sprintf("database '%s' already exists", name),
		}
	}

	db := &Database{
		Name:        name,
		Collections: make([]*Collection, 0),
		collMap:     make(map[string]*Collection),
	}
	c.Databases = append(c.Databases, db)
	c.dbMap[name] = db

	return db, c.persist(provider)
}

// CreateCollection registers a new, unsharded collection. The containing
// database must already exist.
func (c *Catalog) CreateCollection(ns common.Namespace, provider PersistenceProvider) (*Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	db, err := c.lookupDatabase(ns.DB)
	if err != nil {
		return nil, err
	}
	if _, exists := db.collMap[ns.Collection]; exists {
		return nil, common.GoShardError{
			Code:      common.DuplicateNamespaceError,
			ErrString: fmt.Sprintf("collection '%s' already exists", ns),
		}
	}

	coll := &Collection{Name: ns.Collection}
	db.Collections = append(db.Collections, coll)
	db.collMap[ns.Collection] = coll
	c.resolved.Delete(ns.String())

	return coll, c.persist(provider)
}

// ShardCollection attaches a shard key pattern and a validated chunk
// distribution to an existing unsharded collection, stamping a fresh epoch.
func (c *Catalog) ShardCollection(ns common.Namespace, keyPattern KeyPattern, chunks []Chunk, provider PersistenceProvider) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	coll, err := c.lookupCollection(ns)
	if err != nil {
		return err
	}
	if coll.Sharded {
		return common.GoShardError{
			Code:      common.DuplicateNamespaceError,
			ErrString: fmt.Sprintf("collection '%s' is already sharded", ns),
		}
	}

	epoch := uuid.New()
	routing, err := NewRoutingTable(epoch, len(keyPattern), chunks)
	if err != nil {
		return err
	}

	coll.Sharded = true
	coll.KeyPattern = keyPattern
	coll.Epoch = epoch
	coll.Chunks = routing.Chunks()
	coll.routing = routing
	c.resolved.Delete(ns.String())

	return c.persist(provider)
}

// DropCollection removes a collection from its database.
func (c *Catalog) DropCollection(ns common.Namespace, provider PersistenceProvider) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	db, err := c.lookupDatabase(ns.DB)
	if err != nil {
		return err
	}
	if _, exists := db.collMap[ns.Collection]; !exists {
		return common.GoShardError{
			Code:      common.NamespaceNotFound,
			ErrString: fmt.Sprintf("collection '%s' does not exist", ns),
		}
	}

	delete(db.collMap, ns.Collection)
	for i, coll := range db.Collections {
		if coll.Name == ns.Collection {
			db.Collections = append(db.Collections[:i], db.Collections[i+1:]...)
			break
		}
	}
	c.resolved.Delete(ns.String())

	return c.persist(provider)
}

// DropDatabase removes a database and all its collections.
func (c *Catalog) DropDatabase(name string, provider PersistenceProvider) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.lookupDatabase(name); err != nil {
		return err
	}

	delete(c.dbMap, name)
	for i, db := range c.Databases {
		if db.Name == name {
			c.Databases = append(c.Databases[:i], c.Databases[i+1:]...)
			break
		}
	}
	// Every cached namespace under this database is stale now.
	c.resolved.Range(func(key string, _ *PartitionInfo) bool {
		c.resolved.Delete(key)
		return true
	})

	return c.persist(provider)
}

// ResolvePartitionInfo answers the planner's single metadata question for a
// namespace. A missing database is a NamespaceNotFound error (the reference
// itself is broken); a missing collection inside an existing database is a
// normal answer with Exists=false, since a subsequent write is free to
// create the collection.
//
// The lookup is the planner's only suspension point; it honors context
// cancellation the way a real config server round trip would.
func (c *Catalog) ResolvePartitionInfo(ctx context.Context, ns common.Namespace) (*PartitionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if info, ok := c.resolved.Load(ns.String()); ok {
		return info, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	db, exists := c.dbMap[ns.DB]
	if !exists {
		return nil, common.GoShardError{
			Code:      common.NamespaceNotFound,
			ErrString: fmt.Sprintf("database '%s' does not exist", ns.DB),
		}
	}

	coll, exists := db.collMap[ns.Collection]
	if !exists {
		// Not cached: the collection may be created at any moment.
		return &PartitionInfo{Exists: false}, nil
	}

	info := &PartitionInfo{
		Exists:     true,
		Sharded:    coll.Sharded,
		KeyPattern: coll.KeyPattern,
		Routing:    coll.routing,
	}
	c.resolved.Store(ns.String(), info)
	return info, nil
}

func (c *Catalog) lookupDatabase(name string) (*Database, error) {
	db, exists := c.dbMap[name]
	if !exists {
		return nil, common.GoShardError{
			Code:      common.NamespaceNotFound,
			ErrString: fmt.Sprintf("database '%s' does not exist", name),
		}
	}
	return db, nil
}

func (c *Catalog) lookupCollection(ns common.Namespace) (*Collection, error) {
	db, err := c.lookupDatabase(ns.DB)
	if err != nil {
		return nil, err
	}
	coll, exists := db.collMap[ns.Collection]
	if !exists {
		return nil, common.GoShardError{
			Code:      common.NamespaceNotFound,
			ErrString: fmt.Sprintf("collection '%s' does not exist", ns),
		}
	}
	return coll, nil
}

const CatalogFileName = "catalog.json"

type DiskCatalogManager struct {
	rootPath string
}

func NewDiskCatalogManager(rootPath string) *DiskCatalogManager {
	return &DiskCatalogManager{
		rootPath: rootPath,
	}
}

// LoadCatalogState implements the catalog.PersistenceProvider interface.
func (dcm *DiskCatalogManager) LoadCatalogState() (string, error) {
	path := filepath.Join(dcm.rootPath, CatalogFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err // Let the caller (Catalog) handle os.ErrNotExist
	}
	return string(content), nil
}

// SaveCatalogState implements the catalog.PersistenceProvider interface.
func (dcm *DiskCatalogManager) SaveCatalogState(jsonData string) error {
	// Write to a temporary file and rename for an atomic replace.
	tmpPath := filepath.Join(dcm.rootPath, CatalogFileName+".tmp")
	finalPath := filepath.Join(dcm.rootPath, CatalogFileName)

	if err := os.WriteFile(tmpPath, []byte(jsonData), 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, finalPath)
}

// MemCatalogManager is an in-memory PersistenceProvider for tests and
// ephemeral clusters.
type MemCatalogManager struct {
	state  string
	loaded bool
}

func NewMemCatalogManager() *MemCatalogManager {
	return &MemCatalogManager{}
}

// LoadCatalogState implements the catalog.PersistenceProvider interface.
func (m *MemCatalogManager) LoadCatalogState() (string, error) {
	if !m.loaded {
		return "", os.ErrNotExist
	}
	return m.state, nil
}

// SaveCatalogState implements the catalog.PersistenceProvider interface.
func (m *MemCatalogManager) SaveCatalogState(jsonData string) error {
	m.state = jsonData
	m.loaded = true
	return nil
}
