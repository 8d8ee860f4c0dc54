package common

import "fmt"

// Namespace identifies a collection by its containing database and its
// collection name, e.g. "unittests.cluster_exchange".
type Namespace struct {
	DB         string `json:"db"`
	Collection string `json:"collection"`
}

func NewNamespace(db string, collection string) Namespace {
	return Namespace{DB: db, Collection: collection}
}

func (ns Namespace) String() string {
	return fmt.Sprintf("%s.%s", ns.DB, ns.Collection)
}

// IsEmpty returns true if the namespace has no database or collection part.
func (ns Namespace) IsEmpty() bool {
	return ns.DB == "" || ns.Collection == ""
}
