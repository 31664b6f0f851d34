// Package store provides the key-document persistence contract the sync
// service writes through. Documents are addressed by slash-separated
// collection paths (sellers/{id}, sellers/{id}/products/{id}, ...).
package store

import "context"

// Document is a flat JSON object as stored in a collection
type Document map[string]interface{}

// Keyed pairs a document with its path
type Keyed struct {
	Path string
	Doc  Document
}

// OpKind is a batch operation type
type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
)

// Op is one mutation inside an atomic batch
type Op struct {
	Kind OpKind
	Path string
	Doc  Document
}

// SetOp builds a set operation
func SetOp(path string, doc Document) Op {
	return Op{Kind: OpSet, Path: path, Doc: doc}
}

// DeleteOp builds a delete operation
func DeleteOp(path string) Op {
	return Op{Kind: OpDelete, Path: path}
}

// Batch is applied all-or-nothing
type Batch []Op

// SnapshotFunc receives the latest full result set for a watched prefix,
// not a diff. Consumers diff client-side if they need "what's new".
type SnapshotFunc func(snapshot []Keyed)

// CancelFunc deregisters a watch subscription
type CancelFunc func()

// Store is the document store contract
type Store interface {
	Get(ctx context.Context, path string) (Document, error)
	Set(ctx context.Context, path string, doc Document) error
	Delete(ctx context.Context, path string) error
	// List returns all documents under the prefix, ordered by path
	List(ctx context.Context, prefix string) ([]Keyed, error)
	// Apply runs the batch atomically
	Apply(ctx context.Context, batch Batch) error
	// Watch subscribes fn to changes under prefix. fn is invoked with the
	// full current snapshot after every write touching the prefix.
	Watch(prefix string, fn SnapshotFunc) CancelFunc
}
