package storage

import "context"

// Operation names understood by artifact storage providers. Providers may
// support additional operations; these cover the publisher's needs.
const (
	OpEnsureDir = "publisher.ensure_dir"
	OpWrite     = "publisher.write"
	OpRead      = "publisher.read"
	OpRemove    = "publisher.remove"
)

// Provider encapsulates the operations required by artifact destinations.
// The string-keyed operation contract keeps providers swappable: a
// filesystem, an object store, or an in-memory recorder all satisfy it the
// same way.
type Provider interface {
	Query(ctx context.Context, op string, args ...any) (Rows, error)
	Exec(ctx context.Context, op string, args ...any) (Result, error)
}

// Rows iterates results returned by Query operations.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// Result reports the outcome of Exec operations.
type Result interface {
	RowsAffected() (int64, error)
}
