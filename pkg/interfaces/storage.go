package interfaces

import "github.com/goliatone/go-sitegen/pkg/storage"

// StorageProvider preserves a stable import location for callers wiring
// artifact destinations. Implementations should satisfy pkg/storage.Provider
// directly.
type StorageProvider = storage.Provider

// Rows aliases the storage.Rows type.
type Rows = storage.Rows

// Result aliases the storage.Result type.
type Result = storage.Result
