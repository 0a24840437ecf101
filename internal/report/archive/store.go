// internal/report/archive/store.go
package archive

import (
	"context"
	"fmt"
	"path"
)

// Store is the backend for archived run reports. Keys are
// forward-slash paths relative to the store root.
type Store interface {
	// Put stores data at the given key.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves data from the given key.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys matching the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks whether data exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the data at the given key.
	Delete(ctx context.Context, key string) error
}

// Key builds the archive key for a run report:
// reports/<YYYY>/<MM>/<DD>/<runID>.csv. One key per run; re-archiving
// the same run overwrites.
func Key(year int, month int, day int, runID string) string {
	return path.Join("reports",
		fmt.Sprintf("%04d/%02d/%02d", year, month, day),
		runID+".csv")
}
