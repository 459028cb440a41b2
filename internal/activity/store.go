package activity

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
)

// Backend names accepted by OpenStore.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// StoreConfig selects and configures a Store backend.
type StoreConfig struct {
	Backend string
	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string
	Postgres   PostgresConfig
	// FirestoreProject is the GCP project of the firestore backend.
	FirestoreProject string
	FirestoreOptions []option.ClientOption
}

// OpenStore opens the configured backend.
func OpenStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "execassist.db"
		}
		return OpenSQLite(ctx, path)
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.Postgres)
	case BackendFirestore:
		return OpenFirestore(ctx, cfg.FirestoreProject, cfg.FirestoreOptions...)
	default:
		return nil, fmt.Errorf("unknown activity store backend %q", cfg.Backend)
	}
}
