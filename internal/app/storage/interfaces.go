package storage

import (
	"context"

	"github.com/R3E-Network/heroapps/internal/app/domain/apps"
)

// AppStore reads records from the apps collection.
type AppStore interface {
	// FindApps returns the records matching q.Filter sorted by q.Sort, skipping
	// q.Skip records and returning at most q.Limit, projected to q.Fields.
	FindApps(ctx context.Context, q apps.ListQuery) ([]apps.App, error)
	// CountApps counts the records matching f regardless of any pagination.
	CountApps(ctx context.Context, f apps.Filter) (int64, error)
	// FindAppByID returns the whole stored document, or apps.ErrNotFound when
	// no record has the identifier.
	FindAppByID(ctx context.Context, id string) (apps.App, error)
}

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is the full contract of a storage driver used by the runtime.
type Store interface {
	AppStore
	Pinger
	Close(ctx context.Context) error
}
