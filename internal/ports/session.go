// Package ports defines interfaces (hexagonal ports) between the HTTP
// layer, services and storage adapters.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.
package ports

import (
	"context"

	"github.com/target/courseshop/internal/domain/session"
)

// SessionStore persists session records keyed by id.
// Get returns session.ErrNotFound for unknown or expired ids.
type SessionStore interface {
	Get(ctx context.Context, id string) (session.Record, error)
	Save(ctx context.Context, rec session.Record) error
	Delete(ctx context.Context, id string) error
}

// SessionCleaner is implemented by stores without native expiry.
type SessionCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// Pinger checks backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
