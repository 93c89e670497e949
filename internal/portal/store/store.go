package store

import (
	"context"

	"github.com/carematch360/portal/pkg/gateway"
)

// Driver names accepted by PORTAL_STORE_DRIVER.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Store is a durable session persister. Concrete drivers (memory, sqlite,
// redis) implement this. Get must return gateway.ErrNoRecord for a missing
// key.
type Store interface {
	gateway.Persister

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
