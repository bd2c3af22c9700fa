package app

import (
	"database/sql"
	"errors"
	"fmt"

	automationDomain "github.com/felixgeelhaar/cadence/internal/automations/domain"
	automationPersistence "github.com/felixgeelhaar/cadence/internal/automations/infrastructure/persistence"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/felixgeelhaar/cadence/internal/productivity/infrastructure/persistence"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ErrBackendUnavailable is returned when a store needs a connection the factory does not hold.
var ErrBackendUnavailable = errors.New("storage backend not connected")

// RepositoryFactory creates repositories for the connected database backend.
type RepositoryFactory struct {
	driver   database.Driver
	sqliteDB *sql.DB
	pool     *pgxpool.Pool
	redis    redis.Cmdable
}

// NewSQLiteRepositoryFactory creates a factory backed by a SQLite database.
func NewSQLiteRepositoryFactory(db *sql.DB) *RepositoryFactory {
	return &RepositoryFactory{driver: database.DriverSQLite, sqliteDB: db}
}

// NewPostgresRepositoryFactory creates a factory backed by a PostgreSQL pool.
func NewPostgresRepositoryFactory(pool *pgxpool.Pool) *RepositoryFactory {
	return &RepositoryFactory{driver: database.DriverPostgres, pool: pool}
}

// WithRedis makes the redis run store available.
func (f *RepositoryFactory) WithRedis(client redis.Cmdable) *RepositoryFactory {
	f.redis = client
	return f
}

// Driver returns the database driver the factory was built for.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// TaskRepository creates a task repository for the configured driver.
func (f *RepositoryFactory) TaskRepository() task.Repository {
	if f.driver == database.DriverPostgres {
		return persistence.NewPostgresTaskRepository(f.pool)
	}
	return persistence.NewSQLiteTaskRepository(f.sqliteDB)
}

// RunStore creates the automation run store named by kind.
func (f *RepositoryFactory) RunStore(kind string) (automationDomain.RunStore, error) {
	switch kind {
	case config.RunStoreMemory:
		return automationPersistence.NewMemoryRunStore(automationPersistence.DefaultRunCapacity), nil
	case config.RunStoreSQLite:
		if f.sqliteDB == nil {
			return nil, fmt.Errorf("%w: sqlite run store needs a SQLite database", ErrBackendUnavailable)
		}
		return automationPersistence.NewSQLiteRunStore(f.sqliteDB), nil
	case config.RunStorePostgres:
		if f.pool == nil {
			return nil, fmt.Errorf("%w: postgres run store needs a PostgreSQL database", ErrBackendUnavailable)
		}
		return automationPersistence.NewPostgresRunStore(f.pool), nil
	case config.RunStoreRedis:
		if f.redis == nil {
			return nil, fmt.Errorf("%w: redis run store needs a Redis client", ErrBackendUnavailable)
		}
		return automationPersistence.NewRedisRunStore(f.redis, automationPersistence.DefaultRunsKey, automationPersistence.DefaultRunCapacity), nil
	default:
		return nil, fmt.Errorf("unknown run store %q", kind)
	}
}
