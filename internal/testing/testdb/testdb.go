package testdb

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/migrations"
)

const (
	surrealImage = "surrealdb/surrealdb"
	surrealTag   = "v2.2.1"
	redisImage   = "redis"
	redisTag     = "7-alpine"

	// containers outlive a crashed test binary by at most this long
	containerTTL = 10 * 60
)

// TestDB is an isolated namespace on a shared SurrealDB server
type TestDB struct {
	DB        *database.SurrealDB
	Namespace string
	Database  string
	t         *testing.T
}

var (
	poolOnce sync.Once
	pool     *dockertest.Pool
	poolErr  error

	surrealOnce sync.Once
	surrealCfg  database.Config
	surrealErr  error

	redisOnce sync.Once
	redisAddr string
	redisErr  error

	counterMu sync.Mutex
	counter   int64
)

func dockerPool() (*dockertest.Pool, error) {
	poolOnce.Do(func() {
		pool, poolErr = dockertest.NewPool("")
		if poolErr != nil {
			return
		}
		pool.MaxWait = 60 * time.Second
		poolErr = pool.Client.Ping()
	})
	return pool, poolErr
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// serverConfig returns the connection settings of the shared server,
// starting a container when none is configured
func serverConfig() (database.Config, error) {
	surrealOnce.Do(func() {
		if host := os.Getenv("TEST_DB_HOST"); host != "" {
			surrealCfg = database.Config{
				Host:     host,
				Port:     envOr("TEST_DB_PORT", "8000"),
				User:     envOr("TEST_DB_USER", "root"),
				Password: envOr("TEST_DB_PASSWORD", "root"),
			}
			return
		}

		p, err := dockerPool()
		if err != nil {
			surrealErr = fmt.Errorf("docker unavailable: %w", err)
			return
		}
		resource, err := p.RunWithOptions(&dockertest.RunOptions{
			Repository: surrealImage,
			Tag:        surrealTag,
			Cmd:        []string{"start", "--user", "root", "--pass", "root", "memory"},
		}, func(config *docker.HostConfig) {
			config.AutoRemove = true
			config.RestartPolicy = docker.RestartPolicy{Name: "no"}
		})
		if err != nil {
			surrealErr = fmt.Errorf("starting surrealdb: %w", err)
			return
		}
		_ = resource.Expire(containerTTL)

		cfg := database.Config{
			Host:     "localhost",
			Port:     resource.GetPort("8000/tcp"),
			User:     "root",
			Password: "root",
		}
		surrealErr = p.Retry(func() error {
			ready := cfg
			ready.Namespace, ready.Database = "ready", "ready"
			db := database.NewSurrealDB(ready)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.Connect(ctx); err != nil {
				return err
			}
			return db.Close()
		})
		surrealCfg = cfg
	})
	return surrealCfg, surrealErr
}

func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// New creates an isolated database with the schema applied. The namespace is
// removed when the test ends.
func New(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("testdb: skipped in -short mode")
	}

	cfg, err := serverConfig()
	if err != nil {
		t.Skipf("testdb: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg.Namespace = uniqueNamespace()
	cfg.Database = "test"

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("testdb: failed to connect: %v", err)
	}

	tdb := &TestDB{DB: db, Namespace: cfg.Namespace, Database: cfg.Database, t: t}
	t.Cleanup(tdb.Close)

	if _, err := database.Migrate(ctx, db, migrations.Files); err != nil {
		t.Fatalf("testdb: migration failed: %v", err)
	}
	return tdb
}

// Close removes the namespace and closes the connection
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tdb.DB.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE IF EXISTS %s", tdb.Namespace), nil)
	_ = tdb.DB.Close()
	tdb.DB = nil
}

// Ctx returns a context bounded to the test
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustExec executes a query and fails the test on error
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}

// MustQuery executes a query and fails the test on error
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	results, err := tdb.DB.Query(tdb.Ctx(), query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query failed: %v\nQuery: %s", err, query)
	}
	return results
}

// RedisAddr returns the address of a Redis server for integration tests and
// flushes it when the test ends
func RedisAddr(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("testdb: skipped in -short mode")
	}

	redisOnce.Do(func() {
		if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
			redisAddr = addr
			return
		}
		p, err := dockerPool()
		if err != nil {
			redisErr = fmt.Errorf("docker unavailable: %w", err)
			return
		}
		resource, err := p.RunWithOptions(&dockertest.RunOptions{
			Repository: redisImage,
			Tag:        redisTag,
		}, func(config *docker.HostConfig) {
			config.AutoRemove = true
			config.RestartPolicy = docker.RestartPolicy{Name: "no"}
		})
		if err != nil {
			redisErr = fmt.Errorf("starting redis: %w", err)
			return
		}
		_ = resource.Expire(containerTTL)

		addr := net.JoinHostPort("localhost", resource.GetPort("6379/tcp"))
		redisErr = p.Retry(func() error {
			client := redis.NewClient(&redis.Options{Addr: addr})
			defer func() { _ = client.Close() }()
			return client.Ping(context.Background()).Err()
		})
		redisAddr = addr
	})
	if redisErr != nil {
		t.Skipf("testdb: %v", redisErr)
	}

	t.Cleanup(func() {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer func() { _ = client.Close() }()
		_ = client.FlushDB(context.Background()).Err()
	})
	return redisAddr
}
