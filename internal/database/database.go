// Package database provides the database abstraction layer for EventUp.
//
// The Database interface hides SurrealDB behind three query methods:
//   - Query: every statement result (lists, multi-statement scripts)
//   - QueryOne: the first record of the first statement (lookups by ID)
//   - Execute: mutations where only the error matters
//
// # Transactions
//
// Transactions are BATCH-BASED. BeginTx and AtomicBatch accumulate
// statements and send them wrapped in BEGIN/COMMIT TRANSACTION at commit
// time, so every statement succeeds or fails together. There is no
// isolation between Add calls.
//
// # Errors
//
//	if errors.Is(err, database.ErrNotFound) {
//	    // Handle missing record
//	}
//
// # Schema
//
// Table definitions and unique indexes live in migrations/*.surql and are
// applied in file order by Migrate.
package database

import (
	"context"
	"errors"
	"time"
)

// Standard errors for database operations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique index violation (duplicate email,
	// second application to the same event, repeated review).
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure.
	ErrQuery = errors.New("query error")

	// ErrConflict indicates a conditional update matched no record because
	// the record was changed concurrently.
	ErrConflict = errors.New("record changed concurrently")
)

// Database defines the interface for database operations
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns one entry per statement
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns the first record of the first statement
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results
	Execute(ctx context.Context, query string, vars map[string]interface{}) error

	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction collects statements that are committed together
type Transaction interface {
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
	Commit() error
	Rollback() error
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
	// Secure selects wss:// instead of ws://
	Secure bool
	// ConnectTimeout bounds Connect; zero means 10s
	ConnectTimeout time.Duration
}
