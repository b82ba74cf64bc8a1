// Package testdb provides real backing services for integration tests.
//
// New returns a SurrealDB connection in a fresh namespace with the schema
// applied. When TEST_DB_HOST is unset a SurrealDB container is started once
// per test binary with ory/dockertest; tests are skipped when Docker is not
// reachable.
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewUserRepository(tdb.DB)
//	    ...
//	}
//
// RedisAddr does the same for Redis, honouring TEST_REDIS_ADDR.
package testdb
