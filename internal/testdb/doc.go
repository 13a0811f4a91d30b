//go:build integration

// Package testdb provides transaction-isolated database access for
// integration tests.
//
// Each test runs in its own transaction, which is rolled back when the test
// completes, so tests can run in parallel against one database:
//
//	func TestFlashcardStore(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        cards := postgres.NewPostgresFlashcardStore(tx, nil)
//	        ...
//	    })
//	}
//
// Tests are skipped when DATABASE_URL is not set.
package testdb
